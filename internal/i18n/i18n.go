// Package i18n supplies the message lookup injected into the schema registry.
// Lookup failures degrade only message text, never validation behavior.
package i18n

// Translator maps a message key to a display string.
type Translator func(key string) string

// New returns a Translator over catalog. Missing keys echo the key itself so a
// sparse catalog still yields a usable, if untranslated, message.
func New(catalog map[string]string) Translator {
	return func(key string) string {
		if msg, ok := catalog[key]; ok {
			return msg
		}
		return key
	}
}

// defaultCatalog mirrors the validation message keys of the form frontend.
var defaultCatalog = map[string]string{
	"validation.nameRequired":                    "Name must be at least 2 characters",
	"validation.nationalIdInvalid":               "National ID should be 15 digits (no hyphens)",
	"validation.dobInvalid":                      "Date of birth cannot be in the future",
	"validation.genderRequired":                  "Please select a gender",
	"validation.addressRequired":                 "Address must be at least 5 characters",
	"validation.cityRequired":                    "City must be at least 2 characters",
	"validation.stateRequired":                   "State must be at least 2 characters",
	"validation.countryRequired":                 "Country must be at least 2 characters",
	"validation.phoneRequired":                   "Phone must be at least 8 characters",
	"validation.emailInvalid":                    "Invalid email address",
	"validation.maritalStatusRequired":           "Please select a marital status",
	"validation.dependentRequired":               "Dependents must be zero or more",
	"validation.employmentStatusRequired":        "Please select an employment status",
	"validation.incomeRequired":                  "Monthly income must be zero or more",
	"validation.housingStatusRequired":           "Please select a housing status",
	"validation.financialSituationRequired":      "Please describe your financial situation in at least 50 characters",
	"validation.employmentCircumstancesRequired": "Please describe your employment circumstances in at least 50 characters",
	"validation.reasonRequired":                  "Please describe your reason for applying in at least 50 characters",
}

// Default returns the English fallback Translator.
func Default() Translator {
	return New(defaultCatalog)
}
