// internal/schema/registry.go

// Package schema builds validators for each form section and for the full
// record. Validators are pure: each call constructs a fresh Validator bound to
// the given translator, and Validate never mutates the candidate record.
package schema

import (
	"encoding/json"
	"regexp"
	"time"
	"unicode/utf8"

	"application-wizard/internal/i18n"
	"application-wizard/internal/models"
)

// SectionID identifies one of the three ordered form sections.
type SectionID int

const (
	SectionPersonal SectionID = iota + 1
	SectionFinancial
	SectionSituation
)

const SectionCount = 3

func (s SectionID) String() string {
	switch s {
	case SectionPersonal:
		return "personal"
	case SectionFinancial:
		return "financial"
	case SectionSituation:
		return "situation"
	default:
		return "unknown"
	}
}

// Valid reports whether s is a real section.
func (s SectionID) Valid() bool {
	return s >= SectionPersonal && s <= SectionSituation
}

// FieldError is the first offending field of a failed validation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result reports validity plus the first failing field in declared order.
type Result struct {
	Valid      bool        `json:"valid"`
	FirstError *FieldError `json:"firstError,omitempty"`
}

// Validator checks an ordered list of fields against their rules.
type Validator struct {
	fields []string
	t      i18n.Translator
}

// SectionFields returns the fields of a section in validation order.
func SectionFields(id SectionID) []string {
	switch id {
	case SectionPersonal:
		return models.PersonalFields
	case SectionFinancial:
		return models.FinancialFields
	case SectionSituation:
		return models.NarrativeFields
	default:
		return nil
	}
}

// Section returns a fresh validator for one section bound to t.
func Section(id SectionID, t i18n.Translator) *Validator {
	return &Validator{fields: SectionFields(id), t: ensure(t)}
}

// Full returns a fresh validator over the union of all section fields,
// ordered section 1, then 2, then 3.
func Full(t i18n.Translator) *Validator {
	return &Validator{fields: models.AllFields(), t: ensure(t)}
}

func ensure(t i18n.Translator) i18n.Translator {
	if t == nil {
		return i18n.Default()
	}
	return t
}

// Validate checks the validator's fields in order and stops at the first
// failure. Missing fields fail their rule like empty values do.
func (v *Validator) Validate(record models.Record) Result {
	for _, field := range v.fields {
		rule, ok := rules[field]
		if !ok {
			continue
		}
		value, present := record[field]
		if key := rule(value, present); key != "" {
			return Result{
				Valid:      false,
				FirstError: &FieldError{Field: field, Message: v.t(key)},
			}
		}
	}
	return Result{Valid: true}
}

// A rule returns the message key of the violation, or "" when satisfied.
type rule func(value interface{}, present bool) string

var (
	nationalIDRegex = regexp.MustCompile(`^\d{15}$`)
	emailRegex      = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

var rules = map[string]rule{
	models.FieldName:        minLength(2, "validation.nameRequired"),
	models.FieldNationalID:  pattern(nationalIDRegex, "validation.nationalIdInvalid"),
	models.FieldDateOfBirth: dateNotInFuture("validation.dobInvalid"),
	models.FieldGender:      enum(models.GenderValues, "validation.genderRequired"),
	models.FieldAddress:     minLength(5, "validation.addressRequired"),
	models.FieldCity:        minLength(2, "validation.cityRequired"),
	models.FieldState:       minLength(2, "validation.stateRequired"),
	models.FieldCountry:     minLength(2, "validation.countryRequired"),
	models.FieldPhone:       minLength(8, "validation.phoneRequired"),
	models.FieldEmail:       pattern(emailRegex, "validation.emailInvalid"),

	models.FieldMaritalStatus:    enum(models.MaritalStatusValues, "validation.maritalStatusRequired"),
	models.FieldDependents:       nonNegativeNumber("validation.dependentRequired"),
	models.FieldEmploymentStatus: enum(models.EmploymentStatusValues, "validation.employmentStatusRequired"),
	models.FieldMonthlyIncome:    nonNegativeNumber("validation.incomeRequired"),
	models.FieldHousingStatus:    enum(models.HousingStatusValues, "validation.housingStatusRequired"),

	models.FieldFinancialSituation:      minLength(50, "validation.financialSituationRequired"),
	models.FieldEmploymentCircumstances: minLength(50, "validation.employmentCircumstancesRequired"),
	models.FieldReasonForApplying:       minLength(50, "validation.reasonRequired"),
}

// minLength counts characters, not bytes. Arabic input is the norm here and a
// byte count would halve every minimum for it.
func minLength(n int, key string) rule {
	return func(value interface{}, present bool) string {
		s, ok := value.(string)
		if !present || !ok || utf8.RuneCountInString(s) < n {
			return key
		}
		return ""
	}
}

func pattern(re *regexp.Regexp, key string) rule {
	return func(value interface{}, present bool) string {
		s, ok := value.(string)
		if !present || !ok || !re.MatchString(s) {
			return key
		}
		return ""
	}
}

func enum(allowed []string, key string) rule {
	return func(value interface{}, present bool) string {
		s, ok := value.(string)
		if !present || !ok {
			return key
		}
		for _, a := range allowed {
			if s == a {
				return ""
			}
		}
		return key
	}
}

// dateNotInFuture accepts a date string that parses to a valid calendar date
// no later than the current date.
func dateNotInFuture(key string) rule {
	return func(value interface{}, present bool) string {
		s, ok := value.(string)
		if !present || !ok {
			return key
		}
		parsed, err := parseDate(s)
		if err != nil {
			return key
		}
		if parsed.After(time.Now()) {
			return key
		}
		return ""
	}
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// nonNegativeNumber accepts numeric values >= 0. JSON decoding produces
// float64; direct callers may pass Go ints or json.Number.
func nonNegativeNumber(key string) rule {
	return func(value interface{}, present bool) string {
		if !present {
			return key
		}
		n, ok := toFloat(value)
		if !ok || n < 0 {
			return key
		}
		return ""
	}
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
