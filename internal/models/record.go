// internal/models/record.go
package models

// Field names for the three-section application form.
const (
	// Section 1: personal
	FieldName        = "name"
	FieldNationalID  = "nationalId"
	FieldDateOfBirth = "dateOfBirth"
	FieldGender      = "gender"
	FieldAddress     = "address"
	FieldCity        = "city"
	FieldState       = "state"
	FieldCountry     = "country"
	FieldPhone       = "phone"
	FieldEmail       = "email"

	// Section 2: family & financial
	FieldMaritalStatus    = "maritalStatus"
	FieldDependents       = "dependents"
	FieldEmploymentStatus = "employmentStatus"
	FieldMonthlyIncome    = "monthlyIncome"
	FieldHousingStatus    = "housingStatus"

	// Section 3: situation description
	FieldFinancialSituation      = "financialSituation"
	FieldEmploymentCircumstances = "employmentCircumstances"
	FieldReasonForApplying       = "reasonForApplying"
)

// DefaultCountry is pre-filled into fresh records.
const DefaultCountry = "ARE"

// DefaultDraftKey is the fixed storage key used when no session-scoped key is
// supplied.
const DefaultDraftKey = "social-support-application"

// Field lists per section, in validation order. Full-record validation walks
// these in sequence so the first reported error is deterministic.
var (
	PersonalFields = []string{
		FieldName,
		FieldNationalID,
		FieldDateOfBirth,
		FieldGender,
		FieldAddress,
		FieldCity,
		FieldState,
		FieldCountry,
		FieldPhone,
		FieldEmail,
	}

	FinancialFields = []string{
		FieldMaritalStatus,
		FieldDependents,
		FieldEmploymentStatus,
		FieldMonthlyIncome,
		FieldHousingStatus,
	}

	NarrativeFields = []string{
		FieldFinancialSituation,
		FieldEmploymentCircumstances,
		FieldReasonForApplying,
	}
)

// Enum literals.
var (
	GenderValues           = []string{"male", "female"}
	MaritalStatusValues    = []string{"single", "married", "divorced"}
	EmploymentStatusValues = []string{"employed", "unemployed", "self-employed", "retired", "student"}
	HousingStatusValues    = []string{"owner", "renting", "with_family", "homeless", "other"}
)

// Record is the application being built: a single mapping from field name to
// value. Partial records are permitted while editing.
type Record map[string]interface{}

// DefaultRecord returns a fresh record supplying only the default country.
func DefaultRecord() Record {
	return Record{FieldCountry: DefaultCountry}
}

// AllFields returns every known field in validation order.
func AllFields() []string {
	out := make([]string, 0, len(PersonalFields)+len(FinancialFields)+len(NarrativeFields))
	out = append(out, PersonalFields...)
	out = append(out, FinancialFields...)
	out = append(out, NarrativeFields...)
	return out
}

// IsKnownField reports whether field belongs to any section.
func IsKnownField(field string) bool {
	for _, f := range AllFields() {
		if f == field {
			return true
		}
	}
	return false
}

// IsNarrativeField reports whether field is one of the three free-text fields
// eligible for suggestions.
func IsNarrativeField(field string) bool {
	for _, f := range NarrativeFields {
		if f == field {
			return true
		}
	}
	return false
}

// Clone returns a shallow copy. Field values are scalars, so a shallow copy is
// a full copy in practice.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge overwrites fields from values into the record.
func (r Record) Merge(values map[string]interface{}) {
	for k, v := range values {
		r[k] = v
	}
}

// StringField returns the field coerced to string, "" when absent or not a
// string.
func (r Record) StringField(field string) string {
	if v, ok := r[field].(string); ok {
		return v
	}
	return ""
}

// ContextSnapshot returns a read-only copy of the non-narrative (Section 1+2)
// values, used to enrich suggestion generation.
func (r Record) ContextSnapshot() map[string]interface{} {
	snapshot := make(map[string]interface{}, len(PersonalFields)+len(FinancialFields))
	for _, f := range PersonalFields {
		if v, ok := r[f]; ok {
			snapshot[f] = v
		}
	}
	for _, f := range FinancialFields {
		if v, ok := r[f]; ok {
			snapshot[f] = v
		}
	}
	return snapshot
}
