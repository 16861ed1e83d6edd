// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"
)

// Registry is a loaded form descriptor with two compiled schemas: a partial
// one for field patches (every known field typed, nothing required) and a full
// one for complete records (all section constraints and required lists).
type Registry struct {
	Form    *FormRegistry
	partial *gojsonschema.Schema
	full    *gojsonschema.Schema
}

func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var form FormRegistry
	if err := json.Unmarshal(data, &form); err != nil {
		return nil, fmt.Errorf("parse form registry: %w", err)
	}

	partial, err := compilePartialSchema(&form)
	if err != nil {
		return nil, err
	}

	full, err := compileFullSchema(&form)
	if err != nil {
		return nil, err
	}

	return &Registry{Form: &form, partial: partial, full: full}, nil
}

// compilePartialSchema merges every section's properties into one object
// schema used to type-check field patches. Only the "type" keyword is kept:
// length, pattern and enum constraints belong to section validation, not to
// incremental edits, which carry half-typed values.
func compilePartialSchema(form *FormRegistry) (*gojsonschema.Schema, error) {
	properties := map[string]interface{}{}
	for _, section := range form.Sections {
		props, ok := section.Schema["properties"].(map[string]interface{})
		if !ok {
			continue
		}
		for name, prop := range props {
			typed := map[string]interface{}{}
			if def, ok := prop.(map[string]interface{}); ok {
				if fieldType, ok := def["type"]; ok {
					typed["type"] = fieldType
				}
			}
			properties[name] = typed
		}
	}

	combined := map[string]interface{}{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(combined))
	if err != nil {
		return nil, fmt.Errorf("compile form schema: %w", err)
	}
	return schema, nil
}

// compileFullSchema conjoins every section schema unchanged, so a complete
// record must satisfy all constraints and required lists at once.
func compileFullSchema(form *FormRegistry) (*gojsonschema.Schema, error) {
	sections := make([]interface{}, 0, len(form.Sections))
	for _, section := range form.Sections {
		sections = append(sections, section.Schema)
	}

	combined := map[string]interface{}{
		"type":  "object",
		"allOf": sections,
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(combined))
	if err != nil {
		return nil, fmt.Errorf("compile full form schema: %w", err)
	}
	return schema, nil
}

// Section returns the descriptor for one section ID, nil when absent.
func (r *Registry) Section(id int) *Section {
	for i := range r.Form.Sections {
		if r.Form.Sections[i].ID == id {
			return &r.Form.Sections[i]
		}
	}
	return nil
}

// ValidatePatch type-checks a partial field payload against the combined
// schema. Unknown fields and wrong-typed values are rejected. Missing fields
// are not: drafts are allowed to be partial.
func (r *Registry) ValidatePatch(payload map[string]interface{}) error {
	result, err := r.partial.Validate(gojsonschema.NewGoLoader(payload))
	if err != nil {
		return fmt.Errorf("validate payload: %w", err)
	}
	if !result.Valid() {
		first := result.Errors()[0]
		return fmt.Errorf("%s: %s", first.Field(), first.Description())
	}
	return nil
}

// ValidateRecord checks a complete record against the conjoined section
// schemas, constraints and required lists included.
func (r *Registry) ValidateRecord(payload map[string]interface{}) error {
	result, err := r.full.Validate(gojsonschema.NewGoLoader(payload))
	if err != nil {
		return fmt.Errorf("validate record: %w", err)
	}
	if !result.Valid() {
		first := result.Errors()[0]
		return fmt.Errorf("%s: %s", first.Field(), first.Description())
	}
	return nil
}
