// pkg/registry/schema.go
package registry

// FormRegistry describes the form sections served to rendering clients: field
// lists in order plus a JSON schema per section for client-side checks.
type FormRegistry struct {
	Version     string    `json:"version"`
	LastUpdated string    `json:"lastUpdated"`
	Sections    []Section `json:"sections"`
}

type Section struct {
	ID          int                    `json:"id"`
	Name        string                 `json:"name"`
	Title       string                 `json:"title"`
	Description string                 `json:"description,omitempty"`
	Fields      []string               `json:"fields"`
	Schema      map[string]interface{} `json:"schema"`
}
