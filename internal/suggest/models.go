// internal/suggest/models.go
package suggest

import "time"

// Request is the suggestion service payload: the targeted narrative field, the
// user's current text, and a read-only snapshot of the non-narrative sections.
type Request struct {
	Field        string                 `json:"field"`
	CurrentValue string                 `json:"currentValue"`
	PersonalInfo map[string]interface{} `json:"personalInfo"`
	Locale       string                 `json:"locale,omitempty"`
}

// Response is the suggestion service reply. Error carries the service-side
// failure payload when Suggestion is empty.
type Response struct {
	Suggestion string `json:"suggestion"`
	Error      string `json:"error,omitempty"`
}

type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	Locale     string
}
