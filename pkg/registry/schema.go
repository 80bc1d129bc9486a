// pkg/registry/schema.go
package registry

// MessageRegistry holds the applicant-facing copy for every decision code
// and for the contact-preference follow-up. It is loaded once at startup
// from messages.json.
type MessageRegistry struct {
	Version           string                      `json:"version"`
	Decisions         map[string]DecisionTemplate `json:"decisions"`
	ContactPreference map[string]ContactTemplate  `json:"contact_preference"`
}

type DecisionTemplate struct {
	Title     string   `json:"title"`
	Message   string   `json:"message"`
	NextSteps []string `json:"next_steps"`
}

type ContactTemplate struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}
