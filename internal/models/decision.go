package models

// Decision is the credit decision category for an application.
type Decision string

const (
	DecisionPreApproved Decision = "pre_approved"
	DecisionConditional Decision = "conditional"
	DecisionDenied      Decision = "denied"
)

// ValidationResult carries the outcome of the validation stage. Business
// rule failures are data, not errors: the run still completes.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// DecisionMessage is the user-facing rendering of a decision, produced by
// the format stage from the message registry.
type DecisionMessage struct {
	Decision  Decision `json:"decision"`
	Title     string   `json:"title"`
	Message   string   `json:"message"`
	NextSteps []string `json:"next_steps"`
}
