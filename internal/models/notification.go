package models

// AgentNotification is the payload dispatched to the agent desk when an
// application needs manual review.
type AgentNotification struct {
	Type           string   `json:"type"`
	ApplicantEmail string   `json:"applicant_email"`
	ApplicantName  string   `json:"applicant_name"`
	Decision       Decision `json:"decision"`
	LoanAmount     float64  `json:"loan_amount"`
	CreditScore    int      `json:"credit_score"`
	Timestamp      string   `json:"timestamp"`
}

// Notification types
const (
	NotificationTypeAgentReview = "agent_review_required"
)

// Dispatch statuses
const (
	NotificationStatusSent     = "sent"
	NotificationStatusFailed   = "failed"
	NotificationStatusDisabled = "disabled"
)
