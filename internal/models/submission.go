package models

import (
	"strings"
	"time"
)

// SubmissionRecord is one persisted ledger entry: the application fields,
// the decision, and the contact-preference state. Records are keyed by
// lower-cased email; at most one record per key is active inside the
// cooldown window.
type SubmissionRecord struct {
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	LoanAmount       float64    `json:"loan_amount"`
	CreditScore      int        `json:"credit_score"`
	AnnualIncome     float64    `json:"annual_income"`
	HasBankruptcy    bool       `json:"has_bankruptcy"`
	Decision         Decision   `json:"decision"`
	ContactRequested *bool      `json:"contact_requested"`
	Timestamp        time.Time  `json:"timestamp"`
	ContactTimestamp *time.Time `json:"contact_timestamp,omitempty"`
}

// Key returns the case-insensitive ledger key for the record.
func (r SubmissionRecord) Key() string {
	return strings.ToLower(r.Email)
}

// AgeDays reports the record age in whole days relative to now.
func (r SubmissionRecord) AgeDays(now time.Time) int {
	return int(now.Sub(r.Timestamp).Hours() / 24)
}

// NewSubmissionRecord builds the record persisted for a completed run.
// ContactRequested starts unset until the applicant states a preference.
func NewSubmissionRecord(app Application, decision Decision, now time.Time) SubmissionRecord {
	return SubmissionRecord{
		Name:          app.Name,
		Email:         app.Email,
		LoanAmount:    app.LoanAmount,
		CreditScore:   app.CreditScore,
		AnnualIncome:  app.AnnualIncome,
		HasBankruptcy: app.HasBankruptcy,
		Decision:      decision,
		Timestamp:     now,
	}
}
