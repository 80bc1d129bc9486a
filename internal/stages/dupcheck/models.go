// internal/stages/dupcheck/models.go
package dupcheck

import "loanflow/internal/models"

type Input struct {
	Email string `json:"email"`
}

type Output struct {
	IsDuplicate   bool                     `json:"is_duplicate"`
	DaysRemaining int                      `json:"days_remaining,omitempty"`
	Existing      *models.SubmissionRecord `json:"existing_submission,omitempty"`
}
