// internal/stages/persist/models.go
package persist

import "loanflow/internal/models"

type Input struct {
	Application models.Application `json:"application"`
	Decision    models.Decision    `json:"decision"`
}

type Output struct {
	Saved        bool   `json:"saved"`
	SubmissionID string `json:"submission_id"`
}
