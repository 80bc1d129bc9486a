// internal/stages/format/models.go
package format

import "loanflow/internal/models"

type Input struct {
	Decision    models.Decision    `json:"decision"`
	Application models.Application `json:"application"`
}

type Output struct {
	Message models.DecisionMessage `json:"message"`
}
