// internal/stages/validate/models.go
package validate

import "loanflow/internal/models"

type Input struct {
	Application map[string]interface{} `json:"application"`
}

// Output carries the gate verdict. When Valid is false the Errors list is
// complete (every failed check, not just the first) and Application is the
// zero value.
type Output struct {
	Valid       bool               `json:"valid"`
	Errors      []string           `json:"errors"`
	Application models.Application `json:"application"`
}
