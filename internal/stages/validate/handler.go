// internal/stages/validate/handler.go
package validate

import (
	"context"
	"fmt"

	"loanflow/internal/common/logger"
	"loanflow/internal/models"
)

const (
	TaskType = "validate-application-data"
)

type Handler struct {
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute checks the raw payload for completeness and correctness and binds
// it to a typed application. Validation failures are a business outcome
// reported in the Output, never an error return.
func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	app := input.Application
	var errs []string

	for _, field := range models.RequiredFields {
		if v, ok := app[field]; !ok || v == nil {
			errs = append(errs, fmt.Sprintf("Missing required field: %s", field))
		}
	}

	creditScore := intValue(app["credit_score"])
	if creditScore < 300 || creditScore > 850 {
		errs = append(errs, "Credit score must be between 300 and 850")
	}

	if floatValue(app["loan_amount"]) <= 0 {
		errs = append(errs, "Loan amount must be greater than $0")
	}

	if floatValue(app["annual_income"]) <= 0 {
		errs = append(errs, "Annual income must be greater than $0")
	}

	h.logger.Info("validation completed", map[string]interface{}{
		"email":      stringValue(app["email"]),
		"valid":      len(errs) == 0,
		"errorCount": len(errs),
	})

	if len(errs) > 0 {
		return &Output{Valid: false, Errors: errs}, nil
	}

	return &Output{
		Valid: true,
		Application: models.Application{
			Name:          stringValue(app["name"]),
			Email:         stringValue(app["email"]),
			LoanAmount:    floatValue(app["loan_amount"]),
			CreditScore:   creditScore,
			AnnualIncome:  floatValue(app["annual_income"]),
			HasBankruptcy: boolValue(app["has_bankruptcy"]),
		},
	}, nil
}

// JSON decoding yields float64 for every number; the int and float forms
// also appear when callers build payloads in process.
func floatValue(raw interface{}) float64 {
	switch v := raw.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func intValue(raw interface{}) int {
	return int(floatValue(raw))
}

func stringValue(raw interface{}) string {
	if s, ok := raw.(string); ok {
		return s
	}
	return ""
}

func boolValue(raw interface{}) bool {
	if b, ok := raw.(bool); ok {
		return b
	}
	return false
}
