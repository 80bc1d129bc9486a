// internal/stages/decide/handler.go
package decide

import (
	"context"
	"math"

	"loanflow/internal/common/logger"
	"loanflow/internal/models"
)

const (
	TaskType = "evaluate-credit-decision"

	// Thresholds for the rule set below.
	excellentCreditScore = 720
	moderateCreditScore  = 680
	standardRatioLimit   = 0.4
	moderateRatioLimit   = 0.5
)

type Handler struct {
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	decision, ratio := Evaluate(input.Application)

	h.logger.Info("credit decision evaluated", map[string]interface{}{
		"email":        input.Application.Email,
		"decision":     string(decision),
		"loanToIncome": ratio,
	})

	return &Output{
		Decision:          decision,
		LoanToIncomeRatio: math.Round(ratio*100) / 100,
		CreditScore:       input.Application.CreditScore,
	}, nil
}

// Evaluate applies the credit rule set in order; the first matching rule
// decides and anything unmatched is denied. A non-positive income yields an
// infinite ratio, which no approval rule accepts.
func Evaluate(app models.Application) (models.Decision, float64) {
	ratio := math.Inf(1)
	if app.AnnualIncome > 0 {
		ratio = app.LoanAmount / app.AnnualIncome
	}

	switch {
	case app.CreditScore >= excellentCreditScore && !app.HasBankruptcy && ratio <= standardRatioLimit:
		return models.DecisionPreApproved, ratio
	case app.CreditScore >= excellentCreditScore && app.HasBankruptcy:
		return models.DecisionConditional, ratio
	case app.CreditScore >= excellentCreditScore && ratio > standardRatioLimit:
		return models.DecisionConditional, ratio
	case app.CreditScore >= moderateCreditScore && app.CreditScore < excellentCreditScore && ratio <= moderateRatioLimit:
		return models.DecisionConditional, ratio
	default:
		return models.DecisionDenied, ratio
	}
}
