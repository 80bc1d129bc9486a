// internal/stages/decide/handler_test.go
package decide

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanflow/internal/common/logger"
	"loanflow/internal/models"
)

func TestEvaluate_Scenarios(t *testing.T) {
	cases := []struct {
		name        string
		creditScore int
		loanAmount  float64
		income      float64
		bankruptcy  bool
		expected    models.Decision
	}{
		{"excellent credit low ratio", 750, 50000, 150000, false, models.DecisionPreApproved},
		{"excellent credit high ratio", 750, 100000, 80000, false, models.DecisionConditional},
		{"excellent credit with bankruptcy", 750, 50000, 150000, true, models.DecisionConditional},
		{"moderate credit acceptable ratio", 690, 30000, 70000, false, models.DecisionConditional},
		{"low credit", 650, 50000, 60000, false, models.DecisionDenied},
		{"exactly excellent boundary", 720, 40000, 100000, false, models.DecisionPreApproved},
		{"exactly moderate boundary", 680, 50000, 100000, false, models.DecisionConditional},
		{"just below moderate boundary", 679, 50000, 100000, false, models.DecisionDenied},
		{"moderate credit ratio too high", 690, 60000, 100000, false, models.DecisionDenied},
		{"ratio exactly at standard limit", 750, 40000, 100000, false, models.DecisionPreApproved},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision, _ := Evaluate(models.Application{
				Email:         "test@example.com",
				LoanAmount:    tc.loanAmount,
				CreditScore:   tc.creditScore,
				AnnualIncome:  tc.income,
				HasBankruptcy: tc.bankruptcy,
			})
			assert.Equal(t, tc.expected, decision)
		})
	}
}

func TestEvaluate_ZeroIncomeIsInfiniteRatio(t *testing.T) {
	decision, ratio := Evaluate(models.Application{
		CreditScore: 800,
		LoanAmount:  10000,
	})

	assert.True(t, math.IsInf(ratio, 1))
	assert.Equal(t, models.DecisionConditional, decision, "excellent credit with infinite ratio falls to the high-ratio rule")
}

func TestExecute_RoundsReportedRatio(t *testing.T) {
	h := NewHandler(LoadConfig(), logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{Application: models.Application{
		Email:        "test@example.com",
		LoanAmount:   33333,
		CreditScore:  750,
		AnnualIncome: 100000,
	}})
	require.NoError(t, err)

	assert.Equal(t, models.DecisionPreApproved, out.Decision)
	assert.Equal(t, 0.33, out.LoanToIncomeRatio)
	assert.Equal(t, 750, out.CreditScore)
}
