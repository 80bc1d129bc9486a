// internal/stages/decide/models.go
package decide

import "loanflow/internal/models"

type Input struct {
	Application models.Application `json:"application"`
}

type Output struct {
	Decision          models.Decision `json:"decision"`
	LoanToIncomeRatio float64         `json:"loan_to_income_ratio"`
	CreditScore       int             `json:"credit_score"`
}
