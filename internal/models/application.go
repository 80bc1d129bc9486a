package models

import "strings"

// Application holds the applicant-submitted facts for one workflow run.
// It is built by the request boundary, frozen by the validation stage and
// consumed read-only by every later stage.
type Application struct {
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	LoanAmount    float64 `json:"loan_amount"`
	CreditScore   int     `json:"credit_score"`
	AnnualIncome  float64 `json:"annual_income"`
	HasBankruptcy bool    `json:"has_bankruptcy"`
}

// Key returns the ledger identity key for the applicant. Emails are matched
// case-insensitively while the original casing is preserved for display.
func (a Application) Key() string {
	return strings.ToLower(a.Email)
}

// RequiredFields lists the six required application attributes in
// declaration order. The validation stage reports missing-field errors in
// exactly this order.
var RequiredFields = []string{
	"name",
	"email",
	"loan_amount",
	"credit_score",
	"annual_income",
	"has_bankruptcy",
}
