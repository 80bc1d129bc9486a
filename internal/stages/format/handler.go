// internal/stages/format/handler.go
package format

import (
	"context"
	"fmt"
	"strings"

	stderrors "loanflow/internal/common/errors"
	"loanflow/internal/common/logger"
	"loanflow/internal/models"
	"loanflow/pkg/registry"
)

const (
	TaskType = "format-decision-message"

	amountPlaceholder = "${loan_amount}"
)

type Handler struct {
	registry *registry.MessageRegistry
	logger   logger.Logger
}

func NewHandler(config *Config, reg *registry.MessageRegistry, log logger.Logger) *Handler {
	return &Handler{
		registry: reg,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute renders the applicant-facing message for a decision. Unknown
// decision codes use the denied template.
func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	tpl := h.registry.Decision(string(input.Decision))
	if tpl.Title == "" && tpl.Message == "" {
		return nil, stderrors.NewTemplateNotFoundError(string(input.Decision))
	}

	message := strings.ReplaceAll(tpl.Message, amountPlaceholder, FormatAmount(input.Application.LoanAmount))

	h.logger.Info("decision message formatted", map[string]interface{}{
		"email":    input.Application.Email,
		"decision": string(input.Decision),
	})

	return &Output{Message: models.DecisionMessage{
		Decision:  input.Decision,
		Title:     tpl.Title,
		Message:   message,
		NextSteps: tpl.NextSteps,
	}}, nil
}

// FormatAmount renders a dollar amount with thousands separators and two
// decimals, e.g. 50000 becomes "$50,000.00".
func FormatAmount(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	s := fmt.Sprintf("%.2f", amount)
	dot := strings.IndexByte(s, '.')
	intPart, fracPart := s[:dot], s[dot:]

	var b strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return sign + "$" + b.String() + fracPart
}
