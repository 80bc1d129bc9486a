// internal/stages/contact/handler.go
package contact

import (
	"context"

	"loanflow/internal/common/logger"
	"loanflow/internal/ledger"
)

const (
	TaskType = "update-contact-preference"
)

type Handler struct {
	ledger *ledger.Ledger
	logger logger.Logger
}

func NewHandler(config *Config, led *ledger.Ledger, log logger.Logger) *Handler {
	return &Handler{
		ledger: led,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute stamps the stated preference on the applicant's newest record.
// An unknown email is not an error; Updated reports whether a record
// changed.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	updated, err := h.ledger.UpdateContact(ctx, input.Email, input.Preference)
	if err != nil {
		return nil, err
	}

	h.logger.Info("contact preference updated", map[string]interface{}{
		"email":      input.Email,
		"preference": input.Preference,
		"updated":    updated,
	})

	return &Output{Updated: updated}, nil
}
