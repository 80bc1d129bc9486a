// internal/stages/persist/handler.go
package persist

import (
	"context"

	"loanflow/internal/common/logger"
	"loanflow/internal/ledger"
)

const (
	TaskType = "save-application"
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	result, err := h.ledger.Upsert(ctx, input.Application, input.Decision)
	if err != nil {
		return nil, err
	}

	h.logger.Info("application saved", map[string]interface{}{
		"email":    input.Application.Email,
		"decision": string(input.Decision),
	})

	return &Output{Saved: result.Saved, SubmissionID: result.Key}, nil
}
