// internal/stages/dupcheck/handler.go
package dupcheck

import (
	"context"

	"loanflow/internal/common/logger"
	"loanflow/internal/ledger"
)

const (
	TaskType = "check-duplicate-submission"
)

type Handler struct {
	guard  *ledger.DuplicateGuard
	logger logger.Logger
}

func NewHandler(config *Config, guard *ledger.DuplicateGuard, log logger.Logger) *Handler {
	return &Handler{
		guard:  guard,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute asks the guard for a cooldown verdict. A duplicate is a business
// outcome; only ledger read failures surface as errors.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	check, err := h.guard.Check(ctx, input.Email)
	if err != nil {
		return nil, err
	}

	h.logger.Info("duplicate check completed", map[string]interface{}{
		"email":         input.Email,
		"isDuplicate":   check.IsDuplicate,
		"daysRemaining": check.DaysRemaining,
	})

	return &Output{
		IsDuplicate:   check.IsDuplicate,
		DaysRemaining: check.DaysRemaining,
		Existing:      check.Existing,
	}, nil
}
