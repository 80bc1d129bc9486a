// internal/workflow/contactpreference.go
package workflow

import (
	"context"

	"github.com/google/uuid"

	"loanflow/internal/common/logger"
	"loanflow/internal/common/metrics"
	"loanflow/internal/retry"
	"loanflow/internal/stages/contact"
	"loanflow/internal/steprunner"
)

const WorkflowContactPreference = "contact-preference"

// ContactResult is the outcome of a contact preference run. Status is
// "error" when no submission exists for the email.
type ContactResult struct {
	Status     string `json:"status"`
	Email      string `json:"email"`
	Preference bool   `json:"preference"`
}

// ContactPreference is the single-stage follow-up workflow that records
// whether the applicant wants an agent call.
type ContactPreference struct {
	runner  steprunner.Runner
	policy  retry.Policy
	contact *contact.Handler
	logger  logger.Logger
}

func NewContactPreference(runner steprunner.Runner, policy retry.Policy, contactH *contact.Handler, log logger.Logger) *ContactPreference {
	return &ContactPreference{
		runner:  runner,
		policy:  policy,
		contact: contactH,
		logger:  log,
	}
}

func (w *ContactPreference) Run(ctx context.Context, email string, preference bool) (*ContactResult, error) {
	runID := uuid.New().String()
	log := w.logger.WithFields(map[string]interface{}{
		"workflow": WorkflowContactPreference,
		"runId":    runID,
	})

	var updated bool
	err := w.runner.Run(ctx, contact.TaskType, w.policy, func(ctx context.Context) error {
		out, err := w.contact.Execute(ctx, &contact.Input{Email: email, Preference: preference})
		if err != nil {
			return err
		}
		updated = out.Updated
		return nil
	})
	if err != nil {
		metrics.RunsCompleted.WithLabelValues(WorkflowContactPreference, "failed").Inc()
		log.Error("workflow failed", map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	status := StatusError
	if updated {
		status = StatusSuccess
	}
	metrics.RunsCompleted.WithLabelValues(WorkflowContactPreference, status).Inc()
	log.Info("workflow completed", map[string]interface{}{"status": status})

	return &ContactResult{Status: status, Email: email, Preference: preference}, nil
}
