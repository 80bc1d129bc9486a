// internal/workflow/loanapproval.go
package workflow

import (
	"context"

	"github.com/google/uuid"

	"loanflow/internal/common/logger"
	"loanflow/internal/common/metrics"
	"loanflow/internal/models"
	"loanflow/internal/retry"
	"loanflow/internal/stages/decide"
	"loanflow/internal/stages/dupcheck"
	"loanflow/internal/stages/format"
	"loanflow/internal/stages/notify"
	"loanflow/internal/stages/persist"
	"loanflow/internal/stages/validate"
	"loanflow/internal/steprunner"
)

const (
	WorkflowLoanApproval = "loan-approval"

	StatusSuccess   = "success"
	StatusError     = "error"
	StatusDuplicate = "duplicate"
)

// Result is the business outcome of a loan approval run. Exactly one of the
// three statuses is set; infrastructure failures never appear here, they
// surface as the error return of Run.
type Result struct {
	Status            string                   `json:"status"`
	Errors            []string                 `json:"errors,omitempty"`
	DaysRemaining     int                      `json:"days_remaining,omitempty"`
	Existing          *models.SubmissionRecord `json:"existing_submission,omitempty"`
	Decision          models.Decision          `json:"decision,omitempty"`
	Message           *models.DecisionMessage  `json:"message,omitempty"`
	Application       *models.Application      `json:"application,omitempty"`
	LoanToIncomeRatio float64                  `json:"loan_to_income_ratio,omitempty"`
}

// Policies groups the per-stage retry policies for one run.
type Policies struct {
	Validate retry.Policy
	DupCheck retry.Policy
	Decide   retry.Policy
	Format   retry.Policy
	Persist  retry.Policy
	Notify   retry.Policy
}

func DefaultPolicies() Policies {
	return Policies{
		Validate: validate.LoadConfig().Policy,
		DupCheck: dupcheck.LoadConfig().Policy,
		Decide:   decide.LoadConfig().Policy,
		Format:   format.LoadConfig().Policy,
		Persist:  persist.LoadConfig().Policy,
		Notify:   notify.LoadConfig().Policy,
	}
}

// LoanApproval orchestrates the approval pipeline: validate, duplicate
// check, decide, format, persist, and a best-effort agent notification for
// conditional decisions. Stages run strictly in order through the step
// runner; invalid and duplicate outcomes short-circuit the run.
type LoanApproval struct {
	runner   steprunner.Runner
	policies Policies
	validate *validate.Handler
	dupcheck *dupcheck.Handler
	decide   *decide.Handler
	format   *format.Handler
	persist  *persist.Handler
	notify   *notify.Handler
	logger   logger.Logger
}

func NewLoanApproval(
	runner steprunner.Runner,
	policies Policies,
	validateH *validate.Handler,
	dupcheckH *dupcheck.Handler,
	decideH *decide.Handler,
	formatH *format.Handler,
	persistH *persist.Handler,
	notifyH *notify.Handler,
	log logger.Logger,
) *LoanApproval {
	return &LoanApproval{
		runner:   runner,
		policies: policies,
		validate: validateH,
		dupcheck: dupcheckH,
		decide:   decideH,
		format:   formatH,
		persist:  persistH,
		notify:   notifyH,
		logger:   log,
	}
}

// Run executes one approval run over a raw application payload. The error
// return is reserved for infrastructure failure after retries; business
// outcomes, including rejections, come back as a Result.
func (w *LoanApproval) Run(ctx context.Context, payload map[string]interface{}) (*Result, error) {
	runID := uuid.New().String()
	log := w.logger.WithFields(map[string]interface{}{
		"workflow": WorkflowLoanApproval,
		"runId":    runID,
	})
	log.Info("workflow started", nil)

	var validation *validate.Output
	err := w.runner.Run(ctx, validate.TaskType, w.policies.Validate, func(ctx context.Context) error {
		out, err := w.validate.Execute(ctx, &validate.Input{Application: payload})
		if err != nil {
			return err
		}
		validation = out
		return nil
	})
	if err != nil {
		return w.fail(log, err)
	}
	if !validation.Valid {
		log.Warn("validation failed", map[string]interface{}{"errors": validation.Errors})
		return w.finish(log, &Result{Status: StatusError, Errors: validation.Errors})
	}
	app := validation.Application

	var dup *dupcheck.Output
	err = w.runner.Run(ctx, dupcheck.TaskType, w.policies.DupCheck, func(ctx context.Context) error {
		out, err := w.dupcheck.Execute(ctx, &dupcheck.Input{Email: app.Email})
		if err != nil {
			return err
		}
		dup = out
		return nil
	})
	if err != nil {
		return w.fail(log, err)
	}
	if dup.IsDuplicate {
		log.Info("duplicate submission detected", map[string]interface{}{
			"email":         app.Email,
			"daysRemaining": dup.DaysRemaining,
		})
		return w.finish(log, &Result{
			Status:        StatusDuplicate,
			DaysRemaining: dup.DaysRemaining,
			Existing:      dup.Existing,
		})
	}

	var decision *decide.Output
	err = w.runner.Run(ctx, decide.TaskType, w.policies.Decide, func(ctx context.Context) error {
		out, err := w.decide.Execute(ctx, &decide.Input{Application: app})
		if err != nil {
			return err
		}
		decision = out
		return nil
	})
	if err != nil {
		return w.fail(log, err)
	}
	log.Info("credit decision made", map[string]interface{}{
		"decision":     string(decision.Decision),
		"loanToIncome": decision.LoanToIncomeRatio,
	})

	var message *format.Output
	err = w.runner.Run(ctx, format.TaskType, w.policies.Format, func(ctx context.Context) error {
		out, err := w.format.Execute(ctx, &format.Input{Decision: decision.Decision, Application: app})
		if err != nil {
			return err
		}
		message = out
		return nil
	})
	if err != nil {
		return w.fail(log, err)
	}

	err = w.runner.Run(ctx, persist.TaskType, w.policies.Persist, func(ctx context.Context) error {
		_, err := w.persist.Execute(ctx, &persist.Input{Application: app, Decision: decision.Decision})
		return err
	})
	if err != nil {
		return w.fail(log, err)
	}

	// Conditional decisions page the agent desk. Delivery is best effort:
	// a failure after retries is logged and the run still succeeds.
	if decision.Decision == models.DecisionConditional {
		err = w.runner.Run(ctx, notify.TaskType, w.policies.Notify, func(ctx context.Context) error {
			_, err := w.notify.Execute(ctx, &notify.Input{Application: app, Decision: decision.Decision})
			return err
		})
		if err != nil {
			log.Warn("agent notification failed", map[string]interface{}{"error": err.Error()})
		}
	}

	return w.finish(log, &Result{
		Status:            StatusSuccess,
		Decision:          decision.Decision,
		Message:           &message.Message,
		Application:       &app,
		LoanToIncomeRatio: decision.LoanToIncomeRatio,
	})
}

func (w *LoanApproval) finish(log logger.Logger, result *Result) (*Result, error) {
	metrics.RunsCompleted.WithLabelValues(WorkflowLoanApproval, result.Status).Inc()
	log.Info("workflow completed", map[string]interface{}{"status": result.Status})
	return result, nil
}

func (w *LoanApproval) fail(log logger.Logger, err error) (*Result, error) {
	metrics.RunsCompleted.WithLabelValues(WorkflowLoanApproval, "failed").Inc()
	log.Error("workflow failed", map[string]interface{}{"error": err.Error()})
	return nil, err
}
