// Package steprunner executes one unit of orchestration work under a retry
// policy. The Runner interface is the engine's boundary with the durable
// execution substrate: the orchestrator never sleeps or retries on its own,
// it hands a step function and a policy to the runner and observes exactly
// one final result.
package steprunner

import (
	"context"
	"time"

	stderrors "loanflow/internal/common/errors"
	"loanflow/internal/common/logger"
	"loanflow/internal/common/metrics"
	"loanflow/internal/retry"
)

// StepFunc is one logical attempt of a stage. It either fully completes or
// returns an error to be classified by the retry policy.
type StepFunc func(ctx context.Context) error

// Runner runs a step function under a retry policy and returns nil or a
// *errors.StageFailure once the policy gives up.
type Runner interface {
	Run(ctx context.Context, stage string, policy retry.Policy, fn StepFunc) error
}

// LocalRunner is the in-process runner: it enforces the step timeout via a
// context deadline spanning all attempts, spaces attempts per the policy and
// surfaces a StageFailure when retries exhaust. Crash recovery across
// process restarts is the hosting substrate's concern, not the runner's.
type LocalRunner struct {
	logger logger.Logger
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewLocalRunner(log logger.Logger) *LocalRunner {
	return &LocalRunner{
		logger: log,
		now:    time.Now,
		sleep:  sleepContext,
	}
}

func (r *LocalRunner) Run(ctx context.Context, stage string, policy retry.Policy, fn StepFunc) error {
	if policy.StepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, policy.StepTimeout)
		defer cancel()
	}

	start := r.now()
	metrics.StagesActive.WithLabelValues(stage).Inc()
	defer metrics.StagesActive.WithLabelValues(stage).Dec()
	defer func() {
		metrics.StageDuration.WithLabelValues(stage).Observe(r.now().Sub(start).Seconds())
	}()

	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			metrics.StagesCompleted.WithLabelValues(stage).Inc()
			return nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			err = stderrors.NewStageTimeoutError(stage, err)
		}

		if !stderrors.IsRetryable(err) {
			metrics.StagesFailed.WithLabelValues(stage, "terminal").Inc()
			return &stderrors.StageFailure{Stage: stage, Attempts: attempt, Cause: err}
		}

		delay, ok := policy.Next(attempt, start, r.now())
		if !ok {
			metrics.StagesFailed.WithLabelValues(stage, "exhausted").Inc()
			return &stderrors.StageFailure{Stage: stage, Attempts: attempt, Cause: err}
		}

		r.logger.Warn("stage attempt failed, retrying", map[string]interface{}{
			"stage":   stage,
			"attempt": attempt,
			"delay":   delay.String(),
			"error":   err.Error(),
		})

		if sleepErr := r.sleep(ctx, delay); sleepErr != nil {
			metrics.StagesFailed.WithLabelValues(stage, "timeout").Inc()
			return &stderrors.StageFailure{
				Stage:    stage,
				Attempts: attempt,
				Cause:    stderrors.NewStageTimeoutError(stage, err),
			}
		}
	}
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
