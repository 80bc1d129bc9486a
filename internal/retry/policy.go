// Package retry holds the per-stage retry policy engine. The engine is pure
// configuration and decision logic: it computes attempt spacing and give-up
// verdicts but never sleeps or executes work itself; execution belongs to
// the step runner.
package retry

import (
	"math"
	"time"
)

// Policy controls attempt spacing, backoff growth, attempt ceiling and the
// absolute step timeout for one orchestration stage.
type Policy struct {
	InitialInterval    time.Duration
	MaximumInterval    time.Duration
	BackoffCoefficient float64
	MaximumAttempts    int
	StepTimeout        time.Duration
}

// Delay returns the wait before the attempt following attempt n (1-indexed):
// min(initial * coefficient^(n-1), maximum). A zero coefficient means
// constant spacing (coefficient 1.0).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	coeff := p.BackoffCoefficient
	if coeff <= 0 {
		coeff = 1.0
	}
	d := float64(p.InitialInterval) * math.Pow(coeff, float64(attempt-1))
	if p.MaximumInterval > 0 && d > float64(p.MaximumInterval) {
		return p.MaximumInterval
	}
	if d > float64(math.MaxInt64) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

// Next decides whether another attempt may run after a transient failure on
// attempt n (1-indexed), given when the first attempt started. It returns
// the delay before the next attempt and false when the policy says give up:
// the attempt ceiling is reached, or the step timeout would elapse before
// the next attempt could start.
func (p Policy) Next(attempt int, firstStart, now time.Time) (time.Duration, bool) {
	if p.MaximumAttempts > 0 && attempt >= p.MaximumAttempts {
		return 0, false
	}
	delay := p.Delay(attempt)
	if p.StepTimeout > 0 && now.Add(delay).Sub(firstStart) >= p.StepTimeout {
		return 0, false
	}
	return delay, true
}

// Expired reports whether the step timeout has elapsed since the first attempt.
func (p Policy) Expired(firstStart, now time.Time) bool {
	return p.StepTimeout > 0 && now.Sub(firstStart) >= p.StepTimeout
}
