// internal/stages/decide/config.go
package decide

import (
	"time"

	"loanflow/internal/retry"
)

type Config struct {
	Policy retry.Policy
}

func LoadConfig() *Config {
	return &Config{
		Policy: retry.Policy{
			InitialInterval:    2 * time.Second,
			MaximumInterval:    10 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumAttempts:    5,
			StepTimeout:        30 * time.Second,
		},
	}
}
