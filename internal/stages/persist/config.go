// internal/stages/persist/config.go
package persist

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
			BackoffCoefficient: 1.0,
			MaximumAttempts:    10,
			StepTimeout:        20 * time.Second,
		},
	}
}
