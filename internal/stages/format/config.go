// internal/stages/format/config.go
package format

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
			InitialInterval:    1 * time.Second,
			MaximumInterval:    1 * time.Second,
			BackoffCoefficient: 1.0,
			MaximumAttempts:    3,
			StepTimeout:        10 * time.Second,
		},
	}
}
