// internal/stages/contact/config.go
package contact

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
			MaximumInterval:    5 * time.Second,
			BackoffCoefficient: 1.0,
			MaximumAttempts:    5,
			StepTimeout:        15 * time.Second,
		},
	}
}
