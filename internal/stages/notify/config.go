// internal/stages/notify/config.go
package notify

import (
	"time"

	"loanflow/internal/retry"
)

type Config struct {
	EmailEnabled  bool
	SMSEnabled    bool
	FromEmail     string
	AgentEmail    string
	AgentPhone    string
	PageThreshold float64
	Policy        retry.Policy
}

func LoadConfig() *Config {
	return &Config{
		EmailEnabled:  true,
		PageThreshold: 100000,
		Policy: retry.Policy{
			InitialInterval:    2 * time.Second,
			MaximumInterval:    2 * time.Second,
			BackoffCoefficient: 1.0,
			MaximumAttempts:    3,
			StepTimeout:        15 * time.Second,
		},
	}
}
