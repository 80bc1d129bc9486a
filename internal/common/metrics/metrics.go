package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StagesCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_stages_completed_total",
			Help: "Total number of workflow stages completed",
		},
		[]string{"stage"},
	)

	StagesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_stages_failed_total",
			Help: "Total number of workflow stages that exhausted their retry policy",
		},
		[]string{"stage", "reason"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "workflow_stage_duration_seconds",
			Help: "Duration of stage execution in seconds, including retries",
		},
		[]string{"stage"},
	)

	StagesActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "workflow_stages_active",
			Help: "Number of stages currently executing",
		},
		[]string{"stage"},
	)

	RunsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_runs_completed_total",
			Help: "Total number of workflow runs by result status",
		},
		[]string{"workflow", "status"},
	)
)
