package pipeline

import "github.com/prometheus/client_golang/prometheus"

const metricsSubsystem = "reelcraft_pipeline"

var (
	queueBacklogMetric = prometheus.NewGauge(prometheus.GaugeOpts{
		Subsystem: metricsSubsystem,
		Name:      "queue_backlog",
		Help:      "number of jobs waiting for dispatch",
	})
	queueInFlightMetric = prometheus.NewGauge(prometheus.GaugeOpts{
		Subsystem: metricsSubsystem,
		Name:      "queue_in_flight",
		Help:      "number of jobs currently executing",
	})
	jobStartsTotalMetric = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: metricsSubsystem,
		Name:      "job_starts_total",
		Help:      "number of jobs dispatched to the orchestrator",
	})
	jobsProcessedTotalMetric = prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: metricsSubsystem,
		Name:      "jobs_processed_total",
		Help:      "number of jobs finished, by outcome",
	}, []string{"outcome"})
	stageAttemptsTotalMetric = prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: metricsSubsystem,
		Name:      "stage_attempts_total",
		Help:      "number of model invocation attempts, by stage",
	}, []string{"stage"})
)

func init() {
	prometheus.MustRegister(
		queueBacklogMetric,
		queueInFlightMetric,
		jobStartsTotalMetric,
		jobsProcessedTotalMetric,
		stageAttemptsTotalMetric,
	)
}
