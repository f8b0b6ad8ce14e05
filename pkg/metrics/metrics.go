package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NotificationsCreated counts notifications persisted by type.
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobmate_notifications_created_total",
			Help: "Total number of notifications created",
		},
		[]string{"type"},
	)

	// NotificationsSuppressed counts candidates dropped by the cooldown gate.
	NotificationsSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobmate_notifications_suppressed_total",
			Help: "Total number of notification candidates suppressed within their cooldown window",
		},
		[]string{"type"},
	)

	// SchedulerRuns counts automation scheduler runs by trigger (timer|manual) and result (ok|error).
	SchedulerRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobmate_scheduler_runs_total",
			Help: "Total number of automation scheduler runs",
		},
		[]string{"trigger", "result"},
	)

	// WorkflowExecutions counts workflow executions by template and result (success|failure).
	WorkflowExecutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobmate_workflow_executions_total",
			Help: "Total number of workflow executions",
		},
		[]string{"template", "result"},
	)

	// DeliveryFailures counts delivery adapter failures by channel.
	DeliveryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobmate_delivery_failures_total",
			Help: "Total number of notification delivery failures",
		},
		[]string{"channel"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jobmate_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
