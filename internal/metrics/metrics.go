package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TasksSpawned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imgpoll_tasks_spawned_total",
		Help: "Total number of fetch tasks spawned",
	})

	TasksCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imgpoll_tasks_completed_total",
		Help: "Total number of fetch tasks that resolved successfully",
	})

	TasksFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imgpoll_tasks_failed_total",
		Help: "Total number of fetch tasks that resolved with an error",
	})

	TasksCanceled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imgpoll_tasks_canceled_total",
		Help: "Total number of fetch tasks aborted by cancellation",
	})

	FetchBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imgpoll_fetch_bytes_total",
		Help: "Total bytes received across all fetch tasks",
	})

	FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "imgpoll_fetch_duration_seconds",
		Help:    "Fetch task duration in seconds",
		Buckets: prometheus.DefBuckets,
	})
)
