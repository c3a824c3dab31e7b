// Package metrics defines the Prometheus instrumentation for TaskNet.
// promauto registers everything at init, so importers just use the vars.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HttpRequestsTotal counts processed HTTP requests by method, path and status.
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasknet_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status"},
	)

	// HttpRequestDuration measures server response time.
	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tasknet_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	// GraphQueriesTotal counts graph engine queries by kind (backlinks,
	// related, cycles, ...). Incremented at the API layer so the query
	// engine itself stays free of side effects.
	GraphQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasknet_graph_queries_total",
			Help: "Total number of graph queries executed",
		},
		[]string{"query"},
	)

	// TasksTotal tracks the number of stored tasks.
	TasksTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tasknet_tasks_total",
			Help: "Number of tasks currently stored",
		},
	)

	// LinksTotal tracks the number of stored links.
	LinksTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tasknet_links_total",
			Help: "Number of links currently stored",
		},
	)
)
