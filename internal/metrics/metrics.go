package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// outcome is committed or rejected
	TruckTransactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_truck_transactions_total",
		Help: "Truck transactions by type and outcome.",
	}, []string{"type", "outcome"})

	// ledger is stock or crates
	RejectedLinesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_batch_lines_rejected_total",
		Help: "Batch lines skipped because they failed validation or a business rule.",
	}, []string{"ledger"})

	CrateEntriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_crate_entries_created_total",
		Help: "Crate entries written by type.",
	}, []string{"type"})
)
