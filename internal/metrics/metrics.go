// Package metrics registers the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LedgerOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pocket_ledger_operations_total",
		Help: "Ledger operations by kind and outcome",
	}, []string{"op", "status"})

	InsufficientBalance = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pocket_insufficient_balance_total",
		Help: "Expense mutations rejected because they would drive a wallet negative",
	})

	StatsUnmatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pocket_stats_unmatched_transactions_total",
		Help: "Transactions that fell outside the precomputed bucket range during aggregation",
	})

	AuditDrift = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pocket_audit_wallet_drift_total",
		Help: "Wallets whose cached aggregates disagreed with their transaction log",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pocket_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pocket_http_request_duration_seconds",
		Help:    "Request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"method", "endpoint"})
)
