package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "propvest_ledger_build_info",
			Help: "Build information of the ledger service",
		},
		[]string{"version", "commit", "date"},
	)

	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "propvest_ledger_operations_total",
			Help: "Total number of ledger operations",
		},
		[]string{"operation", "status"},
	)

	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "propvest_ledger_operation_duration_seconds",
			Help:    "Duration of ledger operations",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 0.001s to ~4.1s
		},
		[]string{"operation"},
	)

	StoreTransactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "propvest_ledger_store_transactions_total",
			Help: "Total number of store transactions",
		},
		[]string{"status"},
	)

	AuditEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "propvest_ledger_audit_events_total",
			Help: "Total number of audit events emitted",
		},
		[]string{"type"},
	)

	AuditFlushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "propvest_ledger_audit_flushes_total",
			Help: "Total number of audit sink flushes",
		},
		[]string{"status"},
	)
)
