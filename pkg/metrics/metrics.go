package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Catalog metrics
	RelationsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "relcore_relations_total",
			Help: "Total number of relations by kind",
		},
		[]string{"kind"},
	)

	RelationsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relcore_relations_created_total",
			Help: "Total number of relations created, by kind",
		},
		[]string{"kind"},
	)

	RelationsDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relcore_relations_dropped_total",
			Help: "Total number of relations dropped, by kind",
		},
		[]string{"kind"},
	)

	ConstraintsStoredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relcore_constraints_stored_total",
			Help: "Total number of check/default constraints stored, by kind",
		},
		[]string{"kind"},
	)

	ColumnsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relcore_columns_dropped_total",
			Help: "Total number of columns marked dropped via remove_attribute_by_id",
		},
	)

	// Storage/WAL metrics
	TruncateCallsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relcore_truncate_calls_total",
			Help: "Total number of truncate operations issued",
		},
	)

	WALRecordsEmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relcore_wal_records_emitted_total",
			Help: "Total number of WAL records appended, by record tag",
		},
		[]string{"tag"},
	)

	PendingActionsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relcore_pending_actions_total",
			Help: "Current length of the pending-action log",
		},
	)

	PendingDrainsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relcore_pending_drains_total",
			Help: "Total number of pending-action log drains, by outcome",
		},
		[]string{"outcome"},
	)

	// Transaction metrics
	TxnCommitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relcore_txn_commits_total",
			Help: "Total number of top-level transaction commits",
		},
	)

	TxnAbortsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relcore_txn_aborts_total",
			Help: "Total number of top-level transaction aborts",
		},
	)

	RelationLockWaitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relcore_relation_lock_wait_seconds",
			Help:    "Time spent waiting to acquire a relation-id access-exclusive lock",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Operation latency metrics
	CreateWithCatalogDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relcore_create_with_catalog_duration_seconds",
			Help:    "Time taken by create_with_catalog in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	DropWithCatalogDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relcore_drop_with_catalog_duration_seconds",
			Help:    "Time taken by drop_with_catalog in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	TruncateDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relcore_truncate_duration_seconds",
			Help:    "Time taken by truncate in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Janitor metrics
	JanitorCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relcore_janitor_cycles_total",
			Help: "Total number of janitor reconciliation cycles run",
		},
	)

	JanitorDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relcore_janitor_cycle_duration_seconds",
			Help:    "Time taken by one janitor reconciliation cycle",
			Buckets: prometheus.DefBuckets,
		},
	)

	JanitorOrphansFound = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relcore_janitor_orphans_found",
			Help: "Number of pg_class rows found with a missing main-fork file in the last cycle",
		},
	)
)

func init() {
	prometheus.MustRegister(RelationsTotal)
	prometheus.MustRegister(RelationsCreatedTotal)
	prometheus.MustRegister(RelationsDroppedTotal)
	prometheus.MustRegister(ConstraintsStoredTotal)
	prometheus.MustRegister(ColumnsDroppedTotal)

	prometheus.MustRegister(TruncateCallsTotal)
	prometheus.MustRegister(WALRecordsEmittedTotal)
	prometheus.MustRegister(PendingActionsTotal)
	prometheus.MustRegister(PendingDrainsTotal)

	prometheus.MustRegister(TxnCommitsTotal)
	prometheus.MustRegister(TxnAbortsTotal)
	prometheus.MustRegister(RelationLockWaitDuration)

	prometheus.MustRegister(CreateWithCatalogDuration)
	prometheus.MustRegister(DropWithCatalogDuration)
	prometheus.MustRegister(TruncateDuration)

	prometheus.MustRegister(JanitorCyclesTotal)
	prometheus.MustRegister(JanitorDuration)
	prometheus.MustRegister(JanitorOrphansFound)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
