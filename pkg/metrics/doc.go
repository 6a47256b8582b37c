/*
Package metrics provides Prometheus metrics collection and exposition for
relcore's relation-lifecycle core.

Metrics are defined and registered at package init using the Prometheus
client library and exposed via Handler() for scraping. They give
observability into catalog growth (relations by kind), the volume of
create/drop/truncate/constraint operations, pending-action log depth and
drain outcomes, transaction commit/abort counts, and the latency of the
core's three load-bearing operations: create_with_catalog,
drop_with_catalog, and truncate.

# Metric Families

Catalog gauges/counters:

	relcore_relations_total{kind}            current relation count by kind, sampled by Collector
	relcore_relations_created_total{kind}    cumulative creates, incremented at the call site
	relcore_relations_dropped_total{kind}    cumulative drops
	relcore_constraints_stored_total{kind}   cumulative default/check constraints stored
	relcore_columns_dropped_total            cumulative remove_attribute_by_id calls

Storage/WAL counters:

	relcore_truncate_calls_total             cumulative truncate operations
	relcore_wal_records_emitted_total{tag}   cumulative WAL records appended, by record tag
	relcore_pending_actions_total            current pending-action log length
	relcore_pending_drains_total{outcome}    cumulative log drains, outcome="commit"|"abort"

Transaction counters/histograms:

	relcore_txn_commits_total
	relcore_txn_aborts_total
	relcore_relation_lock_wait_seconds       time spent blocked in LockRelationID

Operation latency histograms:

	relcore_create_with_catalog_duration_seconds
	relcore_drop_with_catalog_duration_seconds
	relcore_truncate_duration_seconds

# Collector

Collector periodically re-scans pg_class (every 15s by default) to refresh
relcore_relations_total, since "how many relations exist right now, by
kind" isn't something a single call site can maintain incrementally the way
a created/dropped counter can. Per-operation counters and histograms are
updated directly by relbuilder/reldestroy call sites instead of by the
collector.

# Health

health.go tracks liveness/readiness independently of the metrics above:
HealthHandler reports every registered component and returns 503 only when
all of them are unhealthy. ReadyHandler checks three components -- catalog,
wal, and smgr -- any of which being unregistered or unhealthy marks the
process not_ready. LivenessHandler never depends on component state; it only
reports that the process is running.

# Troubleshooting

Missing Metrics:
  - Cause: code path never calls a metrics.* counter/histogram
  - Check: grep call sites for the metric name
  - Solution: instrument the missing call site

Histogram Buckets Too Coarse:
  - Cause: default buckets don't cover the observed value range
  - Check: histogram's _sum / _count for an average
  - Solution: define custom buckets for that metric

# Monitoring

Example PromQL:

  - Relation growth: sum(relcore_relations_total) by (kind)
  - Create rate: rate(relcore_relations_created_total[5m])
  - Drop vs create ratio: rate(relcore_relations_dropped_total[5m]) / rate(relcore_relations_created_total[5m])
  - p95 create latency: histogram_quantile(0.95, relcore_create_with_catalog_duration_seconds_bucket)
  - Abort rate: rate(relcore_txn_aborts_total[5m])
  - Pending log backlog: relcore_pending_actions_total

# See Also

  - Prometheus client library: https://github.com/prometheus/client_golang
  - Histogram best practices: https://prometheus.io/docs/practices/histograms/
*/
package metrics
