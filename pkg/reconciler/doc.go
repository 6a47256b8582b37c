/*
Package reconciler runs a periodic audit of the catalog against on-disk
storage.

Janitor ticks on a fixed interval (10s by default) and, each cycle, lists
the pg_class rows and, for table and index rows only, checks that the main
fork file still exists via pkg/smgr; rows of other kinds are not checked. A catalog row with no backing file is logged as a warning and
counted; nothing is deleted or repaired automatically, since a relation
existing only in the catalog is a storage-layer inconsistency that a
background process should surface, not silently paper over.

# Metrics

	relcore_janitor_cycles_total            cycles run
	relcore_janitor_cycle_duration_seconds   time per cycle
	relcore_janitor_orphans_found            orphan rows found in the last cycle

# See Also

  - pkg/smgr for the file-existence check this package drives
  - pkg/metrics for the counters/histogram this package updates
*/
package reconciler
