// Package reconciler runs a periodic janitor cycle over the catalog,
// the same reconcile-on-a-ticker shape as a cluster reconciler: a
// background loop that periodically compares recorded state (pg_class)
// against observed state (the files pkg/smgr actually has on disk) and
// logs what it finds. It never deletes or repairs anything itself --
// unlike the teacher reconciler, which moves live workloads, a mismatch
// here (a catalog row with no backing file) is a storage-layer
// corruption signal that belongs in front of an operator, not something
// safe to auto-heal.
package reconciler

import (
	"fmt"
	"sync"
	"time"

	"github.com/relforge/relcore/pkg/catalog"
	"github.com/relforge/relcore/pkg/log"
	"github.com/relforge/relcore/pkg/metrics"
	"github.com/relforge/relcore/pkg/smgr"
	"github.com/relforge/relcore/pkg/types"
	"github.com/rs/zerolog"
)

// Janitor periodically audits pg_class against the on-disk files pkg/smgr
// manages.
type Janitor struct {
	catalog  *catalog.Store
	smgr     smgr.Manager
	interval time.Duration
	logger   zerolog.Logger
	mu       sync.RWMutex
	stopCh   chan struct{}
}

// New creates a Janitor over store/mgr, auditing every interval (zero
// means the default of 10 seconds).
func New(store *catalog.Store, mgr smgr.Manager, interval time.Duration) *Janitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Janitor{
		catalog:  store,
		smgr:     mgr,
		interval: interval,
		logger:   log.WithComponent("janitor"),
		stopCh:   make(chan struct{}),
	}
}

// Start begins the audit loop.
func (j *Janitor) Start() {
	go j.run()
}

// Stop stops the audit loop.
func (j *Janitor) Stop() {
	close(j.stopCh)
}

func (j *Janitor) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.Info().Msg("janitor started")

	for {
		select {
		case <-ticker.C:
			if err := j.audit(); err != nil {
				j.logger.Error().Err(err).Msg("audit cycle failed")
			}
		case <-j.stopCh:
			j.logger.Info().Msg("janitor stopped")
			return
		}
	}
}

// audit performs one reconciliation cycle: list every pg_class row and, for
// table and index rows, confirm the main fork exists on disk.
func (j *Janitor) audit() error {
	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.JanitorDuration)
		metrics.JanitorCyclesTotal.Inc()
	}()

	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.catalog.ListClassRows()
	if err != nil {
		return fmt.Errorf("reconciler: list class rows: %w", err)
	}

	var orphans int
	for _, row := range rows {
		if row.Desc.Kind != types.RelKindTable && row.Desc.Kind != types.RelKindIndex {
			continue
		}
		if j.smgr != nil && !j.smgr.Exists(row.Desc.ID, types.ForkMain) {
			orphans++
			j.logger.Warn().
				Uint32("relation_id", uint32(row.Desc.ID)).
				Str("name", row.Desc.Name).
				Str("kind", string(row.Desc.Kind)).
				Msg("pg_class row has no backing main-fork file")
		}
	}
	metrics.JanitorOrphansFound.Set(float64(orphans))

	return nil
}
