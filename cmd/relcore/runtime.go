package main

import (
	"fmt"
	"path/filepath"

	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb"
	"github.com/relforge/relcore/pkg/catalog"
	"github.com/relforge/relcore/pkg/config"
	"github.com/relforge/relcore/pkg/depgraph"
	"github.com/relforge/relcore/pkg/events"
	"github.com/relforge/relcore/pkg/oid"
	"github.com/relforge/relcore/pkg/pending"
	"github.com/relforge/relcore/pkg/relbuilder"
	"github.com/relforge/relcore/pkg/reldestroy"
	"github.com/relforge/relcore/pkg/smgr"
	"github.com/relforge/relcore/pkg/txn"
	"github.com/relforge/relcore/pkg/typecheck"
	"github.com/relforge/relcore/pkg/types"
	"github.com/relforge/relcore/pkg/wal"
	"github.com/spf13/cobra"
)

// runtime wires the external collaborators every subcommand needs into one
// transaction's worth of state: a single db.Update-style unit of work, same
// as a BoltStore call in the source this core is built on, just spanning
// several buckets and an append-only WAL instead of one bucket.
type runtime struct {
	cfg        config.Config
	catalog    *catalog.Store
	smgr       *smgr.DiskManager
	walStore   *raftboltdb.BoltStore
	wal        *wal.LogStoreWriter
	pendingLog *pending.Log
	txn        *txn.Manager
	builder    *relbuilder.Builder
	destroyer  *reldestroy.Destroyer
	events     *events.Broker
}

func openRuntime(cmd *cobra.Command) (*runtime, error) {
	dataDir, _ := cmd.Flags().GetString("data-dir")

	cfgPath := filepath.Join(dataDir, "relcore.yaml")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		cfg = config.Config{DataDir: dataDir, Metrics: config.MetricsConfig{Listen: ":9187", Enabled: true}}
	}
	cfg.DataDir = dataDir

	store, err := catalog.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	diskMgr, err := smgr.NewDiskManager(dataDir)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("open storage manager: %w", err)
	}

	walStore, err := raftboltdb.NewBoltStore(filepath.Join(dataDir, "wal.db"))
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("open WAL: %w", err)
	}
	var _ raft.LogStore = walStore

	pendingLog := pending.New(diskMgr, nil)
	if cfg.WALSyncThresholdBlocks > 0 {
		pendingLog.SetSyncThreshold(cfg.WALSyncThresholdBlocks)
	}

	txnMgr := txn.New(pendingLog)
	txnMgr.Begin()

	relIDChecker := oid.CheckerFunc(func(id types.RelationID) bool { return diskMgr.Exists(id, types.ForkMain) })
	relIDPool := oid.NewPool(store, relIDChecker)
	typeIDPool := oid.NewPool(store)

	builder := &relbuilder.Builder{
		OIDs:       relIDPool,
		TypeOIDs:   typeIDPool,
		Smgr:       diskMgr,
		Catalog:    store,
		TypeCat:    typecheck.BuiltinTypes,
		Depend:     depgraph.New(store),
		PendingLog: pendingLog,
		Txn:        txnMgr,
		Override:   cfg.Override(),
	}

	walWriter := wal.NewLogStoreWriter(walStore)
	broker := events.NewBroker()
	broker.Start()
	destroyer := &reldestroy.Destroyer{
		Catalog:    store,
		Smgr:       diskMgr,
		PendingLog: pendingLog,
		Txn:        txnMgr,
		Wal:        walWriter,
		Cache:      events.CacheInvalidator{Broker: broker},
	}

	return &runtime{
		cfg:        cfg,
		catalog:    store,
		smgr:       diskMgr,
		walStore:   walStore,
		wal:        walWriter,
		pendingLog: pendingLog,
		txn:        txnMgr,
		builder:    builder,
		destroyer:  destroyer,
		events:     broker,
	}, nil
}

// finish commits the transaction and the pending-action log on success, or
// aborts both on failure, then releases every handle regardless.
func (r *runtime) finish(opErr error) error {
	defer r.close()

	if opErr != nil {
		_ = r.txn.Abort()
		return opErr
	}
	if err := r.txn.Commit(false); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *runtime) close() {
	if r.events != nil {
		r.events.Stop()
	}
	if r.walStore != nil {
		r.walStore.Close()
	}
	if r.catalog != nil {
		r.catalog.Close()
	}
}
