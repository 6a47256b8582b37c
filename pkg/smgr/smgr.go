// Package smgr is the storage-manager external collaborator of spec §6: page
// I/O and file-level create/truncate/unlink, implemented here as real files
// on disk under a data directory (one file per relation fork), since the
// buffer manager and on-disk page format are out of this core's scope.
package smgr

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/relforge/relcore/pkg/types"
)

// BlockSize mirrors Postgres's 8KiB page size; used only to translate
// between byte counts and "blocks" for the higher layers that reason in
// blocks (truncate planning, the wal-skip-threshold check).
const BlockSize = 8192

// Manager is the storage-manager contract consumed by the rest of this
// module: Create, UnlinkAll, Truncate, Exists, NBlocks, SyncAll.
type Manager interface {
	Create(id types.RelationID, fork types.Fork) error
	Exists(id types.RelationID, fork types.Fork) bool
	UnlinkAll(id types.RelationID) error
	Truncate(id types.RelationID, fork types.Fork, newBlocks int64) error
	NBlocks(id types.RelationID, fork types.Fork) (int64, error)
	SyncAll(ids []types.RelationID) error
}

// DiskManager implements Manager against a directory tree rooted at DataDir,
// one file per (relation, fork) pair named "<id>.<fork>".
type DiskManager struct {
	DataDir string
}

// NewDiskManager ensures DataDir exists and returns a DiskManager rooted there.
func NewDiskManager(dataDir string) (*DiskManager, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("smgr: create data dir: %w", err)
	}
	return &DiskManager{DataDir: dataDir}, nil
}

func (m *DiskManager) path(id types.RelationID, fork types.Fork) string {
	return filepath.Join(m.DataDir, fmt.Sprintf("%d.%s", uint32(id), fork))
}

// Create creates an empty fork file. It is idempotent: an existing file of
// size zero is left alone, matching smgrcreate's "ok if already exists and
// is empty" behavior used on abort-then-retry paths.
func (m *DiskManager) Create(id types.RelationID, fork types.Fork) error {
	f, err := os.OpenFile(m.path(id, fork), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("smgr: create %d/%s: %w", id, fork, err)
	}
	return f.Close()
}

// Exists reports whether the given fork file is present.
func (m *DiskManager) Exists(id types.RelationID, fork types.Fork) bool {
	_, err := os.Stat(m.path(id, fork))
	return err == nil
}

// UnlinkAll removes every fork file belonging to id. Errors for forks that
// never existed are ignored; this mirrors the pending-action drain's
// tolerance of a file already gone.
func (m *DiskManager) UnlinkAll(id types.RelationID) error {
	var firstErr error
	for _, fork := range []types.Fork{types.ForkMain, types.ForkFSM, types.ForkVM, types.ForkInit} {
		p := m.path(id, fork)
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = fmt.Errorf("smgr: unlink %d/%s: %w", id, fork, err)
		}
	}
	return firstErr
}

// Truncate resizes a fork to exactly newBlocks blocks, creating the file if
// it is absent (WAL replay may need to recreate a main fork before
// truncating it).
func (m *DiskManager) Truncate(id types.RelationID, fork types.Fork, newBlocks int64) error {
	f, err := os.OpenFile(m.path(id, fork), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("smgr: open %d/%s: %w", id, fork, err)
	}
	defer f.Close()
	if err := f.Truncate(newBlocks * BlockSize); err != nil {
		return fmt.Errorf("smgr: truncate %d/%s: %w", id, fork, err)
	}
	return nil
}

// NBlocks reports the current size of a fork in blocks.
func (m *DiskManager) NBlocks(id types.RelationID, fork types.Fork) (int64, error) {
	info, err := os.Stat(m.path(id, fork))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("smgr: stat %d/%s: %w", id, fork, err)
	}
	return (info.Size() + BlockSize - 1) / BlockSize, nil
}

// SyncAll fsyncs every existing fork of every listed relation. This is the
// cheap alternative to full-page WAL logging chosen by drain_syncs for
// relations at or above the wal-skip-threshold.
func (m *DiskManager) SyncAll(ids []types.RelationID) error {
	for _, id := range ids {
		for _, fork := range []types.Fork{types.ForkMain, types.ForkFSM, types.ForkVM, types.ForkInit} {
			f, err := os.Open(m.path(id, fork))
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return fmt.Errorf("smgr: open %d/%s for sync: %w", id, fork, err)
			}
			err = f.Sync()
			f.Close()
			if err != nil {
				return fmt.Errorf("smgr: fsync %d/%s: %w", id, fork, err)
			}
		}
	}
	return nil
}
