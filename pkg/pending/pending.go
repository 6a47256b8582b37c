// Package pending is the per-process Pending-Action Log of spec §4.A: it
// defers physical-storage side effects (file create/drop/sync) so they fire
// in lockstep with transaction outcomes rather than immediately. It mirrors
// the mutex-guarded in-memory registries used throughout pkg/manager
// (TokenManager's map[string]*JoinToken under a sync.RWMutex), specialized
// to a nesting-aware log instead of a flat map.
package pending

import (
	"fmt"
	"sync"

	"github.com/relforge/relcore/pkg/metrics"
	"github.com/relforge/relcore/pkg/smgr"
	"github.com/relforge/relcore/pkg/types"
)

// DefaultSyncThresholdBlocks is the size at or above which drain_syncs prefers an
// fsync over per-block full-page WAL records, expressed in blocks (2048 KiB
// / 8 KiB = 256 blocks). pkg/config can override it.
const DefaultSyncThresholdBlocks = 256

// Log is the pending-action log: a per-process, nesting-aware queue of
// deferred file creates and drops, plus a side map of pending fsyncs.
type Log struct {
	mu   sync.Mutex
	acts []entry
	sync map[types.RelationID]*types.PendingSync

	smgr           smgr.Manager
	syncThreshold  int64
	emitFullPageFn func(id types.RelationID, fork types.Fork, block int64) error
}

type entry struct {
	action types.PendingAction
}

// New creates an empty Log that drains against mgr. emitFullPage is invoked
// by DrainSyncs for relations under the sync threshold, once per fork per
// block; pass nil to skip full-page emission entirely (tests that don't
// care about the cheap path).
func New(mgr smgr.Manager, emitFullPage func(id types.RelationID, fork types.Fork, block int64) error) *Log {
	return &Log{
		sync:           make(map[types.RelationID]*types.PendingSync),
		smgr:           mgr,
		syncThreshold:  DefaultSyncThresholdBlocks,
		emitFullPageFn: emitFullPage,
	}
}

// SetSyncThreshold overrides DefaultSyncThresholdBlocks, e.g. from
// pkg/config's wal-skip-threshold setting.
func (l *Log) SetSyncThreshold(blocks int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.syncThreshold = blocks
}

// RecordCreate appends a create-on-abort entry. Fails never, per spec.
func (l *Log) RecordCreate(fileID types.RelationID, backendTag string, _ types.Persistence, nestingLevel int) {
	l.mu.Lock()
	l.acts = append(l.acts, entry{action: types.PendingAction{
		FileIdentity: fileID,
		BackendTag:   backendTag,
		Action:       types.ActionCreateOnAbort,
		NestingLevel: nestingLevel,
	}})
	n := len(l.acts)
	l.mu.Unlock()
	metrics.PendingActionsTotal.Set(float64(n))
}

// RecordDrop appends a drop-on-commit entry. A relation created then dropped
// within the same transaction legitimately gets two entries; both fire, on
// whichever outcome matches, and the one that loses the race finds the file
// already gone.
func (l *Log) RecordDrop(fileID types.RelationID, backendTag string, nestingLevel int) {
	l.mu.Lock()
	l.acts = append(l.acts, entry{action: types.PendingAction{
		FileIdentity: fileID,
		BackendTag:   backendTag,
		Action:       types.ActionDropOnCommit,
		NestingLevel: nestingLevel,
	}})
	n := len(l.acts)
	l.mu.Unlock()
	metrics.PendingActionsTotal.Set(float64(n))
}

// RecordSync inserts fileID into the pending-sync map if absent.
func (l *Log) RecordSync(fileID types.RelationID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.sync[fileID]; !ok {
		l.sync[fileID] = &types.PendingSync{FileIdentity: fileID}
	}
}

// MarkTruncated sets the truncated flag on an existing sync entry, if any.
func (l *Log) MarkTruncated(fileID types.RelationID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.sync[fileID]; ok {
		s.Truncated = true
	}
}

// Preserve removes any action entry matching (fileID, the action that would
// fire at the given outcome). Used when a relation is re-homed by a
// catalog-remap commit separate from the surrounding transaction.
func (l *Log) Preserve(fileID types.RelationID, atCommit bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	want := types.ActionCreateOnAbort
	if atCommit {
		want = types.ActionDropOnCommit
	}
	out := l.acts[:0]
	for _, e := range l.acts {
		if e.action.FileIdentity == fileID && e.action.Action == want {
			continue
		}
		out = append(out, e)
	}
	l.acts = out
}

// Drain unlinks every entry at nesting level >= currentLevel whose action
// matches the outcome, then removes all of them from the queue regardless of
// match. The first unlink error is returned; errors never prevent the
// entry from being dropped: the entry is removed before the unlink is
// attempted, so a failed unlink is never retried.
func (l *Log) Drain(isCommit bool, currentLevel int) error {
	l.mu.Lock()
	var fire []types.RelationID
	kept := l.acts[:0]
	want := types.ActionCreateOnAbort
	if isCommit {
		want = types.ActionDropOnCommit
	}
	for _, e := range l.acts {
		if e.action.NestingLevel < currentLevel {
			kept = append(kept, e)
			continue
		}
		if e.action.Action == want {
			fire = append(fire, e.action.FileIdentity)
		}
	}
	l.acts = kept
	mgr := l.smgr
	remaining := len(l.acts)
	l.mu.Unlock()

	metrics.PendingActionsTotal.Set(float64(remaining))
	outcome := "abort"
	if isCommit {
		outcome = "commit"
	}
	metrics.PendingDrainsTotal.WithLabelValues(outcome).Inc()

	var firstErr error
	for _, id := range fire {
		if mgr == nil {
			continue
		}
		if err := mgr.UnlinkAll(id); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("pending: drain unlink %d: %w", id, err)
		}
	}
	return firstErr
}

// DrainSyncs is called only at top-level commit (or, symmetrically, on
// abort to discard). For each sync entry not superseded by a drop pending in
// the action queue: if the relation was truncated or its total size across
// forks reaches the configured block threshold, fsync every fork; otherwise
// emit a full-page WAL record per block of every fork.
func (l *Log) DrainSyncs(isCommit bool, isParallelWorker bool) error {
	l.mu.Lock()
	entries := l.sync
	l.sync = make(map[types.RelationID]*types.PendingSync)
	dropping := make(map[types.RelationID]bool, len(l.acts))
	for _, e := range l.acts {
		if e.action.Action == types.ActionDropOnCommit {
			dropping[e.action.FileIdentity] = true
		}
	}
	mgr := l.smgr
	threshold := l.syncThreshold
	emitFullPage := l.emitFullPageFn
	l.mu.Unlock()

	if !isCommit {
		return nil
	}
	if isParallelWorker {
		// Parallel workers never own the sync map at top level; the leader
		// drains it. Nothing to do here, mirroring the source's early return.
		return nil
	}

	var toFsync []types.RelationID
	var firstErr error
	for id, s := range entries {
		if dropping[id] {
			continue
		}
		big := s.Truncated
		if !big && mgr != nil {
			var total int64
			for _, fork := range []types.Fork{types.ForkMain, types.ForkFSM, types.ForkVM} {
				n, err := mgr.NBlocks(id, fork)
				if err != nil {
					continue
				}
				total += n
			}
			big = total >= threshold
		}
		if big {
			toFsync = append(toFsync, id)
			continue
		}
		if emitFullPage == nil || mgr == nil {
			continue
		}
		for _, fork := range []types.Fork{types.ForkMain, types.ForkFSM, types.ForkVM} {
			n, err := mgr.NBlocks(id, fork)
			if err != nil {
				continue
			}
			for block := int64(0); block < n; block++ {
				if err := emitFullPage(id, fork, block); err != nil && firstErr == nil {
					firstErr = fmt.Errorf("pending: full-page for %d/%s block %d: %w", id, fork, block, err)
				}
			}
		}
	}
	if len(toFsync) > 0 && mgr != nil {
		if err := mgr.SyncAll(toFsync); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("pending: fsync batch: %w", err)
		}
	}
	return firstErr
}

// Reparent decrements the nesting level of every entry at currentLevel by
// one, promoting it to the parent sub-transaction on sub-transaction commit.
func (l *Log) Reparent(currentLevel int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.acts {
		if l.acts[i].action.NestingLevel == currentLevel {
			if l.acts[i].action.NestingLevel == 0 {
				panic("pending: nesting level underflow in reparent")
			}
			l.acts[i].action.NestingLevel--
		}
	}
}

// PostPrepare drops the entire queue without firing: ownership of the
// pending work passes to the two-phase-commit state file, which this core
// does not implement.
func (l *Log) PostPrepare() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.acts = nil
	l.sync = make(map[types.RelationID]*types.PendingSync)
}

// Len reports the number of queued action entries; for tests and metrics.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.acts)
}
