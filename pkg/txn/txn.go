// Package txn is this core's transaction manager: nesting-level and
// command-counter bookkeeping, the access-exclusive relation-id lock of
// spec §5, and the commit/abort hooks that drive pkg/pending's drain.
// The locked-registry shape is grounded on pkg/manager/token.go's
// mutex-guarded map[string]*JoinToken, generalized here to a
// wait-until-released channel per id instead of a flat map.
package txn

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/relforge/relcore/pkg/metrics"
	"github.com/relforge/relcore/pkg/pending"
	"github.com/relforge/relcore/pkg/types"
)

// Manager tracks one backend's transaction nesting and drives the
// pending-action log at every (sub-)transaction boundary.
type Manager struct {
	mu         sync.Mutex
	level      int
	cmdCounter uint32
	pending    *pending.Log

	// BackendTag identifies this Manager's backend in the pending-action
	// log, the way a real backend PID would. Generated once per Manager
	// rather than hardcoded, since a process may run more than one backend
	// (e.g. a future connection-pooled server) each needing its own tag.
	BackendTag string

	idMu   sync.Mutex
	idLock map[types.RelationID]chan struct{}
}

// New returns a Manager at nesting level 0 (no transaction open), backed by
// pendingLog for drain/drainSyncs/reparent/postPrepare.
func New(pendingLog *pending.Log) *Manager {
	return &Manager{
		pending:    pendingLog,
		idLock:     make(map[types.RelationID]chan struct{}),
		BackendTag: uuid.NewString(),
	}
}

// Begin opens the top-level transaction.
func (m *Manager) Begin() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.level = 1
	m.cmdCounter = 0
}

// BeginSub opens a sub-transaction and returns its nesting level.
func (m *Manager) BeginSub() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.level++
	return m.level
}

// Level reports the current nesting level (0 if no transaction is open).
func (m *Manager) Level() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level
}

// BumpCommandCounter advances the command counter, making prior writes in
// this transaction visible to subsequent reads in the same transaction.
// The relation builder calls this before storing constraint expressions
// that deparse other attributes (spec §5's ordering guarantee).
func (m *Manager) BumpCommandCounter() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cmdCounter++
	return m.cmdCounter
}

// CommandID returns the current command counter value without advancing it.
func (m *Manager) CommandID() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cmdCounter
}

// CommitSub commits the current sub-transaction, reparenting its pending
// entries to the parent level, and returns to that level.
func (m *Manager) CommitSub() error {
	m.mu.Lock()
	level := m.level
	if level <= 1 {
		m.mu.Unlock()
		return fmt.Errorf("txn: CommitSub called at top level")
	}
	m.pending.Reparent(level)
	m.level--
	m.mu.Unlock()
	return nil
}

// AbortSub aborts the current sub-transaction, draining its pending
// entries, and returns to the parent level.
func (m *Manager) AbortSub() error {
	m.mu.Lock()
	level := m.level
	if level <= 1 {
		m.mu.Unlock()
		return fmt.Errorf("txn: AbortSub called at top level")
	}
	m.level--
	m.mu.Unlock()
	return m.pending.Drain(false, level)
}

// Commit commits the top-level transaction: drains the pending-action log
// with outcome=commit, then drains pending syncs. isParallelWorker is
// forwarded to DrainSyncs, which is a no-op on parallel workers.
func (m *Manager) Commit(isParallelWorker bool) error {
	m.mu.Lock()
	level := m.level
	m.level = 0
	m.mu.Unlock()

	if err := m.pending.Drain(true, level); err != nil {
		return fmt.Errorf("txn: commit: %w", err)
	}
	if err := m.pending.DrainSyncs(true, isParallelWorker); err != nil {
		return fmt.Errorf("txn: commit: %w", err)
	}
	m.releaseAllIDLocks()
	metrics.TxnCommitsTotal.Inc()
	return nil
}

// Abort aborts the top-level transaction: drains the pending-action log
// with outcome=abort and discards the sync map.
func (m *Manager) Abort() error {
	m.mu.Lock()
	level := m.level
	m.level = 0
	m.mu.Unlock()

	if err := m.pending.Drain(false, level); err != nil {
		return fmt.Errorf("txn: abort: %w", err)
	}
	_ = m.pending.DrainSyncs(false, false)
	m.releaseAllIDLocks()
	metrics.TxnAbortsTotal.Inc()
	return nil
}

// PostPrepare hands the pending-action log off to two-phase commit,
// dropping it without firing.
func (m *Manager) PostPrepare() {
	m.pending.PostPrepare()
}

// LockRelationID acquires the access-exclusive lock on id (spec §5: "the
// relation-id lock ensures that, between the current transaction and any
// other, at most one can hold the id"). Blocks if another transaction
// already holds it.
func (m *Manager) LockRelationID(id types.RelationID) {
	var timer *metrics.Timer
	for {
		m.idMu.Lock()
		ch, held := m.idLock[id]
		if !held {
			m.idLock[id] = make(chan struct{})
			m.idMu.Unlock()
			if timer != nil {
				timer.ObserveDuration(metrics.RelationLockWaitDuration)
			}
			return
		}
		m.idMu.Unlock()
		if timer == nil {
			timer = metrics.NewTimer()
		}
		<-ch
	}
}

// UnlockRelationID releases the access-exclusive lock on id, waking any
// transaction blocked in LockRelationID.
func (m *Manager) UnlockRelationID(id types.RelationID) {
	m.idMu.Lock()
	defer m.idMu.Unlock()
	if ch, ok := m.idLock[id]; ok {
		delete(m.idLock, id)
		close(ch)
	}
}

func (m *Manager) releaseAllIDLocks() {
	m.idMu.Lock()
	defer m.idMu.Unlock()
	for id, ch := range m.idLock {
		delete(m.idLock, id)
		close(ch)
	}
}
