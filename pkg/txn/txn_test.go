package txn

import (
	"sync"
	"testing"
	"time"

	"github.com/relforge/relcore/pkg/pending"
	"github.com/relforge/relcore/pkg/smgr"
	"github.com/relforge/relcore/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, *smgr.DiskManager) {
	mgr, err := smgr.NewDiskManager(t.TempDir())
	require.NoError(t, err)
	log := pending.New(mgr, nil)
	return New(log), mgr
}

func TestNewAssignsDistinctBackendTags(t *testing.T) {
	m1, _ := newTestManager(t)
	m2, _ := newTestManager(t)
	assert.NotEmpty(t, m1.BackendTag)
	assert.NotEqual(t, m1.BackendTag, m2.BackendTag)
}

func TestCommitAdvancesThroughLifecycle(t *testing.T) {
	m, _ := newTestManager(t)
	m.Begin()
	assert.Equal(t, 1, m.Level())

	m.BumpCommandCounter()
	assert.Equal(t, uint32(1), m.CommandID())

	require.NoError(t, m.Commit(false))
	assert.Equal(t, 0, m.Level())
}

func TestAbortDrainsPendingCreates(t *testing.T) {
	m, mgr := newTestManager(t)
	id := types.RelationID(30000)
	require.NoError(t, mgr.Create(id, types.ForkMain))

	m.Begin()
	m.pending.RecordCreate(id, "backend-1", types.PersistencePermanent, m.Level())

	require.NoError(t, m.Abort())
	assert.False(t, mgr.Exists(id, types.ForkMain))
}

func TestCommitSubReparentsToParentLevel(t *testing.T) {
	m, mgr := newTestManager(t)
	id := types.RelationID(30001)
	require.NoError(t, mgr.Create(id, types.ForkMain))

	m.Begin()
	sub := m.BeginSub()
	m.pending.RecordCreate(id, "backend-1", types.PersistencePermanent, sub)

	require.NoError(t, m.CommitSub())
	assert.Equal(t, 1, m.Level())

	// Still pending at the outer level; top-level abort should now fire it.
	require.NoError(t, m.Abort())
	assert.False(t, mgr.Exists(id, types.ForkMain))
}

func TestAbortSubDrainsOnlyItsOwnLevel(t *testing.T) {
	m, mgr := newTestManager(t)
	outer := types.RelationID(30002)
	inner := types.RelationID(30003)
	require.NoError(t, mgr.Create(outer, types.ForkMain))
	require.NoError(t, mgr.Create(inner, types.ForkMain))

	m.Begin()
	m.pending.RecordCreate(outer, "backend-1", types.PersistencePermanent, m.Level())
	sub := m.BeginSub()
	m.pending.RecordCreate(inner, "backend-1", types.PersistencePermanent, sub)

	require.NoError(t, m.AbortSub())
	assert.False(t, mgr.Exists(inner, types.ForkMain))
	assert.True(t, mgr.Exists(outer, types.ForkMain))
}

func TestLockRelationIDBlocksConcurrentHolder(t *testing.T) {
	m, _ := newTestManager(t)
	id := types.RelationID(30004)
	m.LockRelationID(id)

	var acquired sync.WaitGroup
	acquired.Add(1)
	go func() {
		m.LockRelationID(id)
		acquired.Done()
	}()

	select {
	case <-waitGroupDone(&acquired):
		t.Fatal("second LockRelationID returned before the first released")
	case <-time.After(50 * time.Millisecond):
	}

	m.UnlockRelationID(id)
	<-waitGroupDone(&acquired)
}

func waitGroupDone(wg *sync.WaitGroup) <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		wg.Wait()
		close(ch)
	}()
	return ch
}
