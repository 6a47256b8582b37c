package reconciler

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/relforge/relcore/pkg/catalog"
	"github.com/relforge/relcore/pkg/metrics"
	"github.com/relforge/relcore/pkg/smgr"
	"github.com/relforge/relcore/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestAuditDetectsOrphanRow(t *testing.T) {
	store, err := catalog.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	mgr, err := smgr.NewDiskManager(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.InsertClassRow(types.RelationDescriptor{
		ID: 30000, Name: "orphan", Namespace: "public", Kind: types.RelKindTable,
	}, nil, nil))

	j := New(store, mgr, time.Second)
	require.NoError(t, j.audit())

	require.Equal(t, float64(1), testutil.ToFloat64(metrics.JanitorOrphansFound))
}

func TestAuditCleanWhenFileExists(t *testing.T) {
	store, err := catalog.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	mgr, err := smgr.NewDiskManager(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.InsertClassRow(types.RelationDescriptor{
		ID: 30001, Name: "present", Namespace: "public", Kind: types.RelKindTable,
	}, nil, nil))
	require.NoError(t, mgr.Create(30001, types.ForkMain))

	j := New(store, mgr, time.Second)
	require.NoError(t, j.audit())

	require.Equal(t, float64(0), testutil.ToFloat64(metrics.JanitorOrphansFound))
}

func TestStartStop(t *testing.T) {
	store, err := catalog.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	mgr, err := smgr.NewDiskManager(t.TempDir())
	require.NoError(t, err)

	j := New(store, mgr, time.Millisecond)
	j.Start()
	time.Sleep(5 * time.Millisecond)
	j.Stop()
}
