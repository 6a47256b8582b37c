package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/relforge/relcore/pkg/catalog"
	"github.com/relforge/relcore/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestCollectorUpdatesRelationsTotal(t *testing.T) {
	store, err := catalog.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.InsertClassRow(types.RelationDescriptor{
		ID: 20000, Name: "t1", Namespace: "public", Kind: types.RelKindTable,
	}, nil, nil))
	require.NoError(t, store.InsertClassRow(types.RelationDescriptor{
		ID: 20001, Name: "t2", Namespace: "public", Kind: types.RelKindTable,
	}, nil, nil))
	require.NoError(t, store.InsertClassRow(types.RelationDescriptor{
		ID: 20002, Name: "v1", Namespace: "public", Kind: types.RelKindView,
	}, nil, nil))

	c := NewCollector(store)
	c.collect()

	assert := require.New(t)
	assert.Equal(float64(2), testutil.ToFloat64(RelationsTotal.WithLabelValues(string(types.RelKindTable))))
	assert.Equal(float64(1), testutil.ToFloat64(RelationsTotal.WithLabelValues(string(types.RelKindView))))
}

func TestCollectorStartStop(t *testing.T) {
	store, err := catalog.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	c := NewCollector(store)
	c.Start()
	c.Stop()
}
