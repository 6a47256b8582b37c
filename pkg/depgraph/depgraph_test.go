package depgraph

import (
	"testing"

	"github.com/relforge/relcore/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	edges []types.DependencyEdge
}

func (f *fakeStore) InsertDependencyEdge(edge types.DependencyEdge) error {
	f.edges = append(f.edges, edge)
	return nil
}

func TestRecordManyInsertsOneEdgePerReferent(t *testing.T) {
	fs := &fakeStore{}
	e := New(fs)
	referrer := types.ObjectAddress{ClassID: "pg_class", ObjectID: 1}
	referents := []types.ObjectAddress{
		{ClassID: "pg_namespace", ObjectID: 2200},
		{ClassID: "pg_type", ObjectID: 23},
	}

	require.NoError(t, e.RecordMany(referrer, referents, types.DepNormal))

	assert.Len(t, fs.edges, 2)
	for _, edge := range fs.edges {
		assert.Equal(t, referrer, edge.Referrer)
		assert.Equal(t, types.DepNormal, edge.Kind)
	}
}

func TestRecordOnOwnerSkippedInBootstrapMode(t *testing.T) {
	fs := &fakeStore{}
	e := New(fs)

	require.NoError(t, e.RecordOnOwner("pg_class", 1, 10, true))
	assert.Empty(t, fs.edges)

	require.NoError(t, e.RecordOnOwner("pg_class", 1, 10, false))
	require.Len(t, fs.edges, 1)
	assert.Equal(t, types.DepOwner, fs.edges[0].Kind)
}

func TestRecordOnACLSkipsOwnerGrantee(t *testing.T) {
	fs := &fakeStore{}
	e := New(fs)

	grantees := []AclGrantee{{GranteeID: 10}, {GranteeID: 20}}
	require.NoError(t, e.RecordOnACL("pg_class", 1, 0, 10, grantees))

	require.Len(t, fs.edges, 1)
	assert.Equal(t, uint32(20), fs.edges[0].Referent.ObjectID)
}

func TestRecordOnCurrentExtensionNoopWhenRecursing(t *testing.T) {
	fs := &fakeStore{}
	e := New(fs)
	addr := types.ObjectAddress{ClassID: "pg_class", ObjectID: 1}

	require.NoError(t, e.RecordOnCurrentExtension(addr, 5, true))
	assert.Empty(t, fs.edges)

	require.NoError(t, e.RecordOnCurrentExtension(addr, 5, false))
	require.Len(t, fs.edges, 1)
	assert.Equal(t, types.DepExtension, fs.edges[0].Kind)
}

func TestRecordOnExpressionReversesSelfDeps(t *testing.T) {
	fs := &fakeStore{}
	e := New(fs)
	addr := types.ObjectAddress{ClassID: "pg_attrdef", ObjectID: 1}

	require.NoError(t, e.RecordOnExpression(NewTextExpressionWalker(), addr, "$1 + 1", 16384, types.DepNormal, types.DepNormal, true))

	require.Len(t, fs.edges, 1)
	assert.Equal(t, int32(1), fs.edges[0].Referrer.SubID)
	assert.Equal(t, addr, fs.edges[0].Referent)
}
