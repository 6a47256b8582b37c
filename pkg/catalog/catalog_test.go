package catalog

import (
	"testing"

	"github.com/relforge/relcore/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestInsertClassRowNullifiesEmptyACLAndOptions(t *testing.T) {
	s := newTestStore(t)
	desc := types.RelationDescriptor{ID: 16384, Name: "widgets", Namespace: "public", Kind: types.RelKindTable}

	require.NoError(t, s.InsertClassRow(desc, nil, nil))

	row, err := s.GetClassRow(16384)
	require.NoError(t, err)
	assert.Nil(t, row.ACL)
	assert.Nil(t, row.Options)
	assert.Equal(t, int64(-1), row.Tuples)
}

func TestInsertClassRowSequenceGetsOnePageOneTuple(t *testing.T) {
	s := newTestStore(t)
	desc := types.RelationDescriptor{ID: 16385, Name: "widgets_id_seq", Namespace: "public", Kind: types.RelKindSequence}

	require.NoError(t, s.InsertClassRow(desc, nil, nil))

	row, err := s.GetClassRow(16385)
	require.NoError(t, err)
	assert.Equal(t, int32(1), row.Pages)
	assert.Equal(t, int64(1), row.Tuples)
}

func TestRelationIDInUseReflectsClassRows(t *testing.T) {
	s := newTestStore(t)
	assert.False(t, s.RelationIDInUse(16386))

	require.NoError(t, s.InsertClassRow(types.RelationDescriptor{ID: 16386, Name: "t", Namespace: "public", Kind: types.RelKindTable}, nil, nil))

	assert.True(t, s.RelationIDInUse(16386))
}

func TestClassRowByNameFindsExactMatch(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.InsertClassRow(types.RelationDescriptor{ID: 16387, Name: "accounts", Namespace: "public", Kind: types.RelKindTable}, nil, nil))

	row, ok, err := s.ClassRowByName("public", "accounts")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, types.RelationID(16387), row.Desc.ID)

	_, ok, err = s.ClassRowByName("public", "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdatePartitionBoundClearsHasSubclasses(t *testing.T) {
	s := newTestStore(t)
	desc := types.RelationDescriptor{ID: 16388, Name: "p1", Namespace: "public", Kind: types.RelKindTable, HasSubclasses: true}
	require.NoError(t, s.InsertClassRow(desc, nil, nil))

	require.NoError(t, s.UpdatePartitionBound(16388, "FOR VALUES FROM (1) TO (100)"))

	row, err := s.GetClassRow(16388)
	require.NoError(t, err)
	assert.True(t, row.Desc.IsPartition)
	assert.Equal(t, "FOR VALUES FROM (1) TO (100)", row.Desc.PartitionBound)
	assert.False(t, row.HasSubclasses)
}

func TestInsertAttributeRowsAppendsSystemAttributesWhenCarried(t *testing.T) {
	s := newTestStore(t)
	td := types.TupleDescriptor{Attributes: []types.AttributeDefinition{
		{Name: "id", AttNum: 1, TypeID: 23},
		{Name: "name", AttNum: 2, TypeID: 25},
	}}

	require.NoError(t, s.InsertAttributeRows(16389, td, types.RelKindTable, 0))

	attrs, err := s.ListAttributes(16389)
	require.NoError(t, err)
	assert.Len(t, attrs, 2+len(types.SystemAttributes))
}

func TestInsertAttributeRowsSkipsSystemAttributesForViews(t *testing.T) {
	s := newTestStore(t)
	td := types.TupleDescriptor{Attributes: []types.AttributeDefinition{{Name: "x", AttNum: 1, TypeID: 23}}}

	require.NoError(t, s.InsertAttributeRows(16390, td, types.RelKindView, 1))

	attrs, err := s.ListAttributes(16390)
	require.NoError(t, err)
	assert.Len(t, attrs, 1)
}

func TestInsertAttrdefRowAllocatesIncreasingIDs(t *testing.T) {
	s := newTestStore(t)
	id1, err := s.InsertAttrdefRow(16391, 2, "0")
	require.NoError(t, err)
	id2, err := s.InsertAttrdefRow(16391, 3, "'x'")
	require.NoError(t, err)
	assert.Greater(t, id2, id1)
}

func TestInsertConstraintRowAndFindByName(t *testing.T) {
	s := newTestStore(t)
	c := types.CookedConstraint{Kind: types.ConstraintCheck, Name: "widgets_price_check", Expression: "price > 0"}

	stored, err := s.InsertConstraintRow(16392, c)
	require.NoError(t, err)
	assert.NotZero(t, stored.StoredID)

	row, ok, err := s.FindConstraintByName(16392, "widgets_price_check")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "price > 0", row.Constraint.Expression)
}

func TestDeleteAttributesRemovesOnlyMatchingClass(t *testing.T) {
	s := newTestStore(t)
	td := types.TupleDescriptor{Attributes: []types.AttributeDefinition{{Name: "a", AttNum: 1, TypeID: 23}}}
	require.NoError(t, s.InsertAttributeRows(16393, td, types.RelKindView, 1))
	require.NoError(t, s.InsertAttributeRows(16394, td, types.RelKindView, 1))

	require.NoError(t, s.DeleteAttributes(16393))

	left, err := s.ListAttributes(16393)
	require.NoError(t, err)
	assert.Empty(t, left)

	other, err := s.ListAttributes(16394)
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestTypeRowByNameFindsExactMatch(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.InsertTypeRow(TypeRow{ID: 16396, Kind: "composite", Name: "widgets", Namespace: "public", OwnerRelation: types.RelationID(16387)}))

	row, ok, err := s.TypeRowByName("public", "widgets")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(16396), row.ID)

	_, ok, err = s.TypeRowByName("public", "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetInheritsRowByChildFindsParent(t *testing.T) {
	s := newTestStore(t)
	child := types.RelationID(16397)
	parent := types.RelationID(16398)
	require.NoError(t, s.InsertInheritsRow(InheritsRow{Child: child, Parent: parent}))

	row, ok, err := s.GetInheritsRowByChild(child)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, parent, row.Parent)

	_, ok, err = s.GetInheritsRowByChild(types.RelationID(16399))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAllReferencedByForeignKeysFindsReferencingConstraint(t *testing.T) {
	s := newTestStore(t)
	target := types.RelationID(16400)
	referencer := types.RelationID(16401)
	other := types.RelationID(16402)

	_, err := s.InsertConstraintRow(referencer, types.CookedConstraint{Kind: types.ConstraintForeignKey, Name: "fk_target", ReferencedRelation: target})
	require.NoError(t, err)
	_, err = s.InsertConstraintRow(other, types.CookedConstraint{Kind: types.ConstraintCheck, Name: "chk_other", Expression: "1 > 0"})
	require.NoError(t, err)

	out, err := s.AllReferencedByForeignKeys(map[types.RelationID]bool{target: true})
	require.NoError(t, err)
	assert.True(t, out[referencer])
	assert.False(t, out[other])
}

func TestInsertDependencyEdgeListsByReferrer(t *testing.T) {
	s := newTestStore(t)
	addr := types.ObjectAddress{ClassID: "pg_class", ObjectID: 16395}
	edge := types.DependencyEdge{Referrer: addr, Referent: types.ObjectAddress{ClassID: "pg_namespace", ObjectID: 2200}, Kind: types.DepNormal}

	require.NoError(t, s.InsertDependencyEdge(edge))

	edges, err := s.ListDependencyEdgesByReferrer(addr)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, types.DepNormal, edges[0].Kind)
}
