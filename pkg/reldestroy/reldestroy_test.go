package reldestroy

import (
	"path/filepath"
	"testing"

	"github.com/hashicorp/raft"
	boltdb "github.com/hashicorp/raft-boltdb"
	"github.com/relforge/relcore/pkg/catalog"
	"github.com/relforge/relcore/pkg/pending"
	"github.com/relforge/relcore/pkg/smgr"
	"github.com/relforge/relcore/pkg/txn"
	"github.com/relforge/relcore/pkg/types"
	"github.com/relforge/relcore/pkg/wal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDestroyer(t *testing.T) *Destroyer {
	store, err := catalog.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	diskMgr, err := smgr.NewDiskManager(t.TempDir())
	require.NoError(t, err)

	logStore, err := boltdb.NewBoltStore(filepath.Join(t.TempDir(), "wal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = logStore.Close() })
	var _ raft.LogStore = logStore

	pendingLog := pending.New(diskMgr, nil)
	txnMgr := txn.New(pendingLog)
	txnMgr.Begin()

	return &Destroyer{
		Catalog:    store,
		Smgr:       diskMgr,
		PendingLog: pendingLog,
		Txn:        txnMgr,
		Wal:        wal.NewLogStoreWriter(logStore),
	}
}

func seedTable(t *testing.T, d *Destroyer, id types.RelationID) {
	desc := types.RelationDescriptor{ID: id, Name: "t", Namespace: "public", Kind: types.RelKindTable}
	require.NoError(t, d.Catalog.InsertClassRow(desc, nil, nil))
	td := types.TupleDescriptor{Attributes: []types.AttributeDefinition{{Name: "a", AttNum: 1, TypeID: 23}}}
	require.NoError(t, d.Catalog.InsertAttributeRows(id, td, types.RelKindTable, 0))
	require.NoError(t, d.Smgr.Create(id, types.ForkMain))
}

func TestDropWithCatalogRemovesClassAndAttributeRows(t *testing.T) {
	d := newTestDestroyer(t)
	id := types.RelationID(40000)
	seedTable(t, d, id)

	require.NoError(t, d.DropWithCatalog(id))

	_, err := d.Catalog.GetClassRow(id)
	assert.Error(t, err)

	attrs, err := d.Catalog.ListAttributes(id)
	require.NoError(t, err)
	assert.Empty(t, attrs)
}

func TestDropWithCatalogSchedulesStorageDrop(t *testing.T) {
	d := newTestDestroyer(t)
	id := types.RelationID(40001)
	seedTable(t, d, id)

	require.NoError(t, d.DropWithCatalog(id))
	assert.Equal(t, 1, d.PendingLog.Len())

	require.NoError(t, d.PendingLog.Drain(true, d.Txn.Level()))
	assert.False(t, d.Smgr.Exists(id, types.ForkMain))
}

func TestTruncateEmitsWALBeforeResizing(t *testing.T) {
	d := newTestDestroyer(t)
	id := types.RelationID(40002)
	seedTable(t, d, id)
	require.NoError(t, d.Smgr.Truncate(id, types.ForkMain, 10))

	require.NoError(t, d.Truncate(id, 3, nil, nil))

	n, err := d.Smgr.NBlocks(id, types.ForkMain)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	records, err := d.Wal.Replay()
	require.NoError(t, err)
	require.Len(t, records, 1)
	rec, ok := records[0].(wal.SmgrTruncateRecord)
	require.True(t, ok)
	assert.Equal(t, int64(3), rec.NewMainBlocks)
}

func TestRemoveAttributeByIDMarksDropped(t *testing.T) {
	d := newTestDestroyer(t)
	id := types.RelationID(40003)
	seedTable(t, d, id)

	require.NoError(t, d.RemoveAttributeByID(id, 1))

	attrs, err := d.Catalog.ListAttributes(id)
	require.NoError(t, err)
	// seedTable's table kind also stores the system-attribute rows, which
	// sort before attnum 1.
	require.Len(t, attrs, 1+len(types.SystemAttributes))
	user := attrs[len(attrs)-1]
	assert.Equal(t, int32(1), user.AttNum)
	assert.True(t, user.Dropped)
	assert.Equal(t, "........pg.dropped.1........", user.Name)
}

func TestRemoveAttributeByIDErrorsOnUnknownAttNum(t *testing.T) {
	d := newTestDestroyer(t)
	id := types.RelationID(40004)
	seedTable(t, d, id)

	err := d.RemoveAttributeByID(id, 99)
	assert.Error(t, err)
}

func TestFindReferencingFKsIsEmptyWithoutAnyForeignKeyConstraints(t *testing.T) {
	d := newTestDestroyer(t)
	out, err := d.FindReferencingFKs([]types.RelationID{1, 2, 3})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestFindReferencingFKsFindsReferencingRelation(t *testing.T) {
	d := newTestDestroyer(t)
	target := types.RelationID(40010)
	referencer := types.RelationID(40011)

	_, err := d.Catalog.InsertConstraintRow(referencer, types.CookedConstraint{
		Kind: types.ConstraintForeignKey, Name: "fk_target", ReferencedRelation: target,
	})
	require.NoError(t, err)

	out, err := d.FindReferencingFKs([]types.RelationID{target})
	require.NoError(t, err)
	assert.Equal(t, []types.RelationID{referencer}, out)
}

func TestNonTransactionalTruncateRejectsExternalReferencer(t *testing.T) {
	d := newTestDestroyer(t)
	target := types.RelationID(40012)
	referencer := types.RelationID(40013)
	seedTable(t, d, target)
	seedTable(t, d, referencer)

	_, err := d.Catalog.InsertConstraintRow(referencer, types.CookedConstraint{
		Kind: types.ConstraintForeignKey, Name: "fk_target", ReferencedRelation: target,
	})
	require.NoError(t, err)

	err = d.NonTransactionalTruncate([]types.RelationID{target})
	assert.Error(t, err)
}

func TestStorePartitionBoundSetsDefaultPartitionSlot(t *testing.T) {
	d := newTestDestroyer(t)
	parent := types.RelationID(40005)
	child := types.RelationID(40006)
	require.NoError(t, d.Catalog.InsertClassRow(types.RelationDescriptor{ID: parent, Name: "p", Namespace: "public", Kind: types.RelKindPartitionedTable}, nil, nil))
	require.NoError(t, d.Catalog.InsertClassRow(types.RelationDescriptor{ID: child, Name: "c", Namespace: "public", Kind: types.RelKindTable}, nil, nil))

	require.NoError(t, d.StorePartitionBound(child, parent, "DEFAULT", true))

	part, ok, err := d.Catalog.GetPartitionedTable(parent)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, child, part.DefaultPartition)

	row, err := d.Catalog.GetClassRow(child)
	require.NoError(t, err)
	assert.True(t, row.Desc.IsPartition)
	assert.Equal(t, "DEFAULT", row.Desc.PartitionBound)
}

func TestDropWithCatalogClearsParentDefaultPartitionSlot(t *testing.T) {
	d := newTestDestroyer(t)
	parent := types.RelationID(40007)
	child := types.RelationID(40008)
	require.NoError(t, d.Catalog.InsertClassRow(types.RelationDescriptor{ID: parent, Name: "p", Namespace: "public", Kind: types.RelKindPartitionedTable}, nil, nil))
	seedTable(t, d, child)
	require.NoError(t, d.Catalog.InsertInheritsRow(catalog.InheritsRow{Child: child, Parent: parent}))
	require.NoError(t, d.StorePartitionBound(child, parent, "DEFAULT", true))

	require.NoError(t, d.DropWithCatalog(child))

	part, ok, err := d.Catalog.GetPartitionedTable(parent)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, types.InvalidRelationID, part.DefaultPartition)
}
