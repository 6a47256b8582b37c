// Package reldestroy is the Relation Destroyer & Mutator of spec §4.F:
// drop_with_catalog, truncate, non_transactional_truncate,
// remove_attribute_by_id, find_referencing_fks, and store_partition_bound.
package reldestroy

import (
	"fmt"
	"sort"

	"github.com/relforge/relcore/pkg/catalog"
	"github.com/relforge/relcore/pkg/metrics"
	"github.com/relforge/relcore/pkg/pending"
	"github.com/relforge/relcore/pkg/relerrors"
	"github.com/relforge/relcore/pkg/smgr"
	"github.com/relforge/relcore/pkg/txn"
	"github.com/relforge/relcore/pkg/types"
	"github.com/relforge/relcore/pkg/wal"
)

// CacheInvalidator receives relation-cache flush notifications; this core
// has no shared relation cache of its own (single-process, in the same
// sense bolt.DB is single-writer), so a nil Invalidator is valid and every
// call below becomes a no-op.
type CacheInvalidator interface {
	Invalidate(id types.RelationID)
}

// Destroyer wires together every external collaborator the destroy/mutate
// operations need.
type Destroyer struct {
	Catalog    *catalog.Store
	Smgr       smgr.Manager
	PendingLog *pending.Log
	Txn        *txn.Manager
	Wal        wal.Writer
	Cache      CacheInvalidator
}

func (d *Destroyer) invalidate(id types.RelationID) {
	if d.Cache != nil {
		d.Cache.Invalidate(id)
	}
}

// DropWithCatalog implements spec §4.F's drop_with_catalog. The caller is
// assumed to have already performed the dependency cascade; this removes
// only id's own rows.
func (d *Destroyer) DropWithCatalog(id types.RelationID) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.DropWithCatalogDuration)

	row, err := d.Catalog.GetClassRow(id)
	if err != nil {
		return fmt.Errorf("reldestroy: drop_with_catalog: %w", err)
	}

	var parentLocked, defaultPartitionLocked types.RelationID
	if row.Desc.IsPartition {
		// Step 1: lock parent (and sibling default partition, if any and
		// distinct from id) before proceeding.
		if inh, found, err := d.Catalog.GetInheritsRowByChild(id); err != nil {
			return fmt.Errorf("reldestroy: drop_with_catalog: lookup parent: %w", err)
		} else if found {
			d.Txn.LockRelationID(inh.Parent)
			parentLocked = inh.Parent
			if pt, ok, err := d.Catalog.GetPartitionedTable(inh.Parent); err != nil {
				return fmt.Errorf("reldestroy: drop_with_catalog: lookup default partition: %w", err)
			} else if ok && pt.DefaultPartition.Valid() && pt.DefaultPartition != id {
				d.Txn.LockRelationID(pt.DefaultPartition)
				defaultPartitionLocked = pt.DefaultPartition
			}
		}
	}

	// Step 4: foreign-table row.
	if row.Desc.Kind == types.RelKindForeignTable {
		if err := d.Catalog.DeleteForeignTable(id); err != nil {
			return fmt.Errorf("reldestroy: drop_with_catalog: delete foreign table row: %w", err)
		}
	}

	// Step 5: partition-key row.
	if row.Desc.Kind == types.RelKindPartitionedTable {
		if err := d.Catalog.DeletePartitionedTable(id); err != nil {
			return fmt.Errorf("reldestroy: drop_with_catalog: delete partitioned table row: %w", err)
		}
	}

	// Step 6: if id is a default partition, clear the parent's slot. The
	// parent is found through id's pg_inherits row, then the parent's
	// partitioned-table row is read and its slot compared with id.
	if err := d.clearDefaultPartitionSlotIfOwned(id); err != nil {
		return err
	}

	// Step 7: schedule storage drop.
	if row.Desc.Kind.HasStorage() {
		d.PendingLog.RecordDrop(id, d.Txn.BackendTag, d.Txn.Level())
	}

	// Step 8: drop statistics.
	if err := d.Catalog.DeleteStatistics(id); err != nil {
		return fmt.Errorf("reldestroy: drop_with_catalog: delete statistics: %w", err)
	}

	// Step 9: close the relation handle, holding the lock until commit.
	// Represented here by simply not calling UnlockRelationID; txn.Manager
	// releases every held id lock at Commit/Abort.

	// Step 10: subscription-relation states.
	if err := d.Catalog.DeleteSubscriptionRel(id); err != nil {
		return fmt.Errorf("reldestroy: drop_with_catalog: delete subscription rel: %w", err)
	}

	// Step 11: on-commit registration removal is the caller's
	// responsibility (the registry lives in relbuilder.OnCommitRegistry,
	// which this package does not hold a reference to).

	// Step 12: flush relation-cache entry.
	d.invalidate(id)

	// Step 13: inheritance rows where id is the child.
	if err := d.Catalog.DeleteInheritsByChild(id); err != nil {
		return fmt.Errorf("reldestroy: drop_with_catalog: delete inherits: %w", err)
	}

	// Step 14: attribute rows.
	if err := d.Catalog.DeleteAttributes(id); err != nil {
		return fmt.Errorf("reldestroy: drop_with_catalog: delete attributes: %w", err)
	}

	// Step 15: class row.
	if err := d.Catalog.DeleteClassRow(id); err != nil {
		return fmt.Errorf("reldestroy: drop_with_catalog: delete class row: %w", err)
	}

	// Step 16: invalidate any parent/default-partition locks taken in step 1.
	if parentLocked.Valid() {
		d.invalidate(parentLocked)
	}
	if defaultPartitionLocked.Valid() && defaultPartitionLocked != parentLocked {
		d.invalidate(defaultPartitionLocked)
	}
	metrics.RelationsDroppedTotal.WithLabelValues(string(row.Desc.Kind)).Inc()
	return nil
}

func (d *Destroyer) clearDefaultPartitionSlotIfOwned(id types.RelationID) error {
	inh, found, err := d.Catalog.GetInheritsRowByChild(id)
	if err != nil {
		return fmt.Errorf("reldestroy: drop_with_catalog: lookup parent: %w", err)
	}
	if !found {
		return nil
	}
	pt, ok, err := d.Catalog.GetPartitionedTable(inh.Parent)
	if err != nil {
		return fmt.Errorf("reldestroy: drop_with_catalog: lookup default partition: %w", err)
	}
	if !ok || pt.DefaultPartition != id {
		return nil
	}
	pt.DefaultPartition = types.InvalidRelationID
	if err := d.Catalog.UpsertPartitionedTable(*pt); err != nil {
		return fmt.Errorf("reldestroy: drop_with_catalog: clear default partition slot: %w", err)
	}
	d.invalidate(inh.Parent)
	return nil
}

// TruncatePlan is the decision truncate makes about which forks to touch
// and to what size.
type TruncatePlan struct {
	MainBlocks int64
	FSMBlocks  int64 // -1 means "fork does not exist / not touched"
	VMBlocks   int64
}

// ForkPlanner lets a real buffer manager propose its own truncation point
// for the FSM or VM fork; Truncate takes one planner per fork. A nil
// planner, or one that returns ok=false, leaves that fork untouched: it is
// neither resized nor flagged in the WAL record.
type ForkPlanner interface {
	PlanTruncation(id types.RelationID) (newBlocks int64, ok bool)
}

// Truncate implements spec §4.F's truncate: WAL-logged resizing.
func (d *Destroyer) Truncate(id types.RelationID, mainBlocks int64, fsmPlanner, vmPlanner ForkPlanner) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.TruncateDuration)
	metrics.TruncateCallsTotal.Inc()

	plan := TruncatePlan{MainBlocks: mainBlocks, FSMBlocks: -1, VMBlocks: -1}
	touchesFSM := false
	touchesVM := false
	if fsmPlanner != nil {
		if n, ok := fsmPlanner.PlanTruncation(id); ok {
			plan.FSMBlocks = n
			touchesFSM = true
		}
	}
	if vmPlanner != nil {
		if n, ok := vmPlanner.PlanTruncation(id); ok {
			plan.VMBlocks = n
			touchesVM = true
		}
	}

	d.PendingLog.MarkTruncated(id)

	flags := wal.FlagMain
	if touchesFSM {
		flags |= wal.FlagFSM
	}
	if touchesVM {
		flags |= wal.FlagVM
	}
	lsn, err := d.Wal.InsertSmgrTruncate(wal.SmgrTruncateRecord{NewMainBlocks: mainBlocks, FileID: id, Flags: flags})
	if err != nil {
		return fmt.Errorf("reldestroy: truncate: wal insert: %w", err)
	}
	if touchesFSM || touchesVM {
		if err := d.Wal.Flush(lsn); err != nil {
			return fmt.Errorf("reldestroy: truncate: wal flush: %w", err)
		}
	}

	if err := d.Smgr.Truncate(id, types.ForkMain, plan.MainBlocks); err != nil {
		return fmt.Errorf("reldestroy: truncate: main fork: %w", err)
	}
	if touchesFSM {
		if err := d.Smgr.Truncate(id, types.ForkFSM, plan.FSMBlocks); err != nil {
			return fmt.Errorf("reldestroy: truncate: fsm fork: %w", err)
		}
	}
	if touchesVM {
		if err := d.Smgr.Truncate(id, types.ForkVM, plan.VMBlocks); err != nil {
			return fmt.Errorf("reldestroy: truncate: vm fork: %w", err)
		}
	}
	return nil
}

// NonTransactionalTruncate implements the on-commit path for temp tables:
// not rollback-safe. Every relation in ids is truncated directly, after
// confirming no foreign key crosses the set boundary (self-references are
// permitted).
func (d *Destroyer) NonTransactionalTruncate(ids []types.RelationID) error {
	idSet := make(map[types.RelationID]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}
	referencing, err := d.FindReferencingFKs(ids)
	if err != nil {
		return fmt.Errorf("reldestroy: non_transactional_truncate: %w", err)
	}
	for _, r := range referencing {
		if !idSet[r] {
			return relerrors.Newf(relerrors.CodeInvalidTableDefinition,
				"cannot truncate a table referenced in a foreign key constraint by relation %d", r)
		}
	}

	for _, id := range ids {
		row, err := d.Catalog.GetClassRow(id)
		if err != nil {
			return fmt.Errorf("reldestroy: non_transactional_truncate: %w", err)
		}
		if row.Desc.Kind == types.RelKindPartitionedTable {
			continue // no storage of its own
		}
		if err := d.Smgr.Truncate(id, types.ForkMain, 0); err != nil {
			return fmt.Errorf("reldestroy: non_transactional_truncate: %w", err)
		}
	}
	return nil
}

// RemoveAttributeByID implements spec §4.F's remove_attribute_by_id:
// ALTER TABLE DROP COLUMN's mechanics.
func (d *Destroyer) RemoveAttributeByID(relID types.RelationID, attNum int32) error {
	d.Txn.LockRelationID(relID)

	attrs, err := d.Catalog.ListAttributes(relID)
	if err != nil {
		return fmt.Errorf("reldestroy: remove_attribute_by_id: %w", err)
	}
	var target *types.AttributeDefinition
	for i := range attrs {
		if attrs[i].AttNum == attNum {
			target = &attrs[i]
			break
		}
	}
	if target == nil {
		return relerrors.Newf(relerrors.CodeInvalidColumnReference, "relation %d has no attribute %d", relID, attNum)
	}

	target.Dropped = true
	target.TypeID = uint32(types.InvalidRelationID)
	target.NotNull = false
	target.Generated = types.GeneratedNone
	target.Name = fmt.Sprintf(types.DroppedColumnPattern, attNum)
	target.MissingValue = nil
	target.StatTarget = nil

	if err := d.Catalog.UpdateAttribute(relID, *target); err != nil {
		return fmt.Errorf("reldestroy: remove_attribute_by_id: update: %w", err)
	}
	d.invalidate(relID)
	if err := d.Catalog.DeleteStatistics(relID); err != nil {
		return fmt.Errorf("reldestroy: remove_attribute_by_id: delete statistics: %w", err)
	}
	metrics.ColumnsDroppedTotal.Inc()
	return nil
}

// FindReferencingFKs implements spec §4.F's find_referencing_fks: every
// relation outside ids holding a foreign-key constraint that directly
// references one of them (each rescan queries the same input set, so
// referencers of referencers are not added), so
// non_transactional_truncate can refuse to truncate out from under a
// referencing table that isn't itself part of the truncate set.
func (d *Destroyer) FindReferencingFKs(ids []types.RelationID) ([]types.RelationID, error) {
	inputSet := make(map[types.RelationID]bool, len(ids))
	for _, id := range ids {
		inputSet[id] = true
	}
	result := map[types.RelationID]bool{}
	for {
		next, err := d.Catalog.AllReferencedByForeignKeys(inputSet)
		if err != nil {
			return nil, err
		}
		added := false
		for id := range next {
			if inputSet[id] || result[id] {
				continue
			}
			result[id] = true
			added = true
		}
		if !added {
			break
		}
	}
	out := make([]types.RelationID, 0, len(result))
	for id := range result {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// StorePartitionBound implements spec §4.F's store_partition_bound.
func (d *Destroyer) StorePartitionBound(rel, parent types.RelationID, bound string, isDefaultPartition bool) error {
	if err := d.Catalog.UpdatePartitionBound(rel, bound); err != nil {
		return fmt.Errorf("reldestroy: store_partition_bound: %w", err)
	}
	if isDefaultPartition {
		existing, _, err := d.Catalog.GetPartitionedTable(parent)
		if err != nil {
			return fmt.Errorf("reldestroy: store_partition_bound: %w", err)
		}
		row := catalog.PartitionedTableRow{ClassID: parent, DefaultPartition: rel}
		if existing != nil {
			row = *existing
			row.DefaultPartition = rel
		}
		if err := d.Catalog.UpsertPartitionedTable(row); err != nil {
			return fmt.Errorf("reldestroy: store_partition_bound: %w", err)
		}
	}
	d.Txn.BumpCommandCounter()
	d.invalidate(parent)
	if existing, ok, _ := d.Catalog.GetPartitionedTable(parent); ok && existing.DefaultPartition.Valid() && existing.DefaultPartition != rel {
		d.invalidate(existing.DefaultPartition)
	}
	return nil
}
