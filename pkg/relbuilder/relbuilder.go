// Package relbuilder is the Relation Builder of spec §4.E: it orchestrates
// the Type Checker, Catalog Row Writer, Dependency Edge Emitter, OID
// allocator, storage manager, and pending-action log through the 17-step
// sequence that takes a relation from an in-memory descriptor to a
// committed catalog entry.
package relbuilder

import (
	"fmt"

	"github.com/relforge/relcore/pkg/catalog"
	"github.com/relforge/relcore/pkg/depgraph"
	"github.com/relforge/relcore/pkg/metrics"
	"github.com/relforge/relcore/pkg/oid"
	"github.com/relforge/relcore/pkg/pending"
	"github.com/relforge/relcore/pkg/relerrors"
	"github.com/relforge/relcore/pkg/smgr"
	"github.com/relforge/relcore/pkg/txn"
	"github.com/relforge/relcore/pkg/typecheck"
	"github.com/relforge/relcore/pkg/types"
)

// GlobalTablespace is the reserved tablespace name shared relations must
// use (step 5 of create_with_catalog).
const GlobalTablespace = "pg_global"

// BinaryUpgradeOverride is a one-shot next-id slot consulted by step 6, the
// way pg_upgrade pins ids across a dump/restore cycle.
type BinaryUpgradeOverride struct {
	NextHeapID  types.RelationID
	NextToastID types.RelationID
}

// CreateRequest mirrors the `spec` argument of create_with_catalog.
type CreateRequest struct {
	Name         string
	Namespace    string
	Tablespace   string
	RequestedID  types.RelationID // zero means "allocate"
	OfTypeID     uint32           // zero means no OF-type
	Owner        uint32
	AccessMethod string
	Descriptor   types.TupleDescriptor
	Constraints  []typecheck.NewConstraintRequest
	Kind         types.RelationKind
	Persistence  types.Persistence
	Shared       bool
	Mapped       bool
	OnCommit     types.OnCommitAction

	Options               []byte
	ACL                   []byte
	UseUserDefaultACL     bool
	AllowSystemMods       bool
	IsInternal            bool
	BootstrapMode         bool
	BackendTag            string
	CurrentExtensionOID   uint32
}

// CreateResult reports the committed id and, if a row-type was created, its
// address.
type CreateResult struct {
	ID             types.RelationID
	TypeID         uint32
	ArrayTypeID    uint32
}

// OnCommitRegistry is consulted for step 16 (temp-table ON COMMIT actions).
type OnCommitRegistry interface {
	Register(id types.RelationID, action types.OnCommitAction)
}

// Builder wires together every external collaborator create_with_catalog
// needs.
type Builder struct {
	OIDs       *oid.Pool
	TypeOIDs   *oid.Pool // separate counter space for composite/array type ids
	Smgr       smgr.Manager
	Catalog    *catalog.Store
	TypeCat    typecheck.TypeCatalog
	Depend     *depgraph.Emitter
	PendingLog *pending.Log
	Txn        *txn.Manager
	OnCommit   OnCommitRegistry
	Override   BinaryUpgradeOverride
}

// CreateWithCatalog implements spec §4.E's 17-step sequence.
func (b *Builder) CreateWithCatalog(req CreateRequest) (result CreateResult, err error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.CreateWithCatalogDuration)

	// Step 1: assert processing mode normal/bootstrap is the caller's
	// responsibility in this core (there is no global processing-mode
	// flag); row-exclusive access is represented by the catalog.Store's
	// db.Update transactions taken below.

	// Step 2: validate the descriptor.
	flags := typecheck.AllowFlags{AllowAnyArray: req.AllowSystemMods}
	if err := typecheck.CheckNamesAndTypes(b.TypeCat, req.Descriptor, req.Kind, flags); err != nil {
		return result, err
	}

	// Step 3: name collision.
	if _, exists, lookupErr := b.Catalog.ClassRowByName(req.Namespace, req.Name); lookupErr != nil {
		return result, fmt.Errorf("relbuilder: create_with_catalog: name lookup: %w", lookupErr)
	} else if exists {
		return result, relerrors.Newf(relerrors.CodeDuplicateTable, "relation %q already exists", req.Name)
	}

	// Step 4: type-name collision. Creating a relation with a row type also
	// creates a composite pg_type row sharing the relation's name, so a
	// pre-existing type of that name collides unless it is an
	// auto-generated array type left behind by a relation that has since
	// been dropped, in which case it is renamed out of the way instead of
	// blocking creation.
	if req.Kind.HasRowType() {
		if existing, found, lookupErr := b.Catalog.TypeRowByName(req.Namespace, req.Name); lookupErr != nil {
			return result, fmt.Errorf("relbuilder: create_with_catalog: type name lookup: %w", lookupErr)
		} else if found {
			freeable := existing.Kind == "array" && existing.OwnerRelation.Valid()
			if freeable {
				if _, ownerErr := b.Catalog.GetClassRow(existing.OwnerRelation); ownerErr == nil {
					freeable = false // owning relation still exists; not auto-generated debris.
				}
			}
			if !freeable {
				return result, relerrors.Newf(relerrors.CodeDuplicateObject, "type %q already exists", req.Name)
			}
			if err := b.Catalog.RenameTypeOutOfTheWay(existing.ID); err != nil {
				return result, fmt.Errorf("relbuilder: create_with_catalog: rename type out of the way: %w", err)
			}
		}
	}

	// Step 5: shared relations must live in the global tablespace.
	if req.Shared && req.Tablespace != GlobalTablespace {
		return result, relerrors.New(relerrors.CodeInvalidObjectDefinition, "shared relations must be placed in the global tablespace")
	}

	// Step 6: resolve the relation id.
	id, err := b.resolveRelationID(req)
	if err != nil {
		return result, err
	}

	// Step 7: access-exclusive lock on the chosen id.
	b.Txn.LockRelationID(id)

	desc := types.RelationDescriptor{
		ID: id, Name: req.Name, Namespace: req.Namespace, Tablespace: req.Tablespace,
		Kind: req.Kind, Persistence: req.Persistence, Descriptor: req.Descriptor,
		AccessMethod: req.AccessMethod, Shared: req.Shared, Mapped: req.Mapped, FileIdentity: id,
	}

	// Step 8: initial ACL.
	acl := req.ACL
	if req.UseUserDefaultACL {
		switch req.Kind {
		case types.RelKindTable, types.RelKindView, types.RelKindMaterializedView, types.RelKindForeignTable, types.RelKindPartitionedTable:
			// Default ACL for object-kind TABLE: left to the caller's acl
			// argument; this core has no role/grant subsystem to derive one
			// from, so acl passes through unchanged.
		case types.RelKindSequence:
			// Default ACL for object-kind SEQUENCE: same passthrough.
		default:
			acl = nil
		}
	}

	// Step 9: create the disk file.
	if req.Kind.HasStorage() {
		if err := b.Smgr.Create(id, types.ForkMain); err != nil {
			return result, fmt.Errorf("relbuilder: create_with_catalog: create storage: %w", err)
		}
		b.PendingLog.RecordCreate(id, req.BackendTag, req.Persistence, b.Txn.Level())
	}

	// Step 10: row-type / array-type creation.
	if req.Kind.HasRowType() {
		arrayTypeID, compositeTypeID, typeErr := b.createRowType(id, req.Name, req.Namespace)
		if typeErr != nil {
			return result, typeErr
		}
		desc.TypeID = compositeTypeID
		desc.ArrayTypeID = arrayTypeID
		result.TypeID = compositeTypeID
		result.ArrayTypeID = arrayTypeID
	}

	// Step 11: insert the class row.
	if err := b.Catalog.InsertClassRow(desc, acl, req.Options); err != nil {
		return result, fmt.Errorf("relbuilder: create_with_catalog: insert class row: %w", err)
	}

	// Step 12: insert attribute rows.
	if err := b.Catalog.InsertAttributeRows(id, req.Descriptor, req.Kind, catalog.DefaultInsertBatch); err != nil {
		return result, fmt.Errorf("relbuilder: create_with_catalog: insert attribute rows: %w", err)
	}

	// Step 13: dependency edges.
	if req.Kind != types.RelKindCompositeType && req.Kind != types.RelKindToastStore {
		classAddr := types.ObjectAddress{ClassID: "pg_class", ObjectID: uint32(id)}
		if err := b.Depend.Record(classAddr, types.ObjectAddress{ClassID: "pg_namespace", ObjectID: namespaceOID(req.Namespace)}, types.DepNormal); err != nil {
			return result, err
		}
		if err := b.Depend.RecordOnOwner("pg_class", uint32(id), req.Owner, req.BootstrapMode); err != nil {
			return result, err
		}
		if req.OfTypeID != 0 {
			if err := b.Depend.Record(classAddr, types.ObjectAddress{ClassID: "pg_type", ObjectID: req.OfTypeID}, types.DepNormal); err != nil {
				return result, err
			}
		}
		if err := b.Depend.RecordOnCurrentExtension(classAddr, req.CurrentExtensionOID, false); err != nil {
			return result, err
		}
		wantsAMEdge := req.Kind.HasStorage() && req.AccessMethod != "" && req.Kind != types.RelKindToastStore
		wantsAMEdge = wantsAMEdge || (req.Kind == types.RelKindPartitionedTable && req.AccessMethod != "")
		if wantsAMEdge {
			if err := b.Depend.Record(classAddr, types.ObjectAddress{ClassID: "pg_am", ObjectID: accessMethodOID(req.AccessMethod)}, types.DepNormal); err != nil {
				return result, err
			}
		}
	}

	// Step 14: post-create hook. No external subscriber is wired in this
	// core; left as an explicit no-op extension point.

	// Step 15: store constraints, bumping the command counter first so the
	// just-inserted attribute rows are visible to deparse.
	b.Txn.BumpCommandCounter()
	storeResult, err := typecheck.AddNewConstraints(b.Catalog, typecheck.ParseState{}, id, req.Name, req.Constraints, req.IsInternal)
	if err != nil {
		return result, err
	}
	desc.CheckCount = storeResult.CheckCount
	if err := b.Catalog.InsertClassRow(desc, acl, req.Options); err != nil {
		return result, fmt.Errorf("relbuilder: create_with_catalog: update check count: %w", err)
	}

	// Step 16: ON COMMIT registration.
	if req.OnCommit != types.OnCommitNoop && b.OnCommit != nil {
		b.OnCommit.Register(id, req.OnCommit)
	}

	// Step 17: the relation-level lock is retained until transaction commit
	// by design; txn.Manager releases it in Commit/Abort, not here.
	result.ID = id
	metrics.RelationsCreatedTotal.WithLabelValues(string(req.Kind)).Inc()
	if storeResult.CheckCount > 0 {
		metrics.ConstraintsStoredTotal.WithLabelValues(string(types.ConstraintCheck)).Add(float64(storeResult.CheckCount))
	}
	return result, nil
}

func (b *Builder) resolveRelationID(req CreateRequest) (types.RelationID, error) {
	if req.RequestedID.Valid() {
		return req.RequestedID, nil
	}
	switch req.Kind {
	case types.RelKindToastStore:
		if b.Override.NextToastID.Valid() {
			return b.Override.NextToastID, nil
		}
	case types.RelKindIndex, types.RelKindPartitionedIndex:
		// No override slot for index kinds.
	default:
		if b.Override.NextHeapID.Valid() {
			return b.Override.NextHeapID, nil
		}
	}
	id, err := b.OIDs.NewRelationFileID(req.Tablespace, req.Shared, req.Persistence)
	if err != nil {
		return types.InvalidRelationID, fmt.Errorf("relbuilder: create_with_catalog: allocate id: %w", err)
	}
	return id, nil
}

// createRowType implements step 10: allocate the array-type id first (by
// convention it precedes the composite id), then the composite-type row
// pointing nowhere (it *is* the row type), then the array-type row
// pointing at the composite. The composite type is named after the
// relation itself (the name step 4 checks for collisions); the array type
// follows Postgres's "_name" convention.
func (b *Builder) createRowType(ownerRelation types.RelationID, name, namespace string) (arrayTypeID, compositeTypeID uint32, err error) {
	arrayID, err := b.TypeOIDs.NewRelationFileID("", false, types.PersistencePermanent)
	if err != nil {
		return 0, 0, fmt.Errorf("relbuilder: create_with_catalog: allocate array type id: %w", err)
	}
	compositeID, err := b.TypeOIDs.NewRelationFileID("", false, types.PersistencePermanent)
	if err != nil {
		return 0, 0, fmt.Errorf("relbuilder: create_with_catalog: allocate composite type id: %w", err)
	}
	if err := b.Catalog.InsertTypeRow(catalog.TypeRow{
		ID: uint32(compositeID), Kind: "composite", Name: name, Namespace: namespace, OwnerRelation: ownerRelation,
	}); err != nil {
		return 0, 0, err
	}
	if err := b.Catalog.InsertTypeRow(catalog.TypeRow{
		ID: uint32(arrayID), Kind: "array", Name: "_" + name, Namespace: namespace,
		OwnerRelation: ownerRelation, ElementType: uint32(compositeID),
	}); err != nil {
		return 0, 0, err
	}
	return uint32(arrayID), uint32(compositeID), nil
}

// namespaceOID and accessMethodOID are deliberately trivial: this core has
// no namespace or access-method catalog of its own (out of scope per spec
// §2's component table), so names are folded to a stable numeric id via
// FNV-1a, good enough to make dependency edges distinguishable and
// reproducible across runs without maintaining a second name registry.
func namespaceOID(name string) uint32  { return fnv32a(name) }
func accessMethodOID(name string) uint32 { return fnv32a(name) }

func fnv32a(s string) uint32 {
	const offset32 = 2166136261
	const prime32 = 16777619
	h := uint32(offset32)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime32
	}
	return h
}
