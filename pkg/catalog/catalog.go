// Package catalog is the Catalog Row Writer of spec §4.B: a bbolt-backed
// store holding one bucket per system catalog table (pg_class,
// pg_attribute, pg_type, pg_depend, pg_constraint, pg_attrdef, pg_inherits,
// pg_partitioned_table, pg_statistic, pg_foreign_table,
// pg_subscription_rel). It is modeled directly on pkg/storage/boltdb.go's
// BoltStore: one bolt.DB, JSON-encoded rows keyed by id, db.Update/db.View
// standing in for row-exclusive/row-shared locking.
package catalog

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/relforge/relcore/pkg/types"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketClass       = []byte("pg_class")
	bucketAttribute   = []byte("pg_attribute")
	bucketType        = []byte("pg_type")
	bucketDepend      = []byte("pg_depend")
	bucketConstraint  = []byte("pg_constraint")
	bucketAttrdef     = []byte("pg_attrdef")
	bucketInherits    = []byte("pg_inherits")
	bucketPartitioned = []byte("pg_partitioned_table")
	bucketStatistic   = []byte("pg_statistic")
	bucketForeignTbl  = []byte("pg_foreign_table")
	bucketSubRel      = []byte("pg_subscription_rel")
	bucketSequences   = []byte("meta_sequences")
)

var allBuckets = [][]byte{
	bucketClass, bucketAttribute, bucketType, bucketDepend, bucketConstraint,
	bucketAttrdef, bucketInherits, bucketPartitioned, bucketStatistic,
	bucketForeignTbl, bucketSubRel, bucketSequences,
}

// ClassRow is the persisted shape of one pg_class entry.
type ClassRow struct {
	Desc          types.RelationDescriptor
	ACL           []byte
	Options       []byte
	Pages         int32
	Tuples        int64 // -1 means unknown
	HasSubclasses bool
}

// AttrdefRow is the persisted shape of one pg_attrdef entry.
type AttrdefRow struct {
	ID         uint32
	ClassID    types.RelationID
	AttNum     int32
	Expression string
}

// InheritsRow is one pg_inherits entry.
type InheritsRow struct {
	Child  types.RelationID
	Parent types.RelationID
	SeqNo  int32
}

// PartitionedTableRow tracks a partitioned table's default partition.
type PartitionedTableRow struct {
	ClassID          types.RelationID
	DefaultPartition types.RelationID
}

// Store is the bbolt-backed catalog row writer.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if absent) the catalog database under dataDir and
// ensures every catalog bucket exists.
func Open(dataDir string) (*Store, error) {
	dbPath := filepath.Join(dataDir, "relcore.db")
	db, err := bolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog: open database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("catalog: create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func classKey(id types.RelationID) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(id))
	return b
}

// RelationIDInUse implements oid.ExistsChecker against pg_class.
func (s *Store) RelationIDInUse(id types.RelationID) bool {
	var found bool
	_ = s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(bucketClass).Get(classKey(id)) != nil
		return nil
	})
	return found
}

// InsertClassRow assembles and writes a pg_class row per spec §4.B:
// insert_class_row. acl/options are nullified to nil if empty; the
// partition bound is always written unset (update_partition_bound sets it
// later).
func (s *Store) InsertClassRow(desc types.RelationDescriptor, acl, options []byte) error {
	if len(acl) == 0 {
		acl = nil
	}
	if len(options) == 0 {
		options = nil
	}
	desc.IsPartition = false
	desc.PartitionBound = ""

	row := ClassRow{Desc: desc, ACL: acl, Options: options, Tuples: -1}
	if desc.Kind == types.RelKindSequence {
		row.Pages = 1
		row.Tuples = 1
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(row)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketClass).Put(classKey(desc.ID), data)
	})
}

// GetClassRow reads back a pg_class row.
func (s *Store) GetClassRow(id types.RelationID) (*ClassRow, error) {
	var row ClassRow
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketClass).Get(classKey(id))
		if data == nil {
			return fmt.Errorf("catalog: class row %d not found", id)
		}
		return json.Unmarshal(data, &row)
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ClassRowByName finds a class row by (namespace, name), emulating
// pg_class's unique (relnamespace, relname) index with a bucket scan; the
// dataset this core manages is small enough that this is not a performance
// concern, and it keeps the store's internals to a single bolt.DB.
func (s *Store) ClassRowByName(namespace, name string) (*ClassRow, bool, error) {
	var found *ClassRow
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketClass).ForEach(func(_, v []byte) error {
			if found != nil {
				return nil
			}
			var row ClassRow
			if err := json.Unmarshal(v, &row); err != nil {
				return err
			}
			if row.Desc.Namespace == namespace && row.Desc.Name == name {
				found = &row
			}
			return nil
		})
	})
	if err != nil {
		return nil, false, err
	}
	return found, found != nil, nil
}

// ListClassRows returns every pg_class row currently stored, for callers
// that need to enumerate relations (e.g. the metrics collector) rather than
// look one up by id or name.
func (s *Store) ListClassRows() ([]ClassRow, error) {
	var rows []ClassRow
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketClass).ForEach(func(_, v []byte) error {
			var row ClassRow
			if err := json.Unmarshal(v, &row); err != nil {
				return err
			}
			rows = append(rows, row)
			return nil
		})
	})
	return rows, err
}

// DeleteClassRow removes a pg_class row (step 15 of drop_with_catalog).
func (s *Store) DeleteClassRow(id types.RelationID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketClass).Delete(classKey(id))
	})
}

// UpdatePartitionBound implements spec §4.B's update_partition_bound: sets
// the bound text and is-partition flag atomically, clearing any stale
// has-subclasses flag left over from prior inheritance.
func (s *Store) UpdatePartitionBound(id types.RelationID, bound string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketClass)
		data := b.Get(classKey(id))
		if data == nil {
			return fmt.Errorf("catalog: update_partition_bound: class row %d not found", id)
		}
		var row ClassRow
		if err := json.Unmarshal(data, &row); err != nil {
			return err
		}
		row.Desc.PartitionBound = bound
		row.Desc.IsPartition = true
		row.HasSubclasses = false
		row.Desc.HasSubclasses = false
		out, err := json.Marshal(row)
		if err != nil {
			return err
		}
		return b.Put(classKey(id), out)
	})
}

func attributeKey(classID types.RelationID, attNum int32) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint32(b[0:4], uint32(classID))
	// Bias so negative system-attribute numbers sort before positive user
	// attributes within the same class prefix.
	binary.BigEndian.PutUint32(b[4:8], uint32(attNum+1<<20))
	return b
}

func attributePrefix(classID types.RelationID) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(classID))
	return b
}

// DefaultInsertBatch is the implementation-defined multi-insert threshold
// of insert_attribute_rows: the number of rows grouped into a single bolt
// write transaction.
const DefaultInsertBatch = 64

// InsertAttributeRows batch-inserts one row per user attribute plus, for
// relkinds that carry them, the six-row system-attribute prototype with
// class-id patched in. Rows are grouped into transactions of at most
// batchSize entries (<=0 uses DefaultInsertBatch).
func (s *Store) InsertAttributeRows(classID types.RelationID, td types.TupleDescriptor, kind types.RelationKind, batchSize int) error {
	if batchSize <= 0 {
		batchSize = DefaultInsertBatch
	}
	rows := make([]types.AttributeDefinition, 0, len(td.Attributes)+len(types.SystemAttributes))
	rows = append(rows, td.Attributes...)
	if kind.HasSystemAttributes() {
		rows = append(rows, types.SystemAttributes...)
	}

	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]
		err := s.db.Update(func(tx *bolt.Tx) error {
			b := tx.Bucket(bucketAttribute)
			for _, attr := range chunk {
				attr.CacheOffset = -1
				data, err := json.Marshal(attr)
				if err != nil {
					return err
				}
				if err := b.Put(attributeKey(classID, attr.AttNum), data); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("catalog: insert_attribute_rows: %w", err)
		}
	}
	return nil
}

// ListAttributes returns every attribute row belonging to classID, in
// attribute-number order (system attributes, being negative, sort first
// under the biased key encoding).
func (s *Store) ListAttributes(classID types.RelationID) ([]types.AttributeDefinition, error) {
	var out []types.AttributeDefinition
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketAttribute).Cursor()
		prefix := attributePrefix(classID)
		for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
			var attr types.AttributeDefinition
			if err := json.Unmarshal(v, &attr); err != nil {
				return err
			}
			out = append(out, attr)
		}
		return nil
	})
	return out, err
}

// UpdateAttribute rewrites a single attribute row in place, used by
// remove_attribute_by_id.
func (s *Store) UpdateAttribute(classID types.RelationID, attr types.AttributeDefinition) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(attr)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketAttribute).Put(attributeKey(classID, attr.AttNum), data)
	})
}

// DeleteAttributes removes every attribute row for classID (step 14 of
// drop_with_catalog).
func (s *Store) DeleteAttributes(classID types.RelationID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAttribute)
		c := b.Cursor()
		prefix := attributePrefix(classID)
		var keys [][]byte
		for k, _ := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, _ = c.Next() {
			keys = append(keys, append([]byte(nil), k...))
		}
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func hasPrefix(k, prefix []byte) bool {
	if len(k) < len(prefix) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

func (s *Store) nextSeq(bucket []byte) (uint32, error) {
	var id uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		seqBucket := tx.Bucket(bucketSequences)
		n, err := seqBucket.NextSequence()
		if err != nil {
			return err
		}
		id = n
		_ = bucket
		return nil
	})
	return uint32(id), err
}

// InsertAttrdefRow stores a default-expression row and returns its newly
// allocated identifier, per spec §4.B's insert_attrdef_row.
func (s *Store) InsertAttrdefRow(classID types.RelationID, attNum int32, expression string) (uint32, error) {
	id, err := s.nextSeq(bucketAttrdef)
	if err != nil {
		return 0, fmt.Errorf("catalog: insert_attrdef_row: allocate id: %w", err)
	}
	row := AttrdefRow{ID: id, ClassID: classID, AttNum: attNum, Expression: expression}
	err = s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(row)
		if err != nil {
			return err
		}
		k := make([]byte, 4)
		binary.BigEndian.PutUint32(k, id)
		return tx.Bucket(bucketAttrdef).Put(k, data)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ConstraintRow is the persisted shape of one pg_constraint entry.
type ConstraintRow struct {
	ClassID    types.RelationID
	Constraint types.CookedConstraint
}

func constraintKey(id uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, id)
	return b
}

// InsertConstraintRow delegates to the constraint catalog with the full
// tuple of flags, allocating a StoredID if the caller did not already
// provide one.
func (s *Store) InsertConstraintRow(classID types.RelationID, c types.CookedConstraint) (types.CookedConstraint, error) {
	if c.StoredID == 0 {
		id, err := s.nextSeq(bucketConstraint)
		if err != nil {
			return c, fmt.Errorf("catalog: insert_constraint_row: allocate id: %w", err)
		}
		c.StoredID = id
	}
	row := ConstraintRow{ClassID: classID, Constraint: c}
	err := s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(row)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketConstraint).Put(constraintKey(c.StoredID), data)
	})
	return c, err
}

// FindConstraintByName looks up a (rel, name) match for
// merge_existing_constraint. Rows of any constraint kind match; the caller
// decides what a non-check match means.
func (s *Store) FindConstraintByName(classID types.RelationID, name string) (*ConstraintRow, bool, error) {
	var found *ConstraintRow
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketConstraint).ForEach(func(_, v []byte) error {
			if found != nil {
				return nil
			}
			var row ConstraintRow
			if err := json.Unmarshal(v, &row); err != nil {
				return err
			}
			if row.ClassID == classID && row.Constraint.Name == name {
				found = &row
			}
			return nil
		})
	})
	if err != nil {
		return nil, false, err
	}
	return found, found != nil, nil
}

// ListConstraints returns every constraint row for classID.
func (s *Store) ListConstraints(classID types.RelationID) ([]ConstraintRow, error) {
	var out []ConstraintRow
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketConstraint).ForEach(func(_, v []byte) error {
			var row ConstraintRow
			if err := json.Unmarshal(v, &row); err != nil {
				return err
			}
			if row.ClassID == classID {
				out = append(out, row)
			}
			return nil
		})
	})
	return out, err
}

// UpdateConstraint rewrites an existing constraint row in place, used by
// merge_existing_constraint.
func (s *Store) UpdateConstraint(row ConstraintRow) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(row)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketConstraint).Put(constraintKey(row.Constraint.StoredID), data)
	})
}

// AllReferencedByForeignKeys scans every foreign-key constraint row and
// returns the set of relations holding a constraint that references one of
// targets, used by reldestroy.FindReferencingFKs's fixed-point cascade.
func (s *Store) AllReferencedByForeignKeys(targets map[types.RelationID]bool) (map[types.RelationID]bool, error) {
	out := map[types.RelationID]bool{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketConstraint).ForEach(func(_, v []byte) error {
			var row ConstraintRow
			if err := json.Unmarshal(v, &row); err != nil {
				return err
			}
			if row.Constraint.Kind == types.ConstraintForeignKey && targets[row.Constraint.ReferencedRelation] {
				out[row.ClassID] = true
			}
			return nil
		})
	})
	return out, err
}

// InsertInheritsRow records a child→parent inheritance edge.
func (s *Store) InsertInheritsRow(row InheritsRow) error {
	id, err := s.nextSeq(bucketInherits)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(row)
		if err != nil {
			return err
		}
		k := make([]byte, 4)
		binary.BigEndian.PutUint32(k, id)
		return tx.Bucket(bucketInherits).Put(k, data)
	})
}

// GetInheritsRowByChild finds the inheritance edge naming child as the
// child side, used by drop_with_catalog to locate a partition's parent: the
// catalog has no dedicated parent-id field on RelationDescriptor, so the
// edge recorded by create_with_catalog is the only record of that
// relationship.
func (s *Store) GetInheritsRowByChild(child types.RelationID) (*InheritsRow, bool, error) {
	var found *InheritsRow
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketInherits).ForEach(func(_, v []byte) error {
			if found != nil {
				return nil
			}
			var row InheritsRow
			if err := json.Unmarshal(v, &row); err != nil {
				return err
			}
			if row.Child == child {
				found = &row
			}
			return nil
		})
	})
	if err != nil {
		return nil, false, err
	}
	return found, found != nil, nil
}

// DeleteInheritsByChild removes every inheritance row where child is the
// given relation (step 13 of drop_with_catalog).
func (s *Store) DeleteInheritsByChild(child types.RelationID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketInherits)
		var keys [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var row InheritsRow
			if err := json.Unmarshal(v, &row); err != nil {
				return err
			}
			if row.Child == child {
				keys = append(keys, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpsertPartitionedTable records or updates a partitioned table's default
// partition slot.
func (s *Store) UpsertPartitionedTable(row PartitionedTableRow) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(row)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketPartitioned).Put(classKey(row.ClassID), data)
	})
}

// GetPartitionedTable reads back a partitioned-table row.
func (s *Store) GetPartitionedTable(classID types.RelationID) (*PartitionedTableRow, bool, error) {
	var row PartitionedTableRow
	var ok bool
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketPartitioned).Get(classKey(classID))
		if data == nil {
			return nil
		}
		ok = true
		return json.Unmarshal(data, &row)
	})
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return &row, true, nil
}

// DeletePartitionedTable removes the partition-key row for classID (step 5
// of drop_with_catalog when kind = PartitionedTable).
func (s *Store) DeletePartitionedTable(classID types.RelationID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPartitioned).Delete(classKey(classID))
	})
}

// DeleteStatistics drops statistics entries for all attributes of classID.
func (s *Store) DeleteStatistics(classID types.RelationID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketStatistic).Delete(classKey(classID))
	})
}

// DeleteForeignTable removes a foreign-table row (step 4 of
// drop_with_catalog).
func (s *Store) DeleteForeignTable(classID types.RelationID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketForeignTbl).Delete(classKey(classID))
	})
}

// DeleteSubscriptionRel drops subscription-relation state for classID
// (step 10 of drop_with_catalog).
func (s *Store) DeleteSubscriptionRel(classID types.RelationID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSubRel).Delete(classKey(classID))
	})
}

// TypeRow is the persisted shape of one pg_type entry this core tracks:
// just enough to record a relation's composite row-type and paired array
// type, let the type checker resolve a type id it allocated itself, and let
// create_with_catalog's step 4 detect a relation-name/type-name collision.
type TypeRow struct {
	ID            uint32
	Kind          string // "composite" or "array"
	Name          string
	Namespace     string
	OwnerRelation types.RelationID // the relation this type was auto-generated for, composite or array
	ElementType   uint32           // array rows only: the composite type it wraps
}

func typeKey(id uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, id)
	return b
}

// TypeIDInUse reports whether id is taken by a pg_type row. Its name does not
// match oid.ExistsChecker's method, and no oid.Pool consults it: the type-id
// pools check pg_class through RelationIDInUse.
func (s *Store) TypeIDInUse(id types.RelationID) bool {
	var found bool
	_ = s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(bucketType).Get(typeKey(uint32(id))) != nil
		return nil
	})
	return found
}

// InsertTypeRow records a composite or array type row.
func (s *Store) InsertTypeRow(row TypeRow) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(row)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketType).Put(typeKey(row.ID), data)
	})
}

// RenameTypeOutOfTheWay implements step 4 of create_with_catalog: if the
// colliding type row is an auto-generated array type (no owning composite
// relation other than the one it wraps having already been dropped), this
// core simply deletes the stale row; Postgres instead renames it. Deleting
// the row also removes its name, so TypeRowByName no longer finds it and
// the new relation's type can take that name.
func (s *Store) RenameTypeOutOfTheWay(id uint32) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketType).Delete(typeKey(id))
	})
}

// TypeRowByName finds a type row by (namespace, name), used by
// create_with_catalog's step 4 to detect a relation name colliding with an
// existing type name (a relation's composite row type shares its name).
func (s *Store) TypeRowByName(namespace, name string) (*TypeRow, bool, error) {
	var found *TypeRow
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketType).ForEach(func(_, v []byte) error {
			if found != nil {
				return nil
			}
			var row TypeRow
			if err := json.Unmarshal(v, &row); err != nil {
				return err
			}
			if row.Namespace == namespace && row.Name == name {
				found = &row
			}
			return nil
		})
	})
	if err != nil {
		return nil, false, err
	}
	return found, found != nil, nil
}

// GetTypeRow reads back a pg_type row.
func (s *Store) GetTypeRow(id uint32) (*TypeRow, bool, error) {
	var row TypeRow
	var ok bool
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketType).Get(typeKey(id))
		if data == nil {
			return nil
		}
		ok = true
		return json.Unmarshal(data, &row)
	})
	if err != nil {
		return nil, false, err
	}
	return &row, ok, nil
}

// InsertDependencyEdge appends a pg_depend row. Edges are persisted
// immediately, with no transactional staging, per spec §4.D.
func (s *Store) InsertDependencyEdge(edge types.DependencyEdge) error {
	id, err := s.nextSeq(bucketDepend)
	if err != nil {
		return fmt.Errorf("catalog: insert_dependency_edge: allocate id: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(edge)
		if err != nil {
			return err
		}
		k := make([]byte, 4)
		binary.BigEndian.PutUint32(k, id)
		return tx.Bucket(bucketDepend).Put(k, data)
	})
}

// ListDependencyEdgesByReferrer returns every edge whose referrer matches
// addr, for tests and for cascade-planning callers outside this core's
// scope.
func (s *Store) ListDependencyEdgesByReferrer(addr types.ObjectAddress) ([]types.DependencyEdge, error) {
	var out []types.DependencyEdge
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDepend).ForEach(func(_, v []byte) error {
			var edge types.DependencyEdge
			if err := json.Unmarshal(v, &edge); err != nil {
				return err
			}
			if edge.Referrer == addr {
				out = append(out, edge)
			}
			return nil
		})
	})
	return out, err
}
