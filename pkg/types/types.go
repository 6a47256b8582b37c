package types

// RelationID is a 32-bit opaque identifier, unique within the catalog store.
// Zero is reserved as "invalid".
type RelationID uint32

// InvalidRelationID is the reserved zero value.
const InvalidRelationID RelationID = 0

// Valid reports whether id is anything other than the reserved zero value.
func (id RelationID) Valid() bool {
	return id != InvalidRelationID
}

// RelationKind tags the storage/catalog shape of a relation.
type RelationKind string

const (
	RelKindTable            RelationKind = "table"
	RelKindIndex             RelationKind = "index"
	RelKindSequence          RelationKind = "sequence"
	RelKindToastStore        RelationKind = "toast"
	RelKindView              RelationKind = "view"
	RelKindMaterializedView  RelationKind = "materialized_view"
	RelKindCompositeType     RelationKind = "composite_type"
	RelKindForeignTable      RelationKind = "foreign_table"
	RelKindPartitionedTable  RelationKind = "partitioned_table"
	RelKindPartitionedIndex  RelationKind = "partitioned_index"
)

// HasStorage reports whether relations of this kind own on-disk forks.
func (k RelationKind) HasStorage() bool {
	switch k {
	case RelKindView, RelKindCompositeType, RelKindPartitionedTable, RelKindPartitionedIndex:
		return false
	default:
		return true
	}
}

// HasSystemAttributes reports whether catalog rows for this kind carry the
// fixed system-attribute prototype (row-pointer, insert-xact, ...).
func (k RelationKind) HasSystemAttributes() bool {
	switch k {
	case RelKindTable, RelKindIndex, RelKindSequence, RelKindToastStore,
		RelKindMaterializedView, RelKindForeignTable, RelKindPartitionedTable:
		return true
	default:
		return false
	}
}

// HasRowType reports whether creating this kind also creates a composite
// row-type and its paired array type in the type catalog.
func (k RelationKind) HasRowType() bool {
	switch k {
	case RelKindSequence, RelKindToastStore, RelKindIndex, RelKindPartitionedIndex:
		return false
	default:
		return true
	}
}

// Persistence is the permanence class of a relation's physical storage.
type Persistence string

const (
	PersistencePermanent Persistence = "permanent"
	PersistenceUnlogged  Persistence = "unlogged"
	PersistenceTemporary Persistence = "temporary"
)

// AlignmentClass is the tuple-descriptor alignment requirement of a type.
type AlignmentClass string

const (
	AlignChar   AlignmentClass = "char"
	AlignShort  AlignmentClass = "short"
	AlignInt    AlignmentClass = "int"
	AlignDouble AlignmentClass = "double"
)

// StorageStrategy controls TOAST-ability of a varlena attribute.
type StorageStrategy string

const (
	StoragePlain    StorageStrategy = "plain"
	StorageExternal StorageStrategy = "external"
	StorageExtended StorageStrategy = "extended"
	StorageMain     StorageStrategy = "main"
)

// IdentityMarker tags GENERATED ... AS IDENTITY columns.
type IdentityMarker string

const (
	IdentityNone      IdentityMarker = ""
	IdentityAlways    IdentityMarker = "always"
	IdentityByDefault IdentityMarker = "by_default"
)

// GeneratedMarker tags GENERATED ... AS (expr) STORED columns.
type GeneratedMarker string

const (
	GeneratedNone   GeneratedMarker = ""
	GeneratedStored GeneratedMarker = "stored"
)

// System attribute numbers. User attributes start at 1; these are negative.
// Relations whose kind reports RelationKind.HasSystemAttributes get one
// stored attribute row per system attribute.
const (
	AttrNumRowPointer  = -1
	AttrNumInsertXact  = -2
	AttrNumInsertCmd   = -3
	AttrNumDeleteXact  = -4
	AttrNumDeleteCmd   = -5
	AttrNumTableOID    = -6
)

// SystemAttributes is the fixed prototype appended to relations whose kind
// carries system attributes. Copies are patched with the owning class id.
var SystemAttributes = []AttributeDefinition{
	{Name: "ctid", AttNum: AttrNumRowPointer, TypeID: 27, Length: 6, ByValue: false, Align: AlignShort, Storage: StoragePlain, NotNull: true},
	{Name: "xmin", AttNum: AttrNumInsertXact, TypeID: 28, Length: 4, ByValue: true, Align: AlignInt, Storage: StoragePlain, NotNull: true},
	{Name: "cmin", AttNum: AttrNumInsertCmd, TypeID: 29, Length: 4, ByValue: true, Align: AlignInt, Storage: StoragePlain, NotNull: true},
	{Name: "xmax", AttNum: AttrNumDeleteXact, TypeID: 28, Length: 4, ByValue: true, Align: AlignInt, Storage: StoragePlain, NotNull: true},
	{Name: "cmax", AttNum: AttrNumDeleteCmd, TypeID: 29, Length: 4, ByValue: true, Align: AlignInt, Storage: StoragePlain, NotNull: true},
	{Name: "tableoid", AttNum: AttrNumTableOID, TypeID: 26, Length: 4, ByValue: true, Align: AlignInt, Storage: StoragePlain, NotNull: true},
}

// DroppedColumnPattern is the reserved name rewritten onto dropped columns.
// %d is the attribute number.
const DroppedColumnPattern = "........pg.dropped.%d........"

// MaxColumns bounds the number of user attributes a single relation may have.
const MaxColumns = 1600

// AttributeDefinition describes one column (or system attribute) of a
// relation's tuple descriptor.
type AttributeDefinition struct {
	Name          string
	AttNum        int32
	TypeID        uint32
	TypeMod       int32
	Length        int16 // negative sentinels denote varlena(-1)/cstring(-2)
	ByValue       bool
	Align         AlignmentClass
	Storage       StorageStrategy
	NotNull       bool
	CollationID   uint32
	Identity      IdentityMarker
	Generated     GeneratedMarker
	Dropped       bool
	IsLocal       bool
	InhCount      int16
	CacheOffset   int32 // always written as -1 ("not cached"); see §9.
	StatTarget    *int32
	MissingValue  []byte // serialized one-element-array scalar for ADD COLUMN fast path
}

// TupleDescriptor is the ordered sequence of user attributes describing a
// relation's shape. System attributes are not included here; they are
// synthesized from SystemAttributes when a catalog row is composed.
type TupleDescriptor struct {
	Attributes []AttributeDefinition
}

// NumUser returns the number of user columns, including ones already marked
// dropped, since attribute numbers never get reused.
func (t TupleDescriptor) NumUser() int {
	return len(t.Attributes)
}

// RelationDescriptor is the in-memory handle for a relation under
// construction or already committed. It is populated progressively by the
// Relation Builder.
type RelationDescriptor struct {
	ID           RelationID
	Name         string
	Namespace    string
	Tablespace   string
	Kind         RelationKind
	Persistence  Persistence
	Descriptor   TupleDescriptor
	AccessMethod string
	Shared       bool
	Mapped       bool
	FileIdentity RelationID
	FreezeXact   uint64
	FreezeMulti  uint64

	// CheckCount mirrors pg_class.relchecks: the number of check constraints
	// currently stored for this relation. create_with_catalog rewrites the
	// class row with it after add_new_constraints, even when it is zero.
	CheckCount int32

	TypeID      uint32 // composite row-type id, 0 if HasRowType() is false
	ArrayTypeID uint32 // paired array-type id, 0 if HasRowType() is false

	IsPartition      bool
	PartitionBound   string
	HasSubclasses    bool
	DefaultPartition RelationID // owning partitioned table's default-partition slot
}

// ConstraintKind distinguishes stored-expression rows.
type ConstraintKind string

const (
	ConstraintDefault    ConstraintKind = "default"
	ConstraintCheck      ConstraintKind = "check"
	ConstraintForeignKey ConstraintKind = "foreign_key"
)

// CookedConstraint is a validated, coerced expression ready for catalog
// storage.
type CookedConstraint struct {
	Kind           ConstraintKind
	StoredID       uint32
	Name           string
	AttNum         int32
	Expression     string // deterministic text encoding of the cooked tree; see §9.
	TargetTypeID   uint32
	SkipValidation bool
	IsLocal        bool
	InhCount       int16
	NoInherit      bool
	Volatile       bool // computed by the cooker, consumed by add_new_constraints
	Deferrable     bool
	Deferred       bool
	Internal       bool

	// ReferencedRelation is set only when Kind is ConstraintForeignKey: the
	// relation this constraint's foreign key points at. find_referencing_fks
	// scans for it to locate every relation that must cascade with a target
	// set undergoing truncate/drop.
	ReferencedRelation RelationID
}

// DependencyKind classifies a DependencyEdge.
type DependencyKind string

const (
	DepNormal    DependencyKind = "normal"
	DepAuto      DependencyKind = "auto"
	DepInternal  DependencyKind = "internal"
	DepExtension DependencyKind = "extension"
	DepOwner     DependencyKind = "owner"
	DepACL       DependencyKind = "acl"
)

// ObjectAddress identifies a catalog object by (class, object, sub) triple.
type ObjectAddress struct {
	ClassID  string // catalog name this object's row lives in, e.g. "pg_class"
	ObjectID uint32
	SubID    int32
}

// DependencyEdge is a persisted (referrer, referent, kind) triple.
type DependencyEdge struct {
	Referrer ObjectAddress
	Referent ObjectAddress
	Kind     DependencyKind
}

// PendingActionKind is the outcome a PendingAction fires on.
type PendingActionKind string

const (
	ActionCreateOnAbort  PendingActionKind = "create_on_abort"
	ActionDropOnCommit   PendingActionKind = "drop_on_commit"
)

// PendingAction is one entry in the per-process Pending-Action Log. The log
// keeps entries in a slice in insertion order; this struct is the payload.
type PendingAction struct {
	FileIdentity RelationID
	BackendTag   string
	Action       PendingActionKind
	NestingLevel int
}

// PendingSync records a permanent relation created without WAL that needs an
// fsync (or full-page image) at commit.
type PendingSync struct {
	FileIdentity RelationID
	Truncated    bool
}

// OnCommitAction is the ON COMMIT behavior registered for temporary tables.
type OnCommitAction string

const (
	OnCommitNoop         OnCommitAction = ""
	OnCommitPreserveRows OnCommitAction = "preserve_rows"
	OnCommitDeleteRows   OnCommitAction = "delete_rows"
	OnCommitDrop         OnCommitAction = "drop"
)

// Fork identifies one of a relation's independently-addressable files.
type Fork int

const (
	ForkMain Fork = iota
	ForkFSM
	ForkVM
	ForkInit
)

func (f Fork) String() string {
	switch f {
	case ForkMain:
		return "main"
	case ForkFSM:
		return "fsm"
	case ForkVM:
		return "vm"
	case ForkInit:
		return "init"
	default:
		return "unknown"
	}
}
