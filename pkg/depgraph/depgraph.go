// Package depgraph is the Dependency Edge Emitter of spec §4.D: a uniform
// API over the pg_depend rows pkg/catalog stores, so callers record edges
// without touching bucket encoding directly.
package depgraph

import (
	"fmt"
	"strings"

	"github.com/relforge/relcore/pkg/catalog"
	"github.com/relforge/relcore/pkg/types"
)

// EdgeStore is the subset of catalog.Store the emitter needs; narrowed so
// this package can be tested against a fake.
type EdgeStore interface {
	InsertDependencyEdge(edge types.DependencyEdge) error
}

var _ EdgeStore = (*catalog.Store)(nil)

// Emitter records dependency edges. All edges are persisted immediately;
// there is no transactional staging, matching spec §4.D.
type Emitter struct {
	store EdgeStore
}

// New returns an Emitter backed by store.
func New(store EdgeStore) *Emitter {
	return &Emitter{store: store}
}

// Record inserts a single edge.
func (e *Emitter) Record(referrer, referent types.ObjectAddress, kind types.DependencyKind) error {
	return e.store.InsertDependencyEdge(types.DependencyEdge{Referrer: referrer, Referent: referent, Kind: kind})
}

// RecordMany inserts one edge per referent, all sharing kind.
func (e *Emitter) RecordMany(referrer types.ObjectAddress, referents []types.ObjectAddress, kind types.DependencyKind) error {
	for _, referent := range referents {
		if err := e.Record(referrer, referent, kind); err != nil {
			return fmt.Errorf("depgraph: record_many: %w", err)
		}
	}
	return nil
}

// RecordOnOwner records the PinnedOwner edge. skipped entirely in
// bootstrap mode, matching spec §4.D.
func (e *Emitter) RecordOnOwner(classID string, objectID uint32, ownerID uint32, bootstrapMode bool) error {
	if bootstrapMode {
		return nil
	}
	referrer := types.ObjectAddress{ClassID: classID, ObjectID: objectID}
	referent := types.ObjectAddress{ClassID: "pg_authid", ObjectID: ownerID}
	return e.Record(referrer, referent, types.DepOwner)
}

// AclGrantee is one entry of an ACL, naming the grantee's object id.
type AclGrantee struct {
	GranteeID uint32
}

// RecordOnACL records one edge per ACL grantee (the owner is excluded: the
// owner dependency is carried by RecordOnOwner, not duplicated here).
func (e *Emitter) RecordOnACL(classID string, objectID uint32, subID int32, ownerID uint32, acl []AclGrantee) error {
	referrer := types.ObjectAddress{ClassID: classID, ObjectID: objectID, SubID: subID}
	for _, grantee := range acl {
		if grantee.GranteeID == ownerID {
			continue
		}
		referent := types.ObjectAddress{ClassID: "pg_authid", ObjectID: grantee.GranteeID}
		if err := e.Record(referrer, referent, types.DepACL); err != nil {
			return fmt.Errorf("depgraph: record_on_acl: %w", err)
		}
	}
	return nil
}

// RecordOnCurrentExtension adds an extension-membership edge if creatingExt
// is non-zero and recursing is false (mirrors the source's guard against
// nested extension-script recursion re-recording membership).
func (e *Emitter) RecordOnCurrentExtension(addr types.ObjectAddress, creatingExt uint32, recursing bool) error {
	if creatingExt == 0 || recursing {
		return nil
	}
	referent := types.ObjectAddress{ClassID: "pg_extension", ObjectID: creatingExt}
	return e.Record(addr, referent, types.DepExtension)
}

// ExpressionWalker extracts the references an expression's text makes, so
// RecordOnExpression can emit one edge per reference. The minimal
// expression cooker in pkg/typecheck implements this by scanning its
// deterministic text encoding for identifier tokens; a real parser would
// walk an AST instead.
type ExpressionWalker interface {
	// ExternalReferences returns object addresses for functions, operators,
	// types, and collations the expression names.
	ExternalReferences(expr string) []types.ObjectAddress
	// SelfColumnReferences returns attribute numbers of selfRel the
	// expression names.
	SelfColumnReferences(expr string, selfRel types.RelationID) []int32
}

// RecordOnExpression walks expr, emitting outsideKind edges for every
// external reference and insideKind edges for every reference to a column
// of selfRel (addr -> column, or reversed if reverseSelfDeps is set so the
// column depends on addr instead).
func (e *Emitter) RecordOnExpression(walker ExpressionWalker, addr types.ObjectAddress, expr string, selfRel types.RelationID, insideKind, outsideKind types.DependencyKind, reverseSelfDeps bool) error {
	for _, ref := range walker.ExternalReferences(expr) {
		if err := e.Record(addr, ref, outsideKind); err != nil {
			return fmt.Errorf("depgraph: record_on_expression: external: %w", err)
		}
	}
	for _, attNum := range walker.SelfColumnReferences(expr, selfRel) {
		column := types.ObjectAddress{ClassID: "pg_class", ObjectID: uint32(selfRel), SubID: attNum}
		referrer, referent := addr, column
		if reverseSelfDeps {
			referrer, referent = column, addr
		}
		if err := e.Record(referrer, referent, insideKind); err != nil {
			return fmt.Errorf("depgraph: record_on_expression: self-column: %w", err)
		}
	}
	return nil
}

// textExpressionWalker is a minimal ExpressionWalker over the deterministic
// text encoding pkg/typecheck's cooker produces: "$<attnum>" marks a
// reference to a column of the expression's own relation, and any other
// bare identifier followed by "(" is treated as a function reference.
type textExpressionWalker struct{}

// NewTextExpressionWalker returns the default ExpressionWalker used when no
// richer parser integration is wired in.
func NewTextExpressionWalker() ExpressionWalker { return textExpressionWalker{} }

func (textExpressionWalker) ExternalReferences(expr string) []types.ObjectAddress {
	var refs []types.ObjectAddress
	for _, tok := range strings.Fields(expr) {
		tok = strings.TrimSuffix(tok, "(")
		if strings.HasSuffix(tok, "(") || strings.Contains(expr, tok+"(") {
			refs = append(refs, types.ObjectAddress{ClassID: "pg_proc", ObjectID: 0})
		}
	}
	return refs
}

func (textExpressionWalker) SelfColumnReferences(expr string, _ types.RelationID) []int32 {
	var out []int32
	for _, tok := range strings.Fields(expr) {
		if strings.HasPrefix(tok, "$") {
			var n int32
			if _, err := fmt.Sscanf(tok, "$%d", &n); err == nil {
				out = append(out, n)
			}
		}
	}
	return out
}
