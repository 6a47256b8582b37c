// Package typecheck is the Type Checker & Expression Cooker of spec §4.C:
// it rejects invalid schemas before they reach the catalog and normalizes
// default/check-constraint expressions into the deterministic text
// encoding pkg/types.CookedConstraint.Expression stores.
package typecheck

import (
	"fmt"
	"strings"

	"github.com/relforge/relcore/pkg/catalog"
	"github.com/relforge/relcore/pkg/relerrors"
	"github.com/relforge/relcore/pkg/types"
)

// TypeClass classifies a type for recursive validation, standing in for
// the real type catalog's typtype column.
type TypeClass string

const (
	ClassBase      TypeClass = "base"
	ClassPseudo    TypeClass = "pseudo"
	ClassDomain    TypeClass = "domain"
	ClassComposite TypeClass = "composite"
	ClassRange     TypeClass = "range"
	ClassArray     TypeClass = "array"
)

// PseudoKind names the three pseudo-types check_attribute_type may allow
// through when the matching AllowFlag bit is set.
type PseudoKind string

const (
	PseudoAnyArray    PseudoKind = "anyarray"
	PseudoRecord      PseudoKind = "record"
	PseudoRecordArray PseudoKind = "record[]"
	PseudoOther       PseudoKind = ""
)

// TypeInfo is the subset of a type catalog row check_attribute_type needs.
type TypeInfo struct {
	ID         uint32
	Class      TypeClass
	Pseudo     PseudoKind
	Collatable bool
	BaseType   uint32 // ClassDomain: the type this domain is built on
	ElemType   uint32 // ClassArray: the element type
	Subtype    uint32 // ClassRange: the range's subtype
	Composite  *types.TupleDescriptor
}

// TypeCatalog resolves a type id to its TypeInfo.
type TypeCatalog interface {
	Lookup(id uint32) (TypeInfo, bool)
}

// AllowFlags gates the pseudo-type exceptions of check_attribute_type.
type AllowFlags struct {
	AllowAnyArray    bool
	AllowRecord      bool
	AllowRecordArray bool
}

const maxRecursionDepth = 64

// CheckNamesAndTypes implements spec §4.C's check_names_and_types: rejects
// if column count is out of range, if any name collides with a system
// attribute (unless kind is View or CompositeType), or on duplicate names,
// then validates each attribute's type.
func CheckNamesAndTypes(types_ TypeCatalog, td types.TupleDescriptor, kind types.RelationKind, flags AllowFlags) error {
	n := td.NumUser()
	if n <= 0 {
		return relerrors.New(relerrors.CodeInvalidTableDefinition, "table must have at least one column")
	}
	if n > types.MaxColumns {
		return relerrors.Newf(relerrors.CodeTooManyColumns, "tables can have at most %d columns", types.MaxColumns)
	}

	systemNames := make(map[string]bool, len(types.SystemAttributes))
	for _, sa := range types.SystemAttributes {
		systemNames[sa.Name] = true
	}
	exemptFromSystemNameCheck := kind == types.RelKindView || kind == types.RelKindCompositeType

	seen := make(map[string]bool, n)
	for _, attr := range td.Attributes {
		if attr.Dropped {
			continue
		}
		if !exemptFromSystemNameCheck && systemNames[attr.Name] {
			return relerrors.Newf(relerrors.CodeInvalidColumnReference, "column name %q conflicts with a system column name", attr.Name)
		}
		if seen[attr.Name] {
			return relerrors.Newf(relerrors.CodeDuplicateColumn, "column %q specified more than once", attr.Name)
		}
		seen[attr.Name] = true

		if err := CheckAttributeType(types_, attr.Name, attr.TypeID, attr.CollationID, nil, flags); err != nil {
			return err
		}
	}
	return nil
}

// CheckAttributeType implements spec §4.C's check_attribute_type: recursive
// with cycle defense via the containing set of composite type ids already
// on the recursion stack.
func CheckAttributeType(cat TypeCatalog, name string, typeID, collationID uint32, containing []uint32, flags AllowFlags) error {
	if len(containing) > maxRecursionDepth {
		return relerrors.New(relerrors.CodeProgramLimitExceeded, "type recursion depth exceeded")
	}

	info, ok := cat.Lookup(typeID)
	if !ok {
		return relerrors.Newf(relerrors.CodeInvalidTableDefinition, "column %q has unknown type id %d", name, typeID)
	}

	switch info.Class {
	case ClassPseudo:
		allowed := false
		switch info.Pseudo {
		case PseudoAnyArray:
			allowed = flags.AllowAnyArray
		case PseudoRecord:
			allowed = flags.AllowRecord
		case PseudoRecordArray:
			allowed = flags.AllowRecordArray
		}
		if !allowed {
			return relerrors.Newf(relerrors.CodeInvalidTableDefinition, "column %q has pseudo-type %s", name, info.Pseudo)
		}
		return nil

	case ClassDomain:
		return CheckAttributeType(cat, name, info.BaseType, collationID, containing, flags)

	case ClassComposite:
		for _, c := range containing {
			if c == typeID {
				return relerrors.Newf(relerrors.CodeInvalidTableDefinition, "composite type %d cannot be made a member of itself", typeID)
			}
		}
		if info.Composite == nil {
			return relerrors.Newf(relerrors.CodeInvalidTableDefinition, "composite type %d has no attributes recorded", typeID)
		}
		nextContaining := append(append([]uint32{}, containing...), typeID)
		for _, attr := range info.Composite.Attributes {
			if attr.Dropped {
				continue
			}
			if err := CheckAttributeType(cat, attr.Name, attr.TypeID, attr.CollationID, nextContaining, flags); err != nil {
				return err
			}
		}
		return nil

	case ClassRange:
		if err := CheckAttributeType(cat, name, info.Subtype, collationID, containing, flags); err != nil {
			return err
		}
		return nil

	case ClassArray:
		return CheckAttributeType(cat, name, info.ElemType, collationID, containing, flags)

	default: // ClassBase
		const noCollation = 0
		if info.Collatable && collationID == noCollation {
			return relerrors.Newf(relerrors.CodeInvalidParameterValue, "no collation was derived for column %q", name).
				WithHint("use the COLLATE clause to set the collation explicitly")
		}
		return nil
	}
}

// ParseState carries the ambient context a real parser would thread through
// cook_default/cook_constraint (target namespace, current relation). This
// core has no SQL parser; raw-expr is already the deterministic text
// encoding, so ParseState only carries what volatility/generated-column
// checks need.
type ParseState struct {
	GeneratedColumns map[string]bool // names of other generated columns, for the self-reference check
	VolatileFuncs    map[string]bool // function names considered mutable/volatile
}

// CookDefault implements spec §4.C's cook_default. For generated columns it
// rejects references to other generated columns and rejects mutable
// functions. It performs no type coercion: the returned expression is the
// raw text with surrounding whitespace trimmed. volatile reports whether the resulting
// expression was classified volatile, which add_new_constraints needs to
// decide whether a missing-value fast path applies.
func CookDefault(ps ParseState, rawExpr string, targetType uint32, attname string, generated types.GeneratedMarker) (expr string, collation uint32, volatile bool, err error) {
	if generated == types.GeneratedStored {
		for _, tok := range tokenize(rawExpr) {
			if strings.HasPrefix(tok, "$") && ps.GeneratedColumns[strings.TrimPrefix(tok, "$")] {
				return "", 0, false, relerrors.Newf(relerrors.CodeInvalidColumnReference,
					"generated column %q cannot reference another generated column", attname)
			}
		}
	}

	volatile = containsAny(rawExpr, ps.VolatileFuncs)
	if generated == types.GeneratedStored && volatile {
		return "", 0, false, relerrors.Newf(relerrors.CodeInvalidTableDefinition,
			"generation expression for column %q is not immutable", attname)
	}

	return strings.TrimSpace(rawExpr), targetType, volatile, nil
}

// CookConstraint implements spec §4.C's cook_constraint: transforms as a
// check-constraint expression, fails if the expression references more than
// one relation (relname is the only relation this core's minimal cooker
// ever sees, so the multi-relation case can only arise if a caller passes
// an expression naming a table qualifier other than relname).
func CookConstraint(rawExpr string, relname string) (expr string, err error) {
	for _, tok := range tokenize(rawExpr) {
		if idx := strings.Index(tok, "."); idx > 0 {
			qualifier := tok[:idx]
			if qualifier != relname {
				return "", relerrors.Newf(relerrors.CodeInvalidColumnReference,
					"check constraint may only reference columns of %q, not %q", relname, qualifier)
			}
		}
	}
	return strings.TrimSpace(rawExpr), nil
}

func tokenize(expr string) []string {
	return strings.Fields(strings.NewReplacer("(", " ( ", ")", " ) ", ",", " , ").Replace(expr))
}

func containsAny(expr string, names map[string]bool) bool {
	for _, tok := range tokenize(expr) {
		name, hasParen := strings.CutSuffix(tok, "(")
		if hasParen && names[name] {
			return true
		}
	}
	return false
}

// ConstraintStore is the subset of catalog.Store add_new_constraints and
// merge_existing_constraint need.
type ConstraintStore interface {
	FindConstraintByName(classID types.RelationID, name string) (*catalog.ConstraintRow, bool, error)
	InsertConstraintRow(classID types.RelationID, c types.CookedConstraint) (types.CookedConstraint, error)
	UpdateConstraint(row catalog.ConstraintRow) error
	InsertAttrdefRow(classID types.RelationID, attNum int32, expression string) (uint32, error)
}

var _ ConstraintStore = (*catalog.Store)(nil)

// NewConstraintRequest is one raw default or check constraint submitted to
// AddNewConstraints.
type NewConstraintRequest struct {
	IsDefault  bool
	AttName    string
	AttNum     int32
	RawExpr    string
	TargetType uint32
	Generated  types.GeneratedMarker
	IsLocal    bool
	IsInternal bool
	NoInherit  bool
	Name       string // check constraints only; empty means auto-generate
}

// AddNewConstraintsResult reports what got stored, for the relation builder
// to fold back into the in-memory descriptor.
type AddNewConstraintsResult struct {
	Stored     []types.CookedConstraint
	CheckCount int32
}

// AddNewConstraints implements spec §4.C's add_new_constraints. requests
// (defaults and check constraints) are processed in the order given; allowMerge controls
// whether a matching pre-existing check-constraint row may absorb a new one
// instead of erroring.
func AddNewConstraints(store ConstraintStore, ps ParseState, classID types.RelationID, relname string, requests []NewConstraintRequest, allowMerge bool) (AddNewConstraintsResult, error) {
	var result AddNewConstraintsResult
	namesThisCall := make(map[string]bool)

	for _, req := range requests {
		if req.IsDefault {
			expr, collation, volatile, err := CookDefault(ps, req.RawExpr, req.TargetType, req.AttName, req.Generated)
			if err != nil {
				return result, err
			}
			if req.Generated == "" && isBareNullConstant(expr) {
				continue
			}
			_ = collation
			if _, err := store.InsertAttrdefRow(classID, req.AttNum, expr); err != nil {
				return result, fmt.Errorf("typecheck: add_new_constraints: store default: %w", err)
			}
			result.Stored = append(result.Stored, types.CookedConstraint{
				Kind: types.ConstraintDefault, AttNum: req.AttNum, Expression: expr,
				TargetTypeID: req.TargetType, IsLocal: req.IsLocal, Volatile: volatile,
			})
			continue
		}

		expr, err := CookConstraint(req.RawExpr, relname)
		if err != nil {
			return result, err
		}
		if req.Name != "" && namesThisCall[req.Name] {
			return result, relerrors.Newf(relerrors.CodeDuplicateObject, "check constraint %q already specified", req.Name)
		}

		merged, name, err := mergeExistingConstraint(store, classID, req.Name, expr, allowMerge, req.IsLocal, req.NoInherit)
		if err != nil {
			return result, err
		}
		if merged {
			result.CheckCount++
			continue
		}
		if name == "" {
			name = generateConstraintName(relname, expr, namesThisCall)
		}
		namesThisCall[name] = true

		stored, err := store.InsertConstraintRow(classID, types.CookedConstraint{
			Kind: types.ConstraintCheck, Name: name, Expression: expr,
			IsLocal: req.IsLocal, NoInherit: req.NoInherit, Internal: req.IsInternal,
		})
		if err != nil {
			return result, fmt.Errorf("typecheck: add_new_constraints: store check: %w", err)
		}
		result.Stored = append(result.Stored, stored)
		result.CheckCount++
	}
	return result, nil
}

func isBareNullConstant(expr string) bool {
	return strings.EqualFold(strings.TrimSpace(expr), "null")
}

// mergeExistingConstraint implements spec §4.C's merge conflict policy.
func mergeExistingConstraint(store ConstraintStore, classID types.RelationID, name, newExpr string, allowMerge, newIsLocal, newNoInherit bool) (merged bool, resolvedName string, err error) {
	if name == "" {
		return false, "", nil
	}
	existing, ok, err := store.FindConstraintByName(classID, name)
	if err != nil {
		return false, "", fmt.Errorf("typecheck: merge_existing_constraint: lookup: %w", err)
	}
	if !ok {
		return false, name, nil
	}
	if existing.Constraint.Kind != types.ConstraintCheck {
		return false, "", relerrors.Newf(relerrors.CodeDuplicateObject, "constraint %q for relation already exists as a non-check constraint", name)
	}
	if existing.Constraint.Expression != newExpr {
		return false, "", relerrors.Newf(relerrors.CodeDuplicateObject, "constraint %q for relation already exists", name)
	}
	if !existing.Constraint.IsLocal && newIsLocal {
		allowMerge = true
	}
	if !allowMerge {
		return false, "", relerrors.Newf(relerrors.CodeDuplicateObject, "constraint %q for relation already exists", name)
	}
	if existing.Constraint.NoInherit {
		return false, "", relerrors.Newf(relerrors.CodeInvalidTableDefinition, "constraint %q conflicts with non-inherited constraint on relation", name)
	}
	if existing.Constraint.InhCount > 0 && newNoInherit {
		return false, "", relerrors.Newf(relerrors.CodeInvalidTableDefinition, "constraint %q conflicts with inherited constraint on relation", name)
	}

	if newIsLocal {
		existing.Constraint.IsLocal = true
	} else {
		if existing.Constraint.InhCount == 1<<15-1 {
			return false, "", relerrors.New(relerrors.CodeProgramLimitExceeded, "constraint inheritance count overflow")
		}
		existing.Constraint.InhCount++
	}
	if err := store.UpdateConstraint(*existing); err != nil {
		return false, "", fmt.Errorf("typecheck: merge_existing_constraint: update: %w", err)
	}
	return true, name, nil
}

func generateConstraintName(relname, expr string, taken map[string]bool) string {
	cols := 0
	for _, tok := range tokenize(expr) {
		if strings.HasPrefix(tok, "$") {
			cols++
		}
	}
	base := relname + "_check"
	if cols == 1 {
		base = relname + "_col_check"
	}
	name := base
	for i := 1; taken[name]; i++ {
		name = fmt.Sprintf("%s%d", base, i)
	}
	return name
}
