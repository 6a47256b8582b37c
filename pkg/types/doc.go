/*
Package types defines the data model shared by every other package in
relcore: the relation-lifecycle core of a relational database's system
catalog.

# Architecture

	┌──────────────────── DATA MODEL ──────────────────────────┐
	│                                                            │
	│  RelationID, RelationKind, Persistence                    │
	│    - identify and classify a relation                     │
	│                                                            │
	│  TupleDescriptor / AttributeDefinition                     │
	│    - ordered column list, system attributes synthesized   │
	│      from SystemAttributes when a kind carries them       │
	│                                                            │
	│  RelationDescriptor                                        │
	│    - in-memory handle populated progressively by the      │
	│      relation builder (pkg/relbuilder)                    │
	│                                                            │
	│  CookedConstraint, DependencyEdge                          │
	│    - validated expressions and typed graph edges that flow│
	│      out of pkg/typecheck and pkg/depgraph                 │
	│                                                            │
	│  PendingAction, PendingSync                                │
	│    - payload records kept by pkg/pending                  │
	└────────────────────────────────────────────────────────────┘

Nothing in this package depends on any other relcore package; most other
packages import types (relerrors and log do not).
*/
package types
