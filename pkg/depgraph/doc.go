// Package depgraph exposes a uniform dependency-edge API (Record,
// RecordMany, RecordOnOwner, RecordOnACL, RecordOnCurrentExtension,
// RecordOnExpression) over the pg_depend rows pkg/catalog stores.
package depgraph
