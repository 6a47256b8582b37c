/*
Package relbuilder orchestrates relation creation end to end: validate the
descriptor (pkg/typecheck), resolve and lock an id (pkg/oid, pkg/txn),
create the on-disk file (pkg/smgr) under the pending-action log's
protection (pkg/pending), write the catalog rows (pkg/catalog), and emit
dependency edges (pkg/depgraph). Builder.CreateWithCatalog is the single
entry point; its steps are numbered in comments to match the design
document's 17-step sequence.
*/
package relbuilder
