/*
Package reldestroy tears down and mutates already-committed relations:
DropWithCatalog removes a relation's own catalog rows and schedules its
storage drop, Truncate resizes a relation's forks under WAL protection,
NonTransactionalTruncate serves ON COMMIT DELETE ROWS for temp tables,
RemoveAttributeByID implements ALTER TABLE DROP COLUMN, and
StorePartitionBound attaches a partition bound to its parent.
*/
package reldestroy
