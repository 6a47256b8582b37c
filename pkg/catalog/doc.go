/*
Package catalog is the Catalog Row Writer: it owns the bbolt database that
backs every system catalog table this core models (pg_class, pg_attribute,
pg_type, pg_depend, pg_constraint, pg_attrdef, pg_inherits,
pg_partitioned_table, pg_statistic, pg_foreign_table, pg_subscription_rel),
one bucket per table. Every write goes through a single db.Update call,
which stands in for the row-exclusive catalog lock callers are assumed to
already hold at a higher level.
*/
package catalog
