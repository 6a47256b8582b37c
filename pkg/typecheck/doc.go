/*
Package typecheck validates relation descriptors before they reach the
catalog and normalizes default/check-constraint expressions into the
deterministic text encoding pkg/types.CookedConstraint.Expression stores.

CheckNamesAndTypes and CheckAttributeType guard against malformed or
self-referential schemas. CookDefault/CookConstraint and AddNewConstraints
cover the default/check-constraint pipeline, including the merge-with-
existing-row policy inherited tables require.
*/
package typecheck
