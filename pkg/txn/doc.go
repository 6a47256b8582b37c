// Package txn tracks one backend's transaction nesting level and command
// counter, owns the access-exclusive relation-id lock new relations are
// registered under before other sessions can see them, and drives
// pkg/pending's drain/reparent/post_prepare at every (sub-)transaction
// boundary.
package txn
