/*
Package pending implements the Pending-Action Log: a nesting-aware queue that
defers file create/drop side effects until the surrounding (sub-)transaction
commits or aborts, plus a side map tracking relations that need an fsync or
full-page WAL emission at top-level commit.

Callers append entries with RecordCreate/RecordDrop as storage files are
created or scheduled for removal, then call Drain at every (sub-)transaction
boundary with the outcome (commit or abort) and the nesting level being
exited. DrainSyncs runs once, at top-level commit.
*/
package pending
