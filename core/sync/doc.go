// Package sync implements the compare/reconcile/apply workflow between a
// local GIS feature snapshot and a remote SQL Server spatial table.
//
// The actual spatial/attribute diff and the update both live in stored
// procedures on the server; this package owns the client-side orchestration
// around them: staging uploads, the run state machine, result aggregation,
// the confirmation gate and the unconditional cleanup policy.
//
// # State machine
//
// One session moves through
//
//	idle -> tables_loading -> tables_loaded -> comparing -> compared
//	     -> applying -> cleaning_up -> applied
//
// Compare is only allowed from tables_loaded, apply only from a compared
// state with differences, and applied is terminal: tables must be reloaded
// before another compare. Re-entrant calls are rejected with a busy error.
//
// # Components
//
//   - StagingManager: uploads the snapshot to {schema}.{remote}_TEMP, clears
//     the previous results table first and removes temp tables after a run.
//   - Engine: the state machine with the compare and apply pipelines.
//   - Aggregate/HasWarningTypes: pure grouping of comparison rows by
//     (type, description) and the empty/error/orphan warning determination.
//   - Session: thin facade holding the profile and wiring the run log.
//
// # Policies
//
// The apply never "fixes" rows flagged empty, error or orphan; the remote
// procedure excludes them on its own. The client's job is to require
// explicit confirmation while such rows are pending and to record the full
// breakdown in the run log before the update runs. Cleanup is attempted
// exactly once per run regardless of the apply outcome, and a cleanup
// failure never changes the reported outcome.
//
// Staging tables are scoped to the (schema, remote table) pair rather than
// the session, so a process-wide advisory lock serializes operations that
// share a target. Sessions in different processes remain unprotected; this
// is a known limitation of the server-side staging scheme.
package sync
