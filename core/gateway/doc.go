// Package gateway provides the remote procedure transport for DataSync.
//
// The comparison and update logic lives in stored procedures on the remote
// SQL Server; the client only invokes them by name with positional string
// parameters and inspects tables afterwards. This package defines that
// contract (Gateway) and a GORM-backed implementation.
//
// # Contract
//
//   - Execute: run a named procedure with positional string parameters.
//   - TableExists / RowCount / DeleteTable: table inspection and teardown.
//     RowCount returns -1 when the count cannot be determined, so callers can
//     distinguish an empty table from a failed lookup.
//   - CopyTable / CreateSnapshotTable / InsertSnapshotRows: staging uploads.
//   - KeyCensus: blank and duplicate business key counts.
//   - QueryRows: loosely typed reads of the comparison results table, with
//     configuration-driven column names.
//
// Calls are synchronous and never retried. A per-call timeout (configured on
// construction) converts a stuck procedure into ErrTimedOut; callers still
// run their cleanup steps after seeing it.
//
// A testify mock lives in gateway/mocks for engine tests.
package gateway
