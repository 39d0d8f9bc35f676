// Package runlog maintains the audit log artifact for sync runs.
//
// Unlike the process logger (core/logger), the run log is a user-facing
// append-only text file: one timestamp-prefixed line per event, rotated by
// timestamped rename before a run on request, and optionally archived to
// object storage after the run. The apply step records pre-run counts and the
// full per-type comparison breakdown here so excluded rows are auditable.
package runlog
