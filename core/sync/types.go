package sync

import "context"

// RunState is the state of the compare/apply workflow for one session.
type RunState string

const (
	// StateIdle means no tables have been loaded yet.
	StateIdle RunState = "idle"
	// StateTablesLoading means the local and remote censuses are being taken.
	StateTablesLoading RunState = "tables_loading"
	// StateTablesLoaded means both censuses completed without a hard error.
	StateTablesLoaded RunState = "tables_loaded"
	// StateComparing means a compare pipeline is in flight.
	StateComparing RunState = "comparing"
	// StateCompared means a compare completed (identical or with differences).
	StateCompared RunState = "compared"
	// StateApplying means the remote update procedure is in flight.
	StateApplying RunState = "applying"
	// StateCleaningUp means staging artifacts are being removed.
	StateCleaningUp RunState = "cleaning_up"
	// StateApplied is the terminal state of a run; tables must be reloaded
	// before another compare.
	StateApplied RunState = "applied"
)

// Outcome is the three-way result of an apply run. It drives the notification
// severity and whether the run log is surfaced automatically.
type Outcome string

const (
	// OutcomeSuccess means the update procedure and verification succeeded.
	OutcomeSuccess Outcome = "success"
	// OutcomeErrors means the run ended with errors on the apply path.
	OutcomeErrors Outcome = "completed_with_errors"
	// OutcomeUnexpected means the run ended unexpectedly outside the apply path.
	OutcomeUnexpected Outcome = "unexpected"
)

// ComparisonRow is one row returned by the remote compare procedure.
// Rows are immutable once read and are replaced wholesale by the next compare.
type ComparisonRow struct {
	// ResultType is the classification assigned by the compare procedure.
	// The set is open-ended; only empty/error/orphan receive special handling.
	ResultType string `json:"result_type"`

	// Description is the human-readable reason, e.g. "feature added locally".
	Description string `json:"description"`

	// NewKey is the local-side business key, if any.
	NewKey *string `json:"new_key"`

	// OldKey is the remote-side business key, if any.
	OldKey *string `json:"old_key"`

	// NewArea is the local-side area, used only for display.
	NewArea *float64 `json:"new_area"`

	// OldArea is the remote-side area, used only for display.
	OldArea *float64 `json:"old_area"`
}

// ResultSummary aggregates comparison rows sharing a (type, description) pair.
type ResultSummary struct {
	// ResultType is the shared classification.
	ResultType string `json:"result_type"`

	// Description is the shared reason.
	Description string `json:"description"`

	// Count is the number of rows in the group, always >= 1.
	Count int `json:"count"`
}

// TableCensus holds per-side key quality counts, computed at load time.
type TableCensus struct {
	// FeatureCount is the number of features on this side.
	FeatureCount int64 `json:"feature_count"`

	// BlankKeyCount is the number of features with a blank business key.
	BlankKeyCount int64 `json:"blank_key_count"`

	// DuplicateKeyCount is the number of features carrying a duplicated key.
	DuplicateKeyCount int64 `json:"duplicate_key_count"`
}

// HasWarnings reports whether the census carries key quality warnings.
// Warnings are surfaced after load but never block a compare.
func (c TableCensus) HasWarnings() bool {
	return c.BlankKeyCount > 0 || c.DuplicateKeyCount > 0
}

// Census pairs the local and remote table censuses of one load.
type Census struct {
	// Local describes the snapshot side.
	Local TableCensus `json:"local"`

	// Remote describes the remote table side.
	Remote TableCensus `json:"remote"`
}

// CompareResult is the outcome of one compare operation. It is superseded,
// never merged, by the next compare.
type CompareResult struct {
	// Identical is true when the compare procedure produced zero rows.
	Identical bool `json:"identical"`

	// Rows are the comparison rows, ordered by (type, sort key) server-side.
	Rows []ComparisonRow `json:"rows"`

	// Summaries are the per-(type, description) aggregates.
	Summaries []ResultSummary `json:"summaries"`
}

// ApplyResult reports the outcome of one apply run.
type ApplyResult struct {
	// Outcome is the three-way run result.
	Outcome Outcome `json:"outcome"`

	// Message is the human-readable outcome message.
	Message string `json:"message"`

	// LogPath is the run log location for this run.
	LogPath string `json:"log_path"`

	// RotatedLog is the archived previous log, if rotation was requested.
	RotatedLog string `json:"rotated_log,omitempty"`
}

// Feature is one feature of the local snapshot.
type Feature struct {
	// Key is the business key.
	Key string `json:"key"`

	// Geometry is the WKT geometry.
	Geometry string `json:"geometry"`

	// Area is the geometry-derived area, if known.
	Area *float64 `json:"area,omitempty"`
}

// SnapshotSource loads the local feature snapshot. Implemented by
// feature/snapshot on top of object storage.
type SnapshotSource interface {
	Load(ctx context.Context) ([]Feature, error)
}
