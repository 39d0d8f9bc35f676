package gateway

import (
	"context"
	"errors"
)

// ErrTimedOut reports a remote call that exceeded the configured deadline.
// Callers are expected to still run their cleanup steps after seeing it.
var ErrTimedOut = errors.New("remote call timed out")

// SnapshotRow is one feature row uploaded into a staging table.
type SnapshotRow struct {
	// Key is the business key of the feature.
	Key string
	// Geometry is the feature geometry in WKT form.
	Geometry string
	// Area is the geometry-derived area, if known.
	Area *float64
}

// Gateway executes named remote procedures and raw table operations against
// the remote database. Calls are synchronous; no retry is performed, a single
// failure is surfaced immediately.
type Gateway interface {
	// Execute runs a named procedure with positional string parameters.
	Execute(ctx context.Context, procedure string, args ...string) error

	// TableExists reports whether the named (optionally schema-qualified)
	// table exists. Lookup errors are logged and reported as absence.
	TableExists(ctx context.Context, table string) bool

	// RowCount returns the number of rows in the table, or -1 if the count
	// could not be determined. The sentinel distinguishes "zero rows" from
	// "could not determine".
	RowCount(ctx context.Context, table string) int64

	// DeleteTable drops the table. Absence is not an error.
	DeleteTable(ctx context.Context, table string) error

	// CopyTable copies an existing table wholesale into a new table.
	CopyTable(ctx context.Context, source, target string) error

	// CreateSnapshotTable creates an empty staging table with key, geometry
	// and area columns named after the configured key/spatial columns.
	CreateSnapshotTable(ctx context.Context, table, keyColumn, spatialColumn string) error

	// InsertSnapshotRows bulk-inserts feature rows into a staging table.
	InsertSnapshotRows(ctx context.Context, table, keyColumn, spatialColumn string, rows []SnapshotRow) error

	// KeyCensus returns the number of blank and duplicated business keys on
	// the table.
	KeyCensus(ctx context.Context, table, keyColumn string) (blank int64, duplicate int64, err error)

	// QueryRows reads the named columns from every row of the table, ordered
	// by the orderBy columns. Values are returned loosely typed; callers
	// convert them with core/utils.
	QueryRows(ctx context.Context, table string, columns []string, orderBy []string) ([]map[string]any, error)
}
