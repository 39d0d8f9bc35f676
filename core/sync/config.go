package sync

import (
	"fmt"
	"strings"
)

// ResultColumns names the columns of the comparison results table.
// The table is written by the remote compare procedure; the engine treats
// every column name as configuration, never as a constant.
type ResultColumns struct {
	// Type is the result classification column.
	Type string `mapstructure:"type" default:"result_type"`
	// Order is the server-side sort key column.
	Order string `mapstructure:"order" default:"sort_order"`
	// Description is the human-readable reason column.
	Description string `mapstructure:"description" default:"description"`
	// NewKey is the local-side business key column.
	NewKey string `mapstructure:"new_key" default:"new_key"`
	// OldKey is the remote-side business key column.
	OldKey string `mapstructure:"old_key" default:"old_key"`
	// NewArea is the local-side area column.
	NewArea string `mapstructure:"new_area" default:"new_area"`
	// OldArea is the remote-side area column.
	OldArea string `mapstructure:"old_area" default:"old_area"`
}

// All returns the column names in read order.
func (c ResultColumns) All() []string {
	return []string{c.Type, c.Order, c.Description, c.NewKey, c.OldKey, c.NewArea, c.OldArea}
}

// Config is the synchronization profile: schema, table identifiers,
// procedure names and column names for one sync target.
type Config struct {
	// Schema is the remote schema owning the tables and procedures.
	Schema string `mapstructure:"schema" default:"dbo"`
	// RemoteTable is the remote spatial table name (without schema).
	RemoteTable string `mapstructure:"remote_table" default:""`
	// ResultsTable is the comparison results table name (without schema).
	// Defaults to "<remote_table>_results" when empty.
	ResultsTable string `mapstructure:"results_table" default:""`
	// LocalTable optionally names an already-uploaded local table to copy
	// into staging instead of uploading the snapshot feature by feature.
	LocalTable string `mapstructure:"local_table" default:""`
	// SnapshotObject is the object storage name of the local snapshot export.
	SnapshotObject string `mapstructure:"snapshot_object" default:"snapshots/local.json"`
	// KeyColumn is the business key column on both sides.
	KeyColumn string `mapstructure:"key_column" default:"feature_key"`
	// SpatialColumn is the geometry column on both sides.
	SpatialColumn string `mapstructure:"spatial_column" default:"geom"`
	// CompareProcedure is the remote compare procedure name.
	CompareProcedure string `mapstructure:"compare_procedure" default:"usp_CompareFeatures"`
	// UpdateProcedure is the remote update procedure name.
	UpdateProcedure string `mapstructure:"update_procedure" default:"usp_UpdateFeatures"`
	// ClearProcedure is the remote clear-temp-tables procedure name.
	ClearProcedure string `mapstructure:"clear_procedure" default:"usp_ClearTempTables"`
	// TimeoutSeconds bounds each remote procedure call.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"300"`
	// ResultColumns names the columns of the results table.
	ResultColumns ResultColumns `mapstructure:"result_columns"`
}

// Validate checks that the profile identifies a sync target.
func (c Config) Validate() error {
	if c.RemoteTable == "" {
		return fmt.Errorf("sync profile is missing remote_table")
	}
	if c.KeyColumn == "" {
		return fmt.Errorf("sync profile is missing key_column")
	}
	if c.SpatialColumn == "" {
		return fmt.Errorf("sync profile is missing spatial_column")
	}
	return nil
}

// resultsTableName returns the configured or derived results table base name.
func (c Config) resultsTableName() string {
	if c.ResultsTable != "" {
		return c.ResultsTable
	}
	return c.RemoteTable + "_results"
}

// StagingTable returns the schema-qualified staging table the local snapshot
// is uploaded to.
func (c Config) StagingTable() string {
	return c.qualify(c.RemoteTable + "_TEMP")
}

// QualifiedRemote returns the schema-qualified remote table name.
func (c Config) QualifiedRemote() string {
	return c.qualify(c.RemoteTable)
}

// QualifiedResults returns the schema-qualified results table name.
func (c Config) QualifiedResults() string {
	return c.qualify(c.resultsTableName())
}

// Target identifies the (schema, remote table) pair staging artifacts are
// scoped to. Sessions aiming at the same target share an advisory lock.
func (c Config) Target() string {
	return strings.ToLower(c.QualifiedRemote())
}

func (c Config) qualify(name string) string {
	if c.Schema == "" {
		return name
	}
	return c.Schema + "." + name
}
