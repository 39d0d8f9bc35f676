// Package database handles database connections and schema inspection.
//
// It provides a wrapper around GORM to properly configure connections to the
// remote SQL Server instance hosting the spatial tables and sync procedures.
// MySQL and SQLite dialects are also supported (SQLite backs the in-memory
// test databases).
//
// # Connect
//
// The generic Connect function establishes a connection based on the
// configured driver. Pool settings and a ping with timeout are applied before
// the connection is handed to callers.
//
// # Schema Inspection
//
// The inspector retrieves table columns in a dialect-aware way. The sync
// engine uses MissingColumns as a pre-flight check so that a missing key or
// spatial column is reported by name before any remote procedure runs.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	missing, err := database.MissingColumns(db, "dbo.parcels", "key_col", "geom")
package database
