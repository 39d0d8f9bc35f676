// Package config provides configuration management for DataSync.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file, with defaults declared as struct tags.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (port, API key)
//   - Database: SQL Server connection details
//   - Storage: S3/MinIO credentials and bucket settings (local snapshot source)
//   - Log: Logging level and format
//   - Sync: the synchronization profile (schema, table names, procedure names, result columns)
//   - Runlog: run log artifact location and archive settings
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Sync.RemoteTable)
package config
