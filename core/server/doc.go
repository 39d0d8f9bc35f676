// Package server holds configuration for the HTTP surface of DataSync.
//
// The actual Fiber application is assembled in cmd/start.go; this package only
// defines the settings (listen port, API key) that the config loader binds.
package server
