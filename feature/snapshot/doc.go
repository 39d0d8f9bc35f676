// Package snapshot loads the local feature snapshot from object storage.
//
// The upstream GIS tooling exports the local layer as a JSON document of
// (key, WKT geometry, area) entries. This package implements the
// sync.SnapshotSource interface on top of that export so the engine never
// touches the storage layer directly.
package snapshot
