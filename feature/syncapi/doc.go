// Package syncapi exposes the compare/apply workflow over HTTP.
//
// It binds the core sync session to Fiber routes so UI clients can drive a
// run and poll its state, mirroring the load -> compare -> review ->
// confirm -> run flow of the CLI.
//
// # HTTP Endpoints
//
//   - POST /sync/load : Take the local and remote censuses.
//   - POST /sync/compare : Run the compare pipeline.
//   - POST /sync/run : Apply the pending comparison (body: confirmed, rotate_log).
//   - GET  /sync/status : Run state, censuses, warnings, last outcome.
//   - GET  /sync/results : Rows and summaries of the pending comparison.
//   - GET  /sync/logs : Run logs archived to object storage.
//
// Busy, wrong-state and unconfirmed-gate rejections map to 409; everything
// else surfaces as 500 with the engine's classified error message.
package syncapi
