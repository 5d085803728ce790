// Package api defines wire-format types and converters for the daemon's HTTP
// API. It translates workflow, session and archive models into
// transport-friendly DTOs that the quill CLI and browser clients can decode
// without importing internal types.
//
// # Key Types
//
// GenerateRequest/GenerateResponse: start a session and learn where to stream it.
//
// SessionStatus: point-in-time view of a session (stage, deadline, preferences).
//
// Event: one streamed pipeline event. The payload stays raw JSON so clients
// decode only the shapes they care about.
//
// DaemonStatus: running state, sessions by stage, stage health and preflight.
//
// HistoryEntry: one archived session outcome.
//
// # Design Notes
//
// DTOs use snake_case JSON tags. Timestamps use RFC3339 with milliseconds.
package api
