// Package daemon coordinates the long-running quilld process.
//
// It wires configuration, the workflow manager, and the outcome archive
// into a single lifecycle with flock-based locking to prevent multiple
// instances, and serves the HTTP API: session start, SSE and WebSocket event
// streams, style selection, cleanup, results, status and history.
//
// Keep orchestration logic here: pipeline semantics live in workflow and
// session while the daemon focuses on startup, shutdown, and transport.
package daemon
