// Package ipc ships the HTTP client the quill CLI uses to drive a running
// quilld.
//
// Calls take a context so CLI commands fail fast when the daemon is offline.
// Non-2xx responses are decoded into *Error, which unwraps to the matching
// services marker so callers can branch with errors.Is. Stream reads the
// server-sent event feed of a session until its end marker.
package ipc
