// Package broadcast delivers a session's event log to its single stream
// subscriber. A subscriber always starts at sequence 1, so a late client
// replays the backlog before it sees live events; the end of the stream is
// reported as io.EOF once the log closes.
package broadcast
