// Package eventlog holds the append-only, sequenced event history of a single
// pipeline session.
//
// Sequence numbers start at 1 and are assigned under the log's lock, so they
// are gapless and strictly increasing regardless of how many goroutines
// append. Readers block in Fetch on a condition variable until new events
// arrive, the log closes, or their context ends. A closed log accepts no
// further events.
package eventlog
