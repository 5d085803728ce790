// Package session holds the per-subject pipeline aggregate: its stage
// machine, stored stage results, style preferences, deadline bookkeeping
// and the event log clients stream from.
//
// Every mutation happens under the session mutex together with the event
// that describes it, so a subscriber replaying the log always observes the
// same order the state machine went through. Terminal stages close the log
// and cancel the session context; the first terminal transition wins.
package session
