// Package daemonctl starts, stops, and restarts quilld on behalf of the CLI.
//
// Liveness is judged through the daemon's HTTP status endpoint; stopping
// sends SIGTERM to the reported pid and escalates to SIGKILL, clearing the
// pid and lock files, when the API keeps answering past the grace period.
package daemonctl
