// Package stage defines the contract between the session orchestrator and the
// three pipeline executors, plus the typed results they exchange.
//
// Detective produces a *Profile, CTO an *Analysis, and Ghostwriter a
// *Document. CheckResult enforces that pairing before results are stored on
// a session.
package stage
