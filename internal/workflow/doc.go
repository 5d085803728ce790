// Package workflow drives sessions through the detective, cto and
// ghostwriter stages.
//
// The Manager owns the registry and broadcaster, starts one pipeline
// goroutine per session, and exposes the operations the HTTP layer needs:
// start, subscribe, select a style, fetch the result, clean up. The pipeline
// pauses at AWAITING_STYLE with no active work and resumes when a style is
// chosen. The Supervisor loop enforces deadlines, cancels abandoned
// sessions and evicts finished ones after the retention window.
//
// Terminal outcomes are archived and, when configured, announced via ntfy.
// Add a stage by extending StageSet and the session state machine together.
package workflow
