package stage

import "context"

// Stage names, in pipeline order.
const (
	NameDetective   = "detective"
	NameCTO         = "cto"
	NameGhostwriter = "ghostwriter"
)

// Names lists the pipeline stages in execution order.
func Names() []string {
	return []string{NameDetective, NameCTO, NameGhostwriter}
}

// ProgressFunc forwards a human-readable progress message to the session's
// event stream. Implementations are safe to call from the executor goroutine
// only.
type ProgressFunc func(message string)

// Input carries what each executor needs. Detective reads Subject, CTO reads
// Profile, Ghostwriter reads Profile, Analysis, and Preferences.
type Input struct {
	SessionID   string
	Subject     string
	Profile     *Profile
	Analysis    *Analysis
	Preferences Preferences
}

// Result is the typed output of one executor.
type Result interface {
	// Summary is the payload attached to the stage-completed event.
	Summary() any
}

// Executor describes the contract the orchestrator needs from each stage.
// Run must return promptly once ctx is cancelled.
type Executor interface {
	Name() string
	Run(ctx context.Context, in Input, progress ProgressFunc) (Result, error)
	HealthCheck(ctx context.Context) Health
}
