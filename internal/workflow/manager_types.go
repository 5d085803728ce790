package workflow

import (
	"quill/internal/session"
	"quill/internal/stage"
)

// StageSet bundles the concrete executors the manager orchestrates.
type StageSet struct {
	Detective   stage.Executor
	CTO         stage.Executor
	Ghostwriter stage.Executor
}

type pipelineStage struct {
	name         string
	executor     stage.Executor
	running      session.Stage
	startMessage func(subject string) string
	doneMessage  string
}
