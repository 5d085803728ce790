package session

import "quill/internal/stage"

// Stage is the pipeline position of a session.
type Stage string

const (
	StageInit               Stage = "INIT"
	StageDetectiveRunning   Stage = "DETECTIVE_RUNNING"
	StageDetectiveDone      Stage = "DETECTIVE_DONE"
	StageCTORunning         Stage = "CTO_RUNNING"
	StageCTODone            Stage = "CTO_DONE"
	StageAwaitingStyle      Stage = "AWAITING_STYLE"
	StageGhostwriterRunning Stage = "GHOSTWRITER_RUNNING"
	StageDone               Stage = "DONE"
	StageError              Stage = "ERROR"
	StageTimeout            Stage = "TIMEOUT"
)

// forward holds the happy-path edges. ERROR and TIMEOUT are reachable from
// every non-terminal stage and are not listed.
var forward = map[Stage]Stage{
	StageInit:               StageDetectiveRunning,
	StageDetectiveRunning:   StageDetectiveDone,
	StageDetectiveDone:      StageCTORunning,
	StageCTORunning:         StageCTODone,
	StageCTODone:            StageAwaitingStyle,
	StageAwaitingStyle:      StageGhostwriterRunning,
	StageGhostwriterRunning: StageDone,
}

// AllStages lists every stage in pipeline order followed by the failure stages.
func AllStages() []Stage {
	return []Stage{
		StageInit,
		StageDetectiveRunning,
		StageDetectiveDone,
		StageCTORunning,
		StageCTODone,
		StageAwaitingStyle,
		StageGhostwriterRunning,
		StageDone,
		StageError,
		StageTimeout,
	}
}

// Terminal reports whether no further transitions are possible.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageError || s == StageTimeout
}

// Running reports whether an executor is active in this stage.
func (s Stage) Running() bool {
	return s.Executor() != ""
}

// Executor returns the stage name of the executor running in s, if any.
func (s Stage) Executor() string {
	switch s {
	case StageDetectiveRunning:
		return stage.NameDetective
	case StageCTORunning:
		return stage.NameCTO
	case StageGhostwriterRunning:
		return stage.NameGhostwriter
	default:
		return ""
	}
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to Stage) bool {
	if from.Terminal() {
		return false
	}
	if to == StageError || to == StageTimeout {
		return true
	}
	next, ok := forward[from]
	return ok && next == to
}

// RunningStageFor returns the running stage for an executor name.
func RunningStageFor(name string) (Stage, bool) {
	switch name {
	case stage.NameDetective:
		return StageDetectiveRunning, true
	case stage.NameCTO:
		return StageCTORunning, true
	case stage.NameGhostwriter:
		return StageGhostwriterRunning, true
	default:
		return "", false
	}
}
