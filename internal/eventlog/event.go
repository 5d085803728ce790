package eventlog

import "time"

// Kind classifies a session event.
type Kind string

const (
	KindStageStarted   Kind = "stage-started"
	KindStageProgress  Kind = "stage-progress"
	KindStageCompleted Kind = "stage-completed"
	KindAwaitingInput  Kind = "awaiting-input"
	KindError          Kind = "error"
	KindTimeout        Kind = "timeout"
	KindSessionDone    Kind = "session-done"
)

// Terminal reports whether the kind ends a session's stream.
func (k Kind) Terminal() bool {
	switch k {
	case KindError, KindTimeout, KindSessionDone:
		return true
	default:
		return false
	}
}

// Event is one entry in a session's log.
type Event struct {
	Sequence  uint64    `json:"seq"`
	Kind      Kind      `json:"kind"`
	Stage     string    `json:"stage,omitempty"`
	Message   string    `json:"message"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"ts"`
}

// ErrorPayload is attached to error and timeout events.
type ErrorPayload struct {
	Stage   string `json:"stage,omitempty"`
	Message string `json:"message"`
	Kind    string `json:"kind"`
	Code    string `json:"code,omitempty"`
	Hint    string `json:"hint,omitempty"`
}
