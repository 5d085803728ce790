package api

import (
	"encoding/json"

	"quill/internal/stage"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// GenerateRequest starts a pipeline for a GitHub user.
type GenerateRequest struct {
	Username    string `json:"username"`
	Tone        string `json:"tone,omitempty"`
	Style       string `json:"style,omitempty"`
	Description string `json:"description,omitempty"`
}

// GenerateResponse tells the caller where to subscribe.
type GenerateResponse struct {
	SessionID    string `json:"session_id"`
	StreamURL    string `json:"stream_url"`
	WebSocketURL string `json:"websocket_url"`
}

// StyleRequest resolves the style pause.
type StyleRequest struct {
	Style       string `json:"style"`
	Description string `json:"description,omitempty"`
}

// StyleResponse acknowledges a style selection.
type StyleResponse struct {
	SessionID string `json:"session_id"`
	Style     string `json:"style"`
}

// Event is one streamed session event.
type Event struct {
	Sequence  uint64          `json:"seq"`
	Kind      string          `json:"kind"`
	Stage     string          `json:"stage,omitempty"`
	Message   string          `json:"message"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp string          `json:"ts"`
}

// Failure describes why a session ended without a document.
type Failure struct {
	Stage   string `json:"stage,omitempty"`
	Message string `json:"message"`
	Kind    string `json:"kind"`
	Code    string `json:"code,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

// SessionStatus is the snapshot returned by GET /api/sessions/{id}.
type SessionStatus struct {
	SessionID     string   `json:"session_id"`
	Username      string   `json:"username"`
	Stage         string   `json:"stage"`
	Tone          string   `json:"tone"`
	Style         string   `json:"style,omitempty"`
	Description   string   `json:"description,omitempty"`
	StyleSelected bool     `json:"style_selected"`
	Subscribed    bool     `json:"subscribed"`
	Events        int      `json:"events"`
	CreatedAt     string   `json:"created_at,omitempty"`
	LastActivity  string   `json:"last_activity,omitempty"`
	Deadline      string   `json:"deadline,omitempty"`
	FinishedAt    string   `json:"finished_at,omitempty"`
	Failure       *Failure `json:"failure,omitempty"`
}

// SessionResult is the document of a finished session.
type SessionResult struct {
	SessionID string               `json:"session_id"`
	Username  string               `json:"username"`
	Document  *stage.Document      `json:"document"`
	Analysis  *stage.Analysis      `json:"analysis"`
	Profile   stage.ProfileSummary `json:"profile"`
}

// StageHealth mirrors readiness reporting for pipeline stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// HealthResponse is returned by the unauthenticated health endpoint.
type HealthResponse struct {
	Status string        `json:"status"`
	Stages []StageHealth `json:"stages"`
}

// WorkflowStatus summarizes orchestrator state.
type WorkflowStatus struct {
	Running         bool           `json:"running"`
	ActiveSessions  int            `json:"active_sessions"`
	Capacity        int            `json:"capacity"`
	SessionsByStage map[string]int `json:"sessions_by_stage"`
	LastError       string         `json:"last_error,omitempty"`
	StageHealth     []StageHealth  `json:"stage_health"`
}

// PreflightCheck captures one readiness probe.
type PreflightCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool             `json:"running"`
	PID          int              `json:"pid"`
	Bind         string           `json:"bind"`
	LockFilePath string           `json:"lock_file_path"`
	ArchivePath  string           `json:"archive_path,omitempty"`
	StartedAt    string           `json:"started_at,omitempty"`
	Workflow     WorkflowStatus   `json:"workflow"`
	Preflight    []PreflightCheck `json:"preflight,omitempty"`
}

// HistoryEntry is one archived outcome.
type HistoryEntry struct {
	SessionID       string  `json:"session_id"`
	Username        string  `json:"username"`
	Outcome         string  `json:"outcome"`
	Tone            string  `json:"tone,omitempty"`
	Style           string  `json:"style,omitempty"`
	ErrorKind       string  `json:"error_kind,omitempty"`
	ErrorMessage    string  `json:"error_message,omitempty"`
	Headline        string  `json:"headline,omitempty"`
	Words           int     `json:"words,omitempty"`
	CreatedAt       string  `json:"created_at,omitempty"`
	FinishedAt      string  `json:"finished_at,omitempty"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// HistoryResponse wraps archived outcomes, newest first.
type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Hint  string `json:"hint,omitempty"`
}
