package api

import (
	"encoding/json"
	"slices"
	"strings"
	"time"

	"quill/internal/archive"
	"quill/internal/eventlog"
	"quill/internal/preflight"
	"quill/internal/session"
	"quill/internal/stage"
	"quill/internal/workflow"
)

// FromEvent converts a log event to its wire form.
func FromEvent(evt eventlog.Event) (Event, error) {
	dto := Event{
		Sequence:  evt.Sequence,
		Kind:      string(evt.Kind),
		Stage:     evt.Stage,
		Message:   evt.Message,
		Timestamp: formatTime(evt.Timestamp),
	}
	if evt.Payload != nil {
		raw, err := json.Marshal(evt.Payload)
		if err != nil {
			return Event{}, err
		}
		dto.Payload = raw
	}
	return dto, nil
}

// FromSnapshot converts a session snapshot to its API representation.
func FromSnapshot(snap session.Snapshot) SessionStatus {
	dto := SessionStatus{
		SessionID:     snap.ID,
		Username:      snap.Subject,
		Stage:         string(snap.Stage),
		Tone:          snap.Preferences.Tone,
		Style:         snap.Preferences.Style,
		Description:   snap.Preferences.Description,
		StyleSelected: snap.StyleSelected,
		Subscribed:    snap.Subscribed,
		Events:        snap.Events,
		CreatedAt:     formatTime(snap.CreatedAt),
		LastActivity:  formatTime(snap.LastActivity),
		Deadline:      formatTime(snap.Deadline),
		FinishedAt:    formatTime(snap.FinishedAt),
	}
	if f := snap.Failure; f != nil {
		dto.Failure = &Failure{Stage: f.Stage, Message: f.Message, Kind: f.Kind, Code: f.Code, Hint: f.Hint}
	}
	return dto
}

// FromResult converts a finished session's output.
func FromResult(res workflow.Result) SessionResult {
	return SessionResult{
		SessionID: res.SessionID,
		Username:  res.Subject,
		Document:  res.Document,
		Analysis:  res.Analysis,
		Profile:   res.Profile,
	}
}

// FromStatusSummary converts a workflow status summary to API payload.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	byStage := make(map[string]int, len(summary.SessionsByStage))
	for name, count := range summary.SessionsByStage {
		byStage[name] = count
	}
	return WorkflowStatus{
		Running:         summary.Running,
		ActiveSessions:  summary.ActiveSessions,
		Capacity:        summary.Capacity,
		SessionsByStage: byStage,
		LastError:       summary.LastError,
		StageHealth:     StageHealthSlice(summary.StageHealth),
	}
}

// StageHealthSlice converts a stage health map into a deterministic slice.
func StageHealthSlice(health map[string]stage.Health) []StageHealth {
	if len(health) == 0 {
		return nil
	}
	names := make([]string, 0, len(health))
	for name := range health {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]StageHealth, 0, len(names))
	for _, name := range names {
		h := health[name]
		out = append(out, StageHealth{Name: name, Ready: h.Ready, Detail: h.Detail})
	}
	return out
}

// HealthStatus folds stage health into "ok" or "degraded".
func HealthStatus(stages []StageHealth) string {
	for _, s := range stages {
		if !s.Ready {
			return "degraded"
		}
	}
	return "ok"
}

// FromPreflight converts preflight results.
func FromPreflight(results []preflight.Result) []PreflightCheck {
	if len(results) == 0 {
		return nil
	}
	out := make([]PreflightCheck, 0, len(results))
	for _, r := range results {
		out = append(out, PreflightCheck{Name: r.Name, Passed: r.Passed, Detail: r.Detail})
	}
	return out
}

// FromRecord converts an archived outcome.
func FromRecord(rec archive.Record) HistoryEntry {
	entry := HistoryEntry{
		SessionID:    rec.SessionID,
		Username:     rec.Subject,
		Outcome:      rec.Outcome,
		Tone:         rec.Tone,
		Style:        rec.Style,
		ErrorKind:    rec.ErrorKind,
		ErrorMessage: rec.ErrorMessage,
		Headline:     rec.Headline,
		Words:        len(strings.Fields(rec.Markdown)),
		CreatedAt:    formatTime(rec.CreatedAt),
		FinishedAt:   formatTime(rec.FinishedAt),
	}
	if !rec.CreatedAt.IsZero() && rec.FinishedAt.After(rec.CreatedAt) {
		entry.DurationSeconds = rec.FinishedAt.Sub(rec.CreatedAt).Round(time.Millisecond).Seconds()
	}
	return entry
}

// FromRecords converts a slice of archived outcomes.
func FromRecords(records []archive.Record) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(records))
	for _, rec := range records {
		out = append(out, FromRecord(rec))
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
