package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quill/internal/services"
)

// Record is one archived session outcome.
type Record struct {
	SessionID    string    `json:"session_id"`
	Subject      string    `json:"subject"`
	Outcome      string    `json:"outcome"`
	Tone         string    `json:"tone,omitempty"`
	Style        string    `json:"style,omitempty"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Headline     string    `json:"headline,omitempty"`
	Markdown     string    `json:"markdown,omitempty"`
	AnalysisJSON string    `json:"analysis_json,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

const recordColumns = "session_id, subject, outcome, tone, style, error_kind, error_message, headline, markdown, analysis_json, created_at, finished_at"

// Save stores rec. Saving the same session twice replaces the earlier row.
func (s *Store) Save(ctx context.Context, rec Record) error {
	if rec.SessionID == "" {
		return services.Wrap(services.ErrValidation, "archive", "save", "session id is required", nil)
	}
	_, err := s.execWithRetry(ctx,
		`INSERT OR REPLACE INTO outcomes (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID,
		rec.Subject,
		rec.Outcome,
		nullString(rec.Tone),
		nullString(rec.Style),
		nullString(rec.ErrorKind),
		nullString(rec.ErrorMessage),
		nullString(rec.Headline),
		nullString(rec.Markdown),
		nullString(rec.AnalysisJSON),
		formatTime(rec.CreatedAt),
		formatTime(rec.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("save outcome: %w", err)
	}
	return nil
}

// List returns the most recent outcomes, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM outcomes ORDER BY finished_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return out, nil
}

// Get returns the outcome for sessionID.
func (s *Store) Get(ctx context.Context, sessionID string) (Record, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM outcomes WHERE session_id = ?`, sessionID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, services.Wrap(services.ErrNotFound, "archive", "get", fmt.Sprintf("no outcome for session %s", sessionID), nil)
	}
	if err != nil {
		return Record{}, fmt.Errorf("get outcome: %w", err)
	}
	return rec, nil
}

// Prune deletes outcomes that finished before cutoff and returns the count.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM outcomes WHERE finished_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune outcomes: %w", err)
	}
	return res.RowsAffected()
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (Record, error) {
	var (
		rec          Record
		tone         sql.NullString
		style        sql.NullString
		errorKind    sql.NullString
		errorMessage sql.NullString
		headline     sql.NullString
		markdown     sql.NullString
		analysis     sql.NullString
		createdRaw   string
		finishedRaw  string
	)
	if err := scanner.Scan(
		&rec.SessionID,
		&rec.Subject,
		&rec.Outcome,
		&tone,
		&style,
		&errorKind,
		&errorMessage,
		&headline,
		&markdown,
		&analysis,
		&createdRaw,
		&finishedRaw,
	); err != nil {
		return Record{}, err
	}
	rec.Tone = tone.String
	rec.Style = style.String
	rec.ErrorKind = errorKind.String
	rec.ErrorMessage = errorMessage.String
	rec.Headline = headline.String
	rec.Markdown = markdown.String
	rec.AnalysisJSON = analysis.String
	rec.CreatedAt = parseTime(createdRaw)
	rec.FinishedAt = parseTime(finishedRaw)
	return rec, nil
}

func nullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

// Timestamps are stored as fixed-width UTC text so lexical order is
// chronological.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
