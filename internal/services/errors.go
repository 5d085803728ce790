package services

import (
	"errors"
	"strings"
)

var (
	ErrValidation      = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrInvalidState    = errors.New("invalid state")
	ErrAlreadySelected = errors.New("already selected")
	ErrStageFailure    = errors.New("stage failure")
	ErrTimeout         = errors.New("timeout")
	ErrCancelled       = errors.New("cancelled")
	ErrUnavailable     = errors.New("unavailable")
	ErrNotReady        = errors.New("not ready")
	ErrExternalService = errors.New("external service error")
	ErrConfiguration   = errors.New("configuration error")
	ErrTransient       = errors.New("transient failure")
)

// ErrorKind is the stable, wire-friendly classification of a marker.
type ErrorKind string

const (
	KindInvalidInput    ErrorKind = "invalid_input"
	KindNotFound        ErrorKind = "not_found"
	KindInvalidState    ErrorKind = "invalid_state"
	KindAlreadySelected ErrorKind = "already_selected"
	KindStageFailure    ErrorKind = "stage_failure"
	KindTimeout         ErrorKind = "timeout"
	KindCancelled       ErrorKind = "cancelled"
	KindUnavailable     ErrorKind = "unavailable"
	KindNotReady        ErrorKind = "not_ready"
	KindExternalService ErrorKind = "external_service"
	KindConfiguration   ErrorKind = "configuration"
	KindTransient       ErrorKind = "transient"
	KindUnknown         ErrorKind = "unknown"
)

var markerKinds = []struct {
	marker error
	kind   ErrorKind
}{
	{ErrValidation, KindInvalidInput},
	{ErrNotFound, KindNotFound},
	{ErrInvalidState, KindInvalidState},
	{ErrAlreadySelected, KindAlreadySelected},
	{ErrTimeout, KindTimeout},
	{ErrCancelled, KindCancelled},
	{ErrUnavailable, KindUnavailable},
	{ErrNotReady, KindNotReady},
	{ErrConfiguration, KindConfiguration},
	{ErrExternalService, KindExternalService},
	{ErrTransient, KindTransient},
	{ErrStageFailure, KindStageFailure},
}

// Error carries a marker plus the stage context it was raised in.
type Error struct {
	Marker    error
	Stage     string
	Operation string
	Message   string
	Hint      string
	Cause     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Marker.Error())
	b.WriteString(": ")
	b.WriteString(buildDetail(e.Stage, e.Operation, e.Message))
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap exposes both the marker and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Marker}
	}
	return []error{e.Marker, e.Cause}
}

// Wrap builds an error that includes stage context while tagging it with the
// provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	return &Error{
		Marker:    marker,
		Stage:     strings.TrimSpace(stage),
		Operation: strings.TrimSpace(operation),
		Message:   strings.TrimSpace(message),
		Cause:     err,
	}
}

// WithHint returns a copy of err carrying an operator-facing hint. Errors
// that were not produced by Wrap are wrapped as transient first.
func WithHint(err error, hint string) error {
	if err == nil {
		return nil
	}
	var svcErr *Error
	if errors.As(err, &svcErr) {
		clone := *svcErr
		clone.Hint = strings.TrimSpace(hint)
		return &clone
	}
	return &Error{Marker: ErrTransient, Message: "unclassified", Hint: strings.TrimSpace(hint), Cause: err}
}

// ErrorDetails is the flattened view of an error used by logs, events and
// HTTP responses.
type ErrorDetails struct {
	Kind      ErrorKind
	Stage     string
	Operation string
	Message   string
	Hint      string
	Cause     error
}

// Details extracts classification and context from err.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	details := ErrorDetails{Kind: KindOf(err), Message: err.Error()}
	var svcErr *Error
	if errors.As(err, &svcErr) {
		details.Stage = svcErr.Stage
		details.Operation = svcErr.Operation
		details.Hint = svcErr.Hint
		details.Cause = svcErr.Cause
		if svcErr.Message != "" {
			details.Message = svcErr.Message
		}
	}
	return details
}

// KindOf reports the first marker err matches, in priority order.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	for _, mk := range markerKinds {
		if errors.Is(err, mk.marker) {
			return mk.kind
		}
	}
	return KindUnknown
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

// MarkerFor returns the sentinel for kind, or ErrTransient when unknown.
func MarkerFor(kind ErrorKind) error {
	for _, mk := range markerKinds {
		if mk.kind == kind {
			return mk.marker
		}
	}
	return ErrTransient
}
