package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// redactedValue replaces credentials that reach a log record by accident.
const redactedValue = "<redacted>"

// sensitiveKeyParts mark attribute keys whose values are never written out:
// GitHub tokens, LLM API keys, the daemon bearer token and Redis passwords.
var sensitiveKeyParts = []string{"token", "api_key", "apikey", "password", "secret", "authorization"}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	if idx := strings.LastIndexByte(key, '.'); idx >= 0 {
		key = key[idx+1:]
	}
	for _, part := range sensitiveKeyParts {
		if strings.Contains(key, part) {
			return true
		}
	}
	return false
}

// redact swaps a non-empty string value for a placeholder when the key names
// a credential. Flags such as github_token_present pass through.
func redact(key string, v slog.Value) slog.Value {
	if v.Kind() != slog.KindString || strings.TrimSpace(v.String()) == "" {
		return v
	}
	if isSensitiveKey(key) {
		return slog.StringValue(redactedValue)
	}
	return v
}

// attrString renders a header value (component, session, stage) unquoted.
func attrString(v slog.Value) string {
	v = v.Resolve()
	if v.Kind() == slog.KindString {
		return v.String()
	}
	return rawValue(v)
}

// formatValue renders a field value for the console, quoting anything that
// would be ambiguous on a "key: value" line.
func formatValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindBool, slog.KindInt64, slog.KindUint64, slog.KindFloat64, slog.KindDuration, slog.KindTime:
		return rawValue(v)
	default:
		return quoteIfNeeded(rawValue(v))
	}
}

func rawValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return formatTimestamp(v.Time())
	case slog.KindAny:
		switch val := v.Any().(type) {
		case error:
			return val.Error()
		case fmt.Stringer:
			return val.String()
		case []string:
			return strings.Join(val, ",")
		default:
			return fmt.Sprint(val)
		}
	default:
		return v.String()
	}
}

func quoteIfNeeded(s string) string {
	if s == "" {
		return `""`
	}
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' {
			return strconv.Quote(s)
		}
	}
	return s
}
