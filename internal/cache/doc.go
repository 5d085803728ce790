// Package cache stores Detective profiles in Redis so repeat sessions for the
// same login skip the GitHub round trips.
//
// Keys are quill:profile:<lower(login)> and expire after the configured TTL.
// An empty redis address yields a no-op cache. Callers treat cache errors as
// advisory: a failed read is a miss and a failed write is logged and dropped.
package cache
