// Package github talks to the GitHub GraphQL API on behalf of the Detective.
//
// Every request passes through a token-bucket limiter and is retried with
// exponential backoff on 5xx, 429, and secondary rate-limit 403 responses.
// Retry-After is honoured when present. A missing user or repository maps to
// services.ErrNotFound so callers can surface a clean stage failure.
package github
