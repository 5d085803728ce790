// Package preflight provides readiness checks for external services
// and filesystem paths that Quill depends on.
//
// These checks run in two contexts:
//   - The workflow manager calls RunAll when the daemon starts and logs each
//     result. Failures never block startup.
//   - The daemon status endpoint returns the same results so "quill status"
//     can render them as a table.
//
// Optional services are skipped when they are not configured.
package preflight
