package workflow

import (
	"context"

	"quill/internal/logging"
	"quill/internal/preflight"
)

// runPreflightChecks logs the readiness of external services at start.
// Failures are reported but never block the daemon; each stage surfaces its
// own error if the dependency is still unavailable when it runs.
func (m *Manager) runPreflightChecks(ctx context.Context) {
	if m.probes == nil {
		return
	}
	logger := logging.NewComponentLogger(m.logger, "workflow-preflight")
	for _, r := range preflight.RunAll(ctx, m.cfg, *m.probes) {
		if r.Passed {
			logger.Info("preflight check passed",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
				logging.String(logging.FieldEventType, "preflight_passed"),
			)
			continue
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldErrorHint, "fix the reported issue and restart the daemon"),
			logging.String(logging.FieldImpact, "sessions depending on this service will fail"),
		)
	}
}

// Preflight runs the readiness checks on demand. It returns nil when the
// manager was built without probes.
func (m *Manager) Preflight(ctx context.Context) []preflight.Result {
	if m.probes == nil {
		return nil
	}
	return preflight.RunAll(ctx, m.cfg, *m.probes)
}
