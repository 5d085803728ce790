// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, stage names, subjects, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap and Details helpers that let the
//     orchestrator, the event log, and the HTTP layer classify failures the
//     same way.
//
// Subpackages hold the clients for GitHub and the LLM providers.
package services
