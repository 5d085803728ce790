// Package daemonrun assembles and runs the quilld process: logger, archive,
// profile cache, GitHub and LLM clients, the three pipeline stages, and the
// HTTP daemon that serves them.
package daemonrun
