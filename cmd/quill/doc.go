// Package main hosts the quill CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into HTTP
// calls against quilld: starting a generation and following its event
// stream, answering the style pause, fetching results and history, and
// reporting daemon status. It centralizes configuration resolution and
// daemon discovery so subcommands can focus on user experience instead of
// wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
