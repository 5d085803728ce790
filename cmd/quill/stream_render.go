package main

import (
	"fmt"
	"io"

	"quill/internal/api"
)

type streamPrinter struct {
	out      io.Writer
	colorize bool
}

func newStreamPrinter(out io.Writer, colorize bool) *streamPrinter {
	return &streamPrinter{out: out, colorize: colorize}
}

func (p *streamPrinter) session(id, username string) {
	p.line(statusInfo, fmt.Sprintf("session %s started for @%s", id, username))
}

func (p *streamPrinter) note(message string) {
	p.line(statusInfo, message)
}

func (p *streamPrinter) event(evt api.Event) {
	switch evt.Kind {
	case "stage-started":
		p.line(statusInfo, fmt.Sprintf("▶ %s: %s", evt.Stage, evt.Message))
	case "stage-progress":
		fmt.Fprintf(p.out, "%s· %s\n", statusIndent, evt.Message)
	case "stage-completed":
		p.line(statusOK, fmt.Sprintf("✔ %s: %s", evt.Stage, evt.Message))
	case "awaiting-input":
		p.line(statusWarn, "? "+evt.Message)
	case "error", "timeout":
		p.line(statusError, "✖ "+evt.Message)
	case "session-done":
		p.line(statusOK, "✔ "+evt.Message)
	default:
		fmt.Fprintln(p.out, evt.Message)
	}
}

func (p *streamPrinter) line(kind statusKind, text string) {
	fmt.Fprintln(p.out, paint(text, kind, p.colorize))
}
