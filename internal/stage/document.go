package stage

import "strings"

// Document is the Ghostwriter's output.
type Document struct {
	Markdown  string `json:"markdown"`
	Tone      string `json:"tone"`
	Style     string `json:"style"`
	Generator string `json:"generator"`
}

// DocumentSummary is the payload of the ghostwriter stage-completed event.
type DocumentSummary struct {
	Markdown string `json:"markdown"`
	Length   int    `json:"length"`
	Words    int    `json:"words"`
	Lines    int    `json:"lines"`
}

// Summary implements Result.
func (d *Document) Summary() any {
	return DocumentSummary{
		Markdown: d.Markdown,
		Length:   len(d.Markdown),
		Words:    len(strings.Fields(d.Markdown)),
		Lines:    strings.Count(d.Markdown, "\n") + 1,
	}
}
