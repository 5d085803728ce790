package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// maxCellWidth wraps long headlines and project lists instead of letting one
// cell stretch the table past a normal terminal.
const maxCellWidth = 60

type tableColumn struct {
	title string
	align columnAlignment
}

func columns(titles []string, aligns []columnAlignment) []tableColumn {
	out := make([]tableColumn, len(titles))
	for i, title := range titles {
		out[i] = tableColumn{title: title}
		if i < len(aligns) {
			out[i].align = aligns[i]
		}
	}
	return out
}

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	return renderColumns(columns(headers, aligns), rows)
}

// renderFields prints label/value pairs as a two-column table with the
// header row hidden.
func renderFields(rows [][]string) string {
	tw := newTableWriter(columns([]string{"Field", "Value"}, nil), rows)
	if tw == nil {
		return ""
	}
	tw.Style().Options.SeparateHeader = false
	tw.ResetHeaders()
	return tw.Render()
}

func renderColumns(cols []tableColumn, rows [][]string) string {
	tw := newTableWriter(cols, rows)
	if tw == nil {
		return ""
	}
	return tw.Render()
}

func newTableWriter(cols []tableColumn, rows [][]string) table.Writer {
	if len(cols) == 0 {
		return nil
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(cols))
	configs := make([]table.ColumnConfig, len(cols))
	for i, col := range cols {
		header[i] = col.title
		align := text.AlignLeft
		if col.align == alignRight {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{
			Number:           i + 1,
			Align:            align,
			AlignHeader:      text.AlignLeft,
			WidthMax:         maxCellWidth,
			WidthMaxEnforcer: text.WrapSoft,
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(cols))
		for i := range cols {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}
	return tw
}
