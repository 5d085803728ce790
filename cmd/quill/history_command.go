package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"quill/internal/api"
	"quill/internal/ipc"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived session outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				entries, err := client.History(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if asJSON {
					return writeJSON(out, api.HistoryResponse{Entries: entries})
				}
				if len(entries) == 0 {
					fmt.Fprintln(out, "No archived sessions")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Finished", "User", "Outcome", "Style", "Words", "Took", "Detail"},
					historyRows(entries),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func historyRows(entries []api.HistoryEntry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		detail := e.Headline
		if e.Outcome != "DONE" && e.ErrorMessage != "" {
			detail = e.ErrorMessage
		}
		words := ""
		if e.Words > 0 {
			words = strconv.Itoa(e.Words)
		}
		rows = append(rows, []string{
			shortTimestamp(e.FinishedAt),
			"@" + e.Username,
			e.Outcome,
			e.Style,
			words,
			fmt.Sprintf("%.0fs", e.DurationSeconds),
			truncate(detail, 48),
		})
	}
	return rows
}

func shortTimestamp(ts string) string {
	if len(ts) >= 16 {
		return strings.Replace(ts[:16], "T", " ", 1)
	}
	return ts
}

func truncate(s string, max int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= max {
		return string(r)
	}
	return string(r[:max-1]) + "…"
}
