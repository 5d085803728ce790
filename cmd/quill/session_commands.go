package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"quill/internal/api"
	"quill/internal/ipc"
)

func newStyleCommand(ctx *commandContext) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "style <session-id> <style>",
		Short: "Choose the README style for a session waiting on input",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SelectStyle(cmd.Context(), args[0], args[1], description)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Session %s will use the %s style\n", resp.SessionID, resp.Style)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "Special requirements for the README")
	return cmd
}

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup <session-id>",
		Short: "Release a session and its resources",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if err := client.Cleanup(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Session %s released\n", args[0])
				return nil
			})
		},
	}
}

func newResultCommand(ctx *commandContext) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "result <session-id>",
		Short: "Show the README and analysis of a finished session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				result, err := client.Result(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeResult(cmd.OutOrStdout(), result, format)
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "markdown", "Output format (markdown|json|yaml|table)")
	return cmd
}

func writeResult(out io.Writer, result *api.SessionResult, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "markdown", "md":
		if result.Document == nil {
			return fmt.Errorf("session %s has no document", result.SessionID)
		}
		_, err := io.WriteString(out, strings.TrimRight(result.Document.Markdown, "\n")+"\n")
		return err
	case "json":
		return writeJSON(out, result)
	case "yaml", "yml":
		return writeYAML(out, result)
	case "table":
		fmt.Fprintln(out, renderFields(resultRows(result)))
		return nil
	default:
		return fmt.Errorf("unknown format %q (want markdown, json, yaml, or table)", format)
	}
}

func resultRows(result *api.SessionResult) [][]string {
	rows := [][]string{
		{"Session", result.SessionID},
		{"Username", "@" + result.Username},
	}
	if name := result.Profile.Name; name != "" {
		rows = append(rows, []string{"Name", name})
	}
	rows = append(rows,
		[]string{"Followers", strconv.Itoa(result.Profile.Followers)},
		[]string{"Stars", strconv.Itoa(result.Profile.TotalStars)},
	)
	if a := result.Analysis; a != nil {
		langs := make([]string, 0, len(a.Languages.Top))
		for _, l := range a.Languages.Top {
			langs = append(langs, fmt.Sprintf("%s %.1f%%", l.Name, l.Percentage))
		}
		projects := make([]string, 0, len(a.KeyProjects))
		for _, p := range a.KeyProjects {
			projects = append(projects, p.Name)
		}
		rows = append(rows,
			[]string{"Archetype", a.Archetype.FullTitle},
			[]string{"Headline", a.Headline},
			[]string{"Grind", fmt.Sprintf("%.1f %s", a.Grind.Score, a.Grind.Label)},
			[]string{"Languages", strings.Join(langs, ", ")},
			[]string{"Key projects", strings.Join(projects, ", ")},
		)
	}
	if d := result.Document; d != nil {
		rows = append(rows,
			[]string{"Tone / style", d.Tone + " / " + d.Style},
			[]string{"Words", strconv.Itoa(len(strings.Fields(d.Markdown)))},
		)
	}
	return rows
}
