package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"quill/internal/api"
	"quill/internal/services"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var withPreflight bool
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, stage, and session status",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			client, err := ctx.dialClient()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context(), withPreflight)
			if err != nil {
				if errors.Is(err, services.ErrUnavailable) && !asJSON {
					for _, line := range renderSectionHeader("Quill", colorize) {
						fmt.Fprintln(out, line)
					}
					fmt.Fprintln(out, renderStatusLine("Daemon", statusError, "Not running", colorize))
					return nil
				}
				return err
			}
			if asJSON {
				return writeJSON(out, status)
			}
			writeStatus(out, status, colorize)
			return nil
		},
	}
	cmd.Flags().BoolVar(&withPreflight, "preflight", false, "Also probe GitHub, the LLM provider, and the cache")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func writeStatus(out io.Writer, status *api.DaemonStatus, colorize bool) {
	for _, line := range statusLines(status, colorize) {
		fmt.Fprintln(out, line)
	}
	if len(status.Workflow.SessionsByStage) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable([]string{"Stage", "Sessions"}, sessionRows(status.Workflow.SessionsByStage), []columnAlignment{alignLeft, alignRight}))
	}
}

func statusLines(status *api.DaemonStatus, colorize bool) []string {
	lines := renderSectionHeader("Quill", colorize)
	daemonKind, daemonMsg := statusOK, fmt.Sprintf("Running (pid %d) on %s", status.PID, status.Bind)
	if !status.Running {
		daemonKind, daemonMsg = statusError, "Stopped"
	}
	lines = append(lines, renderStatusLine("Daemon", daemonKind, daemonMsg, colorize))
	if status.StartedAt != "" {
		lines = append(lines, renderStatusLine("Started", statusInfo, status.StartedAt, colorize))
	}
	capacity := fmt.Sprintf("%d of %d", status.Workflow.ActiveSessions, status.Workflow.Capacity)
	capKind := statusInfo
	if status.Workflow.Capacity > 0 && status.Workflow.ActiveSessions >= status.Workflow.Capacity {
		capKind = statusWarn
	}
	lines = append(lines, renderStatusLine("Sessions", capKind, capacity, colorize))
	if status.ArchivePath != "" {
		lines = append(lines, renderStatusLine("Archive", statusInfo, status.ArchivePath, colorize))
	}
	if status.Workflow.LastError != "" {
		lines = append(lines, renderStatusLine("Last error", statusWarn, status.Workflow.LastError, colorize))
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Stages", colorize)...)
	for _, h := range status.Workflow.StageHealth {
		msg := "Ready"
		if !h.Ready {
			msg = h.Detail
			if msg == "" {
				msg = "Not ready"
			}
		} else if h.Detail != "" {
			msg = h.Detail
		}
		lines = append(lines, renderStatusLine(h.Name, checkKind(h.Ready), msg, colorize))
	}

	if len(status.Preflight) > 0 {
		lines = append(lines, "")
		lines = append(lines, renderSectionHeader("Preflight", colorize)...)
		lines = append(lines, preflightLines(status.Preflight, colorize)...)
	}
	return lines
}

func preflightLines(checks []api.PreflightCheck, colorize bool) []string {
	lines := make([]string, 0, len(checks)+1)
	var failed []string
	for _, c := range checks {
		lines = append(lines, renderStatusLine(c.Name, checkKind(c.Passed), c.Detail, colorize))
		if !c.Passed {
			failed = append(failed, c.Name)
		}
	}
	if len(failed) > 0 {
		lines = append(lines, paint(statusIndent+"Failing checks: "+strings.Join(failed, ", "), statusError, colorize))
	}
	return lines
}

func sessionRows(byStage map[string]int) [][]string {
	stages := make([]string, 0, len(byStage))
	for stage := range byStage {
		stages = append(stages, stage)
	}
	sort.Strings(stages)
	rows := make([][]string, 0, len(stages))
	for _, stage := range stages {
		rows = append(rows, []string{stage, strconv.Itoa(byStage[stage])})
	}
	return rows
}

