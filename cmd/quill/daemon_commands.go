package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"quill/internal/daemonctl"
	"quill/internal/ipc"
)

const (
	daemonBinary     = "quilld"
	startWaitTimeout = 10 * time.Second
	stopGracePeriod  = 5 * time.Second
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	var logLevel string
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Launch quilld in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				result, err := daemonctl.EnsureStarted(cmd.Context(), client, exe, daemonLaunchOptions(ctx, logLevel), startWaitTimeout)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				switch result.State {
				case daemonctl.StartStateStarted:
					fmt.Fprintf(stdout, "Daemon started (pid %d)\n", result.PID)
				case daemonctl.StartStateAlreadyRunning:
					fmt.Fprintf(stdout, "Daemon already running (pid %d)\n", result.PID)
				}
				return nil
			})
		},
	}
	startCmd.Flags().StringVar(&logLevel, "log-level", "", "Override the daemon's logging.level")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop quilld, abandoning any live sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				cfg, _ := ctx.ensureConfig()
				result, err := daemonctl.StopAndTerminate(cmd.Context(), client, cfg, stopGracePeriod)
				stdout := cmd.OutOrStdout()
				if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
					fmt.Fprintln(stdout, "Daemon is not running")
					return nil
				}
				if err != nil {
					return err
				}
				if result.ForcedKill {
					fmt.Fprintf(stdout, "Daemon killed (pid %d)\n", result.PID)
					return nil
				}
				fmt.Fprintf(stdout, "Daemon stopped (pid %d)\n", result.PID)
				return nil
			})
		},
	}

	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Stop and relaunch quilld",
		RunE: func(cmd *cobra.Command, args []string) error {
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				cfg, _ := ctx.ensureConfig()
				result, err := daemonctl.Restart(cmd.Context(), client, cfg, exe, daemonLaunchOptions(ctx, logLevel), stopGracePeriod, startWaitTimeout)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if result.WasRunning {
					fmt.Fprintf(stdout, "Daemon stopped (pid %d)\n", result.Stop.PID)
				}
				fmt.Fprintf(stdout, "Daemon started (pid %d)\n", result.Start.PID)
				return nil
			})
		},
	}
	restartCmd.Flags().StringVar(&logLevel, "log-level", "", "Override the daemon's logging.level")

	return []*cobra.Command{startCmd, stopCmd, restartCmd}
}

// daemonExecutable prefers a quilld installed next to the quill binary.
func daemonExecutable() (string, error) {
	if exe, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(exe), daemonBinary)
		if info, statErr := os.Stat(sibling); statErr == nil && !info.IsDir() {
			return sibling, nil
		}
	}
	path, err := exec.LookPath(daemonBinary)
	if err != nil {
		return "", fmt.Errorf("locate %s: %w", daemonBinary, err)
	}
	return path, nil
}

func daemonLaunchOptions(ctx *commandContext, logLevel string) daemonctl.LaunchOptions {
	return daemonctl.LaunchOptions{
		ConfigPath: ctx.configPath(),
		LogLevel:   logLevel,
	}
}
