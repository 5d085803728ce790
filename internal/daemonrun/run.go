package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"quill/internal/archive"
	"quill/internal/cache"
	"quill/internal/config"
	"quill/internal/cto"
	"quill/internal/daemon"
	"quill/internal/daemonctl"
	"quill/internal/detective"
	"quill/internal/ghostwriter"
	"quill/internal/logging"
	"quill/internal/notifications"
	"quill/internal/preflight"
	"quill/internal/services/github"
	"quill/internal/services/llm"
	"quill/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Runtime holds the assembled daemon and the resources it owns.
type Runtime struct {
	Daemon   *daemon.Daemon
	Workflow *workflow.Manager
	Archive  *archive.Store

	profiles cache.ProfileCache
}

// Close releases the daemon and everything Assemble opened.
func (r *Runtime) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.Daemon != nil {
		errs = append(errs, r.Daemon.Close())
	}
	if r.profiles != nil {
		errs = append(errs, r.profiles.Close())
	}
	if r.Archive != nil {
		errs = append(errs, r.Archive.Close())
	}
	return errors.Join(errs...)
}

// Run starts quilld and blocks until SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	logger, err := logging.New(logging.DaemonOptions(cfg, opts.LogLevel, opts.Development))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.DaemonLogTargets(cfg.Paths.LogDir)...)
	logDependencySnapshot(logger, cfg)

	pidPath := filepath.Join(cfg.Paths.DataDir, daemonctl.PIDFileName)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	rt, err := Assemble(cfg, logger)
	if err != nil {
		logger.Error("assemble daemon", logging.Error(err))
		return err
	}
	defer rt.Close()

	if err := rt.Daemon.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	logger.Info("quilld listening",
		logging.String(logging.FieldEventType, "daemon_listening"),
		logging.String("address", rt.Daemon.Address()),
		logging.Int("pid", os.Getpid()),
	)

	<-signalCtx.Done()
	logger.Info("quilld shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

// Assemble wires the pipeline stages, the optional archive and cache, and
// the HTTP daemon from cfg. The returned runtime is not started.
func Assemble(cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	rt := &Runtime{profiles: cache.New(cfg)}

	managerOpts := []workflow.ManagerOption{
		workflow.WithNotifier(notifications.NewService(cfg)),
	}
	var daemonOpts []daemon.Option
	if cfg.Archive.Enabled {
		store, err := archive.Open(cfg)
		if err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("open archive: %w", err)
		}
		rt.Archive = store
		managerOpts = append(managerOpts, workflow.WithRecorder(store))
		daemonOpts = append(daemonOpts, daemon.WithHistory(store))
	}

	gh := github.NewClient(github.Config{
		Token:             cfg.GitHub.Token,
		GraphQLURL:        cfg.GitHub.GraphQLURL,
		RequestsPerSecond: cfg.GitHub.RequestsPerSecond,
		Burst:             cfg.GitHub.Burst,
		TimeoutSeconds:    cfg.GitHub.TimeoutSeconds,
	})
	completer := llm.New(cfg.LLM)

	managerOpts = append(managerOpts, workflow.WithPreflight(preflight.Probes{
		GitHub: gh,
		LLM:    completer,
		Cache:  rt.profiles,
	}))
	mgr := workflow.NewManager(cfg, logger, managerOpts...)
	mgr.ConfigureStages(workflow.StageSet{
		Detective:   detective.New(cfg, gh, rt.profiles, logger),
		CTO:         cto.New(logger),
		Ghostwriter: ghostwriter.New(completer, logger),
	})
	rt.Workflow = mgr

	d, err := daemon.New(cfg, logger, mgr, daemonOpts...)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("create daemon: %w", err)
	}
	rt.Daemon = d
	return rt, nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	provider := "template"
	if len(cfg.LLM.APIKeys) > 0 {
		provider = cfg.LLM.Provider
	}
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("github_token_present", strings.TrimSpace(cfg.GitHub.Token) != ""),
		logging.String("github_graphql_url", cfg.GitHub.GraphQLURL),
		logging.String("readme_generator", provider),
		logging.Int("llm_key_count", len(cfg.LLM.APIKeys)),
		logging.Bool("redis_enabled", strings.TrimSpace(cfg.Cache.RedisAddr) != ""),
		logging.Bool("archive_enabled", cfg.Archive.Enabled),
		logging.Bool("ntfy_enabled", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
		logging.String("api_bind", cfg.API.Bind),
		logging.Bool("api_token_set", cfg.API.Token != ""),
	)
}
