package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"quill/internal/cache"
	"quill/internal/services"
	"quill/internal/services/github"
	"quill/internal/services/llm"
)

const (
	githubCheckName = "GitHub API"
	llmCheckName    = "README LLM"
	redisCheckName  = "Profile cache"

	githubTimeout = 10 * time.Second
	llmTimeout    = 30 * time.Second
	redisTimeout  = 3 * time.Second

	// lowQuota flags a token that will run dry within a handful of sessions.
	lowQuota = 100
)

// ViewerSource resolves the token owner; *github.Client satisfies it.
type ViewerSource interface {
	Viewer(ctx context.Context) (github.Viewer, error)
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if path == "" {
		return Result{Name: name, Detail: "(error: not configured)"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckGitHub resolves the token owner and reports the remaining quota.
func CheckGitHub(ctx context.Context, source ViewerSource) Result {
	checkCtx, cancel := context.WithTimeout(ctx, githubTimeout)
	defer cancel()

	viewer, err := source.Viewer(checkCtx)
	if err != nil {
		return Result{Name: githubCheckName, Detail: summarizeError(err)}
	}
	detail := fmt.Sprintf("authenticated as %s (%d/%d requests left)", viewer.Login, viewer.Remaining, viewer.Limit)
	if viewer.Limit > 0 && viewer.Remaining < lowQuota {
		return Result{Name: githubCheckName, Detail: detail + ", quota nearly exhausted"}
	}
	return Result{Name: githubCheckName, Passed: true, Detail: detail}
}

// CheckLLM verifies that the LLM API is reachable and a key is valid.
// A nil completer means READMEs come from the built-in template.
func CheckLLM(ctx context.Context, completer llm.Completer) Result {
	if completer == nil {
		return Result{Name: llmCheckName, Passed: true, Detail: "template renderer (no API keys)"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, llmTimeout)
	defer cancel()

	if err := completer.HealthCheck(checkCtx); err != nil {
		return Result{Name: llmCheckName, Detail: fmt.Sprintf("%s: %s", completer.Provider(), summarizeError(err))}
	}
	return Result{Name: llmCheckName, Passed: true, Detail: completer.Provider() + " API reachable"}
}

// CheckRedis pings the profile cache.
func CheckRedis(ctx context.Context, addr string, profiles cache.ProfileCache) Result {
	checkCtx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	if err := profiles.Ping(checkCtx); err != nil {
		return Result{Name: redisCheckName, Detail: fmt.Sprintf("%s (error: %s)", addr, summarizeError(err))}
	}
	return Result{Name: redisCheckName, Passed: true, Detail: addr + " (PONG)"}
}

// summarizeError produces a human-readable summary for probe failures.
func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out (service unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timed out (service unreachable)"
	}
	details := services.Details(err)
	if details.Hint != "" {
		return fmt.Sprintf("%s (%s)", details.Message, details.Hint)
	}
	if details.Message != "" {
		return details.Message
	}
	return err.Error()
}
