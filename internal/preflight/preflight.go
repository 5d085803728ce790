package preflight

import (
	"context"

	"quill/internal/cache"
	"quill/internal/config"
	"quill/internal/services/llm"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Probes carries the live clients the checks exercise. A nil LLM means the
// template renderer is in use; a nil Cache means caching is disabled.
type Probes struct {
	GitHub ViewerSource
	LLM    llm.Completer
	Cache  cache.ProfileCache
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, p Probes) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}

	if p.GitHub != nil {
		results = append(results, CheckGitHub(ctx, p.GitHub))
	} else {
		results = append(results, Result{Name: githubCheckName, Detail: "client not configured"})
	}

	results = append(results, CheckLLM(ctx, p.LLM))

	if cfg.Cache.RedisAddr != "" && p.Cache != nil {
		results = append(results, CheckRedis(ctx, cfg.Cache.RedisAddr, p.Cache))
	} else {
		results = append(results, Result{Name: redisCheckName, Passed: true, Detail: "Disabled"})
	}

	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
