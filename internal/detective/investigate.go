package detective

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"quill/internal/logging"
	"quill/internal/services/github"
	"quill/internal/stage"
)

type detailResult struct {
	index   int
	details github.RepoDetails
	err     error
}

// investigate fetches repository details in parallel and reports progress
// from the calling goroutine as results arrive. Detail failures leave the
// repository without a detected stack.
func (d *Detective) investigate(ctx context.Context, logger *slog.Logger, owner string, repos []stage.Repository, progress stage.ProgressFunc) []stage.Repository {
	if len(repos) == 0 {
		return repos
	}
	results := make(chan detailResult, len(repos))
	go func() {
		var g errgroup.Group
		g.SetLimit(detailWorkers)
		for i, repo := range repos {
			g.Go(func() error {
				details, err := d.github.FetchRepoDetails(ctx, owner, repo.Name)
				results <- detailResult{index: i, details: details, err: err}
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	done := 0
	for res := range results {
		done++
		repo := &repos[res.index]
		progress(fmt.Sprintf("Investigating %s (%d/%d)", repo.Name, done, len(repos)))
		if res.err != nil {
			if ctx.Err() == nil {
				logger.Debug("repository details unavailable",
					logging.String("repository", repo.Name),
					logging.Error(res.err),
				)
			}
			continue
		}
		repo.Investigated = true
		repo.HasReadme = res.details.Readme != ""
		repo.TechStack = DetectTechStack(res.details.Entries)
		if len(repo.TechStack) > 0 {
			progress(fmt.Sprintf("%s: %s", repo.Name, previewList(repo.TechStack, techPreviewCount)))
		}
	}
	return repos
}
