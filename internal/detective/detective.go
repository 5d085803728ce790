package detective

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"quill/internal/cache"
	"quill/internal/config"
	"quill/internal/logging"
	"quill/internal/services"
	"quill/internal/services/github"
	"quill/internal/stage"
)

const (
	defaultMaxRepos  = 15
	maxPinned        = 6
	detailWorkers    = 4
	techPreviewCount = 3
)

// GitHub is the subset of the GraphQL client the Detective uses.
type GitHub interface {
	FetchUser(ctx context.Context, login string) (*github.User, error)
	FetchRepoDetails(ctx context.Context, owner, name string) (github.RepoDetails, error)
	FetchProfileReadme(ctx context.Context, login string) (string, error)
}

// Detective collects the raw profile of a GitHub user.
type Detective struct {
	github   GitHub
	cache    cache.ProfileCache
	logger   *slog.Logger
	maxRepos int
	hasToken bool
}

// New constructs the Detective from configuration.
func New(cfg *config.Config, client GitHub, profiles cache.ProfileCache, logger *slog.Logger) *Detective {
	if profiles == nil {
		profiles = cache.Noop{}
	}
	d := &Detective{
		github:   client,
		cache:    profiles,
		logger:   logging.NewComponentLogger(logger, stage.NameDetective),
		maxRepos: defaultMaxRepos,
	}
	if cfg != nil {
		if cfg.GitHub.MaxRepos > 0 {
			d.maxRepos = cfg.GitHub.MaxRepos
		}
		d.hasToken = strings.TrimSpace(cfg.GitHub.Token) != ""
	}
	return d
}

// Name implements stage.Executor.
func (d *Detective) Name() string { return stage.NameDetective }

// HealthCheck reports whether GitHub credentials are configured.
func (d *Detective) HealthCheck(context.Context) stage.Health {
	if d.github == nil {
		return stage.Unhealthy(stage.NameDetective, "github client not configured")
	}
	if !d.hasToken {
		return stage.Unhealthy(stage.NameDetective, "github token not configured")
	}
	return stage.Healthy(stage.NameDetective)
}

// Run implements stage.Executor.
func (d *Detective) Run(ctx context.Context, in stage.Input, progress stage.ProgressFunc) (stage.Result, error) {
	logger := logging.WithContext(ctx, d.logger)
	login := strings.TrimSpace(in.Subject)
	if login == "" {
		return nil, services.Wrap(services.ErrValidation, stage.NameDetective, "validate input", "subject required", nil)
	}
	if d.github == nil {
		return nil, services.Wrap(services.ErrConfiguration, stage.NameDetective, "validate input", "github client not configured", nil)
	}

	progress(fmt.Sprintf("Looking up @%s", login))
	if cached, hit, err := d.cache.Get(ctx, login); err != nil {
		logging.WarnWithContext(logger, "profile cache read failed", "cache_read_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "profile will be fetched from github"),
		)
	} else if hit {
		logger.Info("profile cache hit", logging.Int("repositories", len(cached.Repositories)))
		progress(fmt.Sprintf("Using cached profile for @%s", login))
		return cached, nil
	}

	user, err := d.github.FetchUser(ctx, login)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, services.Wrap(services.ErrStageFailure, stage.NameDetective, "fetch user",
			services.Details(err).Message, err)
	}
	profile := newProfile(user)
	progress(fmt.Sprintf("Found %s with %d followers", profile.DisplayName(), profile.Followers))

	picked := selectRepositories(user.Repositories.Nodes, user.PinnedNames(), d.maxRepos)
	progress(fmt.Sprintf("Selected %d repositories to investigate", len(picked)))
	if pinned := user.PinnedNames(); len(pinned) > 0 {
		progress(fmt.Sprintf("Pinned: %s", previewList(pinned, techPreviewCount)))
	}

	readmeCh := make(chan string, 1)
	go func() {
		text, err := d.github.FetchProfileReadme(ctx, user.Login)
		if err != nil && ctx.Err() == nil {
			logging.WarnWithContext(logger, "profile readme fetch failed", "profile_readme_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "existing readme will not inform generation"),
			)
		}
		readmeCh <- text
	}()

	profile.Repositories = d.investigate(ctx, logger, user.Login, picked, progress)
	profile.ExistingReadme = <-readmeCh
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	profile.SocialProof = collectSocialProof(profile.Repositories)
	progress(fmt.Sprintf("Total stars across investigated repositories: %d", profile.SocialProof.TotalStars))

	if err := d.cache.Put(ctx, login, profile); err != nil {
		logging.WarnWithContext(logger, "profile cache write failed", "cache_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "next session for this login refetches from github"),
		)
	}
	logger.Info("profile collected",
		logging.Int("repositories", len(profile.Repositories)),
		logging.Int("total_stars", profile.SocialProof.TotalStars),
		logging.Bool("existing_readme", profile.ExistingReadme != ""),
	)
	return profile, nil
}

func previewList(items []string, limit int) string {
	if len(items) <= limit {
		return strings.Join(items, ", ")
	}
	return fmt.Sprintf("%s +%d more", strings.Join(items[:limit], ", "), len(items)-limit)
}
