package cto

import (
	"context"
	"log/slog"
	"time"

	"quill/internal/logging"
	"quill/internal/services"
	"quill/internal/stage"
)

// Option configures the CTO executor.
type Option func(*CTO)

// WithClock overrides the time source used for account-age calculations.
func WithClock(now func() time.Time) Option {
	return func(c *CTO) {
		if now != nil {
			c.now = now
		}
	}
}

// CTO is the analysis stage executor.
type CTO struct {
	logger *slog.Logger
	now    func() time.Time
}

// New constructs the CTO executor.
func New(logger *slog.Logger, opts ...Option) *CTO {
	c := &CTO{
		logger: logging.NewComponentLogger(logger, stage.NameCTO),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements stage.Executor.
func (c *CTO) Name() string { return stage.NameCTO }

// HealthCheck implements stage.Executor. Analysis has no external
// dependencies and is always ready.
func (c *CTO) HealthCheck(context.Context) stage.Health {
	return stage.Healthy(stage.NameCTO)
}

// Run implements stage.Executor.
func (c *CTO) Run(ctx context.Context, in stage.Input, progress stage.ProgressFunc) (stage.Result, error) {
	if in.Profile == nil {
		return nil, services.Wrap(services.ErrStageFailure, stage.NameCTO, "validate input", "profile required", nil)
	}
	logger := logging.WithContext(ctx, c.logger)
	started := time.Now()

	a := newAnalyzer(in.Profile, c.now())
	for _, step := range a.steps() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		progress(step.message)
		step.run()
	}
	analysis := a.result()

	logger.Info("analysis complete",
		logging.String("archetype", analysis.Archetype.FullTitle),
		logging.Float64("grind_score", analysis.Grind.Score),
		logging.String("primary_language", analysis.PrimaryLanguageName()),
		logging.Int("key_projects", len(analysis.KeyProjects)),
		logging.Duration(logging.FieldStageDuration, time.Since(started)),
	)
	return analysis, nil
}

// Analyze runs every step without progress reporting.
func Analyze(profile *stage.Profile, now time.Time) *stage.Analysis {
	a := newAnalyzer(profile, now)
	for _, step := range a.steps() {
		step.run()
	}
	return a.result()
}

type step struct {
	message string
	run     func()
}

type analyzer struct {
	profile  *stage.Profile
	now      time.Time
	calendar calendarStats
	skills   extractedSkills
	out      stage.Analysis
}

func newAnalyzer(profile *stage.Profile, now time.Time) *analyzer {
	return &analyzer{profile: profile, now: now}
}

func (a *analyzer) steps() []step {
	repos := a.profile.Repositories
	return []step{
		{"Crunching language statistics by bytes", func() {
			a.out.Languages = analyzeLanguages(repos)
		}},
		{"Mapping skills to domains", func() {
			a.skills = extractSkills(repos)
			a.out.Domains = mapDomains(a.skills, repos)
		}},
		{"Calculating grind score", func() {
			a.calendar = analyzeCalendar(a.profile.Contributions)
			a.out.Grind = grindScore(a.calendar, a.profile.CreatedAt, a.now)
		}},
		{"Assessing tech diversity", func() {
			a.out.TechDiversity = assessDiversity(repos)
		}},
		{"Finding projects worth highlighting", func() {
			a.out.KeyProjects = keyProjects(repos)
		}},
		{"Determining developer archetype", func() {
			a.out.Archetype = determineArchetype(a.out.Languages, a.out.Domains, a.out.TechDiversity)
		}},
		{"Calculating impact", func() {
			a.out.Impact = impactMetrics(a.profile, a.calendar)
		}},
		{"Crafting profile headline", func() {
			a.out.Headline = headline(a.out.Languages, a.out.Domains, a.out.Impact)
			a.out.Overview = summary(a.out.Archetype, a.out.Grind, a.out.Languages, a.out.Impact)
		}},
	}
}

func (a *analyzer) result() *stage.Analysis {
	out := a.out
	return &out
}
