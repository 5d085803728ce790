package testsupport

import (
	"context"

	"quill/internal/stage"
	"quill/internal/workflow"
)

// FuncExecutor adapts a function into a stage.Executor that always reports
// healthy.
type FuncExecutor struct {
	StageName string
	RunFunc   func(ctx context.Context, in stage.Input, progress stage.ProgressFunc) (stage.Result, error)
}

func (f FuncExecutor) Name() string { return f.StageName }

func (f FuncExecutor) Run(ctx context.Context, in stage.Input, progress stage.ProgressFunc) (stage.Result, error) {
	return f.RunFunc(ctx, in, progress)
}

func (f FuncExecutor) HealthCheck(context.Context) stage.Health { return stage.Healthy(f.StageName) }

// StubStages returns instant executors: the detective reports one progress
// message, the cto labels the user a Go Developer, and the ghostwriter
// writes "# Hi, I'm <login>".
func StubStages() workflow.StageSet {
	return workflow.StageSet{
		Detective: FuncExecutor{StageName: stage.NameDetective, RunFunc: func(_ context.Context, in stage.Input, progress stage.ProgressFunc) (stage.Result, error) {
			progress("Investigating hello-world")
			return &stage.Profile{
				Login:        in.Subject,
				Followers:    12,
				Repositories: []stage.Repository{{Name: "hello-world", Stars: 3}},
			}, nil
		}},
		CTO: FuncExecutor{StageName: stage.NameCTO, RunFunc: func(context.Context, stage.Input, stage.ProgressFunc) (stage.Result, error) {
			return &stage.Analysis{
				Archetype:   stage.Archetype{Primary: "Go Developer", FullTitle: "Go Developer"},
				Headline:    "Go Developer | Building impactful solutions",
				KeyProjects: []stage.KeyProject{{Name: "hello-world", Stars: 3}},
			}, nil
		}},
		Ghostwriter: FuncExecutor{StageName: stage.NameGhostwriter, RunFunc: func(_ context.Context, in stage.Input, _ stage.ProgressFunc) (stage.Result, error) {
			return &stage.Document{
				Markdown: "# Hi, I'm " + in.Profile.Login,
				Tone:     in.Preferences.Tone,
				Style:    in.Preferences.Style,
			}, nil
		}},
	}
}
