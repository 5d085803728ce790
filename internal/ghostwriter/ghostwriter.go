package ghostwriter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"quill/internal/logging"
	"quill/internal/services"
	"quill/internal/services/llm"
	"quill/internal/stage"
)

// GeneratorTemplate names documents rendered without an LLM.
const GeneratorTemplate = "template"

// Ghostwriter is the writing stage executor.
type Ghostwriter struct {
	llm    llm.Completer
	logger *slog.Logger
}

// New constructs the Ghostwriter. A nil completer selects the template
// renderer.
func New(completer llm.Completer, logger *slog.Logger) *Ghostwriter {
	return &Ghostwriter{
		llm:    completer,
		logger: logging.NewComponentLogger(logger, stage.NameGhostwriter),
	}
}

// Name implements stage.Executor.
func (g *Ghostwriter) Name() string { return stage.NameGhostwriter }

// HealthCheck implements stage.Executor. Provider credentials are verified
// by preflight, not on every health probe.
func (g *Ghostwriter) HealthCheck(context.Context) stage.Health {
	return stage.Healthy(stage.NameGhostwriter)
}

// Generator reports which backend writes documents.
func (g *Ghostwriter) Generator() string {
	if g.llm == nil {
		return GeneratorTemplate
	}
	return g.llm.Provider()
}

// Run implements stage.Executor.
func (g *Ghostwriter) Run(ctx context.Context, in stage.Input, progress stage.ProgressFunc) (stage.Result, error) {
	if in.Profile == nil || in.Analysis == nil {
		return nil, services.Wrap(services.ErrStageFailure, stage.NameGhostwriter, "validate input",
			"profile and analysis required", nil)
	}
	logger := logging.WithContext(ctx, g.logger)
	prefs := normalizePreferences(in.Preferences)
	started := time.Now()

	progress(fmt.Sprintf("Writing in a %s tone with the %s layout", prefs.Tone, prefs.Style))
	if prefs.Description != "" {
		progress("Including your special requirements")
	}

	var markdown string
	if g.llm == nil {
		progress("Rendering README from template")
		rendered, err := Render(in.Profile, in.Analysis, prefs)
		if err != nil {
			return nil, services.Wrap(services.ErrStageFailure, stage.NameGhostwriter, "render template", "template rendering failed", err)
		}
		markdown = rendered
	} else {
		progress(fmt.Sprintf("Drafting README with %s", g.llm.Provider()))
		system := SystemPrompt(in.Profile, in.Analysis, prefs)
		user := UserPrompt(in.Profile, in.Analysis)
		raw, err := g.llm.Complete(ctx, system, user)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			logging.WarnWithContext(logger, "readme generation failed", "llm_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, services.Details(err).Hint),
				logging.String(logging.FieldImpact, "session ends without a document"),
			)
			return nil, services.Wrap(services.ErrStageFailure, stage.NameGhostwriter, "generate",
				"readme generation failed: "+services.Details(err).Message, err)
		}
		logger.Debug("llm response received", logging.String("snippet", llm.Snippet(raw)))
		progress("Polishing markdown")
		markdown = PostProcess(raw, in.Profile.Login, in.Analysis.PrimaryLanguageName())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := &stage.Document{
		Markdown:  markdown,
		Tone:      prefs.Tone,
		Style:     prefs.Style,
		Generator: g.Generator(),
	}
	progress(writingComment(prefs.Tone))
	logger.Info("readme written",
		logging.String("tone", doc.Tone),
		logging.String("style", doc.Style),
		logging.String("generator", doc.Generator),
		logging.Int("length", len(doc.Markdown)),
		logging.Duration(logging.FieldStageDuration, time.Since(started)),
	)
	return doc, nil
}

func normalizePreferences(p stage.Preferences) stage.Preferences {
	tone, ok := stage.NormalizeTone(p.Tone)
	if !ok {
		tone = stage.ToneProfessional
	}
	style, ok := stage.NormalizeStyle(p.Style)
	if !ok {
		style = stage.StyleProfessional
	}
	return stage.Preferences{Tone: tone, Style: style, Description: strings.TrimSpace(p.Description)}
}

func writingComment(tone string) string {
	switch tone {
	case stage.ToneGenZ:
		return "Just wrote your digital flex. This README hits different fr"
	case stage.ToneMinimalist:
		return "Clean, concise, and to the point"
	case stage.ToneCreative:
		return "Crafted a unique profile that showcases your personality"
	default:
		return "Crafted a polished, professional profile that stands out"
	}
}
