package stage_test

import (
	"errors"
	"testing"

	"quill/internal/services"
	"quill/internal/stage"
)

func TestCheckResult(t *testing.T) {
	if err := stage.CheckResult(stage.NameDetective, &stage.Profile{Login: "octocat"}); err != nil {
		t.Fatalf("expected profile accepted: %v", err)
	}
	if err := stage.CheckResult(stage.NameCTO, &stage.Analysis{}); err != nil {
		t.Fatalf("expected analysis accepted: %v", err)
	}
	if err := stage.CheckResult(stage.NameGhostwriter, &stage.Document{Markdown: "# hi"}); err != nil {
		t.Fatalf("expected document accepted: %v", err)
	}

	err := stage.CheckResult(stage.NameCTO, &stage.Profile{})
	if !errors.Is(err, services.ErrStageFailure) {
		t.Fatalf("expected stage failure for mismatched type, got %v", err)
	}
	var nilDoc *stage.Document
	if err := stage.CheckResult(stage.NameGhostwriter, nilDoc); !errors.Is(err, services.ErrStageFailure) {
		t.Fatalf("expected stage failure for nil document, got %v", err)
	}
	if err := stage.CheckResult(stage.NameDetective, nil); !errors.Is(err, services.ErrStageFailure) {
		t.Fatalf("expected stage failure for nil result, got %v", err)
	}
}

func TestNormalizePreferences(t *testing.T) {
	if tone, ok := stage.NormalizeTone(""); !ok || tone != stage.ToneProfessional {
		t.Fatalf("expected default professional tone, got %q %v", tone, ok)
	}
	if tone, ok := stage.NormalizeTone(" GenZ "); !ok || tone != stage.ToneGenZ {
		t.Fatalf("expected genz, got %q %v", tone, ok)
	}
	if _, ok := stage.NormalizeTone("pirate"); ok {
		t.Fatal("expected unknown tone rejected")
	}
	if style, ok := stage.NormalizeStyle("Detailed"); !ok || style != stage.StyleDetailed {
		t.Fatalf("expected detailed, got %q %v", style, ok)
	}
	if _, ok := stage.NormalizeStyle(""); ok {
		t.Fatal("expected empty style rejected")
	}
}

func TestProfileSummaryKeepsTopFiveByStars(t *testing.T) {
	p := &stage.Profile{Login: "octocat"}
	for i, stars := range []int{3, 50, 7, 1, 90, 20, 5} {
		p.Repositories = append(p.Repositories, stage.Repository{Name: string(rune('a' + i)), Stars: stars})
	}
	summary, ok := p.Summary().(stage.ProfileSummary)
	if !ok {
		t.Fatalf("unexpected summary type %T", p.Summary())
	}
	if len(summary.TopRepositories) != 5 {
		t.Fatalf("expected 5 top repos, got %d", len(summary.TopRepositories))
	}
	if summary.TopRepositories[0].Stars != 90 || summary.TopRepositories[4].Stars != 5 {
		t.Fatalf("unexpected ordering %+v", summary.TopRepositories)
	}
	if p.Repositories[0].Stars != 3 {
		t.Fatal("summary must not reorder the profile's repositories")
	}
}

func TestDocumentSummaryCounts(t *testing.T) {
	d := &stage.Document{Markdown: "# Title\n\nhello world"}
	summary := d.Summary().(stage.DocumentSummary)
	if summary.Words != 4 || summary.Lines != 3 || summary.Length != len(d.Markdown) {
		t.Fatalf("unexpected summary %+v", summary)
	}
}
