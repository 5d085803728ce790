package cto

import (
	"fmt"

	"quill/internal/stage"
)

func determineArchetype(langs stage.LanguageDominance, domains stage.SkillDomains, diversity stage.TechDiversity) stage.Archetype {
	var primary string
	switch {
	case langs.IsSpecialist && len(domains.Primary) > 0:
		primary = fmt.Sprintf("%s %s Specialist", langs.Primary.Name, domains.Primary[0].Name)
	case len(domains.Primary) >= 2:
		primary = "Full Stack Developer"
	case langs.Primary != nil:
		primary = langs.Primary.Name + " Developer"
	default:
		primary = "Software Engineer"
	}

	secondary := "Focused Engineer"
	switch {
	case diversity.Score > 60:
		secondary = "Polyglot"
	case diversity.TotalTechnologies > 20:
		secondary = "Tech Explorer"
	}

	confidence := "medium"
	if langs.IsSpecialist {
		confidence = "high"
	}
	return stage.Archetype{
		Primary:    primary,
		Secondary:  secondary,
		FullTitle:  primary + " | " + secondary,
		Confidence: confidence,
	}
}

func impactMetrics(profile *stage.Profile, stats calendarStats) stage.ImpactMetrics {
	proof := profile.SocialProof
	withStars := 0
	for _, repo := range profile.Repositories {
		if repo.Stars > 0 {
			withStars++
		}
	}
	out := stage.ImpactMetrics{
		TotalStars:            proof.TotalStars,
		TotalForks:            proof.TotalForks,
		TotalFollowers:        profile.Followers,
		ContributionIntensity: stats.averageDaily,
		ImpactScore: round2((float64(proof.TotalStars)*0.5 +
			float64(proof.TotalForks)*1.5 +
			float64(profile.Followers)*2) / 10),
	}
	if n := len(profile.Repositories); n > 0 {
		out.EngagementRate = round2(float64(withStars) / float64(n) * 100)
	}
	return out
}

// headline is a one-line profile tagline.
func headline(langs stage.LanguageDominance, domains stage.SkillDomains, impact stage.ImpactMetrics) string {
	lang := "Full-Stack"
	if langs.Primary != nil {
		lang = langs.Primary.Name
	}
	domain := "Developer"
	if len(domains.Primary) > 0 {
		if rule, ok := lookupDomain(domains.Primary[0].Name); ok && rule.short != "" {
			domain = rule.short
		}
	}
	return fmt.Sprintf("%s %s | Building impactful solutions | %d+ ⭐ on GitHub", lang, domain, impact.TotalStars)
}

func summary(arch stage.Archetype, grind stage.GrindScore, langs stage.LanguageDominance, impact stage.ImpactMetrics) string {
	lang := "multiple languages"
	if langs.Primary != nil {
		lang = langs.Primary.Name
	}
	return fmt.Sprintf("%s with %s %s activity. Primary expertise in %s with %d total stars across projects.",
		arch.FullTitle, grind.Emoji, grind.Label, lang, impact.TotalStars)
}
