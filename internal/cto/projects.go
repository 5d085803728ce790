package cto

import (
	"sort"

	"quill/internal/stage"
)

const keyProjectCount = 3

// keyProjects ranks original repositories by a complexity score that
// rewards engagement, detected tech, and documentation.
func keyProjects(repos []stage.Repository) []stage.KeyProject {
	scored := make([]stage.KeyProject, 0, len(repos))
	for _, repo := range repos {
		if repo.IsFork || repo.IsArchived {
			continue
		}
		score := repo.Stars*2 + repo.Forks*3 + len(repo.TechStack)*5
		if repo.HasReadme {
			score += 10
		}
		scored = append(scored, stage.KeyProject{
			Name:            repo.Name,
			Description:     repo.Description,
			URL:             repo.URL,
			Stars:           repo.Stars,
			Forks:           repo.Forks,
			PrimaryLanguage: repo.PrimaryLanguage,
			TechStack:       repo.TechStack,
			ComplexityScore: score,
			IsPinned:        repo.IsPinned,
		})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].ComplexityScore > scored[j].ComplexityScore })
	return scored[:min(len(scored), keyProjectCount)]
}
