package cto

import (
	"sort"

	"quill/internal/stage"
)

const mostUsedCount = 10

type techCategory struct {
	name   string
	weight int
	techs  map[string]struct{}
}

var techCategories = []techCategory{
	{"languages", 10, set("Python", "JavaScript", "TypeScript", "Java", "Go", "Rust", "C++")},
	{"frameworks", 8, set("React", "Vue.js", "Angular", "Django", "Flask", "Express.js", "Next.js")},
	{"databases", 6, set("MongoDB", "PostgreSQL", "MySQL", "Redis", "Prisma")},
	{"devops", 5, set("Docker", "Kubernetes", "Terraform", "GitHub Actions")},
	{"testing", 4, set("Jest", "Pytest", "Cypress", "Playwright")},
}

// assessDiversity scores the breadth of detected technologies across
// weighted categories.
func assessDiversity(repos []stage.Repository) stage.TechDiversity {
	frequency := make(map[string]int)
	for _, repo := range repos {
		for _, tech := range repo.TechStack {
			frequency[tech]++
		}
	}

	out := stage.TechDiversity{
		TotalTechnologies: len(frequency),
		Categories:        make(map[string]int, len(techCategories)),
	}
	for _, cat := range techCategories {
		count := 0
		for tech := range frequency {
			if has(cat.techs, tech) {
				count++
			}
		}
		out.Categories[cat.name] = count
		out.Score += count * cat.weight
	}

	switch {
	case out.Score < 30:
		out.Classification = "Specialist"
		out.Description = "Focused expertise in specific technologies"
	case out.Score < 60:
		out.Classification = "Versatile Developer"
		out.Description = "Comfortable across multiple domains"
	default:
		out.Classification = "Full Stack Generalist"
		out.Description = "Broad expertise across the entire stack"
	}

	techs := make([]string, 0, len(frequency))
	for tech := range frequency {
		techs = append(techs, tech)
	}
	sort.Slice(techs, func(i, j int) bool {
		if frequency[techs[i]] != frequency[techs[j]] {
			return frequency[techs[i]] > frequency[techs[j]]
		}
		return techs[i] < techs[j]
	})
	out.MostUsed = techs[:min(len(techs), mostUsedCount)]
	return out
}
