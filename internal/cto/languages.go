package cto

import (
	"math"
	"sort"

	"quill/internal/stage"
)

const (
	topLanguageCount    = 5
	specialistThreshold = 40.0
)

// analyzeLanguages weights languages by bytes across original, active
// repositories.
func analyzeLanguages(repos []stage.Repository) stage.LanguageDominance {
	bytes := make(map[string]int64)
	colors := make(map[string]string)
	var total int64
	for _, repo := range repos {
		if repo.IsFork || repo.IsArchived {
			continue
		}
		for _, lang := range repo.Languages {
			if lang.Name == "" || lang.Bytes <= 0 {
				continue
			}
			bytes[lang.Name] += lang.Bytes
			total += lang.Bytes
			if lang.Color != "" {
				colors[lang.Name] = lang.Color
			}
		}
	}

	shares := make([]stage.LanguageShare, 0, len(bytes))
	for name, size := range bytes {
		shares = append(shares, stage.LanguageShare{
			Name:       name,
			Bytes:      size,
			Color:      colors[name],
			Percentage: round2(float64(size) / float64(total) * 100),
		})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Bytes != shares[j].Bytes {
			return shares[i].Bytes > shares[j].Bytes
		}
		return shares[i].Name < shares[j].Name
	})

	out := stage.LanguageDominance{
		TotalLanguages: len(shares),
		DiversityScore: min(len(shares)*10, 100),
	}
	if len(shares) == 0 {
		out.Top = []stage.LanguageShare{}
		return out
	}
	primary := shares[0]
	out.Primary = &primary
	out.IsSpecialist = primary.Percentage > specialistThreshold
	out.Top = shares[:min(len(shares), topLanguageCount)]
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
