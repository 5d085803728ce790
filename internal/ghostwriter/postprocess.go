package ghostwriter

import (
	"fmt"
	"net/url"
	"strings"

	"quill/internal/services/llm"
)

// PostProcess strips a surrounding code fence and guarantees the README
// carries a github-readme-stats block and, when a primary language is known,
// a shields.io badge.
func PostProcess(markdown, login, primaryLanguage string) string {
	markdown = llm.StripCodeFence(markdown)

	if !strings.Contains(markdown, "github-readme-stats") {
		markdown += "\n\n" + statsSection(login)
	}

	if !strings.Contains(markdown, "shields.io") && primaryLanguage != "" {
		lines := strings.Split(markdown, "\n")
		if len(lines) > 2 {
			badge := "\n" + languageBadge(primaryLanguage) + "\n"
			lines = append(lines[:2], append([]string{badge}, lines[2:]...)...)
			markdown = strings.Join(lines, "\n")
		}
	}
	return strings.TrimSpace(markdown)
}

func statsSection(login string) string {
	user := url.QueryEscape(login)
	return fmt.Sprintf("## 📊 GitHub Stats\n\n"+
		"![%s's GitHub Stats](https://github-readme-stats.vercel.app/api?username=%s&show_icons=true&theme=radical)\n\n"+
		"![Top Languages](https://github-readme-stats.vercel.app/api/top-langs/?username=%s&layout=compact&theme=radical)\n",
		login, user, user)
}

// languageBadge renders a flat shields.io badge. Dashes are doubled because
// shields uses them as field separators.
func languageBadge(name string) string {
	label := url.PathEscape(strings.ReplaceAll(name, "-", "--"))
	logo := url.QueryEscape(strings.ToLower(strings.ReplaceAll(name, " ", "")))
	return fmt.Sprintf("![%s](https://img.shields.io/badge/-%s-blue?style=flat-square&logo=%s)", name, label, logo)
}
