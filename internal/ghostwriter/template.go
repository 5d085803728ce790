package ghostwriter

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"quill/internal/stage"
)

//go:embed readme.md.tmpl
var readmeTemplate string

var readmeTmpl = template.Must(template.New("readme").Funcs(template.FuncMap{
	"badge": languageBadge,
	"join":  strings.Join,
	"inc":   func(i int) int { return i + 1 },
}).Parse(readmeTemplate))

type readmeView struct {
	Login       string
	Name        string
	Headline    string
	Intro       string
	Bio         string
	Location    string
	Company     string
	Archetype   stage.Archetype
	Grind       stage.GrindScore
	Languages   []stage.LanguageShare
	Domains     []string
	Tools       []string
	Diversity   stage.TechDiversity
	Projects    []projectView
	TotalStars  int
	Followers   int
	Links       []linkView
	Description string
	Style       string
	Heading     headings
	Comment     string
}

type projectView struct {
	Name        string
	URL         string
	Description string
	Stars       int
	Forks       int
	Tech        string
}

type linkView struct {
	Label string
	URL   string
}

type headings struct {
	About    string
	Stack    string
	Projects string
	Connect  string
}

// Render writes a README without an LLM. The output always includes the
// stats block and language badges, so it passes PostProcess unchanged.
func Render(p *stage.Profile, a *stage.Analysis, prefs stage.Preferences) (string, error) {
	view := buildView(p, a, prefs)
	var buf bytes.Buffer
	if err := readmeTmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("execute readme template: %w", err)
	}
	out := strings.TrimSpace(collapseBlankLines(buf.String()))
	return PostProcess(out, p.Login, a.PrimaryLanguageName()), nil
}

func buildView(p *stage.Profile, a *stage.Analysis, prefs stage.Preferences) readmeView {
	title := cases.Title(language.English)
	view := readmeView{
		Login:       p.Login,
		Name:        p.DisplayName(),
		Headline:    a.Headline,
		Bio:         p.Bio,
		Location:    p.Location,
		Company:     p.Company,
		Archetype:   a.Archetype,
		Grind:       a.Grind,
		Languages:   a.Languages.Top,
		Diversity:   a.TechDiversity,
		TotalStars:  p.SocialProof.TotalStars,
		Followers:   p.Followers,
		Description: prefs.Description,
		Style:       prefs.Style,
		Heading:     headingsFor(prefs.Style),
		Comment:     a.Domains.Comment,
	}
	view.Intro = introFor(prefs.Tone, view.Name, a)
	for _, d := range a.Domains.Primary {
		view.Domains = append(view.Domains, d.Name)
	}
	for _, tool := range append(append([]string{}, a.Domains.Frameworks...), a.Domains.Tools...) {
		view.Tools = append(view.Tools, title.String(tool))
	}

	projects := a.KeyProjects
	if prefs.Style == stage.StyleMinimal && len(projects) > 2 {
		projects = projects[:2]
	}
	for _, kp := range projects {
		tech := kp.TechStack
		if len(tech) == 0 && kp.PrimaryLanguage != "" {
			tech = []string{kp.PrimaryLanguage}
		}
		view.Projects = append(view.Projects, projectView{
			Name:        kp.Name,
			URL:         projectURL(p.Login, kp),
			Description: orDefault(kp.Description, "No description yet."),
			Stars:       kp.Stars,
			Forks:       kp.Forks,
			Tech:        strings.Join(tech, ", "),
		})
	}

	if p.Website != "" {
		view.Links = append(view.Links, linkView{"Website", p.Website})
	}
	if p.Twitter != "" {
		view.Links = append(view.Links, linkView{"Twitter", "https://twitter.com/" + p.Twitter})
	}
	for _, account := range p.SocialAccounts {
		view.Links = append(view.Links, linkView{title.String(strings.ToLower(account.Provider)), account.URL})
	}
	view.Links = append(view.Links, linkView{"GitHub", "https://github.com/" + p.Login})
	return view
}

func introFor(tone, name string, a *stage.Analysis) string {
	lang := a.PrimaryLanguageName()
	if lang == "" {
		lang = "code"
	}
	switch tone {
	case stage.ToneGenZ:
		return fmt.Sprintf("hey, i'm %s 👋 ngl i mostly ship %s and it's kinda my whole personality. %s %s grind, no cap.",
			name, lang, a.Grind.Emoji, strings.ToLower(a.Grind.Label))
	case stage.ToneMinimalist:
		return fmt.Sprintf("%s. %s.", name, a.Archetype.Primary)
	case stage.ToneCreative:
		return fmt.Sprintf("Once upon a commit, %s picked up %s and never looked back. Today: %s.",
			name, lang, a.Archetype.FullTitle)
	default:
		return fmt.Sprintf("I'm %s, a %s. %s", name, a.Archetype.FullTitle, a.Overview)
	}
}

func headingsFor(style string) headings {
	switch style {
	case stage.StyleCreative:
		return headings{About: "🧬 Origin Story", Stack: "🛠️ Toolbox", Projects: "🚀 Things I Built", Connect: "📡 Find Me"}
	case stage.StyleMinimal:
		return headings{About: "About", Stack: "Stack", Projects: "Work", Connect: "Links"}
	default:
		return headings{About: "About Me", Stack: "Tech Stack", Projects: "Featured Projects", Connect: "Connect"}
	}
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	blank := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			blank++
			if blank > 1 {
				continue
			}
			out = append(out, "")
			continue
		}
		blank = 0
		out = append(out, strings.TrimRight(line, " \t"))
	}
	return strings.Join(out, "\n")
}
