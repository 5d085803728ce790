package ghostwriter

import (
	"fmt"
	"strings"

	"quill/internal/stage"
)

const (
	maxPromptSkills   = 20
	maxPromptProjects = 5
)

var toneInstructions = map[string]string{
	stage.ToneProfessional: `TONE: Professional and polished
- Clear, concise, business-appropriate language
- Highlight achievements and technical expertise
- Use industry-standard terminology
- Maintain credibility and authority`,
	stage.ToneGenZ: `TONE: GenZ vibes - casual, relatable, internet-native
- Use modern slang (lowkey, ngl, fr, no cap) but keep it readable
- Conversational and authentic
- Self-aware humor and light sarcasm
- Emojis used naturally (not forced)
- Short, punchy sentences`,
	stage.ToneMinimalist: `TONE: Minimalist and clean
- Ultra-concise, no fluff
- Focus on data and facts
- Minimal emojis (only when highly relevant)
- Clean structure with plenty of whitespace
- Let the work speak for itself`,
	stage.ToneCreative: `TONE: Creative and unique
- Storytelling elements
- Unique metaphors and descriptions
- Personality shines through
- Balance creativity with professionalism`,
}

var styleInstructions = map[string]string{
	stage.StyleProfessional: `STYLE: Professional - Polished and corporate-ready
SECTIONS TO INCLUDE:
- About Me: Brief professional summary highlighting expertise
- Core Skills: Organized in categories (Languages, Frameworks, Tools)
- Professional Experience: Featured projects with business impact
- GitHub Stats: Clean statistical overview
- Contact: Professional contact links

WHAT TO SHOW:
✓ Technical skills and certifications
✓ Project outcomes and metrics
✓ Professional achievements
✓ Clean, organized layout
✓ Industry-standard formatting

WHAT TO AVOID:
✗ Casual language or emojis
✗ Personal hobbies unrelated to tech
✗ Excessive decorations
✗ Informal badges`,
	stage.StyleCreative: `STYLE: Creative - Bold and expressive with personality
SECTIONS TO INCLUDE:
- Unique intro with personality (use emojis!)
- Skills showcase with visual elements
- Project stories (not just lists)
- Fun facts or personal touches
- Creative contact section

WHAT TO SHOW:
✓ Personal brand and unique voice
✓ Visual badges and custom graphics
✓ Storytelling in project descriptions
✓ Hobbies and interests
✓ Unique section names (avoid boring "About Me")

WHAT TO AVOID:
✗ Generic corporate language
✗ Boring bullet points
✗ Standard templates
✗ Minimal formatting`,
	stage.StyleMinimal: `STYLE: Minimal - Clean and concise, less is more
SECTIONS TO INCLUDE:
- One-line intro
- Top 5-7 core skills only
- 2-3 best projects
- Simple contact links
- Optional: One minimal stat visualization

WHAT TO SHOW:
✓ Essential information only
✓ Plenty of whitespace
✓ Brief, impactful descriptions
✓ Focus on quality over quantity

WHAT TO AVOID:
✗ Long paragraphs
✗ Multiple badges
✗ Extensive project lists
✗ Decorative elements
✗ Excessive stats`,
	stage.StyleDetailed: `STYLE: Detailed - Comprehensive coverage with in-depth information
SECTIONS TO INCLUDE:
- Extended professional summary
- Complete skill breakdown (categorized)
- All significant projects with detailed descriptions
- Technical stack for each project
- Multiple GitHub stat visualizations
- Contribution graphs
- Blog posts or articles (if any)
- Education and certifications

WHAT TO SHOW:
✓ Everything! Be thorough
✓ Technical details and architecture
✓ Multiple code examples or demos
✓ Metrics and achievements
✓ Learning journey
✓ All badges and visualizations

WHAT TO AVOID:
✗ Brevity - go deep!
✗ Skipping details
✗ Minimal formatting`,
}

// SystemPrompt assembles the writing rules for the model from tone, style,
// and any free-form user requirements.
func SystemPrompt(p *stage.Profile, a *stage.Analysis, prefs stage.Preferences) string {
	tone := instruction(toneInstructions, prefs.Tone, stage.ToneProfessional)
	style := instruction(styleInstructions, prefs.Style, stage.StyleProfessional)
	primary := a.PrimaryLanguageName()
	if primary == "" {
		primary = "none detected"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert README writer creating a GitHub profile README for %s.\n\n", p.Login)
	b.WriteString(tone)
	b.WriteString("\n\n")
	b.WriteString(style)
	b.WriteString("\n\nCRITICAL RULES:\n")
	fmt.Fprintf(&b, "1. Use REAL data provided - NO placeholders or made-up content\n")
	fmt.Fprintf(&b, "2. Include shields.io badges for top languages/frameworks\n")
	fmt.Fprintf(&b, "3. Add github-readme-stats with username: %s\n", p.Login)
	fmt.Fprintf(&b, "4. Highlight top %d projects with descriptions\n", len(a.KeyProjects))
	fmt.Fprintf(&b, "5. Show personality through %s tone\n", prefs.Tone)
	fmt.Fprintf(&b, "6. Use emojis strategically (not overdone)\n")
	fmt.Fprintf(&b, "7. Include social proof (stars: %d, followers: %d)\n", p.SocialProof.TotalStars, p.Followers)
	fmt.Fprintf(&b, "8. Make it visually appealing with proper markdown formatting\n")
	b.WriteString("\nSTRUCTURE:\n")
	fmt.Fprintf(&b, "- Header with name and tagline (based on archetype: %s)\n", a.Archetype.FullTitle)
	fmt.Fprintf(&b, "- About section (bio + grind score: %s)\n", a.Grind.Label)
	fmt.Fprintf(&b, "- Tech Stack section (primary: %s, diversity: %s)\n", primary, a.TechDiversity.Classification)
	fmt.Fprintf(&b, "- Featured Projects (top %d repos)\n", len(a.KeyProjects))
	b.WriteString("- GitHub Stats (badges + readme-stats)\n")
	b.WriteString("- Connect section (if public data available)\n")

	if prefs.Description != "" {
		b.WriteString("\nUSER SPECIAL REQUIREMENTS:\n")
		b.WriteString("The user has specifically requested the following be included or emphasized:\n")
		fmt.Fprintf(&b, "%q\n\n", prefs.Description)
		fmt.Fprintf(&b, "IMPORTANT: Incorporate these requirements naturally into the README while following the %s style.\n", prefs.Style)
		b.WriteString("If requirements conflict with the style, prioritize the user's requests.\n")
	}
	return b.String()
}

// UserPrompt summarizes the collected data the model must draw from.
func UserPrompt(p *stage.Profile, a *stage.Analysis) string {
	var b strings.Builder
	b.WriteString("USER DATA:\n")
	fmt.Fprintf(&b, "- Username: %s\n", p.Login)
	fmt.Fprintf(&b, "- Name: %s\n", p.DisplayName())
	fmt.Fprintf(&b, "- Bio: %s\n", orDefault(p.Bio, "No bio available"))
	fmt.Fprintf(&b, "- Location: %s\n", orDefault(p.Location, "Unknown"))
	fmt.Fprintf(&b, "- Company: %s\n", orDefault(p.Company, "N/A"))
	if p.Website != "" {
		fmt.Fprintf(&b, "- Website: %s\n", p.Website)
	}
	if p.Twitter != "" {
		fmt.Fprintf(&b, "- Twitter: @%s\n", p.Twitter)
	}
	for _, account := range p.SocialAccounts {
		fmt.Fprintf(&b, "- %s: %s\n", account.Provider, account.URL)
	}
	fmt.Fprintf(&b, "- Followers: %d\n", p.Followers)
	fmt.Fprintf(&b, "- Following: %d\n", p.Following)
	fmt.Fprintf(&b, "- Public Repos: %d\n", p.PublicRepos)
	if !p.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "- Created: %s\n", p.CreatedAt.Format("2006-01-02"))
	}

	b.WriteString("\nDEVELOPER ARCHETYPE:\n")
	fmt.Fprintf(&b, "- Title: %s\n", a.Archetype.FullTitle)
	fmt.Fprintf(&b, "- Primary: %s\n", a.Archetype.Primary)
	fmt.Fprintf(&b, "- Secondary: %s\n", a.Archetype.Secondary)
	fmt.Fprintf(&b, "- Confidence: %s\n", a.Archetype.Confidence)
	fmt.Fprintf(&b, "- Headline: %s\n", a.Headline)

	b.WriteString("\nGRIND SCORE:\n")
	fmt.Fprintf(&b, "- Score: %.2f\n", a.Grind.Score)
	fmt.Fprintf(&b, "- Label: %s\n", a.Grind.Label)
	fmt.Fprintf(&b, "- Emoji: %s\n", a.Grind.Emoji)
	fmt.Fprintf(&b, "- Current Streak: %d days\n", a.Grind.CurrentStreak)

	proof := p.SocialProof
	b.WriteString("\nSOCIAL PROOF:\n")
	fmt.Fprintf(&b, "- Total Stars: %d\n", proof.TotalStars)
	fmt.Fprintf(&b, "- Total Forks: %d\n", proof.TotalForks)
	fmt.Fprintf(&b, "- Average Stars: %.2f\n", proof.AverageStars)
	if proof.MostStarred != "" {
		fmt.Fprintf(&b, "- Most Starred: %s (%d ⭐)\n", proof.MostStarred, proof.MostStarredHits)
	}

	b.WriteString("\nTECH STACK:\n")
	if primary := a.Languages.Primary; primary != nil {
		fmt.Fprintf(&b, "- Primary Language: %s (%.2f%%)\n", primary.Name, primary.Percentage)
	}
	fmt.Fprintf(&b, "- Total Languages: %d\n", a.Languages.TotalLanguages)
	fmt.Fprintf(&b, "- Tech Diversity: %s\n", a.TechDiversity.Classification)
	skills := a.Domains.Skills
	if len(skills) > maxPromptSkills {
		skills = skills[:maxPromptSkills]
	}
	fmt.Fprintf(&b, "- All Skills: %s\n", strings.Join(skills, ", "))
	if len(a.Domains.Primary) > 0 {
		names := make([]string, 0, len(a.Domains.Primary))
		for _, d := range a.Domains.Primary {
			names = append(names, d.Name)
		}
		fmt.Fprintf(&b, "- Domains: %s\n", strings.Join(names, ", "))
	}

	b.WriteString("\nTOP PROJECTS:\n")
	for i, project := range a.KeyProjects {
		if i >= maxPromptProjects {
			break
		}
		fmt.Fprintf(&b, "\n%d. %s (%d ⭐, %d 🍴)\n", i+1, project.Name, project.Stars, project.Forks)
		fmt.Fprintf(&b, "   - Description: %s\n", orDefault(project.Description, "No description"))
		tech := project.TechStack
		if len(tech) == 0 && project.PrimaryLanguage != "" {
			tech = []string{project.PrimaryLanguage}
		}
		fmt.Fprintf(&b, "   - Tech: %s\n", orDefault(strings.Join(tech, ", "), "Unknown"))
		fmt.Fprintf(&b, "   - URL: %s\n", projectURL(p.Login, project))
	}

	if p.ExistingReadme != "" {
		b.WriteString("\nEXISTING PROFILE README (keep anything personal worth preserving):\n")
		b.WriteString(truncate(p.ExistingReadme, 2000))
		b.WriteString("\n")
	}
	b.WriteString("\nGenerate a complete, beautiful GitHub README.md in markdown format.")
	return b.String()
}

func instruction(table map[string]string, key, fallback string) string {
	if text, ok := table[key]; ok {
		return text
	}
	return table[fallback]
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func projectURL(login string, project stage.KeyProject) string {
	if project.URL != "" {
		return project.URL
	}
	return fmt.Sprintf("https://github.com/%s/%s", login, project.Name)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
