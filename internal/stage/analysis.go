package stage

// Analysis is the CTO's deterministic assessment of a Profile.
type Analysis struct {
	Languages     LanguageDominance `json:"language_dominance"`
	Domains       SkillDomains      `json:"skill_domains"`
	Grind         GrindScore        `json:"grind_score"`
	TechDiversity TechDiversity     `json:"tech_diversity"`
	KeyProjects   []KeyProject      `json:"key_projects"`
	Archetype     Archetype         `json:"developer_archetype"`
	Impact        ImpactMetrics     `json:"impact_metrics"`
	Headline      string            `json:"profile_headline"`
	Overview      string            `json:"summary"`
}

// LanguageShare is one language's byte share across original repositories.
type LanguageShare struct {
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
	Bytes      int64   `json:"bytes"`
	Color      string  `json:"color,omitempty"`
}

type LanguageDominance struct {
	Top            []LanguageShare `json:"top_5_languages"`
	Primary        *LanguageShare  `json:"primary_language,omitempty"`
	IsSpecialist   bool            `json:"is_specialist"`
	TotalLanguages int             `json:"total_languages"`
	DiversityScore int             `json:"language_diversity_score"`
}

type Domain struct {
	Name         string   `json:"name"`
	Score        int      `json:"score"`
	Technologies []string `json:"technologies"`
}

type SkillDomains struct {
	Primary     []Domain `json:"primary_domains"`
	Count       int      `json:"domain_count"`
	IsFullStack bool     `json:"is_full_stack"`
	Comment     string   `json:"personality_comment"`
	Skills      []string `json:"all_skills"`
	Frameworks  []string `json:"frameworks"`
	Tools       []string `json:"tools"`
}

type GrindScore struct {
	Score            float64 `json:"score"`
	Label            string  `json:"label"`
	Emoji            string  `json:"emoji"`
	Base             float64 `json:"base_score"`
	StreakMultiplier float64 `json:"streak_multiplier"`
	ConsistencyBonus int     `json:"consistency_bonus"`
	CurrentStreak    int     `json:"current_streak"`
	LongestStreak    int     `json:"longest_streak"`
	ActivityRate     float64 `json:"activity_rate"`
	DaysSinceCreated int     `json:"days_since_creation"`
}

type TechDiversity struct {
	TotalTechnologies int            `json:"total_technologies"`
	Score             int            `json:"diversity_score"`
	Classification    string         `json:"classification"`
	Description       string         `json:"description"`
	Categories        map[string]int `json:"category_breakdown"`
	MostUsed          []string       `json:"most_used_technologies"`
}

type KeyProject struct {
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	URL             string   `json:"url"`
	Stars           int      `json:"stars"`
	Forks           int      `json:"forks"`
	PrimaryLanguage string   `json:"primary_language,omitempty"`
	TechStack       []string `json:"tech_stack,omitempty"`
	ComplexityScore int      `json:"complexity_score"`
	IsPinned        bool     `json:"is_pinned,omitempty"`
}

type Archetype struct {
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	FullTitle  string `json:"full_title"`
	Confidence string `json:"confidence"`
}

type ImpactMetrics struct {
	TotalStars            int     `json:"total_stars"`
	TotalForks            int     `json:"total_forks"`
	TotalFollowers        int     `json:"total_followers"`
	EngagementRate        float64 `json:"engagement_rate"`
	ContributionIntensity float64 `json:"contribution_intensity"`
	ImpactScore           float64 `json:"impact_score"`
}

// AnalysisSummary is the payload of the cto stage-completed event.
type AnalysisSummary struct {
	Archetype       string          `json:"archetype"`
	GrindScore      float64         `json:"grind_score"`
	GrindLabel      string          `json:"grind_label"`
	PrimaryLanguage string          `json:"primary_language,omitempty"`
	TopLanguages    []LanguageShare `json:"top_languages"`
	KeyProjects     []string        `json:"key_projects"`
	ImpactScore     float64         `json:"impact_score"`
	Domains         []string        `json:"domains"`
	Headline        string          `json:"headline"`
}

// Summary implements Result.
func (a *Analysis) Summary() any {
	out := AnalysisSummary{
		Archetype:    a.Archetype.FullTitle,
		GrindScore:   a.Grind.Score,
		GrindLabel:   a.Grind.Label,
		TopLanguages: a.Languages.Top,
		ImpactScore:  a.Impact.ImpactScore,
		Headline:     a.Headline,
		KeyProjects:  make([]string, 0, len(a.KeyProjects)),
		Domains:      make([]string, 0, len(a.Domains.Primary)),
	}
	if a.Languages.Primary != nil {
		out.PrimaryLanguage = a.Languages.Primary.Name
	}
	for _, p := range a.KeyProjects {
		out.KeyProjects = append(out.KeyProjects, p.Name)
	}
	for _, d := range a.Domains.Primary {
		out.Domains = append(out.Domains, d.Name)
	}
	return out
}

// PrimaryLanguageName returns the dominant language or an empty string.
func (a *Analysis) PrimaryLanguageName() string {
	if a == nil || a.Languages.Primary == nil {
		return ""
	}
	return a.Languages.Primary.Name
}
