package stage

import (
	"sort"
	"time"
)

// Profile is the Detective's output: everything fetched about a GitHub user.
type Profile struct {
	Login          string          `json:"login"`
	Name           string          `json:"name,omitempty"`
	Bio            string          `json:"bio,omitempty"`
	Company        string          `json:"company,omitempty"`
	Location       string          `json:"location,omitempty"`
	Email          string          `json:"email,omitempty"`
	Website        string          `json:"website,omitempty"`
	Twitter        string          `json:"twitter,omitempty"`
	AvatarURL      string          `json:"avatar_url,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	Hireable       bool            `json:"hireable,omitempty"`
	Followers      int             `json:"followers"`
	Following      int             `json:"following"`
	PublicRepos    int             `json:"public_repos"`
	Contributions  Contributions   `json:"contributions"`
	Repositories   []Repository    `json:"repositories"`
	Pinned         []string        `json:"pinned,omitempty"`
	SocialAccounts []SocialAccount `json:"social_accounts,omitempty"`
	ExistingReadme string          `json:"existing_readme,omitempty"`
	SocialProof    SocialProof     `json:"social_proof"`
}

// Contributions summarizes the user's contribution calendar for the last year.
type Contributions struct {
	Total        int               `json:"total"`
	Commits      int               `json:"commits"`
	Issues       int               `json:"issues"`
	PullRequests int               `json:"pull_requests"`
	Reviews      int               `json:"reviews"`
	Days         []ContributionDay `json:"days,omitempty"`
}

// ContributionDay is one cell of the contribution calendar.
type ContributionDay struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Repository is an owned public repository, enriched with detected tech.
type Repository struct {
	Name            string     `json:"name"`
	Description     string     `json:"description,omitempty"`
	URL             string     `json:"url"`
	Stars           int        `json:"stars"`
	Forks           int        `json:"forks"`
	PrimaryLanguage string     `json:"primary_language,omitempty"`
	Languages       []Language `json:"languages,omitempty"`
	Topics          []string   `json:"topics,omitempty"`
	License         string     `json:"license,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	IsFork          bool       `json:"is_fork,omitempty"`
	IsArchived      bool       `json:"is_archived,omitempty"`
	IsPinned        bool       `json:"is_pinned,omitempty"`
	TechStack       []string   `json:"tech_stack,omitempty"`
	HasReadme       bool       `json:"has_readme,omitempty"`
	Investigated    bool       `json:"investigated,omitempty"`
}

// Language is a byte count for one language in one repository.
type Language struct {
	Name  string `json:"name"`
	Bytes int64  `json:"bytes"`
	Color string `json:"color,omitempty"`
}

// SocialAccount is a linked profile on another network.
type SocialAccount struct {
	Provider    string `json:"provider"`
	URL         string `json:"url"`
	DisplayName string `json:"display_name,omitempty"`
}

// SocialProof aggregates engagement across all fetched repositories.
type SocialProof struct {
	TotalStars      int     `json:"total_stars"`
	TotalForks      int     `json:"total_forks"`
	ActiveRepos     int     `json:"active_repos"`
	OriginalRepos   int     `json:"original_repos"`
	MostStarred     string  `json:"most_starred,omitempty"`
	MostStarredURL  string  `json:"most_starred_url,omitempty"`
	MostStarredHits int     `json:"most_starred_stars,omitempty"`
	AverageStars    float64 `json:"average_stars"`
}

// ProfileSummary is the payload of the detective stage-completed event.
type ProfileSummary struct {
	Login           string          `json:"username"`
	Name            string          `json:"name,omitempty"`
	AvatarURL       string          `json:"avatar_url,omitempty"`
	Bio             string          `json:"bio,omitempty"`
	Followers       int             `json:"followers"`
	Following       int             `json:"following"`
	PublicRepos     int             `json:"public_repos"`
	TotalStars      int             `json:"total_stars"`
	Contributions   int             `json:"contributions"`
	TopRepositories []RepoHighlight `json:"top_repositories"`
}

// RepoHighlight is a compact repository reference.
type RepoHighlight struct {
	Name     string `json:"name"`
	Stars    int    `json:"stars"`
	Language string `json:"language,omitempty"`
}

// Summary implements Result.
func (p *Profile) Summary() any {
	repos := make([]Repository, len(p.Repositories))
	copy(repos, p.Repositories)
	sort.SliceStable(repos, func(i, j int) bool { return repos[i].Stars > repos[j].Stars })
	if len(repos) > 5 {
		repos = repos[:5]
	}
	top := make([]RepoHighlight, 0, len(repos))
	for _, r := range repos {
		top = append(top, RepoHighlight{Name: r.Name, Stars: r.Stars, Language: r.PrimaryLanguage})
	}
	return ProfileSummary{
		Login:           p.Login,
		Name:            p.Name,
		AvatarURL:       p.AvatarURL,
		Bio:             p.Bio,
		Followers:       p.Followers,
		Following:       p.Following,
		PublicRepos:     p.PublicRepos,
		TotalStars:      p.SocialProof.TotalStars,
		Contributions:   p.Contributions.Total,
		TopRepositories: top,
	}
}

// DisplayName returns the user's name, falling back to the login.
func (p *Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Login
}
