package detective

import (
	"math"
	"sort"
	"strings"

	"quill/internal/services/github"
	"quill/internal/stage"
)

func newProfile(user *github.User) *stage.Profile {
	profile := &stage.Profile{
		Login:       user.Login,
		Name:        strings.TrimSpace(user.Name),
		Bio:         strings.TrimSpace(user.Bio),
		Company:     strings.TrimSpace(user.Company),
		Location:    strings.TrimSpace(user.Location),
		Email:       strings.TrimSpace(user.Email),
		Website:     strings.TrimSpace(user.WebsiteURL),
		Twitter:     strings.TrimSpace(user.TwitterUsername),
		AvatarURL:   user.AvatarURL,
		CreatedAt:   user.CreatedAt,
		Hireable:    user.IsHireable,
		Followers:   user.Followers.TotalCount,
		Following:   user.Following.TotalCount,
		PublicRepos: user.Repositories.TotalCount,
		Pinned:      user.PinnedNames(),
		Contributions: stage.Contributions{
			Total:        user.Contributions.Calendar.TotalContributions,
			Commits:      user.Contributions.TotalCommits,
			Issues:       user.Contributions.TotalIssues,
			PullRequests: user.Contributions.TotalPullRequests,
			Reviews:      user.Contributions.TotalReviews,
		},
	}
	for _, day := range user.Contributions.Days() {
		profile.Contributions.Days = append(profile.Contributions.Days, stage.ContributionDay{Date: day.Date, Count: day.Count})
	}
	for _, edge := range user.SocialAccounts.Edges {
		profile.SocialAccounts = append(profile.SocialAccounts, stage.SocialAccount{
			Provider:    edge.Node.Provider,
			URL:         edge.Node.URL,
			DisplayName: edge.Node.DisplayName,
		})
	}
	return profile
}

// selectRepositories picks pinned repositories first (at most six), then
// fills the remaining slots by stars and recency. Forks and archived
// repositories are skipped.
func selectRepositories(nodes []github.Repository, pinned []string, limit int) []stage.Repository {
	if limit <= 0 {
		limit = defaultMaxRepos
	}
	pinnedSet := make(map[string]struct{}, len(pinned))
	for _, name := range pinned {
		pinnedSet[name] = struct{}{}
	}

	candidates := make([]github.Repository, 0, len(nodes))
	for _, node := range nodes {
		if node.IsFork || node.IsArchived {
			continue
		}
		candidates = append(candidates, node)
	}

	seen := make(map[string]struct{}, limit)
	picked := make([]stage.Repository, 0, limit)
	add := func(node github.Repository) {
		seen[node.Name] = struct{}{}
		_, isPinned := pinnedSet[node.Name]
		picked = append(picked, convertRepository(node, isPinned))
	}

	for _, node := range candidates {
		if len(picked) >= maxPinned || len(picked) >= limit {
			break
		}
		if _, ok := pinnedSet[node.Name]; ok {
			add(node)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].StargazerCount != candidates[j].StargazerCount {
			return candidates[i].StargazerCount > candidates[j].StargazerCount
		}
		return candidates[i].UpdatedAt.After(candidates[j].UpdatedAt)
	})
	for _, node := range candidates {
		if len(picked) >= limit {
			break
		}
		if _, ok := seen[node.Name]; ok {
			continue
		}
		add(node)
	}
	return picked
}

func convertRepository(node github.Repository, pinned bool) stage.Repository {
	repo := stage.Repository{
		Name:        node.Name,
		Description: strings.TrimSpace(node.Description),
		URL:         node.URL,
		Stars:       node.StargazerCount,
		Forks:       node.ForkCount,
		CreatedAt:   node.CreatedAt,
		UpdatedAt:   node.UpdatedAt,
		IsFork:      node.IsFork,
		IsArchived:  node.IsArchived,
		IsPinned:    pinned,
	}
	if node.PrimaryLanguage != nil {
		repo.PrimaryLanguage = node.PrimaryLanguage.Name
	}
	if node.LicenseInfo != nil {
		repo.License = node.LicenseInfo.Name
	}
	for _, edge := range node.Languages.Edges {
		repo.Languages = append(repo.Languages, stage.Language{Name: edge.Node.Name, Bytes: edge.Size, Color: edge.Node.Color})
	}
	for _, topic := range node.Topics.Nodes {
		if name := strings.TrimSpace(topic.Topic.Name); name != "" {
			repo.Topics = append(repo.Topics, name)
		}
	}
	return repo
}

func collectSocialProof(repos []stage.Repository) stage.SocialProof {
	var proof stage.SocialProof
	var top *stage.Repository
	for i := range repos {
		repo := &repos[i]
		proof.TotalStars += repo.Stars
		proof.TotalForks += repo.Forks
		if !repo.IsArchived {
			proof.ActiveRepos++
		}
		if !repo.IsFork {
			proof.OriginalRepos++
		}
		if top == nil || repo.Stars > top.Stars {
			top = repo
		}
	}
	if top != nil {
		proof.MostStarred = top.Name
		proof.MostStarredURL = top.URL
		proof.MostStarredHits = top.Stars
	}
	if len(repos) > 0 {
		proof.AverageStars = roundTo(float64(proof.TotalStars)/float64(len(repos)), 2)
	}
	return proof
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow10(places)
	return math.Round(v*scale) / scale
}
