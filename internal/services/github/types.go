package github

import "time"

// User mirrors the GraphQL user payload requested by FetchUser.
type User struct {
	Name            string    `json:"name"`
	Login           string    `json:"login"`
	Bio             string    `json:"bio"`
	Company         string    `json:"company"`
	Location        string    `json:"location"`
	Email           string    `json:"email"`
	WebsiteURL      string    `json:"websiteUrl"`
	TwitterUsername string    `json:"twitterUsername"`
	AvatarURL       string    `json:"avatarUrl"`
	CreatedAt       time.Time `json:"createdAt"`
	IsHireable      bool      `json:"isHireable"`
	Followers       struct {
		TotalCount int `json:"totalCount"`
	} `json:"followers"`
	Following struct {
		TotalCount int `json:"totalCount"`
	} `json:"following"`
	Contributions ContributionsCollection `json:"contributionsCollection"`
	Repositories  struct {
		TotalCount int          `json:"totalCount"`
		Nodes      []Repository `json:"nodes"`
	} `json:"repositories"`
	PinnedItems struct {
		Nodes []struct {
			Name string `json:"name"`
		} `json:"nodes"`
	} `json:"pinnedItems"`
	SocialAccounts struct {
		Edges []struct {
			Node SocialAccount `json:"node"`
		} `json:"edges"`
	} `json:"socialAccounts"`
}

// PinnedNames returns the names of pinned repositories in display order.
func (u *User) PinnedNames() []string {
	out := make([]string, 0, len(u.PinnedItems.Nodes))
	for _, node := range u.PinnedItems.Nodes {
		if node.Name != "" {
			out = append(out, node.Name)
		}
	}
	return out
}

// ContributionsCollection is the last year of contribution activity.
type ContributionsCollection struct {
	Calendar struct {
		TotalContributions int `json:"totalContributions"`
		Weeks              []struct {
			Days []ContributionDay `json:"contributionDays"`
		} `json:"weeks"`
	} `json:"contributionCalendar"`
	TotalCommits      int `json:"totalCommitContributions"`
	TotalIssues       int `json:"totalIssueContributions"`
	TotalPullRequests int `json:"totalPullRequestContributions"`
	TotalReviews      int `json:"totalPullRequestReviewContributions"`
}

// Days flattens the calendar weeks in chronological order.
func (c ContributionsCollection) Days() []ContributionDay {
	var out []ContributionDay
	for _, week := range c.Calendar.Weeks {
		out = append(out, week.Days...)
	}
	return out
}

// ContributionDay is one calendar cell.
type ContributionDay struct {
	Count int    `json:"contributionCount"`
	Date  string `json:"date"`
}

// Repository is an owned repository node.
type Repository struct {
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	URL             string    `json:"url"`
	StargazerCount  int       `json:"stargazerCount"`
	ForkCount       int       `json:"forkCount"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	IsFork          bool      `json:"isFork"`
	IsArchived      bool      `json:"isArchived"`
	PrimaryLanguage *struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	} `json:"primaryLanguage"`
	Languages struct {
		Edges []struct {
			Size int64 `json:"size"`
			Node struct {
				Name  string `json:"name"`
				Color string `json:"color"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"languages"`
	Topics struct {
		Nodes []struct {
			Topic struct {
				Name string `json:"name"`
			} `json:"topic"`
		} `json:"nodes"`
	} `json:"repositoryTopics"`
	LicenseInfo *struct {
		Name string `json:"name"`
	} `json:"licenseInfo"`
}

// SocialAccount is a linked account on another network.
type SocialAccount struct {
	Provider    string `json:"provider"`
	URL         string `json:"url"`
	DisplayName string `json:"displayName"`
}

// TreeEntry is one root-level file or directory of a repository.
type TreeEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Path string `json:"path"`
}

// RepoDetails is the root tree and README text of a repository.
type RepoDetails struct {
	Entries []TreeEntry
	Readme  string
}

// Viewer identifies the token owner and its remaining quota.
type Viewer struct {
	Login     string
	Remaining int
	Limit     int
	ResetAt   time.Time
}

func parseTimestamp(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, value)
}
