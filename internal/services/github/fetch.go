package github

import (
	"context"
	"strings"

	"quill/internal/services"
)

// FetchUser loads the profile, contribution calendar, owned repositories,
// pinned items, and social accounts of login in one query.
func (c *Client) FetchUser(ctx context.Context, login string) (*User, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, services.Wrap(services.ErrValidation, serviceName, "fetch user", "login required", nil)
	}
	var data struct {
		User *User `json:"user"`
	}
	if err := c.query(ctx, "fetch user", userQuery, map[string]any{"login": login}, &data); err != nil {
		return nil, err
	}
	if data.User == nil {
		return nil, services.Wrap(services.ErrNotFound, serviceName, "fetch user", "github user @"+login+" not found", nil)
	}
	return data.User, nil
}

// FetchRepoDetails returns the root tree entries and README text of
// owner/name. README.md wins over readme.md.
func (c *Client) FetchRepoDetails(ctx context.Context, owner, name string) (RepoDetails, error) {
	var data struct {
		Repository *struct {
			Object *struct {
				Entries []TreeEntry `json:"entries"`
			} `json:"object"`
			Readme      *blob `json:"readme"`
			ReadmeLower *blob `json:"readmeLower"`
		} `json:"repository"`
	}
	vars := map[string]any{"owner": owner, "name": name}
	if err := c.query(ctx, "fetch repo details", repoDetailsQuery, vars, &data); err != nil {
		return RepoDetails{}, err
	}
	if data.Repository == nil {
		return RepoDetails{}, services.Wrap(services.ErrNotFound, serviceName, "fetch repo details", owner+"/"+name+" not found", nil)
	}
	var details RepoDetails
	if data.Repository.Object != nil {
		details.Entries = data.Repository.Object.Entries
	}
	details.Readme = firstText(data.Repository.Readme, data.Repository.ReadmeLower)
	return details, nil
}

// FetchProfileReadme returns the README of the login/login profile
// repository, or an empty string when there is none.
func (c *Client) FetchProfileReadme(ctx context.Context, login string) (string, error) {
	var data struct {
		Repository *struct {
			Object *blob `json:"object"`
		} `json:"repository"`
	}
	vars := map[string]any{"owner": login, "name": login}
	if err := c.query(ctx, "fetch profile readme", profileReadmeQuery, vars, &data); err != nil {
		if services.KindOf(err) == services.KindNotFound {
			return "", nil
		}
		return "", err
	}
	if data.Repository == nil {
		return "", nil
	}
	return firstText(data.Repository.Object), nil
}

// Viewer resolves the token owner. It doubles as a credential probe.
func (c *Client) Viewer(ctx context.Context) (Viewer, error) {
	var data struct {
		Viewer struct {
			Login string `json:"login"`
		} `json:"viewer"`
		RateLimit struct {
			Remaining int    `json:"remaining"`
			Limit     int    `json:"limit"`
			ResetAt   string `json:"resetAt"`
		} `json:"rateLimit"`
	}
	if err := c.query(ctx, "viewer", viewerQuery, nil, &data); err != nil {
		return Viewer{}, err
	}
	v := Viewer{Login: data.Viewer.Login, Remaining: data.RateLimit.Remaining, Limit: data.RateLimit.Limit}
	v.ResetAt, _ = parseTimestamp(data.RateLimit.ResetAt)
	return v, nil
}

type blob struct {
	Text string `json:"text"`
}

func firstText(blobs ...*blob) string {
	for _, b := range blobs {
		if b != nil && strings.TrimSpace(b.Text) != "" {
			return b.Text
		}
	}
	return ""
}
