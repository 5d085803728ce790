package github_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"quill/internal/services"
	"quill/internal/services/github"
)

type graphQLHandler func(w http.ResponseWriter, query string, vars map[string]any)

func newServer(t *testing.T, handler graphQLHandler) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("unexpected authorization header %q", got)
		}
		var body struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		handler(w, body.Query, body.Variables)
	}))
	t.Cleanup(server.Close)
	return server
}

func newClient(server *httptest.Server, opts ...github.Option) *github.Client {
	opts = append([]github.Option{
		github.WithSleeper(func(time.Duration) {}),
		github.WithRetryBackoff(time.Millisecond, 10*time.Millisecond),
	}, opts...)
	return github.NewClient(github.Config{Token: "test-token", GraphQLURL: server.URL}, opts...)
}

const userFixture = `{"data":{"user":{
  "name":"The Octocat","login":"octocat","bio":"hi","createdAt":"2011-01-25T18:44:36Z",
  "followers":{"totalCount":100},"following":{"totalCount":9},
  "contributionsCollection":{"contributionCalendar":{"totalContributions":12,
    "weeks":[{"contributionDays":[{"contributionCount":0,"date":"2026-01-01"},{"contributionCount":3,"date":"2026-01-02"}]}]},
    "totalCommitContributions":10},
  "repositories":{"totalCount":1,"nodes":[{"name":"hello-world","url":"https://github.com/octocat/hello-world",
    "stargazerCount":42,"forkCount":7,"primaryLanguage":{"name":"Go","color":"#00ADD8"},
    "languages":{"edges":[{"size":1200,"node":{"name":"Go","color":"#00ADD8"}}]},
    "repositoryTopics":{"nodes":[{"topic":{"name":"cli"}}]},
    "createdAt":"2020-01-01T00:00:00Z","updatedAt":"2026-01-01T00:00:00Z","licenseInfo":{"name":"MIT"}}]},
  "pinnedItems":{"nodes":[{"name":"hello-world"}]},
  "socialAccounts":{"edges":[{"node":{"provider":"MASTODON","url":"https://hachyderm.io/@octocat"}}]}
}}}`

func TestFetchUserDecodesProfile(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, query string, vars map[string]any) {
		if !strings.Contains(query, "contributionsCollection") {
			t.Errorf("expected user query, got %q", query)
		}
		if vars["login"] != "octocat" {
			t.Errorf("unexpected variables %v", vars)
		}
		_, _ = w.Write([]byte(userFixture))
	})

	user, err := newClient(server).FetchUser(context.Background(), "octocat")
	if err != nil {
		t.Fatalf("FetchUser: %v", err)
	}
	if user.Name != "The Octocat" || user.Followers.TotalCount != 100 {
		t.Fatalf("unexpected user %+v", user)
	}
	if len(user.Repositories.Nodes) != 1 || user.Repositories.Nodes[0].PrimaryLanguage.Name != "Go" {
		t.Fatalf("unexpected repositories %+v", user.Repositories.Nodes)
	}
	if days := user.Contributions.Days(); len(days) != 2 || days[1].Count != 3 {
		t.Fatalf("unexpected calendar %+v", days)
	}
	if pinned := user.PinnedNames(); len(pinned) != 1 || pinned[0] != "hello-world" {
		t.Fatalf("unexpected pinned %v", pinned)
	}
}

func TestFetchUserMissingMapsToNotFound(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, _ string, _ map[string]any) {
		_, _ = w.Write([]byte(`{"data":{"user":null},"errors":[{"type":"NOT_FOUND","message":"Could not resolve to a User with the login of 'ghost-x'."}]}`))
	})
	_, err := newClient(server).FetchUser(context.Background(), "ghost-x")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFetchUserNullWithoutErrors(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, _ string, _ map[string]any) {
		_, _ = w.Write([]byte(`{"data":{"user":null}}`))
	})
	_, err := newClient(server).FetchUser(context.Background(), "ghost-x")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRetriesServerErrorsThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := newServer(t, func(w http.ResponseWriter, _ string, _ map[string]any) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(userFixture))
	})
	if _, err := newClient(server).FetchUser(context.Background(), "octocat"); err != nil {
		t.Fatalf("FetchUser: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
}

func TestSecondaryRateLimitHonoursRetryAfter(t *testing.T) {
	var calls atomic.Int32
	server := newServer(t, func(w http.ResponseWriter, _ string, _ map[string]any) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"You have exceeded a secondary rate limit"}`))
			return
		}
		_, _ = w.Write([]byte(userFixture))
	})
	var slept []time.Duration
	client := github.NewClient(
		github.Config{Token: "test-token", GraphQLURL: server.URL},
		github.WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		github.WithRetryBackoff(time.Millisecond, 10*time.Second),
	)
	if _, err := client.FetchUser(context.Background(), "octocat"); err != nil {
		t.Fatalf("FetchUser: %v", err)
	}
	if len(slept) != 1 || slept[0] != 2*time.Second {
		t.Fatalf("expected one 2s sleep, got %v", slept)
	}
}

func TestUnauthorizedIsConfigurationError(t *testing.T) {
	var calls atomic.Int32
	server := newServer(t, func(w http.ResponseWriter, _ string, _ map[string]any) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
	})
	_, err := newClient(server).Viewer(context.Background())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("401 must not be retried, got %d calls", calls.Load())
	}
	if services.Details(err).Hint == "" {
		t.Fatal("expected an operator hint")
	}
}

func TestFetchRepoDetailsPrefersUppercaseReadme(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, _ string, vars map[string]any) {
		if vars["owner"] != "octocat" || vars["name"] != "hello-world" {
			t.Errorf("unexpected variables %v", vars)
		}
		_, _ = w.Write([]byte(`{"data":{"repository":{
		  "object":{"entries":[{"name":"Dockerfile","type":"blob","path":"Dockerfile"},{"name":".github","type":"tree","path":".github"}]},
		  "readme":{"text":"# Upper"},"readmeLower":{"text":"# lower"}}}}`))
	})
	details, err := newClient(server).FetchRepoDetails(context.Background(), "octocat", "hello-world")
	if err != nil {
		t.Fatalf("FetchRepoDetails: %v", err)
	}
	if len(details.Entries) != 2 || details.Readme != "# Upper" {
		t.Fatalf("unexpected details %+v", details)
	}
}

func TestFetchProfileReadmeMissingIsEmpty(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, _ string, _ map[string]any) {
		_, _ = w.Write([]byte(`{"data":{"repository":null},"errors":[{"type":"NOT_FOUND","message":"no repo"}]}`))
	})
	text, err := newClient(server).FetchProfileReadme(context.Background(), "octocat")
	if err != nil || text != "" {
		t.Fatalf("expected empty readme without error, got %q, %v", text, err)
	}
}

func TestMissingTokenIsConfigurationError(t *testing.T) {
	client := github.NewClient(github.Config{GraphQLURL: "http://127.0.0.1:1"})
	if _, err := client.Viewer(context.Background()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestViewerReportsQuota(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, _ string, _ map[string]any) {
		_, _ = w.Write([]byte(`{"data":{"viewer":{"login":"quill-bot"},"rateLimit":{"remaining":4999,"limit":5000,"resetAt":"2026-04-01T10:00:00Z"}}}`))
	})
	viewer, err := newClient(server).Viewer(context.Background())
	if err != nil {
		t.Fatalf("Viewer: %v", err)
	}
	if viewer.Login != "quill-bot" || viewer.Remaining != 4999 || viewer.ResetAt.IsZero() {
		t.Fatalf("unexpected viewer %+v", viewer)
	}
}
