package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/plugindex/plugindex/pkg/errors"
)

const testDescriptor = `{
	"name": "Test Plugin",
	"author": "Tester",
	"description": "A test plugin",
	"type": ["core"],
	"api": ["python3"],
	"platforms": ["Linux"],
	"version": "1.0.0",
	"minimumbinaryninjaversion": 2000,
	"license": {"name": "MIT"}
}`

// newTestServer serves a minimal fixture repository at owner/repo.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/repo", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"name": "repo",
			"owner": {"login": "owner"},
			"description": "A repo",
			"default_branch": "main",
			"pushed_at": "2024-06-01T00:00:00Z",
			"updated_at": "2024-06-02T00:00:00Z",
			"license": {"spdx_id": "MIT"}
		}`)
	})
	mux.HandleFunc("/repos/owner/repo/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"tag_name": "v1.0.0",
			"published_at": "2024-05-01T12:00:00Z",
			"zipball_url": "https://example.com/zipball/v1.0.0"
		}`)
	})
	mux.HandleFunc("/repos/owner/repo/tags", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"name": "v1.0.0", "commit": {"sha": "abc123"}},
			{"name": "v0.9.0", "commit": {"sha": "def456"}}
		]`)
	})
	mux.HandleFunc("/repos/owner/repo/contents/plugin.json", func(w http.ResponseWriter, r *http.Request) {
		encoded := base64.StdEncoding.EncodeToString([]byte(testDescriptor))
		fmt.Fprintf(w, `{"path": "plugin.json", "encoding": "base64", "content": %q}`, encoded)
	})
	return httptest.NewServer(mux)
}

func newTestClient(url string) *Client {
	return NewClient(Config{
		Token:      "test-token",
		BaseURL:    url,
		RetryDelay: time.Millisecond,
	})
}

func TestFetchMetadata(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	c := newTestClient(srv.URL)
	raw, err := c.FetchMetadata(context.Background(), "owner", "repo", FetchOptions{})
	if err != nil {
		t.Fatalf("FetchMetadata error: %v", err)
	}

	if raw.Owner != "owner" || raw.Name != "repo" {
		t.Errorf("identity = %s/%s", raw.Owner, raw.Name)
	}
	if raw.License != "MIT" {
		t.Errorf("license = %q", raw.License)
	}
	if raw.Release == nil {
		t.Fatal("expected a release")
	}
	if raw.Release.Tag != "v1.0.0" {
		t.Errorf("release tag = %q", raw.Release.Tag)
	}
	if !raw.Release.PublishedAt.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("published at = %v", raw.Release.PublishedAt)
	}
	if raw.Commit != "abc123" {
		t.Errorf("commit = %q, want abc123 (resolved from tag list)", raw.Commit)
	}
	if raw.Descriptor == nil {
		t.Fatal("expected a descriptor")
	}
	if raw.Descriptor.Name != "Test Plugin" {
		t.Errorf("descriptor name = %q", raw.Descriptor.Name)
	}
}

func TestFetchMetadataViewOnly(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	c := newTestClient(srv.URL)
	raw, err := c.FetchMetadata(context.Background(), "owner", "repo", FetchOptions{ViewOnly: true})
	if err != nil {
		t.Fatalf("FetchMetadata error: %v", err)
	}
	if raw.Release != nil {
		t.Error("view-only entry should not resolve a release")
	}
	if raw.UpdatedAt.IsZero() {
		t.Error("view-only entry should carry repository activity timestamps")
	}
}

func TestFetchMetadataPinnedTag(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/repo", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name": "repo", "owner": {"login": "owner"}, "default_branch": "main"}`)
	})
	mux.HandleFunc("/repos/owner/repo/releases/tags/v0.9.0", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"tag_name": "v0.9.0", "published_at": "2023-01-01T00:00:00Z"}`)
	})
	mux.HandleFunc("/repos/owner/repo/tags", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"name": "v0.9.0", "commit": {"sha": "def456"}}]`)
	})
	mux.HandleFunc("/repos/owner/repo/contents/plugin.json", func(w http.ResponseWriter, r *http.Request) {
		encoded := base64.StdEncoding.EncodeToString([]byte(testDescriptor))
		fmt.Fprintf(w, `{"content": %q}`, encoded)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(srv.URL)
	raw, err := c.FetchMetadata(context.Background(), "owner", "repo", FetchOptions{Tag: "v0.9.0"})
	if err != nil {
		t.Fatalf("FetchMetadata error: %v", err)
	}
	if raw.Release.Tag != "v0.9.0" {
		t.Errorf("release tag = %q, want pinned v0.9.0", raw.Release.Tag)
	}
	if raw.Commit != "def456" {
		t.Errorf("commit = %q", raw.Commit)
	}
}

func TestFetchMetadataRepoNotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.FetchMetadata(context.Background(), "owner", "repo", FetchOptions{})
	if !errors.Is(err, errors.ErrCodeRepoNotFound) {
		t.Fatalf("error = %v, want %s", err, errors.ErrCodeRepoNotFound)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("404 was requested %d times, want 1 (not retried)", n)
	}
}

func TestFetchMetadataMissingDescriptor(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/repo", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name": "repo", "owner": {"login": "owner"}, "default_branch": "main"}`)
	})
	mux.HandleFunc("/repos/owner/repo/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"tag_name": "v1.0.0", "published_at": "2024-05-01T12:00:00Z"}`)
	})
	mux.HandleFunc("/repos/owner/repo/tags", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	mux.HandleFunc("/repos/owner/repo/contents/plugin.json", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.FetchMetadata(context.Background(), "owner", "repo", FetchOptions{})
	if !errors.Is(err, errors.ErrCodeNoDescriptor) {
		t.Fatalf("error = %v, want %s", err, errors.ErrCodeNoDescriptor)
	}
}

func TestRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "upstream hiccup", http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"name": "repo", "owner": {"login": "owner"}}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	repo, err := c.fetchRepo(context.Background(), "owner", "repo", false)
	if err != nil {
		t.Fatalf("fetchRepo error after retries: %v", err)
	}
	if repo.Name != "repo" {
		t.Errorf("repo name = %q", repo.Name)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("server saw %d requests, want 3", n)
	}
}

func TestSecondaryRateLimitRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			http.Error(w, "secondary rate limit", http.StatusForbidden)
			return
		}
		fmt.Fprint(w, `{"name": "repo", "owner": {"login": "owner"}}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if _, err := c.fetchRepo(context.Background(), "owner", "repo", false); err != nil {
		t.Fatalf("fetchRepo error: %v", err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("server saw %d requests, want 2 (one rate-limited, one retry)", n)
	}
}

func TestAuthAndAcceptHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/vnd.github.v3+json" {
			t.Errorf("Accept = %q", got)
		}
		fmt.Fprint(w, `{"name": "repo", "owner": {"login": "owner"}}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if _, err := c.fetchRepo(context.Background(), "owner", "repo", false); err != nil {
		t.Fatalf("fetchRepo error: %v", err)
	}
}

func TestBudgetObservedFromHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "41")
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(time.Hour).Unix()))
		fmt.Fprint(w, `{"name": "repo", "owner": {"login": "owner"}}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if _, err := c.fetchRepo(context.Background(), "owner", "repo", false); err != nil {
		t.Fatalf("fetchRepo error: %v", err)
	}
	remaining, observed := c.Budget().Remaining()
	if !observed {
		t.Fatal("budget should have observed the response headers")
	}
	if remaining != 41 {
		t.Errorf("remaining = %d, want 41", remaining)
	}
}

func TestInvalidRepoRef(t *testing.T) {
	c := newTestClient("http://127.0.0.1:0")
	_, err := c.FetchMetadata(context.Background(), "bad owner", "repo", FetchOptions{})
	if !errors.Is(err, errors.ErrCodeInvalidRepo) {
		t.Fatalf("error = %v, want %s", err, errors.ErrCodeInvalidRepo)
	}
}
