package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/plugindex/plugindex/pkg/cache"
	"github.com/plugindex/plugindex/pkg/errors"
	"github.com/plugindex/plugindex/pkg/httputil"
	"github.com/plugindex/plugindex/pkg/observability"
)

const (
	defaultBaseURL = "https://api.github.com"
	defaultTimeout = 30 * time.Second
)

// Config configures a Client. Zero values fall back to defaults.
type Config struct {
	// Token authenticates requests. Empty means unauthenticated (lower
	// rate limits).
	Token string

	// BaseURL overrides the API endpoint, primarily for tests.
	BaseURL string

	// Cache stores raw responses between runs. Nil disables caching.
	Cache cache.Cache

	// CacheTTL bounds how long cached responses are reused.
	CacheTTL time.Duration

	// RetryAttempts and RetryDelay control the transient-failure retry
	// policy. Zero values mean 3 attempts starting at 1 second.
	RetryAttempts int
	RetryDelay    time.Duration

	// Logger receives debug output. Nil discards.
	Logger *log.Logger
}

// Client fetches plugin repository metadata from the GitHub API.
// A single Client is shared by all concurrent fetches in a run; the
// rate-limit budget is its only mutable state and is internally
// synchronized.
type Client struct {
	http     *http.Client
	baseURL  string
	token    string
	cache    cache.Cache
	cacheTTL time.Duration
	budget   *httputil.Budget
	attempts int
	delay    time.Duration
	logger   *log.Logger
}

// NewClient creates a Client from cfg.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	store := cfg.Cache
	if store == nil {
		store = cache.NewNullCache()
	}
	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = 3
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	return &Client{
		http:     &http.Client{Timeout: defaultTimeout},
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		token:    cfg.Token,
		cache:    store,
		cacheTTL: cfg.CacheTTL,
		budget:   httputil.NewBudget(),
		attempts: attempts,
		delay:    delay,
		logger:   logger,
	}
}

// Budget exposes the client's rate-limit budget for observability.
func (c *Client) Budget() *httputil.Budget { return c.budget }

// FetchMetadata resolves the full raw metadata for one repository:
// repository info, the release selected by opts, the release commit, and
// the plugin descriptor at the resolved ref.
func (c *Client) FetchMetadata(ctx context.Context, owner, name string, opts FetchOptions) (*RawMetadata, error) {
	if err := errors.ValidateRepoRef(owner + "/" + name); err != nil {
		return nil, err
	}

	repo, err := c.fetchRepo(ctx, owner, name, opts.Refresh)
	if err != nil {
		return nil, err
	}

	raw := &RawMetadata{
		Owner:         repo.Owner.Login,
		Name:          repo.Name,
		Description:   repo.Description,
		DefaultBranch: repo.DefaultBranch,
		License:       repo.License.SPDXID,
		Archived:      repo.Archived,
	}
	if raw.Owner == "" {
		raw.Owner = owner
	}
	if raw.Name == "" {
		raw.Name = name
	}
	if repo.PushedAt != nil {
		raw.PushedAt = *repo.PushedAt
	}
	if repo.UpdatedAt != nil {
		raw.UpdatedAt = *repo.UpdatedAt
	}

	// View-only entries have no packaged release; the descriptor is read
	// from the default branch and last-updated comes from repo activity.
	ref := raw.DefaultBranch
	if !opts.ViewOnly {
		rel, err := c.resolveRelease(ctx, owner, name, opts)
		if err != nil {
			return nil, err
		}
		raw.Release = rel
		ref = rel.Tag

		if sha, err := c.resolveCommit(ctx, owner, name, rel.Tag, opts.Refresh); err == nil {
			raw.Commit = sha
		} else {
			c.logger.Debug("commit resolution failed", "repo", owner+"/"+name, "tag", rel.Tag, "error", err)
		}
	}

	desc, err := c.FetchDescriptor(ctx, owner, name, ref, opts.Subdir, opts.Refresh)
	if err != nil {
		return nil, err
	}
	raw.Descriptor = desc

	return raw, nil
}

// CheckSubmission verifies that a repository is ready for inclusion:
// it must have a release (unless viewOnly) and a parseable descriptor at
// the resolved ref. Returns the raw metadata for further validation.
func (c *Client) CheckSubmission(ctx context.Context, owner, name string, opts FetchOptions) (*RawMetadata, error) {
	opts.Refresh = true
	return c.FetchMetadata(ctx, owner, name, opts)
}

func (c *Client) resolveRelease(ctx context.Context, owner, name string, opts FetchOptions) (*Release, error) {
	if opts.Tag != "" && !opts.AutoUpdate {
		return c.FetchReleaseByTag(ctx, owner, name, opts.Tag, opts.Refresh)
	}
	return c.FetchLatestRelease(ctx, owner, name, opts.Refresh)
}

func (c *Client) resolveCommit(ctx context.Context, owner, name, tag string, refresh bool) (string, error) {
	tags, err := c.FetchTags(ctx, owner, name, refresh)
	if err != nil {
		return "", err
	}
	for _, t := range tags {
		if t.Name == tag {
			return t.Commit.SHA, nil
		}
	}
	return "", errors.New(errors.ErrCodeUnknownTag, "tag %q not found in %s/%s", tag, owner, name)
}

func (c *Client) fetchRepo(ctx context.Context, owner, name string, refresh bool) (*repoResponse, error) {
	var data repoResponse
	u := fmt.Sprintf("%s/repos/%s/%s", c.baseURL, owner, name)
	err := c.cached(ctx, cache.RepoKey(owner, name), refresh, &data, func() error {
		return c.get(ctx, u, &data)
	})
	if err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return nil, errors.Wrap(errors.ErrCodeRepoNotFound, err, "repository %s/%s not found", owner, name)
		}
		return nil, err
	}
	return &data, nil
}

// FetchLatestRelease returns the most recent published release.
func (c *Client) FetchLatestRelease(ctx context.Context, owner, name string, refresh bool) (*Release, error) {
	return c.fetchRelease(ctx, owner, name, "latest", refresh)
}

// FetchReleaseByTag returns the release pinned to tag.
func (c *Client) FetchReleaseByTag(ctx context.Context, owner, name, tag string, refresh bool) (*Release, error) {
	return c.fetchRelease(ctx, owner, name, tag, refresh)
}

func (c *Client) fetchRelease(ctx context.Context, owner, name, ref string, refresh bool) (*Release, error) {
	var data releaseResponse
	u := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, owner, name)
	if ref != "latest" {
		u = fmt.Sprintf("%s/repos/%s/%s/releases/tags/%s", c.baseURL, owner, name, url.PathEscape(ref))
	}
	err := c.cached(ctx, cache.ReleaseKey(owner, name, ref), refresh, &data, func() error {
		return c.get(ctx, u, &data)
	})
	if err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return nil, errors.Wrap(errors.ErrCodeReleaseNotFound, err, "no release %q for %s/%s", ref, owner, name)
		}
		return nil, err
	}
	return &Release{
		Tag:         data.TagName,
		PublishedAt: data.PublishedAt.UTC(),
		ZipURL:      data.ZipballURL,
	}, nil
}

// FetchTags returns the repository's tag list.
func (c *Client) FetchTags(ctx context.Context, owner, name string, refresh bool) ([]Tag, error) {
	var data []Tag
	u := fmt.Sprintf("%s/repos/%s/%s/tags?per_page=100", c.baseURL, owner, name)
	err := c.cached(ctx, cache.TagsKey(owner, name), refresh, &data, func() error {
		return c.get(ctx, u, &data)
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// FetchDescriptor reads and parses plugin.json at ref. subdir, when
// non-empty, is the directory holding the descriptor.
func (c *Client) FetchDescriptor(ctx context.Context, owner, name, ref, subdir string, refresh bool) (*Descriptor, error) {
	if err := errors.ValidateSubdir(subdir); err != nil {
		return nil, err
	}
	path := "plugin.json"
	if subdir != "" {
		path = strings.Trim(subdir, "/") + "/plugin.json"
	}

	var data contentsResponse
	u := fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s", c.baseURL, owner, name, path, url.QueryEscape(ref))
	err := c.cached(ctx, cache.DescriptorKey(owner, name, ref, subdir), refresh, &data, func() error {
		return c.get(ctx, u, &data)
	})
	if err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return nil, errors.Wrap(errors.ErrCodeNoDescriptor, err, "no plugin.json at %s/%s@%s", owner, name, ref)
		}
		return nil, err
	}

	// The contents API returns file bodies base64-encoded with embedded
	// newlines.
	content, decErr := base64.StdEncoding.DecodeString(strings.ReplaceAll(data.Content, "\n", ""))
	if decErr != nil {
		return nil, errors.Wrap(errors.ErrCodeNoDescriptor, decErr, "decode plugin.json for %s/%s@%s", owner, name, ref)
	}

	desc, parseErr := ParseDescriptor(content)
	if parseErr != nil {
		return nil, errors.Wrap(errors.ErrCodeNoDescriptor, parseErr, "parse plugin.json for %s/%s@%s", owner, name, ref)
	}
	return desc, nil
}

// cached retrieves a value from cache or executes fetch (with retries) and
// caches the result. If refresh is true the cache is bypassed.
func (c *Client) cached(ctx context.Context, key string, refresh bool, v any, fetch func() error) error {
	if !refresh {
		if data, hit, err := c.cache.Get(ctx, key); err == nil && hit {
			if json.Unmarshal(data, v) == nil {
				observability.Cache().OnCacheHit(ctx, key)
				return nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, key)
	}
	if err := httputil.Retry(ctx, c.attempts, c.delay, fetch); err != nil {
		return err
	}
	if data, err := json.Marshal(v); err == nil {
		if c.cache.Set(ctx, key, data, c.cacheTTL) == nil {
			observability.Cache().OnCacheSet(ctx, key, len(data))
		}
	}
	return nil
}

// get performs one GET against the API and decodes the JSON response.
// It blocks first if the rate-limit budget is exhausted, and records the
// budget headers of every response.
func (c *Client) get(ctx context.Context, u string, v any) error {
	if err := c.budget.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "build request for %s", u)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "request %s", u)}
	}
	defer resp.Body.Close()

	c.budget.Observe(resp.Header)

	if err := c.checkStatus(ctx, resp); err != nil {
		return err
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func (c *Client) checkStatus(ctx context.Context, resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "status 404 for %s", resp.Request.URL.Path)
	case resp.StatusCode == http.StatusUnauthorized:
		return errors.New(errors.ErrCodeUnauthorized, "bad credentials")
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		// Primary exhaustion and secondary rate limits both land here.
		// Mark the budget so concurrent fetches pause, then retry.
		retryAfter := httputil.RetryAfter(resp.Header)
		if retryAfter > 0 {
			until := time.Now().Add(time.Duration(retryAfter) * time.Second)
			c.budget.Exhaust(until)
			observability.Build().OnRateLimitWait(ctx, until)
		}
		c.logger.Debug("rate limited", "path", resp.Request.URL.Path, "retry_after", retryAfter)
		return &httputil.RetryableError{Err: &errors.RateLimitedError{RetryAfter: retryAfter}}
	case resp.StatusCode >= 500:
		return &httputil.RetryableError{Err: errors.New(errors.ErrCodeNetwork, "status %d for %s", resp.StatusCode, resp.Request.URL.Path)}
	default:
		return errors.New(errors.ErrCodeNetwork, "status %d for %s", resp.StatusCode, resp.Request.URL.Path)
	}
}
