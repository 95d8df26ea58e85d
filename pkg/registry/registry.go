package registry

import (
	"strings"
	"time"
)

// CuratedEntry is one row of the curated listing: a repository that should
// exist in the registry, plus its manual overrides.
type CuratedEntry struct {
	// Name is the "owner/repo" repository reference.
	Name string `json:"name"`

	// Tag pins the entry to a specific release tag.
	Tag string `json:"tag,omitempty"`

	// AutoUpdate follows the latest release instead of a pinned tag.
	AutoUpdate bool `json:"auto_update,omitempty"`

	// ViewOnly marks an entry with no installable package.
	ViewOnly bool `json:"view_only,omitempty"`

	// Subdir is the directory holding plugin.json when not at the root.
	Subdir string `json:"subdir,omitempty"`

	// Remove omits the entry from all output entirely.
	Remove bool `json:"remove,omitempty"`
}

// ID is the entry's registry identity: the lowercased repository reference.
func (e CuratedEntry) ID() string {
	return strings.ToLower(strings.TrimSpace(e.Name))
}

// Owner and Repo split the repository reference. Both return empty strings
// when the reference is not owner/name shaped.
func (e CuratedEntry) Owner() string {
	owner, _, _ := strings.Cut(strings.TrimSpace(e.Name), "/")
	return owner
}

func (e CuratedEntry) Repo() string {
	_, repo, ok := strings.Cut(strings.TrimSpace(e.Name), "/")
	if !ok {
		return ""
	}
	return repo
}

// Status reports whether an entry's fetch and validation succeeded.
type Status string

const (
	StatusOK     Status = "ok"
	StatusBroken Status = "broken"
)

// Category is a staleness classification derived from last-updated.
type Category string

const (
	CategoryActive       Category = "active"
	CategoryAging        Category = "aging"
	CategoryUnmaintained Category = "unmaintained"
)

// FetchError records why an entry could not be fetched or validated.
// Recorded errors are terminal: transient failures are retried inside the
// fetch client, so Retryable is false by the time an entry is broken.
type FetchError struct {
	Entry     string `json:"entry"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func (e *FetchError) Error() string {
	return e.Message
}

// PluginRecord is the normalized, registry-resident form of one entry.
// Records are mutated only during a build run and are immutable once the
// run completes.
type PluginRecord struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Author         string      `json:"author"`
	Description    string      `json:"description,omitempty"`
	Repository     string      `json:"repository"`
	LastUpdated    time.Time   `json:"last_updated"`
	APIVersions    []string    `json:"api,omitempty"`
	Platforms      []string    `json:"platforms,omitempty"`
	Types          []string    `json:"type,omitempty"`
	MinimumVersion int         `json:"minimum_version"`
	Version        string      `json:"version,omitempty"`
	License        string      `json:"license,omitempty"`
	PackageURL     string      `json:"package_url,omitempty"`
	Commit         string      `json:"commit,omitempty"`
	ViewOnly       bool        `json:"view_only"`
	Staleness      Category    `json:"staleness,omitempty"`
	Status         Status      `json:"status"`
	Error          *FetchError `json:"error,omitempty"`
}

// Registry is the complete result of one build run. Record order follows
// the curated listing.
type Registry struct {
	RunID       string
	GeneratedAt time.Time
	Records     []*PluginRecord

	// Duplicates lists curated entries rejected because an earlier entry
	// claimed the same ID. The first occurrence wins.
	Duplicates []*FetchError

	// Partial is set when the run deadline expired before every entry
	// completed; Records then holds only the completed entries.
	Partial bool
}

// Succeeded counts records that fetched and validated cleanly.
func (r *Registry) Succeeded() int {
	n := 0
	for _, rec := range r.Records {
		if rec.Status == StatusOK {
			n++
		}
	}
	return n
}

// Broken counts records retained with a fetch or validation error.
func (r *Registry) Broken() int {
	return len(r.Records) - r.Succeeded()
}
