package github

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// FetchOptions carries the curated per-entry overrides that change how
// metadata is resolved.
type FetchOptions struct {
	// Tag pins the entry to a specific release tag instead of the latest
	// release. Ignored when AutoUpdate is set.
	Tag string

	// AutoUpdate follows the repository's latest release.
	AutoUpdate bool

	// ViewOnly marks an entry with no packaged release; its last-updated
	// timestamp comes from repository activity instead of a release.
	ViewOnly bool

	// Subdir is the directory containing plugin.json when the descriptor
	// does not sit at the repository root.
	Subdir string

	// Refresh bypasses the response cache.
	Refresh bool
}

// RawMetadata is the unvalidated result of fetching one repository.
// It is handed to the validator and discarded afterwards.
type RawMetadata struct {
	Owner         string     `json:"owner"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	DefaultBranch string     `json:"default_branch"`
	License       string     `json:"license"`
	Archived      bool       `json:"archived"`
	PushedAt      time.Time  `json:"pushed_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Release       *Release   `json:"release,omitempty"`
	Commit        string     `json:"commit,omitempty"`
	Descriptor    *Descriptor `json:"descriptor,omitempty"`
}

// Release describes the resolved release for an entry.
type Release struct {
	Tag         string    `json:"tag"`
	PublishedAt time.Time `json:"published_at"`
	ZipURL      string    `json:"zip_url"`
}

// Descriptor is the plugin.json contents of a repository at a ref.
type Descriptor struct {
	Name            string            `json:"name"`
	Author          string            `json:"author"`
	Description     string            `json:"description"`
	LongDescription string            `json:"longdescription"`
	Type            []string          `json:"type"`
	API             StringList        `json:"api"`
	Platforms       []string          `json:"platforms"`
	Install         map[string]string `json:"installinstructions"`
	Version         string            `json:"version"`
	MinimumVersion  LenientInt        `json:"minimumbinaryninjaversion"`
	License         DescriptorLicense `json:"license"`
}

// DescriptorLicense is the license object inside plugin.json.
type DescriptorLicense struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// StringList decodes a JSON field that is either a string or a list of
// strings. Older descriptors declared "api" as a bare string.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*l = StringList{single}
	return nil
}

// LenientInt decodes an integer field that some descriptors declare as a
// string or a non-integer. Unparseable values decode to zero so the
// validator can apply a default floor instead of failing the entry.
type LenientInt int

func (n *LenientInt) UnmarshalJSON(data []byte) error {
	var i int
	if err := json.Unmarshal(data, &i); err == nil {
		*n = LenientInt(i)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*n = 0
		return nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		*n = 0
		return nil
	}
	*n = LenientInt(parsed)
	return nil
}

// ParseDescriptor decodes plugin.json bytes, unwrapping the legacy
// {"plugin": {...}} envelope used by early descriptors.
func ParseDescriptor(data []byte) (*Descriptor, error) {
	var wrapper struct {
		Plugin *Descriptor `json:"plugin"`
	}
	if err := json.Unmarshal(data, &wrapper); err == nil && wrapper.Plugin != nil {
		return wrapper.Plugin, nil
	}

	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// API response shapes. Unknown fields are ignored.

type repoResponse struct {
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	DefaultBranch string     `json:"default_branch"`
	PushedAt      *time.Time `json:"pushed_at"`
	UpdatedAt     *time.Time `json:"updated_at"`
	Archived      bool       `json:"archived"`
	Owner         struct {
		Login string `json:"login"`
	} `json:"owner"`
	License struct {
		SPDXID string `json:"spdx_id"`
	} `json:"license"`
}

type releaseResponse struct {
	TagName     string    `json:"tag_name"`
	PublishedAt time.Time `json:"published_at"`
	ZipballURL  string    `json:"zipball_url"`
}

// Tag is one entry of a repository's tag list.
type Tag struct {
	Name   string `json:"name"`
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

type contentsResponse struct {
	Path     string `json:"path"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
}
