package registry

import (
	"fmt"
	"strings"
	"time"

	"github.com/plugindex/plugindex/pkg/errors"
	"github.com/plugindex/plugindex/pkg/github"
)

// viewOnlyMinimumVersion is the floor applied to view-only entries, which
// load natively and log errors on older product builds.
const viewOnlyMinimumVersion = 6135

// Schema is the descriptor allow-list configuration. Values outside the
// allow-lists fail validation; deprecated values are rejected explicitly
// even when structurally well-formed.
type Schema struct {
	AllowedAPIs    []string
	DeprecatedAPIs []string
	Platforms      []string
	Types          []string
}

// DefaultSchema returns the canonical allow-lists.
func DefaultSchema() Schema {
	return Schema{
		AllowedAPIs:    []string{"python3"},
		DeprecatedAPIs: []string{"python2"},
		Platforms:      []string{"Darwin", "Windows", "Linux"},
		Types:          []string{"core", "ui", "binaryview", "architecture", "helper"},
	}
}

// Validate checks raw fetched metadata against the descriptor schema and
// returns the normalized record. It is a pure function of its inputs: no
// network, no clock, no shared state.
func (s Schema) Validate(entry CuratedEntry, raw *github.RawMetadata) (*PluginRecord, error) {
	desc := raw.Descriptor
	if desc == nil {
		return nil, errors.New(errors.ErrCodeNoDescriptor, "%s: no descriptor fetched", entry.Name)
	}

	name := strings.TrimSpace(desc.Name)
	if name == "" {
		return nil, errors.New(errors.ErrCodeMissingField, "%s: descriptor missing required field %q", entry.Name, "name")
	}
	author := strings.TrimSpace(desc.Author)
	if author == "" {
		return nil, errors.New(errors.ErrCodeMissingField, "%s: descriptor missing required field %q", entry.Name, "author")
	}

	lastUpdated := lastUpdatedFor(entry, raw)
	if lastUpdated.IsZero() {
		return nil, errors.New(errors.ErrCodeMissingField, "%s: no last-updated timestamp available", entry.Name)
	}

	apis, err := s.checkAPIs(entry.Name, desc.API)
	if err != nil {
		return nil, err
	}
	platforms, err := checkEnum(entry.Name, "platform", desc.Platforms, s.Platforms)
	if err != nil {
		return nil, err
	}
	types, err := checkEnum(entry.Name, "type", desc.Type, s.Types)
	if err != nil {
		return nil, err
	}

	minVersion := int(desc.MinimumVersion)
	if entry.ViewOnly && minVersion < viewOnlyMinimumVersion {
		minVersion = viewOnlyMinimumVersion
	}

	license := strings.TrimSpace(desc.License.Name)
	if license == "" {
		license = strings.TrimSpace(raw.License)
	}

	rec := &PluginRecord{
		ID:             entry.ID(),
		Name:           name,
		Author:         author,
		Description:    strings.TrimSpace(desc.Description),
		Repository:     raw.Owner + "/" + raw.Name,
		LastUpdated:    lastUpdated.UTC(),
		APIVersions:    apis,
		Platforms:      platforms,
		Types:          types,
		MinimumVersion: minVersion,
		Version:        strings.TrimSpace(desc.Version),
		License:        license,
		ViewOnly:       entry.ViewOnly,
		Status:         StatusOK,
	}
	if raw.Release != nil {
		rec.PackageURL = raw.Release.ZipURL
		rec.Commit = raw.Commit
	}
	return rec, nil
}

// lastUpdatedFor picks the most recent timestamp observed for the entry:
// the release publication for packaged plugins, repository activity for
// view-only ones, whichever is newer.
func lastUpdatedFor(entry CuratedEntry, raw *github.RawMetadata) time.Time {
	var t time.Time
	if raw.Release != nil && raw.Release.PublishedAt.After(t) {
		t = raw.Release.PublishedAt
	}
	if entry.ViewOnly {
		if raw.UpdatedAt.After(t) {
			t = raw.UpdatedAt
		}
		if raw.PushedAt.After(t) {
			t = raw.PushedAt
		}
	}
	return t
}

func (s Schema) checkAPIs(entry string, apis []string) ([]string, error) {
	if len(apis) == 0 {
		return nil, errors.New(errors.ErrCodeMissingField, "%s: descriptor missing required field %q", entry, "api")
	}
	out := make([]string, 0, len(apis))
	for _, api := range apis {
		api = strings.ToLower(strings.TrimSpace(api))
		if contains(s.DeprecatedAPIs, api) {
			return nil, errors.New(errors.ErrCodeDeprecatedTag, "%s: api %q is no longer supported", entry, api)
		}
		if !contains(s.AllowedAPIs, api) {
			return nil, errors.New(errors.ErrCodeUnknownTag, "%s: unknown api %q (allowed: %s)",
				entry, api, strings.Join(s.AllowedAPIs, ", "))
		}
		out = append(out, api)
	}
	return out, nil
}

func checkEnum(entry, field string, values, allowed []string) ([]string, error) {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if !contains(allowed, v) {
			return nil, errors.New(errors.ErrCodeUnknownTag, "%s: unknown %s %q (allowed: %s)",
				entry, field, v, strings.Join(allowed, ", "))
		}
		out = append(out, v)
	}
	return out, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// fetchErrorFor converts an entry-level error into its recorded form.
// Retryable stays false: retries and rate-limit waits happen inside the
// fetch client, so any error reaching this point is terminal.
func fetchErrorFor(entry CuratedEntry, err error) *FetchError {
	kind := string(errors.GetCode(err))
	if kind == "" {
		kind = string(errors.ErrCodeInternal)
	}
	msg := errors.UserMessage(err)
	if !strings.Contains(msg, entry.Name) {
		msg = fmt.Sprintf("%s: %s", entry.Name, msg)
	}
	return &FetchError{
		Entry:   entry.ID(),
		Kind:    kind,
		Message: msg,
	}
}
