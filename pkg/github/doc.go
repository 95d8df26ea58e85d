// Package github fetches plugin repository metadata from the GitHub API.
//
// The Client issues repository-info, release, tag-list, and descriptor
// (plugin.json) requests over a single pooled HTTP connection, honoring the
// API's rate-limit headers and retrying transient failures with backoff.
// Responses are cached between runs through a [cache.Cache] backend.
//
// Response shapes are an external contract: unknown fields are ignored, and
// the descriptor parser tolerates the historical quirks found in the wild
// (legacy wrapper object, string-valued api field, malformed version floors).
package github
