// Package registry implements the plugin registry build: it merges the
// curated listing with metadata fetched per entry, validates and normalizes
// each record, classifies staleness, and produces the Registry that the
// renderer serializes.
//
// The build isolates per-entry failures: a broken entry is recorded with
// its error instead of aborting the run, and the final record order always
// follows the curated listing regardless of fetch completion order.
package registry
