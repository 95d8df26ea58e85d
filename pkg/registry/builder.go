package registry

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/plugindex/plugindex/pkg/errors"
	"github.com/plugindex/plugindex/pkg/github"
	"github.com/plugindex/plugindex/pkg/observability"
)

const defaultConcurrency = 4

// Fetcher is the seam between the aggregator and the GitHub client.
// Implementations must be safe for concurrent use.
type Fetcher interface {
	FetchMetadata(ctx context.Context, owner, name string, opts github.FetchOptions) (*github.RawMetadata, error)
}

// BuilderConfig configures a Builder. Zero values fall back to defaults.
type BuilderConfig struct {
	// Schema holds the descriptor allow-lists. Empty means DefaultSchema.
	Schema Schema

	// Thresholds are the staleness boundaries. Zero means
	// DefaultThresholds.
	Thresholds Thresholds

	// Concurrency bounds parallel fetches. Zero means 4.
	Concurrency int

	// Refresh bypasses the fetch client's response cache.
	Refresh bool

	// Now is the clock used for staleness classification and run
	// timestamps. Nil means time.Now. Tests inject a fixed clock.
	Now func() time.Time

	// Logger receives per-entry progress. Nil discards.
	Logger *log.Logger
}

// Builder aggregates curated entries into a Registry: it drives fetch and
// validation per entry, isolates per-entry failures, and classifies the
// staleness of every successful record.
type Builder struct {
	fetcher     Fetcher
	schema      Schema
	thresholds  Thresholds
	concurrency int
	refresh     bool
	now         func() time.Time
	logger      *log.Logger
}

// NewBuilder creates a Builder around the given fetcher.
func NewBuilder(fetcher Fetcher, cfg BuilderConfig) *Builder {
	schema := cfg.Schema
	if len(schema.AllowedAPIs) == 0 {
		schema = DefaultSchema()
	}
	thresholds := cfg.Thresholds
	if thresholds.Aging == 0 && thresholds.Unmaintained == 0 {
		thresholds = DefaultThresholds()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	return &Builder{
		fetcher:     fetcher,
		schema:      schema,
		thresholds:  thresholds,
		concurrency: concurrency,
		refresh:     cfg.Refresh,
		now:         now,
		logger:      logger,
	}
}

// Build runs one registry build over the curated entries. Entries are
// fetched concurrently, but the returned record order always follows the
// curated list. Per-entry failures are recorded as broken records; the
// run itself fails only when the listing produced entries and none
// succeeded, or when the deadline expired before any entry completed.
//
// On deadline expiry the completed entries are kept and the registry is
// marked partial; Build then returns the partial registry alongside a nil
// error unless nothing completed.
func (b *Builder) Build(ctx context.Context, entries []CuratedEntry) (*Registry, error) {
	runID := uuid.NewString()
	logger := b.logger.With("run_id", runID)

	unique, duplicates := dedupe(entries)
	observability.Build().OnBuildStart(ctx, runID, len(unique))
	logger.Info("starting build", "entries", len(unique), "duplicates", len(duplicates))

	results := make([]*PluginRecord, len(unique))
	completed := make([]bool, len(unique))

	g := &errgroup.Group{}
	g.SetLimit(b.concurrency)
	for i, entry := range unique {
		g.Go(func() error {
			start := time.Now()
			observability.Build().OnFetchStart(ctx, entry.Name)

			rec, err := b.process(ctx, entry)
			observability.Build().OnFetchComplete(ctx, entry.Name, time.Since(start), err)

			if ctx.Err() != nil && rec == nil {
				// Abandoned in-flight: the deadline expired before this
				// entry finished. Leave it incomplete rather than broken.
				return nil
			}
			if err != nil {
				logger.Warn("entry failed", "entry", entry.Name, "error", err)
				rec = brokenRecord(entry, err)
			}
			results[i] = rec
			completed[i] = true
			return nil
		})
	}
	_ = g.Wait()

	reg := &Registry{
		RunID:       runID,
		GeneratedAt: b.now().UTC(),
		Duplicates:  duplicates,
	}
	for i, rec := range results {
		if !completed[i] {
			reg.Partial = true
			continue
		}
		if rec.Status == StatusOK {
			rec.Staleness = b.thresholds.Classify(rec.LastUpdated, reg.GeneratedAt)
		}
		reg.Records = append(reg.Records, rec)
	}

	if len(reg.Records) == 0 && len(unique) > 0 {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "deadline expired before any entry completed")
		}
		return nil, errors.New(errors.ErrCodeNoOutput, "no entries completed")
	}
	if reg.Succeeded() == 0 && len(unique) > 0 {
		return reg, errors.New(errors.ErrCodeNoOutput, "all %d entries failed", len(reg.Records))
	}

	logger.Info("build finished",
		"succeeded", reg.Succeeded(),
		"broken", reg.Broken(),
		"partial", reg.Partial)
	return reg, nil
}

// process fetches and validates one entry. Returns a record only on
// success; errors are turned into broken records by the caller.
func (b *Builder) process(ctx context.Context, entry CuratedEntry) (*PluginRecord, error) {
	raw, err := b.fetcher.FetchMetadata(ctx, entry.Owner(), entry.Repo(), github.FetchOptions{
		Tag:        entry.Tag,
		AutoUpdate: entry.AutoUpdate,
		ViewOnly:   entry.ViewOnly,
		Subdir:     entry.Subdir,
		Refresh:    b.refresh,
	})
	if err != nil {
		return nil, err
	}
	return b.schema.Validate(entry, raw)
}

// dedupe drops entries flagged for removal and rejects repeated IDs,
// keeping the first occurrence.
func dedupe(entries []CuratedEntry) ([]CuratedEntry, []*FetchError) {
	seen := make(map[string]bool, len(entries))
	var unique []CuratedEntry
	var duplicates []*FetchError

	for _, e := range entries {
		if e.Remove {
			continue
		}
		id := e.ID()
		if seen[id] {
			duplicates = append(duplicates, fetchErrorFor(e,
				errors.New(errors.ErrCodeDuplicateEntry, "%s: duplicate of an earlier entry", e.Name)))
			continue
		}
		seen[id] = true
		unique = append(unique, e)
	}
	return unique, duplicates
}

func brokenRecord(entry CuratedEntry, err error) *PluginRecord {
	return &PluginRecord{
		ID:         entry.ID(),
		Name:       entry.Name,
		Repository: entry.Name,
		ViewOnly:   entry.ViewOnly,
		Status:     StatusBroken,
		Error:      fetchErrorFor(entry, err),
	}
}
