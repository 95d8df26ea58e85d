// Package observability provides hooks for instrumenting registry builds.
//
// The hooks pattern keeps the core library free of hard dependencies on
// observability backends: no-op defaults are active until main registers
// an implementation, and libraries emit events unconditionally. The CLI
// progress display is itself a hooks consumer.
//
// Register hooks at application startup:
//
//	observability.SetBuildHooks(&myHooks{})
//
// Libraries emit events:
//
//	observability.Build().OnFetchStart(ctx, entry)
//	// ... fetch ...
//	observability.Build().OnFetchComplete(ctx, entry, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// BuildHooks receives events from a registry build run.
type BuildHooks interface {
	// OnBuildStart fires once when a run begins, with the run ID and the
	// number of entries to process after deduplication.
	OnBuildStart(ctx context.Context, runID string, total int)

	// Fetch events, one pair per curated entry.
	OnFetchStart(ctx context.Context, entry string)
	OnFetchComplete(ctx context.Context, entry string, duration time.Duration, err error)

	// OnRateLimitWait fires when a fetch blocks on the exhausted
	// rate-limit budget.
	OnRateLimitWait(ctx context.Context, until time.Time)

	// Render events, once per run.
	OnRenderStart(ctx context.Context, artifacts []string)
	OnRenderComplete(ctx context.Context, artifacts []string, duration time.Duration, err error)
}

// CacheHooks receives events from response cache operations.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, key string)
	OnCacheMiss(ctx context.Context, key string)
	OnCacheSet(ctx context.Context, key string, size int)
}

// NoopBuildHooks is a no-op implementation of BuildHooks.
type NoopBuildHooks struct{}

func (NoopBuildHooks) OnBuildStart(context.Context, string, int)                        {}
func (NoopBuildHooks) OnFetchStart(context.Context, string)                             {}
func (NoopBuildHooks) OnFetchComplete(context.Context, string, time.Duration, error)    {}
func (NoopBuildHooks) OnRateLimitWait(context.Context, time.Time)                       {}
func (NoopBuildHooks) OnRenderStart(context.Context, []string)                          {}
func (NoopBuildHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

var (
	buildHooks BuildHooks = NoopBuildHooks{}
	cacheHooks CacheHooks = NoopCacheHooks{}
	hooksMu    sync.RWMutex
)

// SetBuildHooks registers custom build hooks.
// Call once at application startup before running a build.
func SetBuildHooks(h BuildHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		buildHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Build returns the registered build hooks.
func Build() BuildHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return buildHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	buildHooks = NoopBuildHooks{}
	cacheHooks = NoopCacheHooks{}
}
