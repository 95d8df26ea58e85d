package httputil

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Budget tracks the remote API's rate-limit budget: the remaining request
// count and the time at which it resets, as reported by the standard
// X-RateLimit-Remaining and X-RateLimit-Reset response headers.
//
// A single Budget is shared by all concurrent fetches of a run. It is safe
// for concurrent use. The zero value is a Budget with no observations, which
// never blocks.
type Budget struct {
	mu        sync.Mutex
	remaining int
	reset     time.Time
	observed  bool

	// now is the clock used for reset comparisons; tests override it.
	now func() time.Time
}

// NewBudget creates an empty Budget using the system clock.
func NewBudget() *Budget {
	return &Budget{now: time.Now}
}

// Observe records the budget reported by a response's rate-limit headers.
// Responses without rate-limit headers are ignored.
func (b *Budget) Observe(h http.Header) {
	rem := h.Get("X-RateLimit-Remaining")
	if rem == "" {
		return
	}
	remaining, err := strconv.Atoi(rem)
	if err != nil {
		return
	}

	var reset time.Time
	if v := h.Get("X-RateLimit-Reset"); v != "" {
		if unix, err := strconv.ParseInt(v, 10, 64); err == nil {
			reset = time.Unix(unix, 0)
		}
	}

	b.mu.Lock()
	b.remaining = remaining
	b.reset = reset
	b.observed = true
	b.mu.Unlock()
}

// Exhaust marks the budget as spent until the given reset time. Used when a
// response signals a secondary rate limit via Retry-After rather than the
// budget headers.
func (b *Budget) Exhaust(reset time.Time) {
	b.mu.Lock()
	b.remaining = 0
	b.reset = reset
	b.observed = true
	b.mu.Unlock()
}

// Remaining reports the last observed remaining count and whether any
// observation has been made.
func (b *Budget) Remaining() (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remaining, b.observed
}

// Wait blocks until the budget permits another request: if the last observed
// remaining count is zero and the reset time is in the future, it sleeps
// until reset (or ctx is done). Otherwise it returns immediately.
//
// Wait never fails on its own; the only error it returns is ctx.Err().
func (b *Budget) Wait(ctx context.Context) error {
	for {
		b.mu.Lock()
		clock := b.now
		if clock == nil {
			clock = time.Now
		}
		var delay time.Duration
		if b.observed && b.remaining == 0 {
			delay = b.reset.Sub(clock())
		}
		if delay <= 0 {
			// Budget available (or reset already passed): clear the
			// exhausted state so a stale observation cannot wedge the run.
			if b.observed && b.remaining == 0 {
				b.observed = false
			}
			b.mu.Unlock()
			return nil
		}
		b.mu.Unlock()

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RetryAfter parses a Retry-After header value in seconds. Returns 0 when
// the header is absent or malformed.
func RetryAfter(h http.Header) int {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return secs
}
