// Package httputil provides HTTP client utilities for the GitHub fetch client.
//
// It contains two building blocks:
//
//   - [Retry] and [RetryableError]: bounded retries with exponential backoff
//     and jitter for transient failures (network errors, 5xx responses,
//     secondary rate limits).
//
//   - [Budget]: an accounting of the remote API's rate-limit budget
//     (remaining requests and reset time, as reported by response headers).
//     [Budget.Wait] blocks a request until the budget resets instead of
//     issuing a request that is known to fail. This is a scheduling policy,
//     distinct from retrying: an exhausted budget never consumes a retry
//     attempt.
//
// The budget is shared by all concurrent fetches for a run and is the only
// mutable state they share; it synchronizes internally.
package httputil
