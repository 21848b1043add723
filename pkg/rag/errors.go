package rag

import (
	"errors"
	"fmt"
	"time"
)

// Error taxonomy for the query pipeline. Components return these typed
// errors; the orchestrator and the transport boundary map them to responses.
// Retryability is a property of the type, not of the call site, so the retry
// loop can be verified structurally.

// InvalidInputError is client-caused and never retried.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// InvalidFilterError signals an unknown filter field or operator. Raised at
// filter construction time, before any network call.
type InvalidFilterError struct {
	Field    string
	Operator string
}

func (e *InvalidFilterError) Error() string {
	return fmt.Sprintf("invalid filter: field=%q operator=%q", e.Field, e.Operator)
}

// ProviderUnavailableError wraps embedding provider network/5xx failures.
type ProviderUnavailableError struct {
	Provider string
	Err      error
}

func (e *ProviderUnavailableError) Error() string {
	return fmt.Sprintf("embedding provider %s unavailable: %v", e.Provider, e.Err)
}

func (e *ProviderUnavailableError) Unwrap() error { return e.Err }

// ProviderRateLimitedError carries the provider's retry hint when present.
type ProviderRateLimitedError struct {
	Provider   string
	RetryAfter time.Duration
	Err        error
}

func (e *ProviderRateLimitedError) Error() string {
	return fmt.Sprintf("embedding provider %s rate limited: %v", e.Provider, e.Err)
}

func (e *ProviderRateLimitedError) Unwrap() error { return e.Err }

// DimensionMismatchError is a fatal configuration error: the provider
// returned a vector whose dimension differs from the configured one.
// Vectors are never truncated or padded.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: want %d, got %d", e.Want, e.Got)
}

// IndexUnavailableError wraps transient vector index failures.
type IndexUnavailableError struct {
	Err error
}

func (e *IndexUnavailableError) Error() string {
	return fmt.Sprintf("vector index unavailable: %v", e.Err)
}

func (e *IndexUnavailableError) Unwrap() error { return e.Err }

// CollectionNotFoundError indicates a provisioning bug (missing table or
// extension). Surfaced immediately, never retried.
type CollectionNotFoundError struct {
	Collection string
}

func (e *CollectionNotFoundError) Error() string {
	return fmt.Sprintf("collection %q not found", e.Collection)
}

// GenerationUnavailableError wraps transient LLM failures. Retried once.
type GenerationUnavailableError struct {
	Err error
}

func (e *GenerationUnavailableError) Error() string {
	return fmt.Sprintf("answer generation unavailable: %v", e.Err)
}

func (e *GenerationUnavailableError) Unwrap() error { return e.Err }

// GenerationTimeoutError is fatal per-request so end-to-end latency stays
// bounded.
type GenerationTimeoutError struct {
	Err error
}

func (e *GenerationTimeoutError) Error() string {
	return fmt.Sprintf("answer generation timed out: %v", e.Err)
}

func (e *GenerationTimeoutError) Unwrap() error { return e.Err }

// TimeoutError reports a stage or overall deadline being exceeded.
type TimeoutError struct {
	Stage string
	Err   error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("deadline exceeded at stage %s: %v", e.Stage, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// IsRetryable reports whether the retry loop may attempt the call again.
func IsRetryable(err error) bool {
	var pu *ProviderUnavailableError
	var prl *ProviderRateLimitedError
	var iu *IndexUnavailableError
	var gu *GenerationUnavailableError
	return errors.As(err, &pu) || errors.As(err, &prl) || errors.As(err, &iu) || errors.As(err, &gu)
}

// RetryAfterHint returns the provider-supplied backoff hint, or zero.
func RetryAfterHint(err error) time.Duration {
	var prl *ProviderRateLimitedError
	if errors.As(err, &prl) {
		return prl.RetryAfter
	}
	return 0
}
