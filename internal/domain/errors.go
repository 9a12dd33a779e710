package domain

import (
	"errors"
	"fmt"
)

// Error kinds for the acquisition and analysis pipeline. Callers classify
// wrapped errors with errors.Is.
var (
	// ErrConfigMissing marks a required secret or option that is absent.
	ErrConfigMissing = errors.New("configuration missing")

	// ErrAuthFailed marks rejected provider credentials. Not retried.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrProviderRejected marks a non-retryable client error from a provider.
	ErrProviderRejected = errors.New("provider rejected request")

	// ErrRateLimited marks a 429 response. Retried with linear backoff.
	ErrRateLimited = errors.New("rate limited")

	// ErrTransient marks timeouts and 5xx responses. Retried with
	// exponential backoff.
	ErrTransient = errors.New("transient failure")

	// ErrInsufficient marks a series with too few rows or missing columns.
	ErrInsufficient = errors.New("insufficient data")

	// ErrInternal marks an invariant violation. The symbol is skipped.
	ErrInternal = errors.New("internal error")
)

// FetchFailure records a per-symbol acquisition or analysis failure.
// Failures never abort a run; they are collected and reported.
type FetchFailure struct {
	Ticker string `json:"ticker"`
	Reason string `json:"reason"`
}

func (f FetchFailure) String() string {
	return fmt.Sprintf("%s: %s", f.Ticker, f.Reason)
}

// Retryable reports whether an error should be retried by the
// acquisition layer.
func Retryable(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrRateLimited)
}
