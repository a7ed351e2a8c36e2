package entity

import "errors"

// Error taxonomy for the analysis pipeline. Callers classify with errors.Is.
var (
	// ErrInvalidSymbol means the provider does not recognize the symbol.
	// User-facing, not retried.
	ErrInvalidSymbol = errors.New("invalid symbol")

	// ErrTransientFetch covers network failures, timeouts and rate limits.
	// The caller may retry.
	ErrTransientFetch = errors.New("transient fetch error")

	// ErrDataUnavailable means the provider has no data for the requested range.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrInsufficientData means an indicator warm-up window exceeds the
	// series length. Partial result, not a hard failure.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrConfiguration covers missing/invalid API keys or provider names.
	// Fatal, reported before any work begins.
	ErrConfiguration = errors.New("configuration error")

	// ErrExternalService covers LLM provider failures, reported verbatim.
	ErrExternalService = errors.New("external service error")
)
