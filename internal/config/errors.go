package config

import "errors"

// Configuration validation errors, returned by Config.Validate.
// Sentinel errors so callers can match them with errors.Is while the
// messages stay self-explanatory for CLI output.
var (
	// ErrNoBaseURL is returned when the storefront endpoint is empty.
	ErrNoBaseURL = errors.New("no storefront endpoint: set --endpoint or the account file's base_url")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when a concurrency limit is not
	// positive. Zero workers would stall the pipeline.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidRetryLimit is returned when the retry limit is negative.
	// Use 0 to disable retries.
	ErrInvalidRetryLimit = errors.New("invalid retry limit: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
