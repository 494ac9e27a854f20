package domain

import "errors"

// Sentinel errors shared across the core packages.
//
// Data errors (empty input, missing columns) are fatal for the whole
// operation: the caller must abort before producing partial results.
// Validation errors are fatal only for the offending record or request.
var (
	// ErrEmptyInput marks an operation invoked with no records at all.
	ErrEmptyInput = errors.New("empty input")

	// ErrMissingColumn marks a dataset lacking a required field.
	ErrMissingColumn = errors.New("missing required column")

	// ErrBadDateRange marks a request whose dates are reversed or in the future.
	ErrBadDateRange = errors.New("invalid date range")

	// ErrFeatureMismatch marks a disagreement between a persisted model's
	// feature column list and the columns the feature builder can produce.
	// This is a configuration fault, never silently reinterpreted.
	ErrFeatureMismatch = errors.New("model feature columns do not match feature builder")
)
