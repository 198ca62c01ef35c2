package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use
// errors.Is() for programmatic handling.
var (
	// ErrNoPath is returned when no path to check is specified.
	ErrNoPath = errors.New("no path specified: provide a file or directory to check")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrConflictingReportFormats is returned when more than one of --json,
	// --markdown and --html is specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: only one of --json, --markdown and --html can be used")

	// ErrConflictingCacheModes is returned when --cached and --force-recheck
	// are both specified.
	ErrConflictingCacheModes = errors.New("conflicting cache modes: --cached and --force-recheck cannot be used together")

	// ErrCacheDisabled is returned when --cached is combined with --no-db.
	ErrCacheDisabled = errors.New("cached results requested but the database is disabled")

	// ErrInvalidLargeFileThreshold is returned when the large file threshold
	// is not positive.
	ErrInvalidLargeFileThreshold = errors.New("invalid large file threshold: must be positive")

	// ErrTeeWithoutReportFile is returned when --tee is given without -o.
	ErrTeeWithoutReportFile = errors.New("--tee requires a report file (-o)")

	// ErrInvalidLanguage is returned when --lang is not a BCP 47 tag.
	ErrInvalidLanguage = errors.New("invalid report language")
)
