// Package log provides the application loggers, built on top of the standard
// slog package.
//
// Check runs log thousands of file paths. PathHandler wraps any slog.Handler
// and shortens paths under the user's home directory to "~/...", so verbose
// logs stay readable and can be shared without exposing the full home path.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, true) // verbose=true
//	logger.Debug("checking file", "path", "/home/alice/data/reads.fq")
//	// level=DEBUG msg="checking file" path=~/data/reads.fq
//
//	slog.SetDefault(logger)
package log
