// Package checker walks a directory tree and runs the configured checks on
// every file in it.
//
// A run has two phases:
//  1. BuildChecklist walks the tree in lexical order, applying ignore rules
//     and symlink handling, and records problems with the tree itself
//     (broken links, unreadable directories).
//  2. Check runs every check on every checklist entry concurrently, bounded
//     by the worker count, and assembles the results in checklist order so
//     the report is identical from run to run.
//
// When a Cache is configured, files whose size and modification time are
// unchanged reuse their cached problems instead of being checked again.
package checker
