// Package model defines the core data structures used throughout BotBot.
//
// This package contains the following main types:
//   - Header, Item, Group, Grouping: the problem grouping consumed by report writers
//   - Status: the run summary (files checked, elapsed seconds)
//   - ProblemCode and ProblemList: problem identifiers and their collection
//   - Report: a complete check result for one root path
//
// Models live in their own package because the checker, the report writers
// and the database all need them, and a shared package avoids import cycles.
//
// The models are serializable to JSON for report output and database storage.
package model
