// Package database provides SQLite-based storage for BotBot.
//
// The CacheDB stores:
//   - one record per checked file (size, mtime, content hash, problems),
//     so unchanged files are not checked again
//   - one record per run, with the full report as JSON, for history
//
// SQLite via modernc.org/sqlite keeps the cache a single CGO-free file in
// the XDG data directory. WAL mode lets history queries run while a check
// is writing.
package database
