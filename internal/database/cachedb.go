package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/schae234/botbot/internal/model"
)

// FileName is the name of the database file inside the data directory.
const FileName = "botbot.db"

// schemaVersion is stored in PRAGMA user_version. A files table written
// under an older version is dropped, since it only holds cached results.
const schemaVersion = 2

// CacheDB provides SQLite-based storage for per-file results and run reports.
// It is safe for concurrent use.
type CacheDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CacheDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// ErrDatabaseNotFound is returned by Open when the database file is missing
// and CreateIfNotExists is false.
var ErrDatabaseNotFound = errors.New("database not found")

// Open opens or creates a CacheDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CacheDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CacheDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CacheDB) Close() error {
	return cdb.db.Close()
}

// Path returns the path of the database file.
func (cdb *CacheDB) Path() string {
	return cdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CacheDB) createTables() error {
	ctx := context.Background()

	var version int
	if err := cdb.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version < schemaVersion {
		if _, err := cdb.db.ExecContext(ctx, "DROP TABLE IF EXISTS files"); err != nil {
			return fmt.Errorf("failed to drop stale file records: %w", err)
		}
	}

	schema := `
	-- One row per checked file. mod_time is in Unix nanoseconds, mode holds
	-- the fs.FileMode bits and check_set the fingerprint of the checks that
	-- produced the first "stable" entries of problems.
	CREATE TABLE IF NOT EXISTS files (
		path TEXT PRIMARY KEY,
		owner TEXT NOT NULL DEFAULT '',
		uid INTEGER NOT NULL DEFAULT -1,
		mode INTEGER NOT NULL DEFAULT 0,
		size INTEGER NOT NULL,
		mod_time INTEGER NOT NULL,
		hash TEXT NOT NULL DEFAULT '',
		check_set TEXT NOT NULL DEFAULT '',
		stable INTEGER NOT NULL DEFAULT 0,
		problems TEXT NOT NULL DEFAULT '[]',
		checked_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Runs store complete reports as JSON
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		root TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		files INTEGER NOT NULL,
		problems INTEGER NOT NULL,
		seconds REAL NOT NULL,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_root ON runs(root);
	`

	if _, err := cdb.db.ExecContext(ctx, schema); err != nil {
		return err
	}

	// PRAGMA does not take bound parameters.
	_, err := cdb.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion))
	return err
}

// FileRecord is the cached result of checking one file.
type FileRecord struct {
	Path    string
	Owner   string
	UID     int
	Mode    fs.FileMode
	Size    int64
	ModTime time.Time
	Hash    string

	// CheckSet identifies the cacheable checks and settings that produced
	// the first Stable entries of Problems. The remaining entries come from
	// checks that look at other files and are only valid as of CheckedAt.
	CheckSet string
	Stable   int

	Problems  []model.ProblemCode
	CheckedAt time.Time
}

// StableProblems returns the problems found by the cacheable checks.
func (r *FileRecord) StableProblems() []model.ProblemCode {
	return r.Problems[:min(max(r.Stable, 0), len(r.Problems))]
}

// Matches reports whether the record is still valid for a file whose
// current state is described by cur. Everything a check may look at must
// agree: the file's metadata, its content hash and the check set.
func (r *FileRecord) Matches(cur *FileRecord) bool {
	return r.Path == cur.Path &&
		r.UID == cur.UID &&
		r.Mode == cur.Mode &&
		r.Size == cur.Size &&
		r.ModTime.Equal(cur.ModTime) &&
		r.Hash == cur.Hash &&
		r.CheckSet == cur.CheckSet
}

// PutFileRecord inserts or replaces the record for record.Path.
func (cdb *CacheDB) PutFileRecord(ctx context.Context, record *FileRecord) error {
	problems := record.Problems
	if problems == nil {
		problems = []model.ProblemCode{}
	}
	problemsJSON, err := json.Marshal(problems)
	if err != nil {
		return fmt.Errorf("failed to serialize problems: %w", err)
	}

	query := `
	INSERT INTO files (path, owner, uid, mode, size, mod_time, hash, check_set, stable, problems)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(path) DO UPDATE SET
		owner = excluded.owner,
		uid = excluded.uid,
		mode = excluded.mode,
		size = excluded.size,
		mod_time = excluded.mod_time,
		hash = excluded.hash,
		check_set = excluded.check_set,
		stable = excluded.stable,
		problems = excluded.problems,
		checked_at = CURRENT_TIMESTAMP
	`

	_, err = cdb.db.ExecContext(ctx, query,
		record.Path,
		record.Owner,
		record.UID,
		int64(record.Mode),
		record.Size,
		record.ModTime.UnixNano(),
		record.Hash,
		record.CheckSet,
		record.Stable,
		string(problemsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to put file record: %w", err)
	}
	return nil
}

// GetFileRecord retrieves the record for path, or nil if there is none.
func (cdb *CacheDB) GetFileRecord(ctx context.Context, path string) (*FileRecord, error) {
	query := `
	SELECT path, owner, uid, mode, size, mod_time, hash, check_set, stable, problems, checked_at
	FROM files
	WHERE path = ?
	`

	record, err := scanFileRecord(cdb.db.QueryRowContext(ctx, query, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file record: %w", err)
	}
	return record, nil
}

// CachedProblems returns the records for root and every path below it,
// ordered by path.
func (cdb *CacheDB) CachedProblems(ctx context.Context, root string) ([]FileRecord, error) {
	root = filepath.Clean(root)
	lower, upper := subtreeRange(root)

	query := `
	SELECT path, owner, uid, mode, size, mod_time, hash, check_set, stable, problems, checked_at
	FROM files
	WHERE path = ? OR (path >= ? AND path < ?)
	ORDER BY path
	`

	rows, err := cdb.db.QueryContext(ctx, query, root, lower, upper)
	if err != nil {
		return nil, fmt.Errorf("failed to query cached problems: %w", err)
	}
	defer rows.Close()

	var records []FileRecord
	for rows.Next() {
		record, err := scanFileRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan file record: %w", err)
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

// PruneFileRecords deletes the records below root whose path is not in keep.
// It returns the number of deleted records.
func (cdb *CacheDB) PruneFileRecords(ctx context.Context, root string, keep map[string]bool) (int64, error) {
	records, err := cdb.CachedProblems(ctx, root)
	if err != nil {
		return 0, err
	}

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var deleted int64
	for _, record := range records {
		if keep[record.Path] {
			continue
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM files WHERE path = ?", record.Path); err != nil {
			return 0, fmt.Errorf("failed to delete file record: %w", err)
		}
		deleted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit prune: %w", err)
	}
	return deleted, nil
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanFileRecord(row rowScanner) (*FileRecord, error) {
	var (
		record       FileRecord
		mode         int64
		modTime      int64
		problemsJSON string
		checkedAt    string
	)

	if err := row.Scan(&record.Path, &record.Owner, &record.UID, &mode, &record.Size, &modTime,
		&record.Hash, &record.CheckSet, &record.Stable, &problemsJSON, &checkedAt); err != nil {
		return nil, err
	}

	record.Mode = fs.FileMode(mode) //nolint:gosec // written from an fs.FileMode
	record.ModTime = time.Unix(0, modTime)
	record.CheckedAt = parseTimestamp(checkedAt)
	if err := json.Unmarshal([]byte(problemsJSON), &record.Problems); err != nil {
		return nil, fmt.Errorf("failed to parse problems: %w", err)
	}
	return &record, nil
}

// subtreeRange returns the half-open string range holding every path below
// root. '0' is the byte after '/', so [root+"/", root+"0") covers exactly
// the paths that start with root+"/".
func subtreeRange(root string) (string, string) {
	prefix := root
	if prefix != string(filepath.Separator) {
		prefix += string(filepath.Separator)
	}
	upper := prefix[:len(prefix)-1] + string(rune(filepath.Separator)+1)
	return prefix, upper
}

// SaveRun stores a complete report and returns its ID.
func (cdb *CacheDB) SaveRun(ctx context.Context, report *model.Report) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	query := `
	INSERT INTO runs (root, timestamp, files, problems, seconds, report_json)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := cdb.db.ExecContext(ctx, query,
		report.Root,
		report.DateChecked.UTC().Format(time.RFC3339Nano),
		report.Status.Files,
		report.ProblemCount,
		report.Status.Seconds,
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}

	return result.LastInsertId()
}

// RunMetadata contains summary information about a stored run.
// This is used for displaying history without loading the full report.
type RunMetadata struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// Root is the checked path.
	Root string

	// Timestamp is when the run started.
	Timestamp time.Time

	// Files is the number of files checked.
	Files int

	// Problems is the number of problems found.
	Problems int

	// Seconds is the elapsed check time.
	Seconds float64
}

// ListRuns returns the runs for root, most recent first.
func (cdb *CacheDB) ListRuns(ctx context.Context, root string) ([]RunMetadata, error) {
	query := `
	SELECT id, root, timestamp, files, problems, seconds
	FROM runs
	WHERE root = ?
	ORDER BY id DESC
	`

	rows, err := cdb.db.QueryContext(ctx, query, root)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var timestamp string

		if err := rows.Scan(&meta.ID, &meta.Root, &timestamp, &meta.Files, &meta.Problems, &meta.Seconds); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		meta.Timestamp = parseTimestamp(timestamp)
		results = append(results, meta)
	}

	return results, rows.Err()
}

// ListRoots returns every root that has at least one stored run.
func (cdb *CacheDB) ListRoots(ctx context.Context) ([]string, error) {
	rows, err := cdb.db.QueryContext(ctx, "SELECT DISTINCT root FROM runs ORDER BY root")
	if err != nil {
		return nil, fmt.Errorf("failed to list roots: %w", err)
	}
	defer rows.Close()

	var roots []string
	for rows.Next() {
		var root string
		if err := rows.Scan(&root); err != nil {
			return nil, fmt.Errorf("failed to scan root: %w", err)
		}
		roots = append(roots, root)
	}

	return roots, rows.Err()
}

// GetRunByID retrieves a stored report by its run ID, or nil if there is none.
func (cdb *CacheDB) GetRunByID(ctx context.Context, id int64) (*model.Report, error) {
	var reportJSON string
	err := cdb.db.QueryRowContext(ctx, "SELECT report_json FROM runs WHERE id = ?", id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var report model.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
