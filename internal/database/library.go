package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/noxpand/retile/internal/model"
)

// LibraryDB stores the local library in a single SQLite file. One file
// covers every account and issue; the issue id is globally unique on the
// storefront side.
type LibraryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures LibraryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file and its directory.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the library database at dbPath.
func Open(dbPath string, opts Options) (*LibraryDB, error) {
	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("library database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// modernc.org/sqlite uses mode=rw to reject missing files and
	// mode=rwc to allow creation.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite supports a single writer; keep the pool at one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ldb := &LibraryDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	if err := ldb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return ldb, nil
}

// Close closes the database connection.
func (ldb *LibraryDB) Close() error {
	return ldb.db.Close()
}

// createTables creates the schema if it doesn't exist.
func (ldb *LibraryDB) createTables() error {
	schema := `
	-- Exported issues, one row per issue and format
	CREATE TABLE IF NOT EXISTS exports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		issue_id TEXT NOT NULL,
		title TEXT NOT NULL,
		format TEXT NOT NULL,
		path TEXT NOT NULL,
		pages INTEGER NOT NULL,
		exported_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(issue_id, format)
	);

	CREATE INDEX IF NOT EXISTS idx_exports_issue ON exports(issue_id);

	-- Per-page plaintext digests, for verification and resume checks
	CREATE TABLE IF NOT EXISTS page_digests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		issue_id TEXT NOT NULL,
		page INTEGER NOT NULL,
		digest TEXT NOT NULL,
		UNIQUE(issue_id, page)
	);

	-- Run summaries, as JSON, for history inspection
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		issue_id TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		summary_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_issue ON runs(issue_id);
	`

	_, err := ldb.db.ExecContext(context.Background(), schema)
	return err
}

// ExportRecord is one exported issue archive.
type ExportRecord struct {
	IssueID    string
	Title      string
	Format     string
	Path       string
	Pages      int
	ExportedAt time.Time
}

// RecordExport inserts or updates the export row for an issue/format pair.
func (ldb *LibraryDB) RecordExport(ctx context.Context, rec *ExportRecord) error {
	query := `
	INSERT INTO exports (issue_id, title, format, path, pages)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(issue_id, format) DO UPDATE SET
		title = excluded.title,
		path = excluded.path,
		pages = excluded.pages,
		exported_at = CURRENT_TIMESTAMP
	`
	if _, err := ldb.db.ExecContext(ctx, query,
		rec.IssueID, rec.Title, rec.Format, rec.Path, rec.Pages,
	); err != nil {
		return fmt.Errorf("record export: %w", err)
	}
	return nil
}

// IsExported reports whether an issue was already exported in the format.
func (ldb *LibraryDB) IsExported(ctx context.Context, issueID, format string) (bool, error) {
	var count int
	err := ldb.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM exports WHERE issue_id = ? AND format = ?",
		issueID, format,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("query export: %w", err)
	}
	return count > 0, nil
}

// ListExports returns every export, newest first.
func (ldb *LibraryDB) ListExports(ctx context.Context) ([]ExportRecord, error) {
	rows, err := ldb.db.QueryContext(ctx, `
	SELECT issue_id, title, format, path, pages, exported_at
	FROM exports ORDER BY exported_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	defer rows.Close()

	var out []ExportRecord
	for rows.Next() {
		var rec ExportRecord
		var ts string
		if err := rows.Scan(&rec.IssueID, &rec.Title, &rec.Format, &rec.Path, &rec.Pages, &ts); err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		rec.ExportedAt = parseTimestamp(ts)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ExportedIssueIDs returns the set of issue ids with at least one export.
func (ldb *LibraryDB) ExportedIssueIDs(ctx context.Context) (map[string]bool, error) {
	rows, err := ldb.db.QueryContext(ctx, "SELECT DISTINCT issue_id FROM exports")
	if err != nil {
		return nil, fmt.Errorf("list exported ids: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan issue id: %w", err)
		}
		out[id] = true
	}
	return out, rows.Err()
}

// RecordPageDigest upserts the plaintext digest of one page.
func (ldb *LibraryDB) RecordPageDigest(ctx context.Context, issueID string, page int, digest string) error {
	query := `
	INSERT INTO page_digests (issue_id, page, digest)
	VALUES (?, ?, ?)
	ON CONFLICT(issue_id, page) DO UPDATE SET digest = excluded.digest
	`
	if _, err := ldb.db.ExecContext(ctx, query, issueID, page, digest); err != nil {
		return fmt.Errorf("record page digest: %w", err)
	}
	return nil
}

// PageDigests returns the recorded digests for an issue, keyed by page.
func (ldb *LibraryDB) PageDigests(ctx context.Context, issueID string) (map[int]string, error) {
	rows, err := ldb.db.QueryContext(ctx,
		"SELECT page, digest FROM page_digests WHERE issue_id = ?", issueID)
	if err != nil {
		return nil, fmt.Errorf("query page digests: %w", err)
	}
	defer rows.Close()

	out := make(map[int]string)
	for rows.Next() {
		var page int
		var digest string
		if err := rows.Scan(&page, &digest); err != nil {
			return nil, fmt.Errorf("scan page digest: %w", err)
		}
		out[page] = digest
	}
	return out, rows.Err()
}

// SaveRunSummary appends one run summary to the history.
func (ldb *LibraryDB) SaveRunSummary(ctx context.Context, summary *model.RunSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("serialize run summary: %w", err)
	}
	if _, err := ldb.db.ExecContext(ctx,
		"INSERT INTO runs (issue_id, summary_json) VALUES (?, ?)",
		summary.IssueID, string(data),
	); err != nil {
		return fmt.Errorf("save run summary: %w", err)
	}
	return nil
}

// RunHistory returns an issue's run summaries, newest first.
func (ldb *LibraryDB) RunHistory(ctx context.Context, issueID string) ([]*model.RunSummary, error) {
	rows, err := ldb.db.QueryContext(ctx,
		"SELECT summary_json FROM runs WHERE issue_id = ? ORDER BY timestamp DESC, id DESC",
		issueID)
	if err != nil {
		return nil, fmt.Errorf("query run history: %w", err)
	}
	defer rows.Close()

	var out []*model.RunSummary
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan run summary: %w", err)
		}
		var summary model.RunSummary
		if err := json.Unmarshal([]byte(data), &summary); err != nil {
			return nil, fmt.Errorf("parse run summary: %w", err)
		}
		out = append(out, &summary)
	}
	return out, rows.Err()
}

// GetExport returns the export record for an issue/format pair, or nil
// when none exists.
func (ldb *LibraryDB) GetExport(ctx context.Context, issueID, format string) (*ExportRecord, error) {
	var rec ExportRecord
	var ts string
	err := ldb.db.QueryRowContext(ctx, `
	SELECT issue_id, title, format, path, pages, exported_at
	FROM exports WHERE issue_id = ? AND format = ?`,
		issueID, format,
	).Scan(&rec.IssueID, &rec.Title, &rec.Format, &rec.Path, &rec.Pages, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get export: %w", err)
	}
	rec.ExportedAt = parseTimestamp(ts)
	return &rec, nil
}

// timestampFormats are the formats SQLite may hand back depending on
// version and configuration.
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999",
}

// parseTimestamp tries each known SQLite timestamp format, returning the
// zero time when none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
