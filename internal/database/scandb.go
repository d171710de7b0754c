package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/vibesense/internal/model"
)

// FileName is the database file created inside the data directory.
const FileName = "vibesense.db"

// timestampLayout sorts lexicographically in UTC.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned when a requested scan does not exist.
var ErrNotFound = errors.New("scan not found")

// ScanDB provides SQLite-based storage for scan results.
type ScanDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures ScanDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
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

// Open opens or creates a ScanDB in dbDir.
// With CreateIfNotExists false a missing database is an error.
func Open(dbDir string, opts Options) (*ScanDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s: %w", dbPath, err)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a new file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &ScanDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Path returns the database file path.
func (sdb *ScanDB) Path() string {
	return sdb.dbPath
}

// Close closes the database connection.
func (sdb *ScanDB) Close() error {
	return sdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (sdb *ScanDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scan_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scan_id TEXT NOT NULL UNIQUE,
		page_url TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		tech_hint TEXT,
		backend TEXT,
		result_json TEXT NOT NULL,
		issue_summary TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_results_url ON scan_results(page_url);
	CREATE INDEX IF NOT EXISTS idx_results_timestamp ON scan_results(timestamp);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// Save stores a scan result. Saving the same scan ID twice is an error.
func (sdb *ScanDB) Save(ctx context.Context, result *model.ScanResult) error {
	if result == nil {
		return errors.New("scan result is nil")
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to serialize scan result: %w", err)
	}

	summaryJSON, err := json.Marshal(summarize(result))
	if err != nil {
		return fmt.Errorf("failed to serialize issue summary: %w", err)
	}

	scannedAt := result.ScannedAt
	if scannedAt.IsZero() {
		scannedAt = time.Now()
	}

	query := `
	INSERT INTO scan_results (scan_id, page_url, timestamp, tech_hint, backend, result_json, issue_summary)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = sdb.db.ExecContext(ctx, query,
		result.ID,
		result.PageURL,
		scannedAt.UTC().Format(timestampLayout),
		string(result.TechHint),
		string(result.Backend),
		string(resultJSON),
		string(summaryJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save scan result: %w", err)
	}

	return nil
}

// summarize counts issues per severity label. The placeholder is skipped.
func summarize(result *model.ScanResult) map[string]int {
	summary := map[string]int{
		"high":   0,
		"medium": 0,
		"low":    0,
	}
	for _, issue := range result.Issues {
		switch issue.Severity {
		case model.SeverityHigh:
			summary["high"]++
		case model.SeverityMedium:
			summary["medium"]++
		case model.SeverityLow:
			summary["low"]++
		case model.SeverityInfo:
		}
	}
	return summary
}

// Latest retrieves the most recent scan of a page.
func (sdb *ScanDB) Latest(ctx context.Context, pageURL string) (*model.ScanResult, error) {
	query := `
	SELECT result_json FROM scan_results
	WHERE page_url = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`

	var resultJSON string
	err := sdb.db.QueryRowContext(ctx, query, pageURL).Scan(&resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan result: %w", err)
	}

	return decodeResult(resultJSON)
}

// GetByID retrieves a scan by its scan ID.
func (sdb *ScanDB) GetByID(ctx context.Context, scanID string) (*model.ScanResult, error) {
	query := `
	SELECT result_json FROM scan_results
	WHERE scan_id = ?
	`

	var resultJSON string
	err := sdb.db.QueryRowContext(ctx, query, scanID).Scan(&resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan result: %w", err)
	}

	return decodeResult(resultJSON)
}

func decodeResult(resultJSON string) (*model.ScanResult, error) {
	var result model.ScanResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse scan result: %w", err)
	}
	return &result, nil
}

// ListPages returns every page URL with at least one stored scan.
func (sdb *ScanDB) ListPages(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT page_url FROM scan_results
	ORDER BY page_url
	`

	rows, err := sdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	pages := make([]string, 0)
	for rows.Next() {
		var page string
		if err := rows.Scan(&page); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		pages = append(pages, page)
	}

	return pages, rows.Err()
}

// ScanMetadata contains summary information about a stored scan.
// It is used for listing history without loading the full result.
type ScanMetadata struct {
	// ScanID is the scan's unique identifier.
	ScanID string

	// PageURL is the scanned page.
	PageURL string

	// Timestamp is when the scan was performed.
	Timestamp time.Time

	// TechHint is the detected styling approach.
	TechHint string

	// Backend is how the page was loaded.
	Backend string

	// IssueSummary contains issue counts by severity label.
	IssueSummary map[string]int
}

// History returns scan metadata for a page, newest first.
// A limit of zero or less returns every scan.
func (sdb *ScanDB) History(ctx context.Context, pageURL string, limit int) ([]ScanMetadata, error) {
	query := `
	SELECT scan_id, page_url, timestamp, tech_hint, backend, issue_summary
	FROM scan_results
	WHERE page_url = ?
	ORDER BY timestamp DESC, id DESC
	`
	args := []any{pageURL}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := sdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get scan history: %w", err)
	}
	defer rows.Close()

	results := make([]ScanMetadata, 0)
	for rows.Next() {
		var meta ScanMetadata
		var timestamp string
		var tech, backend, summaryJSON sql.NullString

		if err := rows.Scan(&meta.ScanID, &meta.PageURL, &timestamp, &tech, &backend, &summaryJSON); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.Timestamp = parseTimestamp(timestamp)
		meta.TechHint = tech.String
		meta.Backend = backend.String
		meta.IssueSummary = make(map[string]int)
		if summaryJSON.Valid && summaryJSON.String != "" {
			if err := json.Unmarshal([]byte(summaryJSON.String), &meta.IssueSummary); err != nil {
				meta.IssueSummary = make(map[string]int)
			}
		}

		results = append(results, meta)
	}

	return results, rows.Err()
}

// CountChange records how the element count of an issue type moved between
// two scans.
type CountChange struct {
	Type   model.IssueType
	Before int
	After  int
}

// Comparison describes the difference between two scans of one page.
type Comparison struct {
	// Previous and Current are the compared scans.
	Previous *model.ScanResult
	Current  *model.ScanResult

	// New lists issue types present only in Current.
	New []model.IssueType

	// Resolved lists issue types present only in Previous.
	Resolved []model.IssueType

	// Changed lists issue types present in both with a different count.
	Changed []CountChange
}

// Compare diffs two scan results by issue type. The general placeholder is
// ignored.
func Compare(previous, current *model.ScanResult) *Comparison {
	cmp := &Comparison{
		Previous: previous,
		Current:  current,
		New:      make([]model.IssueType, 0),
		Resolved: make([]model.IssueType, 0),
		Changed:  make([]CountChange, 0),
	}

	before := previous.Summary()
	after := current.Summary()

	for _, t := range model.AllIssueTypes {
		b, inBefore := before[t]
		a, inAfter := after[t]
		switch {
		case inAfter && !inBefore:
			cmp.New = append(cmp.New, t)
		case inBefore && !inAfter:
			cmp.Resolved = append(cmp.Resolved, t)
		case inBefore && inAfter && a != b:
			cmp.Changed = append(cmp.Changed, CountChange{Type: t, Before: b, After: a})
		}
	}

	return cmp
}

// CompareLatest compares the two most recent scans of a page.
// It returns ErrNotFound when fewer than two scans are stored.
func (sdb *ScanDB) CompareLatest(ctx context.Context, pageURL string) (*Comparison, error) {
	history, err := sdb.History(ctx, pageURL, 2)
	if err != nil {
		return nil, err
	}
	if len(history) < 2 {
		return nil, fmt.Errorf("need two scans of %s to compare: %w", pageURL, ErrNotFound)
	}

	current, err := sdb.GetByID(ctx, history[0].ScanID)
	if err != nil {
		return nil, err
	}
	previous, err := sdb.GetByID(ctx, history[1].ScanID)
	if err != nil {
		return nil, err
	}

	return Compare(previous, current), nil
}

// HasChanges reports whether the comparison found any difference.
func (c *Comparison) HasChanges() bool {
	return len(c.New) > 0 || len(c.Resolved) > 0 || len(c.Changed) > 0
}

// Regressed reports whether an issue type appeared or got worse.
func (c *Comparison) Regressed() bool {
	return len(c.New) > 0 || slices.ContainsFunc(c.Changed, func(ch CountChange) bool {
		return ch.After > ch.Before
	})
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05", // SQLite default datetime format
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
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
