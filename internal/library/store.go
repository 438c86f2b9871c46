package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"ludex/internal/scanner"
	"ludex/internal/services"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const schema = `
CREATE TABLE IF NOT EXISTS games (
    id TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    title TEXT NOT NULL,
    install_path TEXT NOT NULL DEFAULT '',
    exe_path TEXT NOT NULL DEFAULT '',
    app_id TEXT NOT NULL DEFAULT '',
    provider TEXT NOT NULL DEFAULT '',
    provider_id TEXT NOT NULL DEFAULT '',
    confidence REAL NOT NULL DEFAULT 0,
    summary TEXT NOT NULL DEFAULT '',
    genres_json TEXT NOT NULL DEFAULT '',
    developers_json TEXT NOT NULL DEFAULT '',
    publishers_json TEXT NOT NULL DEFAULT '',
    release_date TEXT NOT NULL DEFAULT '',
    website TEXT NOT NULL DEFAULT '',
    rating REAL NOT NULL DEFAULT 0,
    cover_url TEXT NOT NULL DEFAULT '',
    hero_url TEXT NOT NULL DEFAULT '',
    screenshots_json TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    UNIQUE (source, install_path)
);
CREATE INDEX IF NOT EXISTS idx_games_status ON games(status);
`

// Store manages library persistence backed by SQLite. A sibling .lock file
// guards against concurrent processes sharing the database.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open initializes or connects to the library database at dbPath.
func Open(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, errors.New("library database path required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create library directory: %w", err)
	}

	lock := flock.New(dbPath + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire library lock: %w", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrPermission, "library", "open", "database locked by another process", nil)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: dbPath, lock: lock}, nil
}

// Close releases the database and the process lock.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	if s.lock != nil {
		if unlockErr := s.lock.Unlock(); err == nil {
			err = unlockErr
		}
	}
	return err
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

const recordColumns = "id, source, title, install_path, exe_path, app_id, provider, provider_id, confidence, summary, genres_json, developers_json, publishers_json, release_date, website, rating, cover_url, hero_url, screenshots_json, status, created_at, updated_at"

// Upsert inserts or refreshes a record. Records are keyed by their install
// location, so re-scanning the same game updates in place and keeps the
// original id and creation time.
func (s *Store) Upsert(ctx context.Context, record *GameRecord) error {
	if record == nil {
		return errors.New("record must not be nil")
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	return s.execWithRetry(ctx,
		`INSERT INTO games (`+recordColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT (source, install_path) DO UPDATE SET
            title = excluded.title,
            exe_path = excluded.exe_path,
            app_id = excluded.app_id,
            provider = excluded.provider,
            provider_id = excluded.provider_id,
            confidence = excluded.confidence,
            summary = excluded.summary,
            genres_json = excluded.genres_json,
            developers_json = excluded.developers_json,
            publishers_json = excluded.publishers_json,
            release_date = excluded.release_date,
            website = excluded.website,
            rating = excluded.rating,
            cover_url = excluded.cover_url,
            hero_url = excluded.hero_url,
            screenshots_json = excluded.screenshots_json,
            status = excluded.status,
            updated_at = excluded.updated_at`,
		record.ID,
		string(record.Source),
		record.Title,
		record.InstallPath,
		record.ExePath,
		record.AppID,
		record.Provider,
		record.ProviderID,
		record.Confidence,
		record.Summary,
		marshalStrings(record.Genres),
		marshalStrings(record.Developers),
		marshalStrings(record.Publishers),
		record.ReleaseDate,
		record.Website,
		record.Rating,
		record.CoverURL,
		record.HeroURL,
		marshalStrings(record.Screenshots),
		string(record.Status),
		record.CreatedAt.Format(time.RFC3339Nano),
		record.UpdatedAt.Format(time.RFC3339Nano),
	)
}

// Get fetches a record by id.
func (s *Store) Get(ctx context.Context, id string) (*GameRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM games WHERE id = ?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return record, err
}

// List returns all records ordered by title.
func (s *Store) List(ctx context.Context) ([]*GameRecord, error) {
	return s.query(ctx, `SELECT `+recordColumns+` FROM games ORDER BY title COLLATE NOCASE`)
}

// Unresolved returns records that never reached the ready state and still
// need matching or metadata.
func (s *Store) Unresolved(ctx context.Context) ([]*GameRecord, error) {
	return s.query(ctx,
		`SELECT `+recordColumns+` FROM games WHERE status != ? ORDER BY title COLLATE NOCASE`,
		string(scanner.StatusReady))
}

// Delete removes a record by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.execWithRetry(ctx, `DELETE FROM games WHERE id = ?`, id)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]*GameRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	var records []*GameRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanRecord(row interface{ Scan(dest ...any) error }) (*GameRecord, error) {
	var (
		record      GameRecord
		source      string
		status      string
		genres      string
		developers  string
		publishers  string
		screenshots string
		createdRaw  string
		updatedRaw  string
	)
	if err := row.Scan(
		&record.ID,
		&source,
		&record.Title,
		&record.InstallPath,
		&record.ExePath,
		&record.AppID,
		&record.Provider,
		&record.ProviderID,
		&record.Confidence,
		&record.Summary,
		&genres,
		&developers,
		&publishers,
		&record.ReleaseDate,
		&record.Website,
		&record.Rating,
		&record.CoverURL,
		&record.HeroURL,
		&screenshots,
		&status,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	record.Source = scanner.Source(source)
	record.Status = scanner.Status(status)
	record.Genres = unmarshalStrings(genres)
	record.Developers = unmarshalStrings(developers)
	record.Publishers = unmarshalStrings(publishers)
	record.Screenshots = unmarshalStrings(screenshots)
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		record.CreatedAt = created
	}
	if updated, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
		record.UpdatedAt = updated
	}
	return &record, nil
}

func marshalStrings(values []string) string {
	if len(values) == 0 {
		return ""
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return ""
	}
	return string(raw)
}

func unmarshalStrings(raw string) []string {
	if raw == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil
	}
	return values
}
