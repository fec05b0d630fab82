package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/phrazzld/librarian/internal/domain"
	"github.com/phrazzld/librarian/internal/store"
)

const schema = `CREATE TABLE IF NOT EXISTS snapshots (
	bucket   TEXT PRIMARY KEY,
	payload  BLOB NOT NULL,
	saved_at INTEGER NOT NULL
)`

const upsertSnapshotQuery = `INSERT INTO snapshots(bucket, payload, saved_at) VALUES(?, ?, ?)
	ON CONFLICT(bucket) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at`

// Snapshotter reads and writes bucketed snapshots.
type Snapshotter struct {
	db   *sql.DB
	path string
}

// Open creates the file and its parent directories when missing.
func Open(ctx context.Context, path string) (*Snapshotter, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: snapshot path is empty", domain.ErrInvalidArgument)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create snapshots table: %w", err)
	}
	return &Snapshotter{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Snapshotter) Path() string { return s.path }

func (s *Snapshotter) Close() error { return s.db.Close() }

// Ping checks that the database file is still usable.
func (s *Snapshotter) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Save replaces one bucket, stamping it with now.
func (s *Snapshotter) Save(ctx context.Context, bucket string, payload []byte, now time.Time) error {
	return s.SaveAll(ctx, map[string][]byte{bucket: payload}, now)
}

// SaveAll replaces every given bucket in one transaction, so a reader
// never sees half of a snapshot.
func (s *Snapshotter) SaveAll(ctx context.Context, buckets map[string][]byte, now time.Time) error {
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		for bucket, payload := range buckets {
			if _, err := tx.ExecContext(ctx, upsertSnapshotQuery, bucket, payload, now.UnixMilli()); err != nil {
				return fmt.Errorf("upsert %s: %w", bucket, err)
			}
		}
		return nil
	})
}

// Load returns one bucket, or domain.ErrNotFound when it was never saved.
func (s *Snapshotter) Load(ctx context.Context, bucket string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM snapshots WHERE bucket = ?`, bucket).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: snapshot %q", domain.ErrNotFound, bucket)
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", bucket, err)
	}
	return payload, nil
}

// LoadAll returns every saved bucket.
func (s *Snapshotter) LoadAll(ctx context.Context) (map[string][]byte, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT bucket, payload FROM snapshots`)
	if err != nil {
		return nil, fmt.Errorf("select snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string][]byte)
	for rows.Next() {
		var (
			bucket  string
			payload []byte
		)
		if err := rows.Scan(&bucket, &payload); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out[bucket] = payload
	}
	return out, rows.Err()
}

// SavedAt reports when bucket was last written.
func (s *Snapshotter) SavedAt(ctx context.Context, bucket string) (time.Time, error) {
	var millis int64
	err := s.db.QueryRowContext(ctx, `SELECT saved_at FROM snapshots WHERE bucket = ?`, bucket).Scan(&millis)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("%w: snapshot %q", domain.ErrNotFound, bucket)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("select %s: %w", bucket, err)
	}
	return time.UnixMilli(millis).UTC(), nil
}
