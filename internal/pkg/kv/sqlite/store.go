// Package sqlite provides a SQLite-backed kv.Store.
//
// WAL mode is enabled on Open so that a reader (the KOT screen polling the
// order list) never blocks the writer that saves a checkout.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jcmexdev/club-pos/internal/pkg/kv"

	// Pure-Go driver, no CGO needed for the alpine image.
	_ "modernc.org/sqlite"
)

// One row per key. A value is always replaced with a single UPSERT so readers
// see either the old blob or the new one.
const schema = `
CREATE TABLE IF NOT EXISTS kv_entries (
    key         TEXT PRIMARY KEY,
    value       BLOB NOT NULL,
    -- RFC3339 expiry, empty when the key never expires.
    expires_at  TEXT NOT NULL DEFAULT '',
    updated_at  TEXT NOT NULL
);
`

const timeLayout = "2006-01-02T15:04:05.999999999Z"

type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ kv.Store = (*Store)(nil)

// Open opens (or creates) the database at path and applies the schema.
//
//	store, err := sqlite.Open("./data/pos.db")
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database handle; used by the readiness check.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	const q = `
		INSERT INTO kv_entries (key, value, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`

	now := s.now().UTC()
	expires := ""
	if ttl > 0 {
		expires = now.Add(ttl).Format(timeLayout)
	}
	if value == nil {
		value = []byte{}
	}
	if _, err := s.db.ExecContext(ctx, q, key, value, expires, now.Format(timeLayout)); err != nil {
		return fmt.Errorf("sqlite: set %q: %w", key, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	const q = `SELECT value, expires_at FROM kv_entries WHERE key = ?`

	var (
		value   []byte
		expires string
	)
	err := s.db.QueryRowContext(ctx, q, key).Scan(&value, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get %q: %w", key, err)
	}

	if expires != "" {
		at, err := time.Parse(time.RFC3339Nano, expires)
		if err != nil {
			return nil, fmt.Errorf("sqlite: parse expiry of %q: %w", key, err)
		}
		if !s.now().Before(at) {
			_ = s.Delete(ctx, key)
			return nil, nil
		}
	}
	return value, nil
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	q := `DELETE FROM kv_entries WHERE key IN (` + placeholders + `)`
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("sqlite: delete %v: %w", keys, err)
	}
	return nil
}
