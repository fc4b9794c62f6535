package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

var _ Store = (*SQLite)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS search_cache (
	key TEXT PRIMARY KEY,
	payload BLOB NOT NULL,
	stored_at INTEGER NOT NULL
);
`

// SQLite is a Store over a private in-memory SQLite database. The database
// lives exactly as long as the store: Close discards every entry.
type SQLite struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewSQLite opens a fresh in-memory database. A ttl <= 0 uses DefaultTTL.
func NewSQLite(ttl time.Duration) (*SQLite, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("cache: open sqlite: %w", err)
	}
	// Every pooled connection would see its own :memory: database.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache: create schema: %w", err)
	}

	return &SQLite{db: db, ttl: ttl, now: time.Now}, nil
}

// SetClock replaces the time source; used by tests.
func (s *SQLite) SetClock(now func() time.Time) {
	s.now = now
}

// Get returns the payload stored under key while it is fresh.
func (s *SQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		payload  []byte
		storedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, stored_at FROM search_cache WHERE key = ?`, key,
	).Scan(&payload, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: get %s: %w", key, err)
	}

	e := Entry{Key: key, Payload: payload, StoredAt: time.Unix(0, storedAt)}
	if !e.Fresh(s.now(), s.ttl) {
		return nil, false, nil
	}
	return e.Payload, true, nil
}

// Put upserts payload under key, stamped with the current time.
func (s *SQLite) Put(ctx context.Context, key string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO search_cache (key, payload, stored_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, stored_at = excluded.stored_at`,
		key, payload, s.now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("cache: put %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
