package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists snapshots so a scoring agent restarted between round 1
// and round 2 still finds its baseline. Session keys must then be stable
// identifiers carried in the messages, not connection handles.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	key        TEXT PRIMARY KEY,
	snapshot   TEXT NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
`

// NewSQLiteStore opens (creating if needed) a session database at path.
func NewSQLiteStore(path string, ttl time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening session db: %w", err)
	}
	// Single writer keeps the TTL sweep simple.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing session schema: %w", err)
	}

	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &SQLiteStore{db: db, ttl: ttl}, nil
}

// Put stores a snapshot, replacing any previous one for the key.
func (s *SQLiteStore) Put(key string, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	expires := time.Now().Add(s.ttl).Unix()
	_, err = s.db.Exec(
		`INSERT INTO sessions(key, snapshot, expires_at) VALUES(?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET snapshot = excluded.snapshot, expires_at = excluded.expires_at`,
		key, string(data), expires,
	)
	if err != nil {
		return fmt.Errorf("storing session %s: %w", key, err)
	}
	return nil
}

// Get retrieves a snapshot. Expired or missing sessions report a miss.
func (s *SQLiteStore) Get(key string) (*Snapshot, bool) {
	var data string
	var expires int64
	err := s.db.QueryRow(`SELECT snapshot, expires_at FROM sessions WHERE key = ?`, key).Scan(&data, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		return nil, false
	}
	if time.Now().Unix() > expires {
		s.Clear(key)
		return nil, false
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, false
	}
	return &snap, true
}

// Clear removes a session.
func (s *SQLiteStore) Clear(key string) {
	_, _ = s.db.Exec(`DELETE FROM sessions WHERE key = ?`, key)
}

// Sweep removes all expired sessions and returns how many were deleted.
func (s *SQLiteStore) Sweep() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM sessions WHERE expires_at < ?`, time.Now().Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
