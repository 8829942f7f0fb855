package attempts

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps records in a SQLite table so every process on the host
// shares the same counts.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and ensures the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		path = "data/attempts.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the sweep run alongside request lookups; the busy timeout makes
	// writers from other processes wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(1)
	s := &SQLiteStore{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS login_attempts (
    address TEXT PRIMARY KEY,
    count INTEGER NOT NULL,
    last_attempt INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_login_attempts_last ON login_attempts(last_attempt);
`)
	return err
}

func (s *SQLiteStore) Get(key string) (Record, bool, error) {
	var count int
	var last int64
	err := s.db.QueryRow(`SELECT count, last_attempt FROM login_attempts WHERE address = ?`, key).Scan(&count, &last)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return Record{Count: count, LastAttempt: time.Unix(0, last)}, true, nil
}

func (s *SQLiteStore) Set(key string, rec Record) error {
	_, err := s.db.Exec(`INSERT INTO login_attempts (address, count, last_attempt) VALUES (?, ?, ?)
ON CONFLICT(address) DO UPDATE SET count = excluded.count, last_attempt = excluded.last_attempt`,
		key, rec.Count, rec.LastAttempt.UnixNano())
	return err
}

func (s *SQLiteStore) Hit(key string, now, cutoff time.Time, limit int) (Record, error) {
	var count int
	var last int64
	err := s.db.QueryRow(`INSERT INTO login_attempts (address, count, last_attempt) VALUES (?1, 1, ?2)
ON CONFLICT(address) DO UPDATE SET
    count = CASE WHEN login_attempts.last_attempt <= ?3 THEN 1 ELSE login_attempts.count + 1 END,
    last_attempt = CASE WHEN login_attempts.last_attempt <= ?3 OR login_attempts.count < ?4
        THEN excluded.last_attempt ELSE login_attempts.last_attempt END
RETURNING count, last_attempt`,
		key, now.UnixNano(), cutoff.UnixNano(), limit).Scan(&count, &last)
	if err != nil {
		return Record{}, err
	}
	return Record{Count: count, LastAttempt: time.Unix(0, last)}, nil
}

func (s *SQLiteStore) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM login_attempts WHERE address = ?`, key)
	return err
}

func (s *SQLiteStore) Sweep(cutoff time.Time) (int, error) {
	res, err := s.db.Exec(`DELETE FROM login_attempts WHERE last_attempt < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
