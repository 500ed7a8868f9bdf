package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/microhabit/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	revision   TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

type Store struct {
	path string
	db   *sql.DB
	now  func() time.Time
}

func NewStore(path string) *Store {
	return &Store{
		path: path,
		now:  time.Now,
	}
}

// dsn asks for immediate transactions so a read-then-write never has to
// upgrade its lock, and waits on a busy database instead of failing.
func (s *Store) dsn() string {
	return s.path + "?_pragma=busy_timeout(5000)&_txlock=immediate"
}

func (s *Store) Init(ctx context.Context) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if s.db == nil {
		db, err := sql.Open("sqlite", s.dsn())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		s.db = db
	}

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *Store) Open(ctx context.Context) error {
	if s.db != nil {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return storage.ErrNotInitialized
	}

	db, err := sql.Open("sqlite", s.dsn())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	exists, err := s.tableExists(ctx, "kv")
	if err != nil {
		return fmt.Errorf("failed to inspect database: %w", err)
	}
	if !exists {
		return storage.ErrNotInitialized
	}
	return nil
}

func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *Store) Location() string {
	return s.path
}

// tableExists checks if a table exists in the SQLite database.
// The check is case-insensitive to match SQLite's behavior.
func (s *Store) tableExists(ctx context.Context, tableName string) (bool, error) {
	var count int
	row := s.db.QueryRowContext(ctx, "SELECT count(*) FROM sqlite_master WHERE type='table' AND name COLLATE NOCASE = ?", tableName)
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) Read(ctx context.Context, keys []string) (map[string]storage.Item, error) {
	if s.db == nil {
		return nil, fmt.Errorf("storage not loaded")
	}

	out := make(map[string]storage.Item, len(keys))
	for _, k := range keys {
		var item storage.Item
		err := s.db.QueryRowContext(ctx, `SELECT value, revision FROM kv WHERE key = ?`, k).
			Scan(&item.Value, &item.Revision)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %q: %w", k, err)
		}
		out[k] = item
	}
	return out, nil
}

func (s *Store) Write(ctx context.Context, mutations []storage.Mutation) (map[string]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("storage not loaded")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, m := range mutations {
		var current string
		err := tx.QueryRowContext(ctx, `SELECT revision FROM kv WHERE key = ?`, m.Key).Scan(&current)
		exists := true
		if err == sql.ErrNoRows {
			exists = false
		} else if err != nil {
			return nil, fmt.Errorf("failed to read revision for %q: %w", m.Key, err)
		}
		if err := storage.CheckRevision(m, current, exists); err != nil {
			return nil, err
		}
	}

	updatedAt := s.now().UTC().Format(time.RFC3339)
	revisions := make(map[string]string, len(mutations))
	for _, m := range mutations {
		rev := storage.NewRevision()
		_, err := tx.ExecContext(ctx, `
			INSERT INTO kv (key, value, revision, updated_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				value = excluded.value,
				revision = excluded.revision,
				updated_at = excluded.updated_at
		`, m.Key, m.Value, rev, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to write %q: %w", m.Key, err)
		}
		revisions[m.Key] = rev
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return revisions, nil
}

// DB returns the underlying database connection.
// Returns nil if the database has not been initialized or loaded.
func (s *Store) DB() *sql.DB {
	return s.db
}
