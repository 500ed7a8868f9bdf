package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	pq "github.com/lib/pq"

	"github.com/julianstephens/microhabit/internal/constants"
	"github.com/julianstephens/microhabit/internal/logger"
	"github.com/julianstephens/microhabit/internal/storage"
)

const tableName = "microhabit_kv"

type Store struct {
	connStr  string
	password string
	db       *sql.DB
	now      func() time.Time
}

var (
	ErrInvalidConnectionString = errors.New("invalid PostgreSQL connection string")
	ErrEmbeddedCredentials     = errors.New("connection string must not contain a password")
)

// New returns a store for connStr. The password, usually read from the OS
// keyring, is kept out of the connection string until the pool is opened.
func New(connStr, password string) *Store {
	s := &Store{
		connStr:  connStr,
		password: password,
		now:      time.Now,
	}
	s.ensureSearchPath()
	return s
}

func (s *Store) ensureSearchPath() {
	if isURL(s.connStr) {
		u, err := url.Parse(s.connStr)
		if err != nil {
			logger.Warn("Failed to parse Postgres connection string", "error", err)
			return
		}
		q := u.Query()
		if q.Get("search_path") == "" {
			q.Set("search_path", constants.AppName)
			u.RawQuery = q.Encode()
			s.connStr = u.String()
		}
	} else if !hasParam(s.connStr, "search_path") {
		s.connStr = strings.TrimSpace(s.connStr) + " search_path=" + constants.AppName
	}
}

func isURL(connStr string) bool {
	return strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://")
}

// hasParam reports whether a DSN-style connection string sets key
// (case-insensitive).
func hasParam(connStr, key string) bool {
	for _, part := range strings.Fields(connStr) {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) == 2 && strings.EqualFold(kv[0], key) {
			return true
		}
	}
	return false
}

// hasSSLMode checks URL and DSN forms for an sslmode parameter.
func hasSSLMode(connStr string) bool {
	if u, err := url.Parse(connStr); err == nil && u.Scheme != "" {
		for key := range u.Query() {
			if strings.EqualFold(key, "sslmode") {
				return true
			}
		}
	}
	return hasParam(connStr, "sslmode")
}

// HasEmbeddedCredentials reports whether connStr carries a password.
func HasEmbeddedCredentials(connStr string) bool {
	if isURL(connStr) {
		u, err := url.Parse(connStr)
		if err != nil {
			return false
		}
		_, set := u.User.Password()
		return set
	}
	return hasParam(connStr, "password")
}

// ValidateConnString checks that connStr is a usable URI or DSN and that it
// does not contain a password.
func ValidateConnString(connStr string) error {
	if strings.TrimSpace(connStr) == "" {
		return fmt.Errorf("%w: connection string cannot be empty", ErrInvalidConnectionString)
	}
	if _, err := pq.NewConnector(connStr); err != nil {
		return fmt.Errorf("%w: invalid connection string format: %v", ErrInvalidConnectionString, err)
	}
	if HasEmbeddedCredentials(connStr) {
		return ErrEmbeddedCredentials
	}
	if isURL(connStr) {
		u, err := url.Parse(connStr)
		if err != nil {
			return fmt.Errorf("%w: failed to parse connection URL: %v", ErrInvalidConnectionString, err)
		}
		if u.Host == "" && u.User == nil && (u.Path == "" || u.Path == "/") {
			return fmt.Errorf("%w: connection URL is incomplete", ErrInvalidConnectionString)
		}
	}
	return nil
}

// withPassword returns the connection string used to dial.
func (s *Store) withPassword() string {
	if s.password == "" {
		return s.connStr
	}
	if isURL(s.connStr) {
		u, err := url.Parse(s.connStr)
		if err != nil {
			return s.connStr
		}
		name := ""
		if u.User != nil {
			name = u.User.Username()
		}
		u.User = url.UserPassword(name, s.password)
		return u.String()
	}
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s.password)
	return s.connStr + " password='" + escaped + "'"
}

func (s *Store) connect(ctx context.Context) error {
	if s.db != nil {
		return nil
	}
	db, err := sql.Open("postgres", s.withPassword())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		if strings.Contains(err.Error(), "SSL is not enabled on the server") && !hasSSLMode(s.connStr) {
			return fmt.Errorf("failed to connect to database: %w (hint: try adding ?sslmode=disable to your connection string)", err)
		}
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	s.db = db
	return nil
}

func (s *Store) Init(ctx context.Context) error {
	if err := s.connect(ctx); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+constants.AppName); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS `+tableName+` (
			key        TEXT PRIMARY KEY,
			value      BYTEA NOT NULL,
			revision   TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

func (s *Store) Open(ctx context.Context) error {
	if err := s.connect(ctx); err != nil {
		return err
	}
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT to_regclass($1) IS NOT NULL`, constants.AppName+"."+tableName).Scan(&exists)
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

// Location hides credentials.
func (s *Store) Location() string {
	if isURL(s.connStr) {
		if u, err := url.Parse(s.connStr); err == nil {
			return u.Redacted()
		}
	}
	return "postgres"
}

func (s *Store) Read(ctx context.Context, keys []string) (map[string]storage.Item, error) {
	if s.db == nil {
		return nil, fmt.Errorf("storage not loaded")
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value, revision FROM `+tableName+` WHERE key = ANY($1)`, pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("failed to read keys: %w", err)
	}
	defer rows.Close()

	out := make(map[string]storage.Item, len(keys))
	for rows.Next() {
		var key string
		var item storage.Item
		if err := rows.Scan(&key, &item.Value, &item.Revision); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out[key] = item
	}
	return out, rows.Err()
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

	updatedAt := s.now().UTC()
	revisions := make(map[string]string, len(mutations))
	for _, m := range mutations {
		var current string
		err := tx.QueryRowContext(ctx,
			`SELECT revision FROM `+tableName+` WHERE key = $1 FOR UPDATE`, m.Key).Scan(&current)
		exists := true
		if errors.Is(err, sql.ErrNoRows) {
			exists = false
		} else if err != nil {
			return nil, fmt.Errorf("failed to lock %q: %w", m.Key, err)
		}
		if err := storage.CheckRevision(m, current, exists); err != nil {
			return nil, err
		}

		rev := storage.NewRevision()
		if !exists {
			// A concurrent insert of the same key cannot be locked by FOR UPDATE.
			res, err := tx.ExecContext(ctx, `
				INSERT INTO `+tableName+` (key, value, revision, updated_at)
				VALUES ($1, $2, $3, $4) ON CONFLICT (key) DO NOTHING`,
				m.Key, m.Value, rev, updatedAt)
			if err != nil {
				return nil, fmt.Errorf("failed to write %q: %w", m.Key, err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return nil, storage.ErrConflict
			}
		} else {
			_, err := tx.ExecContext(ctx, `
				UPDATE `+tableName+` SET value = $2, revision = $3, updated_at = $4 WHERE key = $1`,
				m.Key, m.Value, rev, updatedAt)
			if err != nil {
				return nil, fmt.Errorf("failed to write %q: %w", m.Key, err)
			}
		}
		revisions[m.Key] = rev
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return revisions, nil
}
