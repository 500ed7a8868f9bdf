// Package backends maps the configured storage.backend name onto a concrete
// storage.Backend.
package backends

import (
	"fmt"

	"github.com/julianstephens/microhabit/internal/config"
	"github.com/julianstephens/microhabit/internal/logger"
	"github.com/julianstephens/microhabit/internal/storage"
	"github.com/julianstephens/microhabit/internal/storage/bolt"
	"github.com/julianstephens/microhabit/internal/storage/diskv"
	"github.com/julianstephens/microhabit/internal/storage/jsonfile"
	"github.com/julianstephens/microhabit/internal/storage/memory"
	"github.com/julianstephens/microhabit/internal/storage/postgres"
	"github.com/julianstephens/microhabit/internal/storage/redis"
	"github.com/julianstephens/microhabit/internal/storage/sqlite"
)

// New builds the backend selected by cfg. Remote backends resolve their
// connection string through cfg.ResolveURL.
func New(cfg *config.Config) (storage.Backend, error) {
	switch cfg.Storage.Backend {
	case config.BackendBolt:
		return bolt.NewStore(cfg.Storage.Path), nil
	case config.BackendSQLite:
		return sqlite.NewStore(cfg.Storage.Path), nil
	case config.BackendDiskv:
		return diskv.NewStore(cfg.Storage.Path), nil
	case config.BackendJSONFile:
		return jsonfile.NewStore(cfg.Storage.Path), nil
	case config.BackendMemory:
		return memory.NewStore(), nil
	case config.BackendPostgres:
		connStr, source, err := cfg.ResolveURL()
		if err != nil {
			return nil, err
		}
		// Passwords belong in the keyring or the environment, never in config.yaml.
		if source == config.URLSourceConfig {
			if err := postgres.ValidateConnString(connStr); err != nil {
				return nil, err
			}
		}
		logger.Debug("Using postgres backend", "source", source)
		return postgres.New(connStr, cfg.Storage.Password), nil
	case config.BackendRedis:
		url, source, err := cfg.ResolveURL()
		if err != nil {
			return nil, err
		}
		logger.Debug("Using redis backend", "source", source)
		return redis.New(url, cfg.Storage.Password), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// IsFileBacked reports whether the backend lives on the local filesystem and
// can therefore be watched for changes.
func IsFileBacked(name string) bool {
	switch name {
	case config.BackendBolt, config.BackendSQLite, config.BackendDiskv, config.BackendJSONFile:
		return true
	}
	return false
}
