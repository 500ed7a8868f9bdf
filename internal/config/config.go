// Package config resolves runtime settings from, in increasing precedence,
// defaults, config.yaml, the environment (optionally seeded from .env) and
// command line overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/julianstephens/microhabit/internal/constants"
	"github.com/julianstephens/microhabit/internal/keyring"
	"github.com/julianstephens/microhabit/internal/utils"
)

const (
	BackendBolt     = "bolt"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendDiskv    = "diskv"
	BackendJSONFile = "jsonfile"
	BackendMemory   = "memory"

	NotifyTray   = "tray"
	NotifyLog    = "log"
	NotifyStdout = "stdout"

	PollStrict  = "strict"
	PollCatchUp = "catch-up"
)

// ErrNoConnectionString means a remote backend has neither storage.url nor a
// keyring entry.
var ErrNoConnectionString = errors.New("no connection string")

var Backends = []string{BackendBolt, BackendSQLite, BackendPostgres, BackendRedis, BackendDiskv, BackendJSONFile, BackendMemory}

type Config struct {
	ConfigDir string
	// ConfigFile is the config file that was read, if any.
	ConfigFile string
	Debug      bool
	Timezone   string
	Storage    StorageConfig
	Poll       PollConfig
	Notify     NotifyConfig
}

type StorageConfig struct {
	Backend string
	Path    string
	URL     string
	// Password is only ever read from the environment.
	Password string
}

type PollConfig struct {
	Interval time.Duration
	Mode     string
}

type NotifyConfig struct {
	Backend string
	NewDay  bool
}

// Overrides are command line values; zero values leave the resolved
// setting alone.
type Overrides struct {
	Backend  string
	Path     string
	URL      string
	Timezone string
	Debug    bool
}

// Load resolves the configuration rooted at configDir. configFile, when set,
// is read instead of searching for config.yaml.
func Load(configDir, configFile string) (*Config, error) {
	dir, err := ExpandHome(configDir)
	if err != nil {
		return nil, err
	}

	// .env files seed the environment but never override it.
	_ = godotenv.Load(filepath.Join(dir, ".env"))
	_ = godotenv.Load(".env")

	v := viper.New()
	v.SetDefault("debug", false)
	v.SetDefault("timezone", "Local")
	v.SetDefault("storage.backend", constants.DefaultBackend)
	v.SetDefault("storage.path", "")
	v.SetDefault("storage.url", "")
	v.SetDefault("storage.password", "")
	v.SetDefault("poll.interval", "1m")
	v.SetDefault("poll.mode", PollStrict)
	v.SetDefault("notify.backend", NotifyTray)
	v.SetDefault("notify.new_day", true)

	v.SetEnvPrefix(strings.ToUpper(constants.AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		path, err := ExpandHome(configFile)
		if err != nil {
			return nil, err
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		v.AddConfigPath("./")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		ConfigDir:  dir,
		ConfigFile: v.ConfigFileUsed(),
		Debug:      v.GetBool("debug"),
		Timezone:   v.GetString("timezone"),
		Storage: StorageConfig{
			Backend:  strings.ToLower(v.GetString("storage.backend")),
			Path:     v.GetString("storage.path"),
			URL:      v.GetString("storage.url"),
			Password: os.Getenv(strings.ToUpper(constants.AppName) + "_STORAGE_PASSWORD"),
		},
		Poll: PollConfig{
			Interval: v.GetDuration("poll.interval"),
			Mode:     v.GetString("poll.mode"),
		},
		Notify: NotifyConfig{
			Backend: strings.ToLower(v.GetString("notify.backend")),
			NewDay:  v.GetBool("notify.new_day"),
		},
	}
	return cfg, nil
}

// Apply layers command line overrides on top of the loaded configuration.
func (c *Config) Apply(o Overrides) {
	if o.Backend != "" {
		c.Storage.Backend = strings.ToLower(o.Backend)
	}
	if o.Path != "" {
		c.Storage.Path = o.Path
	}
	if o.URL != "" {
		c.Storage.URL = o.URL
	}
	if o.Timezone != "" {
		c.Timezone = o.Timezone
	}
	if o.Debug {
		c.Debug = true
	}
}

// Finalize fills derived defaults and validates the result.
func (c *Config) Finalize() error {
	if c.Storage.Path == "" {
		c.Storage.Path = DefaultStorePath(c.ConfigDir, c.Storage.Backend)
	} else {
		p, err := ExpandHome(c.Storage.Path)
		if err != nil {
			return err
		}
		c.Storage.Path = p
	}
	return c.Validate()
}

func (c *Config) Validate() error {
	if !isOneOf(c.Storage.Backend, Backends...) {
		return fmt.Errorf("unknown storage backend %q (expected one of %s)", c.Storage.Backend, strings.Join(Backends, ", "))
	}
	if !isOneOf(c.Notify.Backend, NotifyTray, NotifyLog, NotifyStdout) {
		return fmt.Errorf("unknown notify backend %q (expected tray, log or stdout)", c.Notify.Backend)
	}
	if !isOneOf(c.Poll.Mode, PollStrict, PollCatchUp) {
		return fmt.Errorf("unknown poll mode %q (expected strict or catch-up)", c.Poll.Mode)
	}
	// Reminders match on whole clock minutes.
	if c.Poll.Interval < time.Minute || c.Poll.Interval%time.Minute != 0 {
		return fmt.Errorf("poll interval %s must be a whole number of minutes", c.Poll.Interval)
	}
	if !utils.ValidateTimezone(c.Timezone) {
		return fmt.Errorf("invalid timezone %q", c.Timezone)
	}
	return nil
}

// WriteFile saves the resolved settings as YAML. The storage password and
// connection URL are never written.
func (c *Config) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	v := viper.New()
	v.Set("debug", c.Debug)
	v.Set("timezone", c.Timezone)
	v.Set("storage.backend", c.Storage.Backend)
	if !c.IsRemote() && c.Storage.Path != DefaultStorePath(c.ConfigDir, c.Storage.Backend) {
		v.Set("storage.path", c.Storage.Path)
	}
	v.Set("poll.interval", c.Poll.Interval.String())
	v.Set("poll.mode", c.Poll.Mode)
	v.Set("notify.backend", c.Notify.Backend)
	v.Set("notify.new_day", c.Notify.NewDay)
	if err := v.WriteConfigAs(path); err != nil {
		return err
	}
	c.ConfigFile = path
	return nil
}

// IsRemote reports whether the configured backend is reached over the network.
func (c *Config) IsRemote() bool {
	return c.Storage.Backend == BackendPostgres || c.Storage.Backend == BackendRedis
}

// URLSource describes where a remote connection string came from.
type URLSource string

const (
	URLSourceConfig  URLSource = "config"
	URLSourceKeyring URLSource = "keyring"
)

var getConnectionString = keyring.GetConnectionString

// ResolveURL returns the connection string for a remote backend. An explicit
// storage.url wins; otherwise the OS keyring is consulted.
func (c *Config) ResolveURL() (string, URLSource, error) {
	if c.Storage.URL != "" {
		return c.Storage.URL, URLSourceConfig, nil
	}
	connStr, err := getConnectionString()
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", "", fmt.Errorf("%w for %s backend: set storage.url or run 'microhabit keyring set'", ErrNoConnectionString, c.Storage.Backend)
		}
		return "", "", err
	}
	return connStr, URLSourceKeyring, nil
}

// DefaultStorePath is where a file-backed store lives when no path is set.
func DefaultStorePath(configDir, backend string) string {
	switch backend {
	case BackendSQLite:
		return filepath.Join(configDir, constants.AppName+".sqlite")
	case BackendJSONFile:
		return filepath.Join(configDir, constants.AppName+".json")
	case BackendDiskv:
		return filepath.Join(configDir, "data")
	default:
		return filepath.Join(configDir, constants.AppName+".db")
	}
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

func isOneOf(s string, options ...string) bool {
	for _, o := range options {
		if s == o {
			return true
		}
	}
	return false
}
