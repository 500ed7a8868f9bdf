package cli

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/julianstephens/microhabit/internal/config"
	"github.com/julianstephens/microhabit/internal/keyring"
	"github.com/julianstephens/microhabit/internal/storage/postgres"
)

type KeyringCmd struct {
	Set    KeyringSetCmd    `cmd:"" help:"Store the remote store connection string in the OS keyring."`
	Delete KeyringDeleteCmd `cmd:"" help:"Remove the stored connection string."`
	Status KeyringStatusCmd `cmd:"" default:"1" help:"Show keyring availability and the stored connection string."`
}

// KeyringSetCmd stores the connection string used by the postgres and redis
// backends when storage.url is not set.
type KeyringSetCmd struct {
	ConnectionString string `arg:"" help:"PostgreSQL or Redis connection string."`
}

func (cmd *KeyringSetCmd) Run(ctx *Context) error {
	connStr := strings.TrimSpace(cmd.ConnectionString)

	switch {
	case strings.HasPrefix(connStr, "redis://") || strings.HasPrefix(connStr, "rediss://"):
		if _, err := url.Parse(connStr); err != nil {
			return fmt.Errorf("invalid connection string: %w", err)
		}
	case strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") || strings.Contains(connStr, "host="):
		if err := postgres.ValidateConnString(connStr); err != nil {
			if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return fmt.Errorf("invalid connection string: %w", err)
			}
			// The keyring is encrypted, so an embedded password is allowed here.
			fmt.Fprintln(ctx.Out, "⚠️  Warning: Connection string contains embedded credentials.")
			fmt.Fprintln(ctx.Out, "   It will be stored as-is in the OS keyring.")
			fmt.Fprintln(ctx.Out, "   To keep the password separate, set MICROHABIT_STORAGE_PASSWORD instead.")
		}
	default:
		return errors.New("connection string must be a PostgreSQL or Redis connection string")
	}

	if err := keyring.SetConnectionString(connStr); err != nil {
		return err
	}

	fmt.Fprintln(ctx.Out, "✓ Connection string stored successfully in OS keyring")
	if !ctx.Config.IsRemote() {
		fmt.Fprintf(ctx.Out, "  Set storage.backend to %s or %s to use it\n", config.BackendPostgres, config.BackendRedis)
	}
	return nil
}

type KeyringDeleteCmd struct{}

func (cmd *KeyringDeleteCmd) Run(ctx *Context) error {
	if err := keyring.DeleteConnectionString(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string found in keyring")
		}
		return err
	}

	fmt.Fprintln(ctx.Out, "✓ Connection string deleted from OS keyring")
	return nil
}

type KeyringStatusCmd struct{}

func (cmd *KeyringStatusCmd) Run(ctx *Context) error {
	if !keyringAvailable() {
		fmt.Fprintln(ctx.Out, "❌ OS keyring is not available on this system")
		return keyring.ErrKeyringUnavailable
	}
	fmt.Fprintln(ctx.Out, "✓ OS keyring is available")

	connStr, err := keyring.GetConnectionString()
	switch {
	case err == nil:
		fmt.Fprintf(ctx.Out, "✓ Connection string is stored in keyring: %s\n", maskPassword(connStr))
	case errors.Is(err, keyring.ErrNotFound):
		fmt.Fprintln(ctx.Out, "ℹ No connection string stored in keyring")
	default:
		return err
	}
	return nil
}

var keyringAvailable = keyring.IsAvailable

// maskPassword hides the password of a URL or key=value connection string.
func maskPassword(connStr string) string {
	if strings.Contains(connStr, "://") {
		u, err := url.Parse(connStr)
		if err != nil || u.User == nil {
			return connStr
		}
		if _, ok := u.User.Password(); !ok {
			return connStr
		}
		u.User = url.UserPassword(u.User.Username(), "****")
		s := u.String()
		return strings.Replace(s, "%2A%2A%2A%2A", "****", 1)
	}

	if strings.Contains(connStr, "password=") {
		parts := strings.Fields(connStr)
		for i, part := range parts {
			if strings.HasPrefix(part, "password=") {
				parts[i] = "password=****"
			}
		}
		return strings.Join(parts, " ")
	}
	return connStr
}
