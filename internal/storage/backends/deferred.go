package backends

import (
	"context"
	"fmt"
	"sync"

	"github.com/julianstephens/microhabit/internal/config"
	"github.com/julianstephens/microhabit/internal/storage"
)

// Deferred builds the configured backend on first use. Commands that never
// touch the store (keyring, most of doctor) run even when a remote backend has
// no connection string yet.
type Deferred struct {
	cfg *config.Config

	mu      sync.Mutex
	backend storage.Backend
}

func NewDeferred(cfg *config.Config) *Deferred {
	return &Deferred{cfg: cfg}
}

// Resolve returns the underlying backend, building it if needed. A failed
// build is retried on the next call.
func (d *Deferred) Resolve() (storage.Backend, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.backend != nil {
		return d.backend, nil
	}
	b, err := New(d.cfg)
	if err != nil {
		return nil, err
	}
	d.backend = b
	return b, nil
}

func (d *Deferred) Init(ctx context.Context) error {
	b, err := d.Resolve()
	if err != nil {
		return err
	}
	return b.Init(ctx)
}

func (d *Deferred) Open(ctx context.Context) error {
	b, err := d.Resolve()
	if err != nil {
		return err
	}
	return b.Open(ctx)
}

// Close only closes a backend that was actually built.
func (d *Deferred) Close() error {
	d.mu.Lock()
	b := d.backend
	d.mu.Unlock()
	if b == nil {
		return nil
	}
	return b.Close()
}

func (d *Deferred) Read(ctx context.Context, keys []string) (map[string]storage.Item, error) {
	b, err := d.Resolve()
	if err != nil {
		return nil, err
	}
	return b.Read(ctx, keys)
}

func (d *Deferred) Write(ctx context.Context, mutations []storage.Mutation) (map[string]string, error) {
	b, err := d.Resolve()
	if err != nil {
		return nil, err
	}
	return b.Write(ctx, mutations)
}

// Location never resolves a connection string; an unbuilt remote backend
// reports only its name.
func (d *Deferred) Location() string {
	d.mu.Lock()
	b := d.backend
	d.mu.Unlock()
	if b != nil {
		return b.Location()
	}
	if IsFileBacked(d.cfg.Storage.Backend) {
		return d.cfg.Storage.Path
	}
	if d.cfg.Storage.Backend == config.BackendMemory {
		return "memory"
	}
	return fmt.Sprintf("%s (not connected)", d.cfg.Storage.Backend)
}
