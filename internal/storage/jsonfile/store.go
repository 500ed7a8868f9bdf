// Package jsonfile keeps every key in one human-readable JSON document.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/julianstephens/microhabit/internal/storage"
)

const documentVersion = 1

type document struct {
	Version int                         `json:"version"`
	Items   map[string]storage.Envelope `json:"items"`
}

type Store struct {
	mu   sync.Mutex
	path string
	lock *storage.FileLock
	now  func() time.Time
}

// NewStore keeps the document at path. A sibling "<path>.lock" file serializes
// writers across every handle on the same document.
func NewStore(path string) *Store {
	return &Store{
		path: path,
		lock: storage.NewFileLock(path + ".lock"),
		now:  time.Now,
	}
}

func (s *Store) Init(ctx context.Context) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.lock.Lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	// Re-running init keeps existing data.
	if _, err := os.Stat(s.path); err == nil {
		_, err := s.load()
		return err
	}
	return s.save(&document{Version: documentVersion, Items: map[string]storage.Envelope{}})
}

func (s *Store) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.load()
	return err
}

func (s *Store) Close() error { return nil }

func (s *Store) Location() string { return s.path }

func (s *Store) load() (*document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotInitialized
		}
		return nil, fmt.Errorf("failed to read storage: %w", err)
	}

	doc := &document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to parse storage: %w", err)
	}
	if doc.Items == nil {
		doc.Items = make(map[string]storage.Envelope)
	}
	return doc, nil
}

// save replaces the document through a temp file in the same directory so a
// crash never leaves a truncated file behind.
func (s *Store) save(doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".microhabit-*.json")
	if err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync storage: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		return fmt.Errorf("failed to set storage permissions: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace storage: %w", err)
	}
	return nil
}

func (s *Store) Read(ctx context.Context, keys []string) (map[string]storage.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.lock.RLock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make(map[string]storage.Item, len(keys))
	for _, k := range keys {
		env, ok := doc.Items[k]
		if !ok {
			continue
		}
		// The document is indented on disk; hand back the compact form.
		var buf bytes.Buffer
		if err := json.Compact(&buf, env.Value); err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		out[k] = storage.Item{
			Value:    buf.Bytes(),
			Revision: env.Revision,
		}
	}
	return out, nil
}

// Write holds the exclusive file lock from load through rename, so the revision
// check sees every write committed by another handle.
func (s *Store) Write(ctx context.Context, mutations []storage.Mutation) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.lock.Lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, m := range mutations {
		current, exists := doc.Items[m.Key]
		if err := storage.CheckRevision(m, current.Revision, exists); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	revisions := make(map[string]string, len(mutations))
	for _, m := range mutations {
		if !json.Valid(m.Value) {
			return nil, fmt.Errorf("storage: value for %q is not valid JSON", m.Key)
		}
		rev := storage.NewRevision()
		doc.Items[m.Key] = storage.Envelope{
			Revision:  rev,
			UpdatedAt: now,
			Value:     json.RawMessage(append([]byte(nil), m.Value...)),
		}
		revisions[m.Key] = rev
	}

	doc.Version = documentVersion
	if err := s.save(doc); err != nil {
		return nil, err
	}
	return revisions, nil
}
