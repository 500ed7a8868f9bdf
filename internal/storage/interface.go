package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrConflict is returned by Backend.Write when a guarded key changed
	// since it was read.
	ErrConflict = errors.New("storage: revision conflict")
	// ErrNotInitialized is returned by Backend.Open when no store exists yet.
	ErrNotInitialized = errors.New("storage not initialized, run 'microhabit init' first")
)

// Item is a stored value together with the revision stamp of the write that
// produced it.
type Item struct {
	Value    []byte
	Revision string
}

// Mutation replaces the value stored under Key. When Expect is non-nil the
// write only applies if the stored revision still equals *Expect; an empty
// expectation means the key must not exist yet.
type Mutation struct {
	Key    string
	Value  []byte
	Expect *string
}

// Backend is a namespaced key/value area. Write applies all mutations or none
// and returns the new revision of every written key.
type Backend interface {
	// Lifecycle
	Init(ctx context.Context) error
	Open(ctx context.Context) error
	Close() error

	Read(ctx context.Context, keys []string) (map[string]Item, error)
	Write(ctx context.Context, mutations []Mutation) (map[string]string, error)

	// Location describes where the data lives (file path, DSN host, ...).
	Location() string
}

// Expect returns a revision expectation for Mutation.Expect.
func Expect(revision string) *string {
	return &revision
}

// NewRevision returns a fresh revision stamp.
func NewRevision() string {
	return uuid.NewString()
}

// CheckRevision validates m against the currently stored revision.
func CheckRevision(m Mutation, current string, exists bool) error {
	if m.Expect == nil {
		return nil
	}
	if *m.Expect == "" {
		if exists {
			return ErrConflict
		}
		return nil
	}
	if !exists || current != *m.Expect {
		return ErrConflict
	}
	return nil
}

// NamespacedKey prefixes key for backends that share a global key space.
func NamespacedKey(namespace, key string) string {
	return namespace + key
}
