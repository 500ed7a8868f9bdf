package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 5 * time.Millisecond

// FileLock serializes access to a file-backed store between every handle
// open on it, including handles in other processes.
type FileLock struct {
	fl *flock.Flock
}

// NewFileLock returns a lock backed by the file at path. The file is created
// on first use; its directory must already exist.
func NewFileLock(path string) *FileLock {
	return &FileLock{fl: flock.New(path, flock.SetPermissions(0600))}
}

// Path returns the lock file location.
func (l *FileLock) Path() string {
	return l.fl.Path()
}

// Lock blocks until the exclusive lock is held or ctx is done.
func (l *FileLock) Lock(ctx context.Context) (func(), error) {
	return l.acquire(ctx, l.fl.TryLockContext)
}

// RLock blocks until a shared lock is held or ctx is done.
func (l *FileLock) RLock(ctx context.Context) (func(), error) {
	return l.acquire(ctx, l.fl.TryRLockContext)
}

func (l *FileLock) acquire(ctx context.Context, try func(context.Context, time.Duration) (bool, error)) (func(), error) {
	ok, err := try(ctx, lockRetryDelay)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotInitialized
		}
		return nil, fmt.Errorf("failed to lock %s: %w", l.fl.Path(), err)
	}
	if !ok {
		return nil, fmt.Errorf("failed to lock %s", l.fl.Path())
	}
	return func() { _ = l.fl.Unlock() }, nil
}
