package patientstore

import (
	"fmt"

	"github.com/gofrs/flock"
)

// Lock is an advisory lock held next to the store document.
type Lock struct {
	lock *flock.Flock
}

// LockPath returns the lock file used for a store document.
func LockPath(storePath string) string {
	return storePath + ".lock"
}

// AcquireLock takes the store lock without blocking. It returns ErrLocked if
// another process already holds it.
func AcquireLock(storePath string) (*Lock, error) {
	lock := flock.New(LockPath(storePath))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire store lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", storePath, ErrLocked)
	}
	return &Lock{lock: lock}, nil
}

// Release drops the lock. It is safe to call on a nil Lock.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
