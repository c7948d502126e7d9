package daemon

import (
	"fmt"

	"github.com/gofrs/flock"
)

// InstanceLock is the single-instance flock held on the work directory.
type InstanceLock struct {
	path string
	lock *flock.Flock
}

// AcquireLock takes the instance lock at path without blocking. It fails when
// another process already holds it.
func AcquireLock(path string) (*InstanceLock, error) {
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another subburn instance holds %s", path)
	}
	return &InstanceLock{path: path, lock: lock}, nil
}

// Path returns the lock file location.
func (l *InstanceLock) Path() string {
	return l.path
}

// Release drops the lock. It is safe to call more than once.
func (l *InstanceLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
