package archive

import (
	"github.com/gofrs/flock"
	"gitlab.com/tozd/go/errors"
)

// ErrLocked is returned when another run holds the archive lock.
var ErrLocked = errors.Base("archive is in use by another backup run")

// Lock is an exclusive advisory lock on an archive directory.
type Lock struct {
	f *flock.Flock
}

// AcquireLock takes the lock at path without blocking.
func AcquireLock(path string) (*Lock, error) {
	f := flock.New(path)
	ok, err := f.TryLock()
	if err != nil {
		return nil, errors.Errorf("locking %s: %w", path, err)
	}
	if !ok {
		return nil, errors.WithStack(ErrLocked)
	}
	return &Lock{f: f}, nil
}

// Release drops the lock. The lock file itself is left in place.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	return errors.WithStack(l.f.Unlock())
}
