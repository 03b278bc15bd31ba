// Package runlock keeps two runs from reorganizing the same library at once.
//
// The lock is an advisory flock on a file in the OS temp directory whose
// name is derived from the absolute root path, so nothing is ever written
// inside the library itself.
package runlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// ErrLocked is returned by Acquire when another process holds the lock.
var ErrLocked = errors.New("another multidisc run is already using this directory")

// Lock is a held run lock. Release it when the run ends.
type Lock struct {
	path string
	fl   *flock.Flock
}

// Acquire takes the lock for root without blocking.
func Acquire(root string) (*Lock, error) {
	path, err := lockPath(root)
	if err != nil {
		return nil, err
	}

	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrLocked, path)
	}
	return &Lock{path: path, fl: fl}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }

// Release unlocks the lock. The file itself stays behind so a concurrent
// opener never locks an unlinked inode. Calling Release twice is a no-op.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	err := l.fl.Unlock()
	l.fl = nil
	if err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

func lockPath(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(abs)))
	return filepath.Join(os.TempDir(), "multidisc-"+id.String()+".lock"), nil
}
