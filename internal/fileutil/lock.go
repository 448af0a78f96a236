package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"vconv/internal/textutil"
)

// ErrLocked is returned when another process holds the output lock.
var ErrLocked = errors.New("output is being written by another vconv process")

// OutputLock is an advisory cross-process lock on one output path.
type OutputLock struct {
	target string
	path   string
	lock   *flock.Flock
}

// LockPath returns the lock file used for output under lockDir. The name is
// a hash of the cleaned absolute output path, keeping the readable base name
// as a prefix.
func LockPath(lockDir, output string) string {
	abs, err := filepath.Abs(output)
	if err != nil {
		abs = filepath.Clean(output)
	}
	sum := sha256.Sum256([]byte(abs))
	base := textutil.SanitizeToken(filepath.Base(abs), 48)
	return filepath.Join(lockDir, base+"-"+hex.EncodeToString(sum[:8])+".lock")
}

// LockOutput takes the lock for output without blocking. ErrLocked is
// returned when another process already holds it.
func LockOutput(lockDir, output string) (*OutputLock, error) {
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure lock directory: %w", err)
	}
	path := LockPath(lockDir, output)
	l := &OutputLock{target: output, path: path, lock: flock.New(path)}
	ok, err := l.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, output)
	}
	return l, nil
}

// Path returns the lock file path.
func (l *OutputLock) Path() string { return l.path }

// Target returns the locked output path.
func (l *OutputLock) Target() string { return l.target }

// Unlock releases the lock and removes its file. Calling Unlock on a nil
// lock is a no-op.
func (l *OutputLock) Unlock() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock %s: %w", l.path, err)
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove lock %s: %w", l.path, err)
	}
	return nil
}
