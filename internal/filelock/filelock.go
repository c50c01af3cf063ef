// Package filelock provides cross-process mutual exclusion over the
// flat files that back shop, lot, and ledger state. Locks are advisory
// flock(2) locks scoped to a single file: holding a lock on one file
// never implies a lock on any other.
package filelock

import (
	"fmt"
	"os"
	"syscall"
)

// FileLock guards a single data file with flock(2). The lock is taken
// on the data file itself, so writers rewrite in place through the
// locked descriptor rather than renaming a temp file over it (a rename
// would swap the inode out from under concurrent lockers).
type FileLock struct {
	path string
	file *os.File
}

// New creates a FileLock for the given file path. The file is opened
// lazily by Lock or RLock.
func New(path string) *FileLock {
	return &FileLock{path: path}
}

// Path returns the path the lock guards.
func (fl *FileLock) Path() string {
	return fl.path
}

// Lock acquires an exclusive lock, blocking until available. The file
// is created if it does not exist.
func (fl *FileLock) Lock() error {
	f, err := os.OpenFile(fl.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		_ = f.Close()
		return fmt.Errorf("flock: %w", err)
	}
	fl.file = f
	return nil
}

// RLock acquires a shared (read) lock, blocking until available.
// Unlike Lock it does not create the file: a missing file surfaces as
// the open error so callers can distinguish absent records.
func (fl *FileLock) RLock() error {
	f, err := os.OpenFile(fl.path, os.O_RDONLY, 0)
	if err != nil {
		return err
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_SH); err != nil {
		_ = f.Close()
		return fmt.Errorf("flock shared: %w", err)
	}
	fl.file = f
	return nil
}

// TryLock attempts to acquire the exclusive lock without blocking.
// Returns true if the lock was acquired, false if it is held elsewhere.
func (fl *FileLock) TryLock() (bool, error) {
	f, err := os.OpenFile(fl.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return false, fmt.Errorf("open lock file: %w", err)
	}

	err = syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if err != nil {
		_ = f.Close()
		if err == syscall.EWOULDBLOCK {
			return false, nil
		}
		return false, fmt.Errorf("flock: %w", err)
	}

	fl.file = f
	return true, nil
}

// File returns the locked descriptor. Valid only between a successful
// Lock/RLock and the matching Unlock; all reads and writes to the
// guarded file must go through it while the lock is held.
func (fl *FileLock) File() *os.File {
	return fl.file
}

// Unlock releases the lock and closes the file. Calling Unlock without
// a held lock is a no-op.
func (fl *FileLock) Unlock() error {
	if fl.file == nil {
		return nil
	}

	if err := syscall.Flock(int(fl.file.Fd()), syscall.LOCK_UN); err != nil {
		_ = fl.file.Close()
		fl.file = nil
		return fmt.Errorf("funlock: %w", err)
	}

	err := fl.file.Close()
	fl.file = nil
	return err
}
