package database

import (
	"fmt"

	"github.com/gofrs/flock"
)

// FileLock guards a SQLite file against a second process writing to it.
type FileLock struct {
	lock *flock.Flock
}

// LockFile takes an exclusive, non-blocking lock on path+".lock".
func LockFile(path string) (*FileLock, error) {
	l := flock.New(path + ".lock")
	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", l.Path(), err)
	}
	if !ok {
		return nil, fmt.Errorf("database %s is in use by another process", path)
	}
	return &FileLock{lock: l}, nil
}

// Release drops the lock.
func (f *FileLock) Release() error {
	if f == nil {
		return nil
	}
	return f.lock.Unlock()
}
