//go:build !windows

package sheets

import (
	"os"
	"syscall"
	"time"
)

// tableLock is an advisory exclusive lock held on <table>.lock for as long
// as a FileTable is open, so two processes never sync the same file.
type tableLock struct {
	path string
	file *os.File
}

func newTableLock(tablePath string) *tableLock {
	return &tableLock{path: tablePath + ".lock"}
}

// acquire polls flock(2) until it succeeds or timeout elapses.
func (l *tableLock) acquire(timeout time.Duration) error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return &TableError{Op: "lock", Target: l.path, Err: err}
	}

	deadline := time.Now().Add(timeout)
	for {
		if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err == nil {
			l.file = f
			return nil
		}
		if !time.Now().Before(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	f.Close()
	return &TableError{Op: "lock", Target: l.path, Err: ErrLockTimeout}
}

func (l *tableLock) release() error {
	if l.file == nil {
		return nil
	}
	syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	err := l.file.Close()
	os.Remove(l.path)
	l.file = nil
	return err
}
