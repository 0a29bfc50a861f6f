//go:build windows

package sheets

import (
	"os"
	"time"

	"golang.org/x/sys/windows"
)

// tableLock is an exclusive LockFileEx lock held on <table>.lock for as
// long as a FileTable is open.
type tableLock struct {
	path string
	file *os.File
}

func newTableLock(tablePath string) *tableLock {
	return &tableLock{path: tablePath + ".lock"}
}

func (l *tableLock) acquire(timeout time.Duration) error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return &TableError{Op: "lock", Target: l.path, Err: err}
	}

	deadline := time.Now().Add(timeout)
	for {
		var ol windows.Overlapped
		err := windows.LockFileEx(windows.Handle(f.Fd()),
			windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY, 0, 1, 0, &ol)
		if err == nil {
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
	var ol windows.Overlapped
	windows.UnlockFileEx(windows.Handle(l.file.Fd()), 0, 1, 0, &ol)
	err := l.file.Close()
	os.Remove(l.path)
	l.file = nil
	return err
}
