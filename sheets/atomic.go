package sheets

import (
	"fmt"
	"os"
	"path/filepath"
)

// atomicFile stages a full rewrite of the table file in a sibling temp file
// and swaps it into place on commit, so readers never see a partial table.
type atomicFile struct {
	target string
	tmp    *os.File
}

func createAtomic(target string) (*atomicFile, error) {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".ytsheet-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	return &atomicFile{target: target, tmp: tmp}, nil
}

func (a *atomicFile) Write(p []byte) (int, error) {
	return a.tmp.Write(p)
}

// commit flushes the staged table to disk and renames it over the target.
func (a *atomicFile) commit() error {
	name := a.tmp.Name()
	if err := a.tmp.Sync(); err != nil {
		a.discard()
		return fmt.Errorf("sync: %w", err)
	}
	if err := a.tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(name, a.target); err != nil {
		os.Remove(name)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// discard drops the staged table, leaving the target untouched.
func (a *atomicFile) discard() {
	name := a.tmp.Name()
	a.tmp.Close()
	os.Remove(name)
}
