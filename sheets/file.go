package sheets

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"ytsheet/reconcile"
)

// DefaultLockTimeout bounds how long OpenFileTable waits for another
// process to release the table.
const DefaultLockTimeout = 5 * time.Second

// FileTable implements Table on a local CSV file laid out like the
// worksheet: one record per row, the id in column K. Every write rewrites
// the file atomically.
type FileTable struct {
	path string
	lock *tableLock
	mu   sync.Mutex
}

// OpenFileTable locks path for exclusive use. The file itself is created
// on the first write. Close releases the lock.
func OpenFileTable(path string, lockTimeout time.Duration) (*FileTable, error) {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	lock := newTableLock(path)
	if err := lock.acquire(lockTimeout); err != nil {
		return nil, err
	}
	return &FileTable{path: path, lock: lock}, nil
}

// Path returns the CSV file location.
func (t *FileTable) Path() string { return t.path }

// Close releases the table lock.
func (t *FileTable) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lock.release()
}

// ColumnValues returns the column's cells from row 1 to the last record.
// Short records read as "" for the missing cells.
func (t *FileTable) ColumnValues(ctx context.Context, column int) ([]string, error) {
	if err := checkColumn(column); err != nil {
		return nil, &TableError{Op: "read", Target: t.path, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	records, err := t.load()
	if err != nil {
		return nil, &TableError{Op: "read", Target: t.path, Err: err}
	}

	values := make([]string, len(records))
	for i, rec := range records {
		if column <= len(rec) {
			values[i] = rec[column-1]
		}
	}
	return values, nil
}

// AppendRows adds rows after the last record that has any non-blank cell.
func (t *FileTable) AppendRows(ctx context.Context, rows []reconcile.TableRow) error {
	if len(rows) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	records, err := t.load()
	if err != nil {
		return &TableError{Op: "append", Target: t.path, Err: err}
	}

	records = records[:lastPopulated(records)]
	for _, r := range rows {
		records = append(records, r.Strings())
	}

	if err := t.store(records); err != nil {
		return &TableError{Op: "append", Target: t.path, Err: err}
	}
	return nil
}

// BatchUpdateCells applies all updates in one rewrite, growing the table
// where an update addresses a cell beyond the current extent.
func (t *FileTable) BatchUpdateCells(ctx context.Context, updates []reconcile.CellUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, u := range updates {
		if u.Row < 1 {
			return &TableError{Op: "update", Target: t.path, Err: fmt.Errorf("%w: row %d", ErrInvalidRequest, u.Row)}
		}
		if err := checkColumn(u.Column); err != nil {
			return &TableError{Op: "update", Target: t.path, Err: err}
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	records, err := t.load()
	if err != nil {
		return &TableError{Op: "update", Target: t.path, Err: err}
	}

	for _, u := range updates {
		for len(records) < u.Row {
			records = append(records, nil)
		}
		rec := records[u.Row-1]
		for len(rec) < u.Column {
			rec = append(rec, "")
		}
		rec[u.Column-1] = strconv.FormatUint(u.Value, 10)
		records[u.Row-1] = rec
	}

	if err := t.store(records); err != nil {
		return &TableError{Op: "update", Target: t.path, Err: err}
	}
	return nil
}

func (t *FileTable) load() ([][]string, error) {
	f, err := os.Open(t.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTableCorrupt, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (t *FileTable) store(records [][]string) error {
	out, err := createAtomic(t.path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(out)
	for _, rec := range records {
		if err := w.Write(padRecord(rec)); err != nil {
			out.discard()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		out.discard()
		return err
	}
	return out.commit()
}

// lastPopulated returns the number of leading records up to and including
// the last one with a non-blank cell.
func lastPopulated(records [][]string) int {
	for i := len(records) - 1; i >= 0; i-- {
		for _, cell := range records[i] {
			if cell != "" {
				return i + 1
			}
		}
	}
	return 0
}

// padRecord widens a record to the full sheet layout so csv.Reader sees
// every row with the same number of fields.
func padRecord(rec []string) []string {
	if len(rec) >= reconcile.NumColumns {
		return rec
	}
	out := make([]string, reconcile.NumColumns)
	copy(out, rec)
	return out
}
