// Package sheets reads and writes the worksheet that holds the video
// statistics, either in Google Sheets or in a local CSV file.
package sheets

import (
	"context"
	"errors"
	"fmt"

	"ytsheet/reconcile"
)

// Sentinel errors for table operations.
var (
	// ErrSheetNotFound indicates the spreadsheet or worksheet does not exist.
	ErrSheetNotFound = errors.New("sheets: spreadsheet or worksheet not found")
	// ErrRateLimited indicates the Sheets API throttled the request.
	ErrRateLimited = errors.New("sheets: rate limited")
	// ErrPermissionDenied indicates the credentials cannot access the sheet.
	ErrPermissionDenied = errors.New("sheets: permission denied")
	// ErrInvalidRequest indicates a malformed range or payload.
	ErrInvalidRequest = errors.New("sheets: invalid request")
	// ErrInvalidColumn indicates a column index outside the sheet layout.
	ErrInvalidColumn = errors.New("sheets: invalid column")
	// ErrTableCorrupt indicates the local table file could not be parsed.
	ErrTableCorrupt = errors.New("sheets: table file corrupt")
	// ErrLockTimeout indicates a timeout acquiring the table file lock.
	ErrLockTimeout = errors.New("sheets: lock acquisition timeout")
)

// Reader scans a column of the table.
type Reader interface {
	// ColumnValues returns every cell of the 1-based column in row order;
	// element 0 is row 1. Blank cells are returned as "".
	ColumnValues(ctx context.Context, column int) ([]string, error)
}

// Writer applies reconciled writes to the table.
type Writer interface {
	// AppendRows writes rows after the last populated row, in order.
	AppendRows(ctx context.Context, rows []reconcile.TableRow) error
	// BatchUpdateCells overwrites the given cells in a single request.
	BatchUpdateCells(ctx context.Context, updates []reconcile.CellUpdate) error
}

// Table is a worksheet that can be both read and written.
type Table interface {
	Reader
	Writer
}

// TableError wraps table errors with the operation and target.
// Use errors.As() to extract it:
//
//	var tableErr *sheets.TableError
//	if errors.As(err, &tableErr) {
//		fmt.Printf("%s on %s failed: %v\n", tableErr.Op, tableErr.Target, tableErr.Err)
//	}
type TableError struct {
	// Op is the operation that failed ("read", "append", "update", "lock", "open").
	Op string
	// Target names the sheet or file.
	Target string
	// Err is the underlying error that occurred.
	Err error
}

// Error returns a string representation of the table error.
func (e *TableError) Error() string {
	return fmt.Sprintf("sheets: %s %s: %v", e.Op, e.Target, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *TableError) Unwrap() error { return e.Err }

func checkColumn(column int) error {
	if column < 1 || column > reconcile.NumColumns {
		return fmt.Errorf("%w: %d", ErrInvalidColumn, column)
	}
	return nil
}
