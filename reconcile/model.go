// Package reconcile merges freshly fetched video statistics against the rows
// already stored in a sheet and computes the writes needed to bring it in sync.
package reconcile

import (
	"strconv"
	"time"
)

// Fixed 1-based column positions of the sheet layout.
const (
	ColDate     = 1
	ColTitle    = 2
	ColKind     = 3
	ColViews    = 4
	ColLikes    = 5
	ColComments = 6
	// Columns 7-10 are reserved for manual notes and are always written blank.
	ColVideoID = 11

	// NumColumns is the width of a full row.
	NumColumns = ColVideoID
)

// DateLayout is the format of the date column.
const DateLayout = "2006-01-02 15:04"

// Kind classifies a video by length.
type Kind int

const (
	// KindLong is any regular upload longer than a minute.
	KindLong Kind = iota
	// KindShort is a video of 60 seconds or less.
	KindShort
)

// String returns the label written to the kind column.
func (k Kind) String() string {
	if k == KindShort {
		return "Short"
	}
	return "Video"
}

// MediaRecord is a snapshot of one video as seen by a single fetch cycle.
type MediaRecord struct {
	ID          string
	PublishedAt time.Time
	Title       string
	Kind        Kind
	Views       uint64
	Likes       uint64
	Comments    uint64
}

// TableRow is a full row to be appended to the sheet.
type TableRow struct {
	Date     string
	Title    string
	Kind     Kind
	Views    uint64
	Likes    uint64
	Comments uint64
	VideoID  string
}

// NewTableRow builds the row written on the first sighting of a video.
func NewTableRow(r MediaRecord) TableRow {
	date := ""
	if !r.PublishedAt.IsZero() {
		date = r.PublishedAt.UTC().Format(DateLayout)
	}
	return TableRow{
		Date:     date,
		Title:    r.Title,
		Kind:     r.Kind,
		Views:    r.Views,
		Likes:    r.Likes,
		Comments: r.Comments,
		VideoID:  r.ID,
	}
}

// Cells returns the row as NumColumns cell values in column order.
// Metric cells are numbers; the reserved columns are empty strings.
func (r TableRow) Cells() []any {
	return []any{
		r.Date,
		r.Title,
		r.Kind.String(),
		r.Views,
		r.Likes,
		r.Comments,
		"", "", "", "",
		r.VideoID,
	}
}

// Strings returns the row as NumColumns text cells.
func (r TableRow) Strings() []string {
	cells := r.Cells()
	out := make([]string, len(cells))
	for i, c := range cells {
		switch v := c.(type) {
		case string:
			out[i] = v
		case uint64:
			out[i] = strconv.FormatUint(v, 10)
		}
	}
	return out
}

// CellUpdate overwrites a single metric cell of an existing row.
type CellUpdate struct {
	Row    int
	Column int
	Value  uint64
}

// A1 returns the cell address in A1 notation, e.g. "D5".
func (u CellUpdate) A1() string {
	return A1(u.Row, u.Column)
}

// A1 converts a 1-based row and column to A1 notation.
func A1(row, col int) string {
	return ColumnLetter(col) + strconv.Itoa(row)
}

// ColumnLetter converts a 1-based column index to its letter form (1 -> A, 27 -> AA).
func ColumnLetter(col int) string {
	var buf []byte
	for col > 0 {
		col--
		buf = append([]byte{byte('A' + col%26)}, buf...)
		col /= 26
	}
	return string(buf)
}
