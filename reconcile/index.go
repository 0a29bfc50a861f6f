package reconcile

import "strings"

// ExistingIndex maps a video ID to the 1-based sheet row holding it.
type ExistingIndex map[string]int

// BuildIndex derives the index from a scan of the video ID column, where
// column[0] is row 1. Blank cells are skipped. If an ID occurs more than once
// the topmost row wins.
func BuildIndex(column []string) ExistingIndex {
	idx := make(ExistingIndex, len(column))
	for i, v := range column {
		id := strings.TrimSpace(v)
		if id == "" {
			continue
		}
		if _, seen := idx[id]; seen {
			continue
		}
		idx[id] = i + 1
	}
	return idx
}
