package reconcile

// Plan is the set of writes computed for one cycle.
type Plan struct {
	// Appends are new rows, oldest video first.
	Appends []TableRow
	// Updates are metric cell rewrites for rows already in the sheet.
	Updates []CellUpdate
}

// Empty reports whether the plan has nothing to write.
func (p Plan) Empty() bool {
	return len(p.Appends) == 0 && len(p.Updates) == 0
}

// Reconcile computes the appends and updates needed to sync fetched (newest
// first, as the API delivers it) into a sheet described by index.
//
// Records are visited oldest first so that several new videos land in
// chronological order. Unknown IDs produce a new row; known IDs produce three
// updates (views, likes, comments) at their row, written even when unchanged.
// The index is read-only here: an ID repeated within fetched is not
// deduplicated.
func Reconcile(fetched []MediaRecord, index ExistingIndex) Plan {
	var plan Plan
	for i := len(fetched) - 1; i >= 0; i-- {
		r := fetched[i]
		row, ok := index[r.ID]
		if !ok {
			plan.Appends = append(plan.Appends, NewTableRow(r))
			continue
		}
		plan.Updates = append(plan.Updates,
			CellUpdate{Row: row, Column: ColViews, Value: r.Views},
			CellUpdate{Row: row, Column: ColLikes, Value: r.Likes},
			CellUpdate{Row: row, Column: ColComments, Value: r.Comments},
		)
	}
	return plan
}
