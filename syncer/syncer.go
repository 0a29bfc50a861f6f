// Package syncer runs the fetch, reconcile and write cycle and the schedule
// that repeats it.
package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ytsheet/config"
	"ytsheet/reconcile"
	"ytsheet/sheets"
	"ytsheet/youtube"
)

// Cycle stages reported in CycleError.
const (
	StageFetch     = "fetch"
	StageRead      = "read"
	StageReconcile = "reconcile"
	StageAppend    = "append"
	StageUpdate    = "update"
)

// logTitleRunes is how much of a title the per-video log lines show.
const logTitleRunes = 30

// CycleError reports the stage at which a cycle stopped.
type CycleError struct {
	Stage string
	Err   error
}

// Error returns a string representation of the cycle error.
func (e *CycleError) Error() string {
	return fmt.Sprintf("sync cycle failed at %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *CycleError) Unwrap() error { return e.Err }

// CycleResult contains the outcome of one cycle.
type CycleResult struct {
	// ID identifies the cycle in log output.
	ID string
	// Started is when the cycle began.
	Started time.Time
	// Fetched is the number of videos returned by the fetcher.
	Fetched int
	// RowsAdded is the number of rows appended to the table.
	RowsAdded int
	// CellsUpdated is the number of metric cells rewritten.
	CellsUpdated int
}

// NoChanges reports whether the cycle wrote nothing.
func (r *CycleResult) NoChanges() bool {
	return r.RowsAdded == 0 && r.CellsUpdated == 0
}

// Syncer mirrors a channel's recent uploads into a table.
type Syncer struct {
	fetcher youtube.Fetcher
	table   sheets.Table
	cfg     *config.Config
	log     logrus.FieldLogger

	newID func() string
}

// New creates a Syncer. cfg supplies the channel, fetch limit and schedule.
func New(fetcher youtube.Fetcher, table sheets.Table, cfg *config.Config, log logrus.FieldLogger) *Syncer {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Syncer{
		fetcher: fetcher,
		table:   table,
		cfg:     cfg,
		log:     log,
		newID:   func() string { return uuid.NewString() },
	}
}

// RunCycle performs one sync: fetch recent videos, read the id column,
// reconcile, then append new rows and rewrite known rows' metrics.
// Any failure, including a panic, is returned as a *CycleError.
func (s *Syncer) RunCycle(ctx context.Context) (result *CycleResult, err error) {
	result = &CycleResult{ID: s.newID(), Started: time.Now()}
	log := s.log.WithField("cycle_id", result.ID)

	stage := StageFetch
	defer func() {
		if r := recover(); r != nil {
			err = &CycleError{Stage: stage, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	log.WithField("channel_id", s.cfg.ChannelID).Info("checking channel for new statistics")

	videos, err := s.fetcher.ListRecentMediaItems(ctx, s.cfg.ChannelID, s.cfg.FetchLimit)
	if err != nil {
		return result, &CycleError{Stage: stage, Err: err}
	}
	result.Fetched = len(videos)

	stage = StageRead
	column, err := s.table.ColumnValues(ctx, reconcile.ColVideoID)
	if err != nil {
		return result, &CycleError{Stage: stage, Err: err}
	}

	stage = StageReconcile
	index := reconcile.BuildIndex(column)
	plan := reconcile.Reconcile(toRecords(videos), index)
	logPlan(log, plan, videos, index)

	stage = StageAppend
	if len(plan.Appends) > 0 {
		if err := s.table.AppendRows(ctx, plan.Appends); err != nil {
			return result, &CycleError{Stage: stage, Err: err}
		}
		result.RowsAdded = len(plan.Appends)
		log.WithField("rows", result.RowsAdded).Info("rows added")
	}

	stage = StageUpdate
	if len(plan.Updates) > 0 {
		if err := s.table.BatchUpdateCells(ctx, plan.Updates); err != nil {
			return result, &CycleError{Stage: stage, Err: err}
		}
		result.CellsUpdated = len(plan.Updates)
		log.WithField("cells", result.CellsUpdated).Info("fields updated")
	}

	if result.NoChanges() {
		log.Info("no changes")
	}
	return result, nil
}

// toRecords converts fetched videos into reconciler input, keeping order.
func toRecords(videos []youtube.Video) []reconcile.MediaRecord {
	records := make([]reconcile.MediaRecord, 0, len(videos))
	for _, v := range videos {
		records = append(records, reconcile.MediaRecord{
			ID:          v.ID,
			PublishedAt: v.PublishedAt,
			Title:       v.Title,
			Kind:        reconcile.Classify(v.Duration),
			Views:       v.ViewCount,
			Likes:       v.LikeCount,
			Comments:    v.CommentCount,
		})
	}
	return records
}

// logPlan writes one line per video in the order the plan applies them.
func logPlan(log logrus.FieldLogger, plan reconcile.Plan, videos []youtube.Video, index reconcile.ExistingIndex) {
	for i := len(videos) - 1; i >= 0; i-- {
		v := videos[i]
		entry := log.WithFields(logrus.Fields{
			"video_id": v.ID,
			"title":    truncate(v.Title, logTitleRunes),
		})
		if row, ok := index[v.ID]; ok {
			entry.WithFields(logrus.Fields{"row": row, "views": v.ViewCount}).Info("update")
		} else {
			entry.Info("new video")
		}
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
