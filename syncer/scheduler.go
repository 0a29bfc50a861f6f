package syncer

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Run executes a cycle immediately, then checks every PollTick whether
// Interval has passed since the previous cycle started and, if so, runs the
// next one. Cycles never overlap. A failed cycle is logged and the schedule
// continues. Run returns when ctx is cancelled.
func (s *Syncer) Run(ctx context.Context) error {
	s.log.WithFields(logrus.Fields{
		"interval":  s.cfg.Interval.String(),
		"poll_tick": s.cfg.PollTick.String(),
	}).Info("scheduler started")

	last := time.Now()
	s.runScheduled(ctx)

	ticker := time.NewTicker(s.pollTick())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			if time.Since(last) < s.cfg.Interval {
				continue
			}
			last = time.Now()
			s.runScheduled(ctx)
		}
	}
}

// runScheduled runs one cycle bounded by CycleTimeout and logs its error.
func (s *Syncer) runScheduled(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	cycleCtx := ctx
	if s.cfg.CycleTimeout > 0 {
		var cancel context.CancelFunc
		cycleCtx, cancel = context.WithTimeout(ctx, s.cfg.CycleTimeout)
		defer cancel()
	}

	result, err := s.RunCycle(cycleCtx)
	if err != nil {
		s.log.WithField("cycle_id", result.ID).WithError(err).Error("sync cycle failed")
	}
}

func (s *Syncer) pollTick() time.Duration {
	if s.cfg.PollTick > 0 {
		return s.cfg.PollTick
	}
	return time.Minute
}
