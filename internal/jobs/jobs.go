// Package jobs runs periodic housekeeping.
package jobs

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// LimiterIdle is how long an unused in-memory rate-limit bucket survives.
const LimiterIdle = 30 * time.Minute

// Sweeper drops idle rate-limit state.
type Sweeper interface {
	Sweep(idle time.Duration) int
}

// Purger deletes sensor readings older than cutoff.
type Purger interface {
	PurgeReadings(ctx context.Context, cutoff time.Time) (int64, error)
}

// Housekeeping holds the periodic tasks. A nil Sweeper or a non-positive
// RetentionDays disables the corresponding job.
type Housekeeping struct {
	Sweeper       Sweeper
	Purger        Purger
	RetentionDays int
	Logger        *zap.Logger
	Now           func() time.Time
}

// Start schedules the enabled jobs and starts the scheduler in the
// background. Stop it with Stop on the returned scheduler.
func (h *Housekeeping) Start() (*gocron.Scheduler, error) {
	s := gocron.NewScheduler(time.UTC)
	if h.Sweeper != nil {
		if _, err := s.Every(1).Minute().Do(h.SweepLimiter); err != nil {
			return nil, err
		}
	}
	if h.Purger != nil && h.RetentionDays > 0 {
		if _, err := s.Every(1).Hour().Do(h.PurgeReadings); err != nil {
			return nil, err
		}
	}
	s.StartAsync()
	h.Logger.Info("housekeeping started", zap.Int("jobs", s.Len()))
	return s, nil
}

// SweepLimiter drops idle rate-limit buckets.
func (h *Housekeeping) SweepLimiter() {
	if n := h.Sweeper.Sweep(LimiterIdle); n > 0 {
		h.Logger.Debug("swept rate-limit buckets", zap.Int("count", n))
	}
}

// PurgeReadings deletes readings older than the retention window.
func (h *Housekeeping) PurgeReadings() {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	cutoff := now().AddDate(0, 0, -h.RetentionDays)
	n, err := h.Purger.PurgeReadings(ctx, cutoff)
	if err != nil {
		h.Logger.Error("purge readings", zap.Time("cutoff", cutoff), zap.Error(err))
		return
	}
	h.Logger.Info("purged readings", zap.Int64("count", n), zap.Time("cutoff", cutoff))
}
