package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type RunPurger interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type CachePurger interface {
	CleanupCache(ctx context.Context) (int, error)
}

// RetentionTask periodically deletes old run-log rows and stale cache keys.
type RetentionTask struct {
	runs     RunPurger
	cache    CachePurger
	schedule string
	maxAge   time.Duration
	cron     *cron.Cron
	logger   *zap.Logger
	now      func() time.Time
}

// NewRetentionTask registers the purge on schedule (six-field cron with
// seconds). cache may be nil.
func NewRetentionTask(runs RunPurger, cache CachePurger, schedule string, maxAge time.Duration, logger *zap.Logger) (*RetentionTask, error) {
	c := cron.New(cron.WithSeconds())

	t := &RetentionTask{
		runs:     runs,
		cache:    cache,
		schedule: schedule,
		maxAge:   maxAge,
		cron:     c,
		logger:   logger,
		now:      time.Now,
	}

	if _, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		t.RunOnce(ctx)
	}); err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", schedule, err)
	}

	return t, nil
}

func (t *RetentionTask) Start() {
	t.cron.Start()
	t.logger.Info("Retention task started",
		zap.String("schedule", t.schedule),
		zap.Duration("max_age", t.maxAge))
}

// Stop waits for a running purge to finish.
func (t *RetentionTask) Stop() {
	<-t.cron.Stop().Done()
	t.logger.Info("Retention task stopped")
}

type PurgeReport struct {
	RunsDeleted  int64
	CacheDeleted int
	RunsCutoff   time.Time
}

func (t *RetentionTask) RunOnce(ctx context.Context) PurgeReport {
	report := PurgeReport{RunsCutoff: t.now().Add(-t.maxAge)}

	deleted, err := t.runs.DeleteBefore(ctx, report.RunsCutoff)
	if err != nil {
		t.logger.Error("Failed to purge generation runs", zap.Error(err))
	} else {
		report.RunsDeleted = deleted
	}

	if t.cache != nil {
		cleaned, err := t.cache.CleanupCache(ctx)
		if err != nil {
			t.logger.Error("Failed to clean up cache", zap.Error(err))
		} else {
			report.CacheDeleted = cleaned
		}
	}

	t.logger.Info("Retention purge finished",
		zap.Int64("runs_deleted", report.RunsDeleted),
		zap.Int("cache_deleted", report.CacheDeleted),
		zap.Time("cutoff", report.RunsCutoff))

	return report
}
