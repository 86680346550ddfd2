package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// SummaryRefresher recomputes practice summaries from since onward
type SummaryRefresher interface {
	RefreshSummaries(ctx context.Context, since time.Time) (int, error)
}

// PracticeRollup periodically refreshes the practice summary table over a trailing window
type PracticeRollup struct {
	cron      *cron.Cron
	refresher SummaryRefresher
	window    time.Duration
	timeout   time.Duration
	logger    *slog.Logger
	now       func() time.Time

	mu      sync.Mutex
	running bool
}

func NewPracticeRollup(refresher SummaryRefresher, window time.Duration, logger *slog.Logger) *PracticeRollup {
	return &PracticeRollup{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		refresher: refresher,
		window:    window,
		timeout:   5 * time.Minute,
		logger:    logger,
		now:       time.Now,
	}
}

// Start schedules the rollup on a cron schedule ("@every 15m", "0 * * * *", ...) and starts the scheduler
func (r *PracticeRollup) Start(schedule string) error {
	if _, err := r.cron.AddFunc(schedule, func() { r.Run(context.Background()) }); err != nil {
		return fmt.Errorf("invalid rollup schedule %q: %w", schedule, err)
	}
	r.cron.Start()
	r.logger.Info("Practice rollup scheduled", "schedule", schedule, "window", r.window.String())
	return nil
}

// Stop halts scheduling and waits for a running rollup to finish or ctx to end
func (r *PracticeRollup) Stop(ctx context.Context) {
	done := r.cron.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Run performs one refresh. Overlapping runs are skipped.
func (r *PracticeRollup) Run(ctx context.Context) (int, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		r.logger.Warn("Practice rollup still running, skipping")
		return 0, nil
	}
	r.running = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := r.now()
	since := start.Add(-r.window)
	buckets, err := r.refresher.RefreshSummaries(ctx, since)
	if err != nil {
		r.logger.Error("Practice rollup failed", "since", since, "error", err)
		return 0, err
	}
	r.logger.Info("Practice rollup completed", "buckets", buckets, "duration", time.Since(start).String())
	return buckets, nil
}
