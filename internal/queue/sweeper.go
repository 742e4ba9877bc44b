package queue

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically reclaims expired jobs and reviews.
type Sweeper struct {
	jobs     *JobQueue
	reviews  *ReviewQueue
	interval time.Duration
}

// NewSweeper creates a sweeper over both queues.
func NewSweeper(jobs *JobQueue, reviews *ReviewQueue, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{jobs: jobs, reviews: reviews, interval: interval}
}

// Run sweeps on a fixed ticker until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce()
		}
	}
}

// SweepOnce runs a single sweep over both queues and returns the totals.
func (s *Sweeper) SweepOnce() (jobsRemoved, reviewsRemoved int) {
	jobsRemoved = s.jobs.Sweep()
	reviewsRemoved = s.reviews.Cleanup()
	if jobsRemoved > 0 || reviewsRemoved > 0 {
		slog.Info("swept expired records", "jobs", jobsRemoved, "reviews", reviewsRemoved)
	}
	return jobsRemoved, reviewsRemoved
}
