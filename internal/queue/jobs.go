package queue

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobListener receives a snapshot of a job after every update.
type JobListener func(job Job) error

// JobQueue tracks analysis jobs in memory. All methods are safe for
// concurrent use. Construct one at startup and pass it to whatever needs
// it; there is no package-level instance.
type JobQueue struct {
	mu        sync.RWMutex
	jobs      map[string]*Job
	listeners map[string]map[int]JobListener
	nextSub   int
	retention time.Duration
}

// NewJobQueue creates a job queue with the given retention window.
// Jobs older than the window are removed by Sweep regardless of status.
func NewJobQueue(retention time.Duration) *JobQueue {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &JobQueue{
		jobs:      make(map[string]*Job),
		listeners: make(map[string]map[int]JobListener),
		retention: retention,
	}
}

// Create allocates a new pending job for the given user and website.
func (q *JobQueue) Create(userID, websiteURL, brandID string) Job {
	job := &Job{
		ID:          fmt.Sprintf("job_%s", uuid.New().String()[:8]),
		UserID:      userID,
		BrandID:     brandID,
		WebsiteURL:  websiteURL,
		Status:      JobStatusPending,
		Progress:    0,
		CurrentStep: "Initializing...",
		CreatedAt:   time.Now(),
	}

	q.mu.Lock()
	q.jobs[job.ID] = job
	q.mu.Unlock()

	slog.Info("job created", "job_id", job.ID, "user_id", userID, "url", websiteURL)
	return *job
}

// Get returns a copy of the job, or nil if the id is unknown.
func (q *JobQueue) Get(jobID string) *Job {
	q.mu.RLock()
	defer q.mu.RUnlock()

	job, ok := q.jobs[jobID]
	if !ok {
		return nil
	}
	snapshot := *job
	return &snapshot
}

// GetUserJobs returns all jobs owned by the user, most recent first.
func (q *JobQueue) GetUserJobs(userID string) []Job {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var jobs []Job
	for _, job := range q.jobs {
		if job.UserID == userID {
			jobs = append(jobs, *job)
		}
	}

	slices.SortFunc(jobs, func(a, b Job) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return jobs
}

// Update merges the patch into the stored job and notifies listeners with
// the updated snapshot. Returns nil if the id is unknown. Listener errors
// are logged, never propagated. Updates after a terminal status still apply.
func (q *JobQueue) Update(jobID string, patch JobPatch) *Job {
	q.mu.Lock()
	job, ok := q.jobs[jobID]
	if !ok {
		q.mu.Unlock()
		return nil
	}

	if patch.Status != nil {
		job.Status = *patch.Status
	}
	if patch.Progress != nil {
		job.Progress = *patch.Progress
	}
	if patch.CurrentStep != nil {
		job.CurrentStep = *patch.CurrentStep
	}
	if patch.Result != nil {
		job.Result = patch.Result
	}
	if patch.Error != nil {
		job.Error = *patch.Error
	}
	if patch.StartedAt != nil {
		job.StartedAt = patch.StartedAt
	}
	if patch.CompletedAt != nil {
		job.CompletedAt = patch.CompletedAt
	}

	snapshot := *job
	listeners := make([]JobListener, 0, len(q.listeners[jobID]))
	for _, l := range q.listeners[jobID] {
		listeners = append(listeners, l)
	}
	q.mu.Unlock()

	for _, listener := range listeners {
		go func(l JobListener) {
			if err := l(snapshot); err != nil {
				slog.Error("job listener failed", "job_id", snapshot.ID, "error", err)
			}
		}(listener)
	}

	return &snapshot
}

// Complete marks the job completed with the given result.
func (q *JobQueue) Complete(jobID string, result *JobResult) *Job {
	now := time.Now()
	status := JobStatusCompleted
	progress := 100
	step := "Completed"
	return q.Update(jobID, JobPatch{
		Status:      &status,
		Progress:    &progress,
		CurrentStep: &step,
		Result:      result,
		CompletedAt: &now,
	})
}

// Fail marks the job failed with the given error message.
func (q *JobQueue) Fail(jobID, errMsg string) *Job {
	now := time.Now()
	status := JobStatusFailed
	step := "Failed: " + errMsg
	return q.Update(jobID, JobPatch{
		Status:      &status,
		CurrentStep: &step,
		Error:       &errMsg,
		CompletedAt: &now,
	})
}

// Subscribe registers a listener for updates to the job and returns an
// unsubscribe function. Unsubscribing twice is harmless.
func (q *JobQueue) Subscribe(jobID string, listener JobListener) func() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.listeners[jobID] == nil {
		q.listeners[jobID] = make(map[int]JobListener)
	}
	id := q.nextSub
	q.nextSub++
	q.listeners[jobID][id] = listener

	return func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		delete(q.listeners[jobID], id)
		if len(q.listeners[jobID]) == 0 {
			delete(q.listeners, jobID)
		}
	}
}

// Stats returns job counts grouped by phase.
func (q *JobQueue) Stats() JobStats {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var stats JobStats
	stats.Total = len(q.jobs)
	for _, job := range q.jobs {
		switch job.Status {
		case JobStatusPending:
			stats.Pending++
		case JobStatusCompleted:
			stats.Completed++
		case JobStatusFailed:
			stats.Failed++
		default:
			stats.Processing++
		}
	}
	return stats
}

// Sweep deletes jobs (and their listener lists) created before the
// retention window and returns the number removed.
func (q *JobQueue) Sweep() int {
	cutoff := time.Now().Add(-q.retention)

	q.mu.Lock()
	defer q.mu.Unlock()

	removed := 0
	for id, job := range q.jobs {
		if job.CreatedAt.Before(cutoff) {
			delete(q.jobs, id)
			delete(q.listeners, id)
			removed++
		}
	}
	return removed
}
