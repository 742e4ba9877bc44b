// Package queue tracks asynchronous website-analysis jobs and routes
// low-confidence extraction results to human review. Records live in
// process memory only and are reclaimed by a periodic retention sweep.
package queue

import "time"

// JobStatus represents the state of an analysis job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusCrawling   JobStatus = "crawling"
	JobStatusExtracting JobStatus = "extracting"
	JobStatusAnalyzing  JobStatus = "analyzing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether s is completed or failed. Terminal statuses are
// a convention between the pipeline and its callers; the queue itself does
// not refuse updates after one is reached.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// JobResult holds the output of a finished analysis pipeline.
type JobResult struct {
	BrandIdentity map[string]any   `json:"brandIdentity,omitempty"`
	Competitors   []map[string]any `json:"competitors,omitempty"`
	Products      []map[string]any `json:"products,omitempty"`
	CrawlDuration time.Duration    `json:"crawlDuration,omitempty"`
	ReviewIDs     []string         `json:"reviewIds,omitempty"`
}

// Job represents one tracked unit of website-analysis work.
type Job struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	BrandID     string     `json:"brandId,omitempty"`
	WebsiteURL  string     `json:"websiteUrl"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"` // 0-100
	CurrentStep string     `json:"currentStep"`
	Result      *JobResult `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// JobPatch is a partial update applied to a job. Nil fields keep the
// stored value.
type JobPatch struct {
	Status      *JobStatus
	Progress    *int
	CurrentStep *string
	Result      *JobResult
	Error       *string
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// JobStats aggregates job counts by phase.
type JobStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}
