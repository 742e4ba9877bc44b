package queue

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDefaults(t *testing.T) {
	q := NewJobQueue(24 * time.Hour)

	job := q.Create("u1", "https://x.com", "")

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, 0, job.Progress)
	assert.Equal(t, "u1", job.UserID)
	assert.Equal(t, "https://x.com", job.WebsiteURL)
	assert.Nil(t, job.Result)
	assert.Empty(t, job.Error)
	assert.False(t, job.CreatedAt.IsZero())
}

func TestCompleteSetsResultAndProgress(t *testing.T) {
	q := NewJobQueue(24 * time.Hour)
	job := q.Create("u1", "https://x.com", "")

	result := &JobResult{BrandIdentity: map[string]any{"foo": 1}}
	updated := q.Complete(job.ID, result)

	require.NotNil(t, updated)
	assert.Equal(t, JobStatusCompleted, updated.Status)
	assert.Equal(t, 100, updated.Progress)
	assert.Equal(t, result, updated.Result)
	assert.Empty(t, updated.Error)
	require.NotNil(t, updated.CompletedAt)
}

func TestFailSetsError(t *testing.T) {
	q := NewJobQueue(24 * time.Hour)
	job := q.Create("u1", "https://x.com", "")

	updated := q.Fail(job.ID, "crawl timed out")

	require.NotNil(t, updated)
	assert.Equal(t, JobStatusFailed, updated.Status)
	assert.Equal(t, "crawl timed out", updated.Error)
	require.NotNil(t, updated.CompletedAt)
}

func TestUpdateUnknownJob(t *testing.T) {
	q := NewJobQueue(24 * time.Hour)
	other := q.Create("u1", "https://x.com", "")

	progress := 50
	updated := q.Update("nope", JobPatch{Progress: &progress})

	assert.Nil(t, updated)
	// No observable effect on any other job.
	assert.Equal(t, 0, q.Get(other.ID).Progress)
}

func TestUpdateMergesPartialFields(t *testing.T) {
	q := NewJobQueue(24 * time.Hour)
	job := q.Create("u1", "https://x.com", "b1")

	status := JobStatusCrawling
	step := "Reading website..."
	progress := 10
	updated := q.Update(job.ID, JobPatch{Status: &status, CurrentStep: &step, Progress: &progress})

	require.NotNil(t, updated)
	assert.Equal(t, JobStatusCrawling, updated.Status)
	assert.Equal(t, 10, updated.Progress)
	assert.Equal(t, "Reading website...", updated.CurrentStep)
	// Omitted fields keep prior values.
	assert.Equal(t, "u1", updated.UserID)
	assert.Equal(t, "b1", updated.BrandID)

	// Terminal statuses are not enforced: updates after completion still apply.
	q.Complete(job.ID, &JobResult{})
	progress = 42
	after := q.Update(job.ID, JobPatch{Progress: &progress})
	require.NotNil(t, after)
	assert.Equal(t, 42, after.Progress)
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	q := NewJobQueue(24 * time.Hour)
	job := q.Create("u1", "https://x.com", "")

	seen := make(chan Job, 4)
	unsubscribe := q.Subscribe(job.ID, func(j Job) error {
		seen <- j
		return nil
	})

	progress := 30
	q.Update(job.ID, JobPatch{Progress: &progress})

	select {
	case j := <-seen:
		assert.Equal(t, 30, j.Progress)
	case <-time.After(time.Second):
		t.Fatal("listener was not invoked")
	}

	unsubscribe()
	progress = 60
	q.Update(job.ID, JobPatch{Progress: &progress})

	select {
	case <-seen:
		t.Fatal("listener invoked after unsubscribe")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestListenerErrorDoesNotBlockUpdate(t *testing.T) {
	q := NewJobQueue(24 * time.Hour)
	job := q.Create("u1", "https://x.com", "")

	q.Subscribe(job.ID, func(Job) error {
		return errors.New("websocket gone")
	})

	progress := 10
	updated := q.Update(job.ID, JobPatch{Progress: &progress})
	require.NotNil(t, updated)
	assert.Equal(t, 10, updated.Progress)
}

func TestGetUserJobs(t *testing.T) {
	q := NewJobQueue(24 * time.Hour)
	q.Create("u1", "https://a.com", "")
	q.Create("u2", "https://b.com", "")
	q.Create("u1", "https://c.com", "")

	jobs := q.GetUserJobs("u1")
	require.Len(t, jobs, 2)
	for _, j := range jobs {
		assert.Equal(t, "u1", j.UserID)
	}

	assert.Empty(t, q.GetUserJobs("nobody"))
}

func TestStatsCountsByPhase(t *testing.T) {
	q := NewJobQueue(24 * time.Hour)
	q.Create("u1", "https://a.com", "")
	crawling := q.Create("u1", "https://b.com", "")
	done := q.Create("u1", "https://c.com", "")
	failed := q.Create("u1", "https://d.com", "")

	status := JobStatusCrawling
	q.Update(crawling.ID, JobPatch{Status: &status})
	q.Complete(done.ID, &JobResult{})
	q.Fail(failed.ID, "boom")

	stats := q.Stats()
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 1, stats.Processing)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 1, stats.Failed)
}

func TestSweepRemovesExpiredJobs(t *testing.T) {
	q := NewJobQueue(10 * time.Millisecond)
	old := q.Create("u1", "https://a.com", "")

	// Fresh jobs survive a sweep.
	assert.Equal(t, 0, q.Sweep())
	require.NotNil(t, q.Get(old.ID))

	time.Sleep(20 * time.Millisecond)
	fresh := q.Create("u1", "https://b.com", "")

	assert.Equal(t, 1, q.Sweep())
	assert.Nil(t, q.Get(old.ID))
	assert.NotNil(t, q.Get(fresh.ID))
}
