package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandlens/brandlens/internal/metrics"
	"github.com/brandlens/brandlens/internal/queue"
)

// failingCrawler always errors.
type failingCrawler struct{}

func (failingCrawler) Crawl(context.Context, string) (*CrawlResult, error) {
	return nil, errors.New("connection refused")
}

func newTestOrchestrator(crawler Crawler, extractor Extractor) (*Orchestrator, *queue.JobQueue, *queue.ReviewQueue) {
	jobs := queue.NewJobQueue(24 * time.Hour)
	reviews := queue.NewReviewQueue(24 * time.Hour)
	o := NewOrchestrator(jobs, reviews, crawler, extractor, metrics.NewCollector(), 0.85)
	return o, jobs, reviews
}

func TestPipelineCompletesAndRoutesReviews(t *testing.T) {
	o, jobs, reviews := newTestOrchestrator(MockCrawler{}, MockExtractor{})
	job := jobs.Create("u1", "https://example.com", "b1")

	o.run(context.Background(), job.ID)

	final := jobs.Get(job.ID)
	require.NotNil(t, final)
	assert.Equal(t, queue.JobStatusCompleted, final.Status)
	assert.Equal(t, 100, final.Progress)
	require.NotNil(t, final.Result)
	require.NotNil(t, final.StartedAt)
	require.NotNil(t, final.CompletedAt)

	// The mock identity extraction is below threshold, competitors and
	// products are above it: exactly one review.
	require.Len(t, final.Result.ReviewIDs, 1)
	jobReviews := reviews.GetJobReviews(job.ID)
	require.Len(t, jobReviews, 1)
	assert.Equal(t, "identity", jobReviews[0].DataType)
	assert.Equal(t, queue.ReviewStatusPending, jobReviews[0].Status)

	// mission (0.75) and vision (0.82) fall under 0.85.
	fields := make([]string, 0, len(jobReviews[0].FieldReviews))
	for _, fr := range jobReviews[0].FieldReviews {
		fields = append(fields, fr.Field)
	}
	assert.Equal(t, []string{"mission", "vision"}, fields)
	assert.Equal(t, 0.75, jobReviews[0].OverallConfidence)
}

func TestPipelineFailsOnCrawlError(t *testing.T) {
	o, jobs, reviews := newTestOrchestrator(failingCrawler{}, MockExtractor{})
	job := jobs.Create("u1", "https://example.com", "")

	o.run(context.Background(), job.ID)

	final := jobs.Get(job.ID)
	require.NotNil(t, final)
	assert.Equal(t, queue.JobStatusFailed, final.Status)
	assert.Contains(t, final.Error, "crawl")
	assert.Empty(t, reviews.GetJobReviews(job.ID))
}

func TestPipelineUnknownJobIsNoop(t *testing.T) {
	o, jobs, _ := newTestOrchestrator(MockCrawler{}, MockExtractor{})
	o.run(context.Background(), "nope")
	assert.Equal(t, 0, jobs.Stats().Total)
}

func TestStartRecoversFromPanic(t *testing.T) {
	o, jobs, _ := newTestOrchestrator(panickyCrawler{}, MockExtractor{})
	job := jobs.Create("u1", "https://example.com", "")

	o.Start(context.Background(), job.ID)

	require.Eventually(t, func() bool {
		j := jobs.Get(job.ID)
		return j != nil && j.Status == queue.JobStatusFailed
	}, time.Second, 10*time.Millisecond)

	assert.Contains(t, jobs.Get(job.ID).Error, "internal panic")
}

type panickyCrawler struct{}

func (panickyCrawler) Crawl(context.Context, string) (*CrawlResult, error) {
	panic("nil dereference in markdown parser")
}

func TestNeedsReview(t *testing.T) {
	tests := []struct {
		name   string
		scores map[string]float64
		want   bool
	}{
		{"all above", map[string]float64{"a": 0.9, "b": 0.85}, false},
		{"one below", map[string]float64{"a": 0.9, "b": 0.84}, true},
		{"empty", map[string]float64{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := needsReview(tt.scores, 0.85); got != tt.want {
				t.Errorf("needsReview(%v) = %v, want %v", tt.scores, got, tt.want)
			}
		})
	}
}
