package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brandlens/brandlens/internal/metrics"
	"github.com/brandlens/brandlens/internal/queue"
)

// Orchestrator drives one analysis job through crawl, extract and analyze,
// updating job progress and routing low-confidence extractions to review.
type Orchestrator struct {
	jobs      *queue.JobQueue
	reviews   *queue.ReviewQueue
	crawler   Crawler
	extractor Extractor
	collector *metrics.Collector
	threshold float64
}

// NewOrchestrator wires the pipeline dependencies together.
func NewOrchestrator(jobs *queue.JobQueue, reviews *queue.ReviewQueue, crawler Crawler, extractor Extractor, collector *metrics.Collector, threshold float64) *Orchestrator {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.85
	}
	return &Orchestrator{
		jobs:      jobs,
		reviews:   reviews,
		crawler:   crawler,
		extractor: extractor,
		collector: collector,
		threshold: threshold,
	}
}

// Start runs the pipeline for the job in a background goroutine.
func (o *Orchestrator) Start(ctx context.Context, jobID string) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("analysis pipeline panicked", "job_id", jobID, "panic", r)
				o.jobs.Fail(jobID, fmt.Sprintf("internal panic: %v", r))
			}
		}()
		o.run(ctx, jobID)
	}()
}

func (o *Orchestrator) run(ctx context.Context, jobID string) {
	job := o.jobs.Get(jobID)
	if job == nil {
		slog.Warn("pipeline started for unknown job", "job_id", jobID)
		return
	}

	pipelineStart := time.Now()
	now := time.Now()
	o.progress(jobID, queue.JobStatusCrawling, 10, "Reading website...", &now)

	// Crawl
	crawlStart := time.Now()
	crawl, err := o.crawler.Crawl(ctx, job.WebsiteURL)
	if err != nil {
		o.collector.RecordFailure(metrics.StageCrawl, time.Since(crawlStart))
		o.fail(jobID, pipelineStart, fmt.Errorf("crawl: %w", err))
		return
	}
	o.collector.RecordTiming(metrics.StageCrawl, time.Since(crawlStart))

	// Extract
	o.progress(jobID, queue.JobStatusExtracting, 40, "Extracting brand intelligence...", nil)
	extractStart := time.Now()
	identity, err := o.extractor.ExtractBrandIdentity(ctx, crawl)
	if err != nil {
		o.collector.RecordFailure(metrics.StageExtract, time.Since(extractStart))
		o.fail(jobID, pipelineStart, fmt.Errorf("extract identity: %w", err))
		return
	}
	competitors, err := o.extractor.IdentifyCompetitors(ctx, crawl)
	if err != nil {
		o.collector.RecordFailure(metrics.StageExtract, time.Since(extractStart))
		o.fail(jobID, pipelineStart, fmt.Errorf("identify competitors: %w", err))
		return
	}
	products, err := o.extractor.CategorizeProducts(ctx, crawl)
	if err != nil {
		o.collector.RecordFailure(metrics.StageExtract, time.Since(extractStart))
		o.fail(jobID, pipelineStart, fmt.Errorf("categorize products: %w", err))
		return
	}
	o.collector.RecordTiming(metrics.StageExtract, time.Since(extractStart))

	// Analyze: route low-confidence extractions to review
	o.progress(jobID, queue.JobStatusAnalyzing, 70, "Analyzing results...", nil)
	analyzeStart := time.Now()
	var reviewIDs []string
	for dataType, extraction := range map[string]*Extraction{
		"identity":    identity,
		"competitors": competitors,
		"products":    products,
	} {
		if !needsReview(extraction.Confidences, o.threshold) {
			continue
		}
		review := o.reviews.CreateReview(queue.CreateReviewRequest{
			JobID:            jobID,
			DataType:         dataType,
			ExtractedData:    extraction.Data,
			ConfidenceScores: extraction.Confidences,
			ThresholdUsed:    o.threshold,
		})
		reviewIDs = append(reviewIDs, review.ID)
	}
	o.collector.RecordTiming(metrics.StageAnalyze, time.Since(analyzeStart))

	result := &queue.JobResult{
		BrandIdentity: identity.Data,
		Competitors:   objectList(competitors.Data, "competitors"),
		Products:      objectList(products.Data, "products"),
		CrawlDuration: crawl.Duration,
		ReviewIDs:     reviewIDs,
	}

	o.jobs.Complete(jobID, result)
	o.collector.RecordTiming(metrics.StagePipeline, time.Since(pipelineStart))
	slog.Info("analysis completed",
		"job_id", jobID,
		"reviews", len(reviewIDs),
		"duration_ms", time.Since(pipelineStart).Milliseconds())
}

func (o *Orchestrator) progress(jobID string, status queue.JobStatus, progress int, step string, startedAt *time.Time) {
	o.jobs.Update(jobID, queue.JobPatch{
		Status:      &status,
		Progress:    &progress,
		CurrentStep: &step,
		StartedAt:   startedAt,
	})
}

func (o *Orchestrator) fail(jobID string, pipelineStart time.Time, err error) {
	o.collector.RecordFailure(metrics.StagePipeline, time.Since(pipelineStart))
	slog.Error("analysis failed", "job_id", jobID, "error", err)
	o.jobs.Fail(jobID, err.Error())
}

// needsReview reports whether any score falls strictly below the threshold.
func needsReview(confidences map[string]float64, threshold float64) bool {
	for _, score := range confidences {
		if score < threshold {
			return true
		}
	}
	return false
}

// objectList pulls a []map[string]any out of an extraction payload field.
func objectList(data map[string]any, field string) []map[string]any {
	raw, ok := data[field].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
