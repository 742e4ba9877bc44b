package queue

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// ReviewQueue tracks extraction reviews in memory. Like JobQueue it is
// constructed once at startup and injected where needed.
type ReviewQueue struct {
	mu        sync.RWMutex
	reviews   map[string]*ExtractionReview
	retention time.Duration
}

// NewReviewQueue creates a review queue with the given retention window.
func NewReviewQueue(retention time.Duration) *ReviewQueue {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &ReviewQueue{
		reviews:   make(map[string]*ExtractionReview),
		retention: retention,
	}
}

// CreateReview builds a review containing a FieldReview for every field
// whose confidence is strictly below the threshold. Fields without a score
// fall back to the "overall" score, then to 0.5. Overall confidence is the
// minimum of all supplied scores, including fields above the threshold.
func (q *ReviewQueue) CreateReview(req CreateReviewRequest) ExtractionReview {
	now := time.Now()

	// Deterministic field order for reviewers.
	fields := make([]string, 0, len(req.ExtractedData))
	for field := range req.ExtractedData {
		fields = append(fields, field)
	}
	slices.Sort(fields)

	var fieldReviews []FieldReview
	for _, field := range fields {
		value := req.ExtractedData[field]
		confidence := fieldConfidence(req.ConfidenceScores, field)
		if confidence < req.ThresholdUsed {
			fieldReviews = append(fieldReviews, FieldReview{
				Field:          field,
				DataType:       inferDataType(value),
				OriginalValue:  value,
				Confidence:     confidence,
				ApprovalStatus: ApprovalPending,
			})
		}
	}

	review := &ExtractionReview{
		ID:                fmt.Sprintf("review_%s_%d", req.JobID, now.UnixNano()),
		JobID:             req.JobID,
		DataType:          req.DataType,
		ExtractedData:     req.ExtractedData,
		OverallConfidence: minConfidence(req.ConfidenceScores),
		FieldReviews:      fieldReviews,
		Status:            ReviewStatusPending,
		CreatedAt:         now,
	}

	q.mu.Lock()
	q.reviews[review.ID] = review
	q.mu.Unlock()

	slog.Info("review created",
		"review_id", review.ID,
		"job_id", req.JobID,
		"data_type", req.DataType,
		"fields", len(fieldReviews),
		"confidence", review.OverallConfidence)

	return snapshotReview(review)
}

// Get returns a copy of the review, or nil if the id is unknown.
func (q *ReviewQueue) Get(reviewID string) *ExtractionReview {
	q.mu.RLock()
	defer q.mu.RUnlock()

	review, ok := q.reviews[reviewID]
	if !ok {
		return nil
	}
	snapshot := snapshotReview(review)
	return &snapshot
}

// GetJobReviews returns every review belonging to the job.
func (q *ReviewQueue) GetJobReviews(jobID string) []ExtractionReview {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var out []ExtractionReview
	for _, review := range q.reviews {
		if review.JobID == jobID {
			out = append(out, snapshotReview(review))
		}
	}
	sortReviews(out)
	return out
}

// GetPendingReviews returns every review still awaiting decisions.
func (q *ReviewQueue) GetPendingReviews() []ExtractionReview {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var out []ExtractionReview
	for _, review := range q.reviews {
		if review.Status == ReviewStatusPending {
			out = append(out, snapshotReview(review))
		}
	}
	sortReviews(out)
	return out
}

// Approve applies field-level decisions and recomputes the aggregate
// status. Re-submitting a decision for a field overwrites the previous one.
// A partial set of decisions leaves the review pending. Any rejected field
// voids the batch: the review ends rejected and no approved data is built.
// Returns nil if the id is unknown.
func (q *ReviewQueue) Approve(reviewID string, req ApproveReviewRequest) *ExtractionReview {
	q.mu.Lock()
	defer q.mu.Unlock()

	review, ok := q.reviews[reviewID]
	if !ok {
		slog.Warn("review not found", "review_id", reviewID)
		return nil
	}

	now := time.Now()
	for _, decision := range req.Approvals {
		for i := range review.FieldReviews {
			fr := &review.FieldReviews[i]
			if fr.Field != decision.Field {
				continue
			}
			fr.ApprovalStatus = decision.Status
			if decision.Status == ApprovalEdited && decision.Value != nil {
				fr.UserApprovedValue = decision.Value
			}
			if decision.Feedback != "" {
				fr.Feedback = decision.Feedback
			}
			stamp := now
			fr.UserApprovedAt = &stamp
			break
		}
	}

	review.Status = aggregateStatus(review.FieldReviews)
	if review.Status == ReviewStatusApproved || review.Status == ReviewStatusPartiallyApproved {
		review.UserApprovedData = buildApprovedData(review)
	}

	review.ReviewedAt = &now
	if req.Notes != "" {
		review.Notes = req.Notes
	}

	slog.Info("review decided", "review_id", reviewID, "status", review.Status)

	snapshot := snapshotReview(review)
	return &snapshot
}

// Reject force-rejects the whole review, overriding any prior per-field
// decisions. Returns nil if the id is unknown.
func (q *ReviewQueue) Reject(reviewID, reason string) *ExtractionReview {
	q.mu.Lock()
	defer q.mu.Unlock()

	review, ok := q.reviews[reviewID]
	if !ok {
		return nil
	}

	now := time.Now()
	review.Status = ReviewStatusRejected
	review.ReviewedAt = &now
	if reason == "" {
		reason = "Rejected by user"
	}
	review.Notes = reason

	for i := range review.FieldReviews {
		review.FieldReviews[i].ApprovalStatus = ApprovalRejected
	}

	slog.Info("review rejected", "review_id", reviewID)

	snapshot := snapshotReview(review)
	return &snapshot
}

// Stats returns review counts by status and the mean resolution time over
// reviews that have left pending and carry a reviewed timestamp.
func (q *ReviewQueue) Stats() ReviewStats {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var stats ReviewStats
	var resolved int
	var totalResolution time.Duration

	for _, review := range q.reviews {
		stats.TotalReviews++
		switch review.Status {
		case ReviewStatusPending:
			stats.PendingReviews++
		case ReviewStatusApproved, ReviewStatusPartiallyApproved:
			stats.ApprovedReviews++
		case ReviewStatusRejected:
			stats.RejectedReviews++
		}
		if review.Status != ReviewStatusPending && review.ReviewedAt != nil {
			resolved++
			totalResolution += review.ReviewedAt.Sub(review.CreatedAt)
		}
	}

	if resolved > 0 {
		stats.AverageResolutionTimeMs = float64(totalResolution.Milliseconds()) / float64(resolved)
	}
	return stats
}

// Cleanup deletes reviews older than the retention window regardless of
// status and returns the number removed.
func (q *ReviewQueue) Cleanup() int {
	cutoff := time.Now().Add(-q.retention)

	q.mu.Lock()
	defer q.mu.Unlock()

	removed := 0
	for id, review := range q.reviews {
		if review.CreatedAt.Before(cutoff) {
			delete(q.reviews, id)
			removed++
		}
	}
	return removed
}

// fieldConfidence resolves a field's score with the overall-then-0.5
// fallback.
func fieldConfidence(scores map[string]float64, field string) float64 {
	if c, ok := scores[field]; ok {
		return c
	}
	if c, ok := scores["overall"]; ok {
		return c
	}
	return 0.5
}

// minConfidence returns the minimum supplied score, or 0.5 when no scores
// were supplied at all.
func minConfidence(scores map[string]float64) float64 {
	if len(scores) == 0 {
		return 0.5
	}
	min := 1.0
	first := true
	for _, c := range scores {
		if first || c < min {
			min = c
			first = false
		}
	}
	return min
}

// aggregateStatus derives the review status from its field decisions.
func aggregateStatus(fields []FieldReview) ReviewStatus {
	anyRejected := false
	anyEdited := false
	anyPending := false
	for _, fr := range fields {
		switch fr.ApprovalStatus {
		case ApprovalRejected:
			anyRejected = true
		case ApprovalEdited:
			anyEdited = true
		case ApprovalPending:
			anyPending = true
		}
	}

	switch {
	case anyRejected:
		return ReviewStatusRejected
	case anyPending:
		return ReviewStatusPending
	case anyEdited:
		return ReviewStatusPartiallyApproved
	default:
		return ReviewStatusApproved
	}
}

// buildApprovedData combines the original extraction with reviewer
// decisions: approved fields keep the original value, edited fields take
// the reviewer's value, rejected fields are dropped.
func buildApprovedData(review *ExtractionReview) map[string]any {
	approved := make(map[string]any, len(review.ExtractedData))
	for k, v := range review.ExtractedData {
		approved[k] = v
	}

	for _, fr := range review.FieldReviews {
		switch fr.ApprovalStatus {
		case ApprovalApproved:
			approved[fr.Field] = fr.OriginalValue
		case ApprovalEdited:
			if fr.UserApprovedValue != nil {
				approved[fr.Field] = fr.UserApprovedValue
			}
		case ApprovalRejected:
			delete(approved, fr.Field)
		}
	}
	return approved
}

// snapshotReview copies a review so callers never share the stored
// FieldReviews slice.
func snapshotReview(review *ExtractionReview) ExtractionReview {
	snapshot := *review
	snapshot.FieldReviews = slices.Clone(review.FieldReviews)
	return snapshot
}

func sortReviews(reviews []ExtractionReview) {
	slices.SortFunc(reviews, func(a, b ExtractionReview) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}
