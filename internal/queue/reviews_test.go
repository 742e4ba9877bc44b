package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identityReview(q *ReviewQueue) ExtractionReview {
	return q.CreateReview(CreateReviewRequest{
		JobID:    "job_1",
		DataType: "identity",
		ExtractedData: map[string]any{
			"mission": "X",
			"vision":  "Y",
		},
		ConfidenceScores: map[string]float64{"mission": 0.75, "vision": 0.82},
		ThresholdUsed:    0.85,
	})
}

func TestCreateReviewRoutesLowConfidenceFields(t *testing.T) {
	q := NewReviewQueue(24 * time.Hour)
	review := identityReview(q)

	assert.Equal(t, "job_1", review.JobID)
	assert.Equal(t, ReviewStatusPending, review.Status)
	require.Len(t, review.FieldReviews, 2)
	assert.Equal(t, "mission", review.FieldReviews[0].Field)
	assert.Equal(t, "vision", review.FieldReviews[1].Field)
	assert.Equal(t, 0.75, review.OverallConfidence)

	for _, fr := range review.FieldReviews {
		assert.Equal(t, ApprovalPending, fr.ApprovalStatus)
	}
}

func TestCreateReviewSkipsConfidentFields(t *testing.T) {
	q := NewReviewQueue(24 * time.Hour)
	review := q.CreateReview(CreateReviewRequest{
		JobID:    "job_1",
		DataType: "identity",
		ExtractedData: map[string]any{
			"mission":    "X",
			"coreValues": []any{"a", "b"},
		},
		ConfidenceScores: map[string]float64{"mission": 0.95, "coreValues": 0.6},
		ThresholdUsed:    0.85,
	})

	// Only the low-confidence field is surfaced, but the overall
	// confidence still reflects every supplied score.
	require.Len(t, review.FieldReviews, 1)
	assert.Equal(t, "coreValues", review.FieldReviews[0].Field)
	assert.Equal(t, "array", review.FieldReviews[0].DataType)
	assert.Equal(t, 0.6, review.OverallConfidence)
}

func TestCreateReviewConfidenceFallbacks(t *testing.T) {
	q := NewReviewQueue(24 * time.Hour)
	review := q.CreateReview(CreateReviewRequest{
		JobID:         "job_1",
		DataType:      "competitors",
		ExtractedData: map[string]any{"scored": "a", "unscored": "b"},
		ConfidenceScores: map[string]float64{
			"scored":  0.9,
			"overall": 0.7,
		},
		ThresholdUsed: 0.85,
	})

	// "unscored" falls back to the overall score and lands under threshold.
	require.Len(t, review.FieldReviews, 1)
	assert.Equal(t, "unscored", review.FieldReviews[0].Field)
	assert.Equal(t, 0.7, review.FieldReviews[0].Confidence)
}

func TestCreateReviewDefaultConfidence(t *testing.T) {
	q := NewReviewQueue(24 * time.Hour)
	review := q.CreateReview(CreateReviewRequest{
		JobID:            "job_1",
		DataType:         "products",
		ExtractedData:    map[string]any{"name": "Widget"},
		ConfidenceScores: map[string]float64{},
		ThresholdUsed:    0.85,
	})

	require.Len(t, review.FieldReviews, 1)
	assert.Equal(t, 0.5, review.FieldReviews[0].Confidence)
	assert.Equal(t, 0.5, review.OverallConfidence)
}

func TestInferDataType(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"string", "x", "string"},
		{"number", 3.5, "number"},
		{"int", 3, "number"},
		{"bool", true, "boolean"},
		{"array", []any{"a"}, "array"},
		{"string slice", []string{"a"}, "array"},
		{"object", map[string]any{"k": "v"}, "object"},
		{"nil", nil, "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inferDataType(tt.value); got != tt.want {
				t.Errorf("inferDataType(%v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestApproveAllFields(t *testing.T) {
	q := NewReviewQueue(24 * time.Hour)
	review := identityReview(q)

	updated := q.Approve(review.ID, ApproveReviewRequest{
		Approvals: []FieldDecision{
			{Field: "mission", Status: ApprovalApproved},
			{Field: "vision", Status: ApprovalApproved},
		},
	})

	require.NotNil(t, updated)
	assert.Equal(t, ReviewStatusApproved, updated.Status)
	require.NotNil(t, updated.ReviewedAt)
	assert.Equal(t, map[string]any{"mission": "X", "vision": "Y"}, updated.UserApprovedData)
}

func TestApproveWithEdit(t *testing.T) {
	q := NewReviewQueue(24 * time.Hour)
	review := identityReview(q)

	updated := q.Approve(review.ID, ApproveReviewRequest{
		Approvals: []FieldDecision{
			{Field: "mission", Status: ApprovalApproved},
			{Field: "vision", Status: ApprovalEdited, Value: "Z", Feedback: "too vague"},
		},
	})

	require.NotNil(t, updated)
	assert.Equal(t, ReviewStatusPartiallyApproved, updated.Status)
	assert.Equal(t, map[string]any{"mission": "X", "vision": "Z"}, updated.UserApprovedData)

	for _, fr := range updated.FieldReviews {
		if fr.Field == "vision" {
			assert.Equal(t, ApprovalEdited, fr.ApprovalStatus)
			assert.Equal(t, "Z", fr.UserApprovedValue)
			assert.Equal(t, "too vague", fr.Feedback)
			assert.NotNil(t, fr.UserApprovedAt)
		}
	}
}

func TestApproveWithRejectionVoidsBatch(t *testing.T) {
	q := NewReviewQueue(24 * time.Hour)
	review := identityReview(q)

	updated := q.Approve(review.ID, ApproveReviewRequest{
		Approvals: []FieldDecision{
			{Field: "mission", Status: ApprovalApproved},
			{Field: "vision", Status: ApprovalRejected},
		},
	})

	require.NotNil(t, updated)
	assert.Equal(t, ReviewStatusRejected, updated.Status)
	assert.Nil(t, updated.UserApprovedData)
}

func TestApprovePartialSubmissionStaysPending(t *testing.T) {
	q := NewReviewQueue(24 * time.Hour)
	review := identityReview(q)

	updated := q.Approve(review.ID, ApproveReviewRequest{
		Approvals: []FieldDecision{{Field: "mission", Status: ApprovalApproved}},
	})

	require.NotNil(t, updated)
	assert.Equal(t, ReviewStatusPending, updated.Status)
	assert.Nil(t, updated.UserApprovedData)

	// The remaining decision closes the review; the resubmitted field is
	// simply overwritten.
	final := q.Approve(review.ID, ApproveReviewRequest{
		Approvals: []FieldDecision{{Field: "vision", Status: ApprovalApproved}},
	})
	require.NotNil(t, final)
	assert.Equal(t, ReviewStatusApproved, final.Status)
}

func TestApproveUnknownReview(t *testing.T) {
	q := NewReviewQueue(24 * time.Hour)
	assert.Nil(t, q.Approve("nonexistent", ApproveReviewRequest{}))
	assert.Nil(t, q.Get("nonexistent"))
	assert.Nil(t, q.Reject("nonexistent", ""))
}

func TestRejectReviewForcesAllFields(t *testing.T) {
	q := NewReviewQueue(24 * time.Hour)
	review := identityReview(q)

	// Prior per-field decisions are overridden.
	q.Approve(review.ID, ApproveReviewRequest{
		Approvals: []FieldDecision{{Field: "mission", Status: ApprovalApproved}},
	})

	rejected := q.Reject(review.ID, "wrong brand entirely")
	require.NotNil(t, rejected)
	assert.Equal(t, ReviewStatusRejected, rejected.Status)
	assert.Equal(t, "wrong brand entirely", rejected.Notes)
	require.NotNil(t, rejected.ReviewedAt)
	for _, fr := range rejected.FieldReviews {
		assert.Equal(t, ApprovalRejected, fr.ApprovalStatus)
	}
}

func TestGetJobAndPendingReviews(t *testing.T) {
	q := NewReviewQueue(24 * time.Hour)
	first := identityReview(q)
	q.CreateReview(CreateReviewRequest{
		JobID:            "job_2",
		DataType:         "competitors",
		ExtractedData:    map[string]any{"names": []any{"A"}},
		ConfidenceScores: map[string]float64{"names": 0.4},
		ThresholdUsed:    0.85,
	})

	assert.Len(t, q.GetJobReviews("job_1"), 1)
	assert.Len(t, q.GetJobReviews("job_2"), 1)
	assert.Empty(t, q.GetJobReviews("job_3"))
	assert.Len(t, q.GetPendingReviews(), 2)

	q.Approve(first.ID, ApproveReviewRequest{
		Approvals: []FieldDecision{
			{Field: "mission", Status: ApprovalApproved},
			{Field: "vision", Status: ApprovalApproved},
		},
	})
	assert.Len(t, q.GetPendingReviews(), 1)
}

func TestReviewStats(t *testing.T) {
	q := NewReviewQueue(24 * time.Hour)
	approved := identityReview(q)
	rejected := identityReview(q)
	identityReview(q) // stays pending

	q.Approve(approved.ID, ApproveReviewRequest{
		Approvals: []FieldDecision{
			{Field: "mission", Status: ApprovalApproved},
			{Field: "vision", Status: ApprovalEdited, Value: "Z"},
		},
	})
	q.Reject(rejected.ID, "")

	stats := q.Stats()
	assert.Equal(t, 3, stats.TotalReviews)
	assert.Equal(t, 1, stats.PendingReviews)
	assert.Equal(t, 1, stats.ApprovedReviews) // partially_approved counts as approved
	assert.Equal(t, 1, stats.RejectedReviews)
	assert.GreaterOrEqual(t, stats.AverageResolutionTimeMs, 0.0)
}

func TestCleanupRemovesExpiredReviews(t *testing.T) {
	q := NewReviewQueue(10 * time.Millisecond)
	old := identityReview(q)

	assert.Equal(t, 0, q.Cleanup())
	require.NotNil(t, q.Get(old.ID))

	time.Sleep(20 * time.Millisecond)
	fresh := identityReview(q)

	assert.Equal(t, 1, q.Cleanup())
	assert.Nil(t, q.Get(old.ID))
	assert.NotNil(t, q.Get(fresh.ID))
}
