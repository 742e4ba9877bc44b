package queue

import (
	"reflect"
	"time"
)

// ReviewStatus represents the aggregate state of an extraction review.
type ReviewStatus string

const (
	ReviewStatusPending           ReviewStatus = "pending"
	ReviewStatusApproved          ReviewStatus = "approved"
	ReviewStatusPartiallyApproved ReviewStatus = "partially_approved"
	ReviewStatusRejected          ReviewStatus = "rejected"
)

// ApprovalStatus represents one field's review decision.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalEdited   ApprovalStatus = "edited"
	ApprovalRejected ApprovalStatus = "rejected"
)

// FieldReview is one low-confidence field awaiting a human decision.
type FieldReview struct {
	Field             string         `json:"field"`
	DataType          string         `json:"dataType"`
	OriginalValue     any            `json:"originalValue"`
	Confidence        float64        `json:"confidence"`
	ApprovalStatus    ApprovalStatus `json:"approvalStatus"`
	UserApprovedValue any            `json:"userApprovedValue,omitempty"`
	UserApprovedAt    *time.Time     `json:"userApprovedAt,omitempty"`
	Feedback          string         `json:"feedback,omitempty"`
}

// ExtractionReview is a human-review record for a low-confidence extraction.
type ExtractionReview struct {
	ID                string         `json:"id"`
	JobID             string         `json:"jobId"`
	DataType          string         `json:"dataType"` // e.g. "identity", "competitors", "products"
	ExtractedData     map[string]any `json:"extractedData"`
	OverallConfidence float64        `json:"overallConfidence"`
	FieldReviews      []FieldReview  `json:"fieldReviews"`
	Status            ReviewStatus   `json:"status"`
	UserApprovedData  map[string]any `json:"userApprovedData,omitempty"`
	Notes             string         `json:"notes,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
	ReviewedAt        *time.Time     `json:"reviewedAt,omitempty"`
}

// CreateReviewRequest asks for a review of extracted data whose per-field
// confidence fell below the threshold.
type CreateReviewRequest struct {
	JobID            string             `json:"jobId"`
	DataType         string             `json:"dataType"`
	ExtractedData    map[string]any     `json:"extractedData"`
	ConfidenceScores map[string]float64 `json:"confidenceScores"`
	ThresholdUsed    float64            `json:"thresholdUsed"`
}

// FieldDecision is one reviewer decision within an approval request.
type FieldDecision struct {
	Field    string         `json:"field"`
	Status   ApprovalStatus `json:"status"` // approved, edited or rejected
	Value    any            `json:"value,omitempty"`
	Feedback string         `json:"feedback,omitempty"`
}

// ApproveReviewRequest carries field-level decisions for a review.
// Submitting decisions for a subset of fields leaves the review pending.
type ApproveReviewRequest struct {
	Approvals []FieldDecision `json:"approvals"`
	Notes     string          `json:"notes,omitempty"`
}

// ReviewStats aggregates review counts and resolution timing.
type ReviewStats struct {
	TotalReviews            int     `json:"totalReviews"`
	PendingReviews          int     `json:"pendingReviews"`
	ApprovedReviews         int     `json:"approvedReviews"`
	RejectedReviews         int     `json:"rejectedReviews"`
	AverageResolutionTimeMs float64 `json:"averageResolutionTimeMs,omitempty"`
}

// inferDataType tags a value's shape for reviewers: array, object, or a
// primitive kind.
func inferDataType(v any) string {
	if v == nil {
		return "null"
	}
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int32, int64, float32, float64:
		return "number"
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return "array"
	default:
		return "object"
	}
}
