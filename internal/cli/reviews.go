package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/brandlens/brandlens/internal/queue"
)

var reviewsJob string

var reviewsCmd = &cobra.Command{
	Use:   "reviews [review-id]",
	Short: "List or inspect extraction reviews",
	Long: `List pending extraction reviews or inspect a specific review by ID.

Examples:
  brandlens reviews                    # List all pending reviews
  brandlens reviews --job job_abc123   # List reviews for one job
  brandlens reviews review_xyz         # Show details for a review`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReviews,
}

var (
	approveEdits   []string
	approveRejects []string
	approveNotes   string
)

var approveCmd = &cobra.Command{
	Use:   "approve <review-id>",
	Short: "Approve a review's extracted fields",
	Long: `Submit decisions for a review's flagged fields.

Fields not named by --edit or --reject are approved as extracted.

Examples:
  brandlens reviews approve review_xyz
  brandlens reviews approve review_xyz --edit mission="We sell rockets"
  brandlens reviews approve review_xyz --reject vision --notes "vision is boilerplate"`,
	Args: cobra.ExactArgs(1),
	RunE: runApprove,
}

var rejectReason string

var rejectCmd = &cobra.Command{
	Use:   "reject <review-id>",
	Short: "Reject a review outright",
	Args:  cobra.ExactArgs(1),
	RunE:  runReject,
}

func init() {
	reviewsCmd.Flags().StringVar(&reviewsJob, "job", "", "list reviews for a specific job")

	approveCmd.Flags().StringArrayVar(&approveEdits, "edit", nil, "edit a field before approval, as field=value (repeatable)")
	approveCmd.Flags().StringArrayVar(&approveRejects, "reject", nil, "reject a single field (repeatable)")
	approveCmd.Flags().StringVar(&approveNotes, "notes", "", "reviewer notes")

	rejectCmd.Flags().StringVar(&rejectReason, "reason", "", "rejection reason")

	reviewsCmd.AddCommand(approveCmd)
	reviewsCmd.AddCommand(rejectCmd)
	rootCmd.AddCommand(reviewsCmd)
}

func runReviews(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if len(args) == 1 {
		return showReview(ctx, args[0])
	}
	if reviewsJob != "" {
		return listJobReviews(ctx, reviewsJob)
	}
	return listPendingReviews(ctx)
}

func listPendingReviews(ctx context.Context) error {
	reviews, err := apiClient.PendingReviews(ctx)
	if err != nil {
		return fmt.Errorf("list pending reviews: %w", err)
	}

	if len(reviews) == 0 {
		fmt.Println("No pending reviews")
		return nil
	}

	printReviewTable(reviews)
	return nil
}

func listJobReviews(ctx context.Context, jobID string) error {
	result, err := apiClient.JobReviews(ctx, jobID)
	if err != nil {
		return fmt.Errorf("list job reviews: %w", err)
	}

	if len(result.Reviews) == 0 {
		fmt.Printf("No reviews for job %s\n", jobID)
		return nil
	}

	printReviewTable(result.Reviews)
	return nil
}

func printReviewTable(reviews []queue.ExtractionReview) {
	fmt.Printf("%-28s %-12s %-20s %-11s %s\n", "ID", "TYPE", "STATUS", "CONFIDENCE", "CREATED")
	fmt.Println("---------------------------------------------------------------------------------------")
	for _, r := range reviews {
		fmt.Printf("%-28s %-12s %-20s %10.2f %s\n",
			r.ID, r.DataType, r.Status, r.OverallConfidence, r.CreatedAt.Format("15:04:05"))
	}
}

func showReview(ctx context.Context, id string) error {
	review, err := apiClient.GetReview(ctx, id)
	if err != nil {
		return fmt.Errorf("get review: %w", err)
	}

	fmt.Printf("Review: %s\n", review.ID)
	fmt.Printf("  Job: %s\n", review.JobID)
	fmt.Printf("  Type: %s\n", review.DataType)
	fmt.Printf("  Status: %s\n", review.Status)
	fmt.Printf("  Overall confidence: %.2f\n", review.OverallConfidence)
	fmt.Printf("  Created: %s\n", review.CreatedAt.Format(time.RFC3339))
	if review.ReviewedAt != nil {
		fmt.Printf("  Reviewed: %s\n", review.ReviewedAt.Format(time.RFC3339))
	}
	if review.Notes != "" {
		fmt.Printf("  Notes: %s\n", review.Notes)
	}

	fmt.Println("\nFlagged fields:")
	for _, fr := range review.FieldReviews {
		fmt.Printf("  %s (%s, confidence %.2f): %s\n",
			fr.Field, fr.DataType, fr.Confidence, formatValue(fr.OriginalValue))
		if fr.ApprovalStatus != queue.ApprovalPending {
			fmt.Printf("    decision: %s", fr.ApprovalStatus)
			if fr.UserApprovedValue != nil {
				fmt.Printf(" (edited to %s)", formatValue(fr.UserApprovedValue))
			}
			fmt.Println()
		}
	}

	if review.UserApprovedData != nil {
		fmt.Println("\nApproved data:")
		for field, value := range review.UserApprovedData {
			fmt.Printf("  %s: %s\n", field, formatValue(value))
		}
	}

	return nil
}

// formatValue renders a field value for display, JSON-encoding structures.
func formatValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func runApprove(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	id := args[0]

	review, err := apiClient.GetReview(ctx, id)
	if err != nil {
		return fmt.Errorf("get review: %w", err)
	}

	edits := make(map[string]string, len(approveEdits))
	for _, e := range approveEdits {
		field, value, ok := strings.Cut(e, "=")
		if !ok {
			return fmt.Errorf("invalid --edit %q, expected field=value", e)
		}
		edits[field] = value
	}
	rejected := make(map[string]bool, len(approveRejects))
	for _, field := range approveRejects {
		rejected[field] = true
	}

	var approvals []queue.FieldDecision
	for _, fr := range review.FieldReviews {
		switch {
		case rejected[fr.Field]:
			approvals = append(approvals, queue.FieldDecision{
				Field:  fr.Field,
				Status: queue.ApprovalRejected,
			})
		case edits[fr.Field] != "":
			approvals = append(approvals, queue.FieldDecision{
				Field:  fr.Field,
				Status: queue.ApprovalEdited,
				Value:  edits[fr.Field],
			})
		default:
			approvals = append(approvals, queue.FieldDecision{
				Field:  fr.Field,
				Status: queue.ApprovalApproved,
			})
		}
	}

	updated, err := apiClient.ApproveReview(ctx, id, queue.ApproveReviewRequest{
		Approvals: approvals,
		Notes:     approveNotes,
	})
	if err != nil {
		return fmt.Errorf("approve review: %w", err)
	}

	fmt.Printf("Review %s is now %s\n", updated.ID, updated.Status)
	return nil
}

func runReject(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	updated, err := apiClient.RejectReview(ctx, args[0], rejectReason)
	if err != nil {
		return fmt.Errorf("reject review: %w", err)
	}

	fmt.Printf("Review %s rejected\n", updated.ID)
	return nil
}
