package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brandlens/brandlens/internal/metrics"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show queue and pipeline statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	stats, err := apiClient.QueueStats(ctx)
	if err != nil {
		return fmt.Errorf("get queue stats: %w", err)
	}

	fmt.Println("Jobs:")
	fmt.Printf("  Total:      %d\n", stats.Jobs.Total)
	fmt.Printf("  Pending:    %d\n", stats.Jobs.Pending)
	fmt.Printf("  Processing: %d\n", stats.Jobs.Processing)
	fmt.Printf("  Completed:  %d\n", stats.Jobs.Completed)
	fmt.Printf("  Failed:     %d\n", stats.Jobs.Failed)

	fmt.Println("\nReviews:")
	fmt.Printf("  Total:    %d\n", stats.Reviews.TotalReviews)
	fmt.Printf("  Pending:  %d\n", stats.Reviews.PendingReviews)
	fmt.Printf("  Approved: %d\n", stats.Reviews.ApprovedReviews)
	fmt.Printf("  Rejected: %d\n", stats.Reviews.RejectedReviews)
	if stats.Reviews.AverageResolutionTimeMs > 0 {
		fmt.Printf("  Avg resolution: %.0fms\n", stats.Reviews.AverageResolutionTimeMs)
	}

	if !verbose {
		return nil
	}

	snap, err := apiClient.Metrics(ctx)
	if err != nil {
		return fmt.Errorf("get metrics: %w", err)
	}

	fmt.Println("\nPipeline timings (since server start):")
	fmt.Printf("  Uptime: %.0fs\n", snap.UptimeSeconds)
	printStage("crawl", snap.Crawl)
	printStage("extract", snap.Extract)
	printStage("analyze", snap.Analyze)
	printStage("pipeline", snap.Pipeline)

	return nil
}

func printStage(name string, s *metrics.StageSnapshot) {
	if s == nil {
		return
	}
	fmt.Printf("  %-8s runs=%d failures=%d avg=%.0fms min=%dms max=%dms\n",
		name, s.Count, s.Failures, s.AvgTimeMs, s.MinTimeMs, s.MaxTimeMs)
}
