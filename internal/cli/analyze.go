package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/brandlens/brandlens/internal/client"
)

var (
	analyzeUser   string
	analyzeBrand  string
	analyzeNoWait bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <website-url>",
	Short: "Analyze a brand's website",
	Long: `Submit a website for brand intelligence extraction.

The server crawls the site, extracts brand identity, competitors and
products, and routes low-confidence extractions to the review queue.

Examples:
  brandlens analyze https://acme.com --user u123
  brandlens analyze https://acme.com --user u123 --no-wait`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeUser, "user", "u", "", "user ID owning the analysis (required)")
	analyzeCmd.Flags().StringVarP(&analyzeBrand, "brand", "b", "", "brand ID to associate")
	analyzeCmd.Flags().BoolVar(&analyzeNoWait, "no-wait", false, "submit and return without waiting for completion")
	_ = analyzeCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	job, err := apiClient.CreateAnalysis(ctx, args[0], analyzeUser, analyzeBrand)
	if err != nil {
		return fmt.Errorf("submit analysis: %w", err)
	}

	if analyzeNoWait {
		fmt.Printf("Analysis submitted: %s\n", job.ID)
		fmt.Printf("Check status with 'brandlens jobs %s'\n", job.ID)
		return nil
	}

	// Interactive progress bar on a terminal, line-per-update otherwise.
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return RunJobProgress(apiClient, job)
	}
	return watchPlain(ctx, job.ID)
}

// watchPlain streams job updates over the websocket and prints one line each.
func watchPlain(ctx context.Context, jobID string) error {
	fmt.Printf("Analysis submitted: %s\n", jobID)

	err := apiClient.WatchJob(ctx, jobID, func(u client.JobUpdate) error {
		fmt.Printf("[%3d%%] %-12s %s\n", u.Progress, u.Status, u.CurrentStep)
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch analysis: %w", err)
	}

	job, err := apiClient.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("get job: %w", err)
	}
	if job.Error != "" {
		return fmt.Errorf("analysis failed: %s", job.Error)
	}
	if job.Result != nil && len(job.Result.ReviewIDs) > 0 {
		fmt.Printf("%d extraction(s) need review. Run 'brandlens reviews' to inspect.\n", len(job.Result.ReviewIDs))
	}
	return nil
}
