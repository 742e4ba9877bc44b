package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var jobsUser string

var jobsCmd = &cobra.Command{
	Use:   "jobs [job-id]",
	Short: "List or inspect analysis jobs",
	Long: `List all analysis jobs for a user or inspect a specific job by ID.

Examples:
  brandlens jobs --user u123      # List all jobs for u123
  brandlens jobs job_abc123       # Show details for job_abc123`,
	Args: cobra.MaximumNArgs(1),
	RunE: runJobs,
}

func init() {
	jobsCmd.Flags().StringVarP(&jobsUser, "user", "u", "", "user ID to list jobs for")
	rootCmd.AddCommand(jobsCmd)
}

func runJobs(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if len(args) == 1 {
		return showJob(ctx, args[0])
	}

	if jobsUser == "" {
		return fmt.Errorf("--user is required when listing jobs")
	}
	return listJobs(ctx, jobsUser)
}

func listJobs(ctx context.Context, userID string) error {
	jobs, err := apiClient.ListJobs(ctx, userID)
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}

	if len(jobs) == 0 {
		fmt.Println("No jobs found")
		return nil
	}

	fmt.Printf("%-14s %-12s %-9s %-24s %s\n", "ID", "STATUS", "PROGRESS", "STEP", "CREATED")
	fmt.Println("--------------------------------------------------------------------------------")

	for _, job := range jobs {
		fmt.Printf("%-14s %-12s %7d%% %-24s %s\n",
			job.ID, job.Status, job.Progress, job.CurrentStep, job.CreatedAt.Format("15:04:05"))
	}

	return nil
}

func showJob(ctx context.Context, id string) error {
	job, err := apiClient.GetJob(ctx, id)
	if err != nil {
		return fmt.Errorf("get job: %w", err)
	}

	fmt.Printf("Job: %s\n", job.ID)
	fmt.Printf("  Website: %s\n", job.WebsiteURL)
	fmt.Printf("  User: %s\n", job.UserID)
	fmt.Printf("  Status: %s\n", job.Status)
	fmt.Printf("  Progress: %d%%\n", job.Progress)
	fmt.Printf("  Step: %s\n", job.CurrentStep)
	fmt.Printf("  Created: %s\n", job.CreatedAt.Format(time.RFC3339))
	if job.StartedAt != nil {
		fmt.Printf("  Started: %s\n", job.StartedAt.Format(time.RFC3339))
	}
	if job.CompletedAt != nil {
		fmt.Printf("  Completed: %s\n", job.CompletedAt.Format(time.RFC3339))
		if job.StartedAt != nil {
			fmt.Printf("  Duration: %s\n", job.CompletedAt.Sub(*job.StartedAt).Round(time.Second))
		}
	}

	if job.Error != "" {
		fmt.Printf("  Error: %s\n", job.Error)
	}

	if job.Result != nil {
		fmt.Println("\nResult:")
		fmt.Printf("  Crawl duration: %s\n", job.Result.CrawlDuration.Round(time.Millisecond))
		fmt.Printf("  Identity fields: %d\n", len(job.Result.BrandIdentity))
		fmt.Printf("  Competitors: %d\n", len(job.Result.Competitors))
		fmt.Printf("  Products: %d\n", len(job.Result.Products))
		if len(job.Result.ReviewIDs) > 0 {
			fmt.Printf("\n  Pending reviews (%d):\n", len(job.Result.ReviewIDs))
			for _, rid := range job.Result.ReviewIDs {
				fmt.Printf("    - %s\n", rid)
			}
		}
	}

	return nil
}
