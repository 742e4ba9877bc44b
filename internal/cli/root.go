// Package cli provides the command-line interface for brandlens.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/brandlens/brandlens/internal/client"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	serverURL string
	verbose   bool

	// apiClient talks to the brandlens server.
	apiClient *client.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "brandlens",
	Short: "Brand intelligence extraction from websites",
	Long: `BrandLens analyzes a brand's website and extracts its identity,
competitors and product catalog using an LLM.

Extractions the model is unsure about are routed to a human review queue;
approve, edit or reject them from here before the data is used.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		apiClient = client.New(serverURL)
		return nil
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server URL (default BRANDLENS_SERVER_URL or http://localhost:8484)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
