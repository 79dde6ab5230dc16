// Package main is the entry point for the status-stream binary.
//
// Usage:
//
//	status-stream serve -c config.yaml    # Serve streams and run the collector
//	status-stream validate -c config.yaml # Validate configuration
//	status-stream version                 # Show version info
package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/ethpandaops/status-stream/internal/version"
)

var configPath string

// rootCmd serves when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "status-stream",
	Short: "Relays the remote public timeline as chunked HTTP streams",
	Long: `status-stream polls the remote public timeline on behalf of every
connected client and writes each new status as one chunk of a long-lived
HTTP response. A leader-elected background collector can store the same
statuses in MongoDB or a Redis stream.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")

		return enc.Encode(version.Get())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already printed the error.
		os.Exit(1)
	}
}
