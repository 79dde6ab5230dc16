package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ethpandaops/status-stream/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file without starting the server",
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Listen:      %s\n", cfg.Server.Address())
	fmt.Fprintf(out, "  Remote:      %s\n", cfg.Remote.Endpoint)
	fmt.Fprintf(out, "  Credentials: %d\n", len(cfg.Remote.Credentials))

	if cfg.Collector.Enabled {
		fmt.Fprintf(out, "  Collector:   every %s into %s\n", cfg.Collector.Interval, cfg.Sink.Type)
	} else {
		fmt.Fprintf(out, "  Collector:   disabled\n")
	}

	return nil
}
