// Package cli provides the Cobra command tree for leadverify.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/leadverify-service/pkg/config"
	"github.com/user/leadverify-service/pkg/logger"
	"github.com/user/leadverify-service/pkg/metrics"
)

var logLevel string

// NewRootCmd creates the root cobra command for leadverify.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "leadverify",
		Short: "Collect business leads and verify their WhatsApp reachability",
		Long: `leadverify - lead collection and WhatsApp reachability verification

Scrapes business directory listings into lead batches, verifies each
lead's phone number against WhatsApp Web through a persistent browser
session, and keeps durable checkpoints so an interrupted run resumes
where it stopped.`,
		SilenceErrors: true, // main prints the error once
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init(os.Stderr, logger.ParseLevel(logLevel))
			metrics.Init()
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newVerifyCmd(),
		newCollectCmd(),
		newImportCmd(),
		newExportCmd(),
		newStatsCmd(),
		newServeCmd(),
	)
	return rootCmd
}

// loadConfig reads the environment configuration once per command run.
func loadConfig() *config.Config {
	cfg := config.Load()
	slog.Debug("Configuration loaded", "profile_dir", cfg.ProfileDir, "checks_per_hour", cfg.MaxChecksPerHour)
	return cfg
}
