package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"resumeiq/internal/config"
	"resumeiq/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string
	dbPath     string

	// Loaded configuration, available to all subcommands after PreRun.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "resumeiq",
	Short: "resumeIQ - Governed AI resume feedback engine",
	Long: `resumeIQ generates resume feedback through a three-layer pipeline:
deterministic signals, constrained interpretation, and bounded AI judgment.

Every AI output cites the signals it is grounded in, passes safety
validation, and is governed by versioned prompt and model registries with
audit trails and instant rollback.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.InitializeDefault(verbose); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if dbPath != "" {
			cfg.Store.Path = dbPath
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the SQLite database")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(quickCmd)
	rootCmd.AddCommand(registryCmd)
	rootCmd.AddCommand(improveCmd)
	rootCmd.AddCommand(shadowCmd)
	rootCmd.AddCommand(evalCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
