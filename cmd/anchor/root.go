package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"scraperhq/anchor/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	strict  bool
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "anchor",
	Short: "Anchor - layered scraper configuration resolver",
	Long: `Anchor resolves scraper configuration from layered sources into a single
validated snapshot.

Sources are merged in fixed precedence order:
  1. Built-in defaults
  2. Configuration file (YAML or JSON)
  3. Active profile
  4. SCRAPER_-prefixed environment variables
  5. Runtime overrides

Every field is validated against the schema and all violations are reported
together, with the source layer that supplied each offending value.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "scraper.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", false, "treat unknown keys as errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// newLogger builds the CLI logger honoring --verbose.
func newLogger() *slog.Logger {
	level := "WARNING"
	if verbose {
		level = "DEBUG"
	}
	logger, _, err := logging.New(logging.Config{Level: level, Redact: true})
	if err != nil {
		return slog.Default()
	}
	return logger
}
