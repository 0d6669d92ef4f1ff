package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/artpar/pathsource/config"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pathsource",
	Short: "Route-template engine with pluggable data sources",
	Long: `Pathsource compiles file-system-style route templates
([param], [...param], [[...param]]) into matchable patterns, ranks them
by specificity and resolves request paths against configured data
sources.

Inspection:
  pathsource routes           # Print the compiled route table
  pathsource resolve <path>   # Resolve a path to its resource
  pathsource validate         # Validate configuration`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "pathsource.yaml", "config file path")
}

// loadConfig reads and validates the configuration file.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// setupLogger builds a logger from the logging configuration.
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
