package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/pathsource/app"
	"github.com/artpar/pathsource/core/registry"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <path>",
	Short: "Resolve a request path to its resource",
	Long: `Resolve matches a request path against the configured routes,
derives the domain key from the extracted parameters and prints the
resource from the bound data source as JSON.

Examples:
  pathsource resolve /users/42
  pathsource resolve /docs/guides/intro`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging)

	svc, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	value, err := svc.Resolve(context.Background(), args[0])
	if err != nil {
		if errors.Is(err, registry.ErrNoRoute) {
			return fmt.Errorf("no route matches %q", args[0])
		}
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
