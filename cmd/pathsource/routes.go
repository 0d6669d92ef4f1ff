package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/artpar/pathsource/app"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the compiled route table, most specific first",
	RunE:  runRoutes,
}

func runRoutes(cmd *cobra.Command, args []string) error {
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

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ORDER\tPATH")
	for i, route := range svc.Routes() {
		fmt.Fprintf(w, "%d\t%s\n", i+1, route)
	}
	return w.Flush()
}

func init() {
	rootCmd.AddCommand(routesCmd)
}
