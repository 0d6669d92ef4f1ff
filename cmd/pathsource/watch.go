package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/artpar/pathsource/adapters/metrics"
	"github.com/artpar/pathsource/app"
	"github.com/artpar/pathsource/config"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run with configuration hot reload",
	Long: `Watch keeps the route table hot, rebuilding it whenever the
configuration file changes on disk or the process receives SIGHUP.
A failed reload keeps the previous route table.

Reload outcomes are tracked in the process metrics. Stop with Ctrl-C
or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := setupLogger(config.LoggingConfig{Level: "info", Format: "console"})

	holder, err := config.NewHolder(cfgFile, logger)
	if err != nil {
		return err
	}
	defer holder.Stop()

	cfg := holder.Get()
	logger = setupLogger(cfg.Logging)
	collector := metrics.New()

	ctx := context.Background()
	svc, err := app.New(ctx, cfg, logger, app.WithMetrics(collector))
	if err != nil {
		return err
	}

	var mu sync.Mutex
	holder.OnChange(func(next *config.Config) {
		rebuilt, err := app.New(ctx, next, logger, app.WithMetrics(collector))
		if err != nil {
			logger.Error().Err(err).Msg("rebuild failed, keeping current route table")
			return
		}
		mu.Lock()
		old := svc
		svc = rebuilt
		mu.Unlock()
		old.Close()
		logger.Info().Strs("routes", rebuilt.Routes()).Msg("route table rebuilt")
	})
	holder.OnReload(func(err error) {
		if err != nil {
			collector.ConfigReloadErrors.Inc()
			return
		}
		collector.ConfigReloads.Inc()
	})

	if err := holder.WatchFile(); err != nil {
		return fmt.Errorf("watch config file: %w", err)
	}
	holder.WatchSignals()

	fmt.Printf("watching %s, send SIGHUP or edit the file to reload\n", cfgFile)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	mu.Lock()
	defer mu.Unlock()
	return svc.Close()
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
