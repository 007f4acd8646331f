package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/api"
	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/harvest"
	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/logger"
	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/schedule"
	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/storage"
)

const stopTimeout = 30 * time.Second

func newScheduleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run harvests on the configured cron schedule and serve the status API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runSchedule(ctx, a)
		},
	}
}

func runSchedule(ctx context.Context, a *app) error {
	runner := harvest.NewRunner(a.orchestrator)

	scheduler, err := schedule.New(a.cfg.Schedule.Cron, runner, a.log)
	if err != nil {
		return err
	}

	handlerOpts := api.HandlerOptions{
		ServiceName:    a.cfg.Service.Name,
		ServiceVersion: Version,
		Runs:           runner,
		Buckets:        []string{a.cfg.Storage.OutputBucket, a.cfg.Storage.RunLogBucket},
		Metrics:        a.metrics.Handler(),
		RunContext:     ctx,
		Logger:         a.log,
	}
	if hc, ok := a.store.(storage.HealthChecker); ok {
		handlerOpts.Store = hc
	}
	if a.runLock != nil {
		handlerOpts.Lock = a.runLock
	}

	server := api.NewServer(api.Config{
		Port:           a.cfg.Schedule.Port,
		Debug:          a.cfg.Service.Debug,
		ServiceName:    a.cfg.Service.Name,
		ServiceVersion: Version,
	}, a.log, api.NewHandler(handlerOpts))

	scheduler.Start()
	errCh := server.StartAsync()

	if a.cfg.Schedule.RunOnStart {
		if startErr := runner.Start(ctx, func(r *harvest.Report, runErr error) {
			if runErr != nil {
				a.log.Error("Startup harvest did not start", logger.Error(runErr))
				return
			}
			a.log.Info("Startup harvest finished", logger.String("run_id", r.RunID), logger.String("outcome", r.Outcome))
		}); startErr != nil {
			a.log.Warn("Startup harvest skipped", logger.Error(startErr))
		}
	}

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
		a.log.Info("Shutdown signal received")
	}

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
	defer cancel()

	if err = scheduler.Stop(stopCtx); err != nil {
		a.log.Warn("Scheduler did not stop cleanly", logger.Error(err))
	}
	if err = server.Shutdown(stopCtx); err != nil {
		a.log.Warn("HTTP server did not stop cleanly", logger.Error(err))
	}

	if serveErr != nil {
		return fmt.Errorf("status API: %w", serveErr)
	}
	return nil
}
