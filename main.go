package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"usgs-water-summary/config"
	"usgs-water-summary/metrics"
	"usgs-water-summary/pipeline"
	"usgs-water-summary/storage"
	"usgs-water-summary/utils"
)

func main() {
	cfg := config.Load()
	logger := utils.NewLogger(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		fmt.Printf("FAILURE: %v\n", err)
		return
	}

	logger.Info("=== USGS streamflow summary starting ===")
	logger.Info("Config — site: %s | param: %s | window: %dd | archive: %s",
		cfg.SiteID, cfg.ParameterCode, cfg.WindowDays, cfg.ArchiveBackend)

	var opts []pipeline.Option

	archive, err := pipeline.OpenArchive(cfg)
	if err != nil {
		logger.Warn("Archive disabled: %v", err)
	} else if archive != nil {
		defer closeArchive(logger, archive)
		opts = append(opts, pipeline.WithArchive(archive))
	}

	if cfg.MetricsTextfile != "" {
		opts = append(opts, pipeline.WithMetrics(metrics.NewRecorder(cfg.SiteID, cfg.ParameterCode)))
	}

	p := pipeline.New(cfg, logger, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Schedule == "" {
		pipeline.Execute(ctx, p, os.Stdout)
		return
	}

	c, err := newScheduler(cfg.Schedule, func() {
		pipeline.Execute(ctx, p, os.Stdout)
	})
	if err != nil {
		fmt.Printf("FAILURE: %v\n", err)
		return
	}

	// Run immediately, then on the schedule until interrupted.
	pipeline.Execute(ctx, p, os.Stdout)

	logger.Info("Scheduled with %q; press Ctrl+C to stop", cfg.Schedule)
	c.Start()

	<-ctx.Done()
	logger.Info("Shutting down scheduler...")
	<-c.Stop().Done()
}

// newScheduler registers run on schedule. A slow run is never overlapped
// by the next tick.
func newScheduler(schedule string, run func()) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(schedule, run); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	return c, nil
}

func closeArchive(logger *utils.Logger, archive storage.ReadingArchive) {
	if err := archive.Close(); err != nil {
		logger.Warn("Archive close failed: %v", err)
	}
}
