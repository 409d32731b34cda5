package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dvloznov/treasury/internal/config"
	"github.com/dvloznov/treasury/internal/jobs"
	"github.com/dvloznov/treasury/internal/jobs/inmemory"
	"github.com/dvloznov/treasury/internal/treasury"
)

// queueSize is the buffer of the in-process scan queue.
const queueSize = 100

// RiskScans runs risk scans in the background: an in-process queue
// consumed by a Scanner, fed by the API and an optional cron schedule.
type RiskScans struct {
	Store     *inmemory.Store
	Queue     *inmemory.Queue
	Scanner   *jobs.Scanner
	scheduler *jobs.Scheduler
	log       zerolog.Logger
}

// StartRiskScans starts the scan workers and, when cfg.Scan.Schedule is
// set, the scheduler.
func StartRiskScans(ctx context.Context, cfg config.Config, svc *treasury.Service, log zerolog.Logger) (*RiskScans, error) {
	store := inmemory.NewStore()
	queue := inmemory.NewQueue(queueSize, store)

	var alerts jobs.AlertSink
	if syncer := NewAlertSyncer(cfg, svc); syncer != nil {
		alerts = syncer
		log.Info().Str("database_id", cfg.Notion.DatabaseID).Bool("dry_run", cfg.Notion.DryRun).Msg("Publishing risk alerts to Notion")
	}

	rs := &RiskScans{
		Store:   store,
		Queue:   queue,
		Scanner: jobs.NewScanner(svc, queue, alerts, log),
		log:     log,
	}

	if err := queue.Start(ctx, rs.Scanner.Handle); err != nil {
		return nil, err
	}

	if cfg.Scan.Schedule != "" {
		scheduler, err := jobs.NewScheduler(cfg.Scan.Schedule, rs.Scanner, cfg.Scan.HorizonDays, cfg.Scan.RiskOnly, log)
		if err != nil {
			_ = queue.Close()
			return nil, err
		}
		scheduler.Start()
		rs.scheduler = scheduler
	}
	return rs, nil
}

// Stop stops the scheduler, waits for in-flight scans and closes the queue.
func (rs *RiskScans) Stop(ctx context.Context) {
	if rs.scheduler != nil {
		rs.scheduler.Stop()
	}
	if err := rs.Queue.Stop(ctx); err != nil {
		rs.log.Error().Err(err).Msg("Error stopping job queue")
	}
	if err := rs.Queue.Close(); err != nil {
		rs.log.Error().Err(err).Msg("Failed to close job queue")
	}
}
