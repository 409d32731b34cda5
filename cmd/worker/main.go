package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/treasury/internal/app"
	"github.com/dvloznov/treasury/internal/config"
	"github.com/dvloznov/treasury/internal/jobs"
	"github.com/dvloznov/treasury/internal/logger"
	"github.com/dvloznov/treasury/internal/treasury"
)

func main() {
	var (
		configPath = flag.String("config", os.Getenv("TREASURY_CONFIG"), "path to the YAML configuration (or set TREASURY_CONFIG env)")
		schedule   = flag.String("schedule", "", "cron schedule of risk scans (overrides scan.schedule)")
		runNow     = flag.Bool("run-now", false, "submit one scan immediately on start")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *schedule != "" {
		cfg.Scan.Schedule = *schedule
	}
	if cfg.Scan.Schedule == "" {
		cfg.Scan.Schedule = "@daily"
	}

	log := logger.NewWithOptions(os.Stdout, logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancel()

	svc, closeStore, err := app.NewService(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger")
	}
	defer closeStore()

	scans, err := app.StartRiskScans(ctx, cfg, svc, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start risk scans")
	}

	log.Info().
		Str("schedule", cfg.Scan.Schedule).
		Int("horizon_days", cfg.Scan.HorizonDays).
		Bool("notion", cfg.NotionEnabled()).
		Msg("Worker service started, waiting for scans...")

	if *runNow {
		params := treasury.ProjectionParams{
			AsOf:        civil.DateOf(time.Now()),
			HorizonDays: cfg.Scan.HorizonDays,
			RiskOnly:    cfg.Scan.RiskOnly,
		}
		if _, err := scans.Scanner.Submit(ctx, params, jobs.TriggerCLI); err != nil {
			log.Error().Err(err).Msg("Failed to submit initial scan")
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	scans.Stop(shutdownCtx)

	log.Info().Msg("Worker service exited")
}
