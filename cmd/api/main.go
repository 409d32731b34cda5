package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/dvloznov/treasury/internal/api/handlers"
	"github.com/dvloznov/treasury/internal/api/middleware"
	"github.com/dvloznov/treasury/internal/app"
	"github.com/dvloznov/treasury/internal/config"
	"github.com/dvloznov/treasury/internal/logger"
)

func main() {
	var (
		configPath = flag.String("config", os.Getenv("TREASURY_CONFIG"), "path to the YAML configuration (or set TREASURY_CONFIG env)")
		port       = flag.String("port", "", "HTTP server port (overrides http.port)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *port != "" {
		cfg.HTTP.Port = *port
	}

	log := logger.NewWithOptions(os.Stdout, logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	ctx := logger.WithContext(context.Background(), log)

	svc, closeStore, err := app.NewService(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger")
	}
	defer closeStore()

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	scans, err := app.StartRiskScans(workerCtx, cfg, svc, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start risk scans")
	}

	narrator := app.NewNarrator(ctx, cfg, log)
	if cfg.HTTP.AuthToken == "" {
		log.Warn().Msg("No API auth token configured - endpoints are unauthenticated")
	}

	router := mux.NewRouter()
	handlers.Register(router,
		handlers.NewTreasuryHandler(svc, narrator, cfg.Risk.DefaultHorizonDays, log),
		handlers.NewRiskScanHandler(scans.Scanner, cfg.Scan.HorizonDays, log),
		handlers.NewJobsHandler(scans.Store, log),
	)

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(
					middleware.Auth(cfg.HTTP.AuthToken, "/health")(router),
				),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("port", cfg.HTTP.Port).
			Str("store", cfg.Store.Driver).
			Str("primary_currency", cfg.Currencies.Primary).
			Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	cancelWorker()
	scans.Stop(shutdownCtx)

	log.Info().Msg("Server exited")
}
