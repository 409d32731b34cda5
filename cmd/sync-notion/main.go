package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/treasury/internal/app"
	"github.com/dvloznov/treasury/internal/config"
	"github.com/dvloznov/treasury/internal/logger"
	"github.com/dvloznov/treasury/internal/notionsync"
	"github.com/dvloznov/treasury/internal/treasury"
)

func main() {
	log := logger.New()

	configPath := flag.String("config", os.Getenv("TREASURY_CONFIG"), "path to the YAML configuration (or set TREASURY_CONFIG env)")
	asOfStr := flag.String("as-of", "", "projection start date in YYYY-MM-DD format (defaults to today)")
	horizon := flag.Int("horizon", 0, "projection horizon in days (defaults to scan.horizon_days)")
	notionToken := flag.String("notion-token", "", "Notion API token (overrides notion.token)")
	notionDBID := flag.String("notion-db-id", "", "Notion database ID (overrides notion.database_id)")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *notionToken != "" {
		cfg.Notion.Token = *notionToken
	}
	if *notionDBID != "" {
		cfg.Notion.DatabaseID = *notionDBID
	}
	if !cfg.NotionEnabled() {
		log.Fatal().Msg("Error: a Notion token and database ID are required")
	}

	params := treasury.ProjectionParams{
		AsOf:        civil.DateOf(time.Now()),
		HorizonDays: cfg.Scan.HorizonDays,
	}
	if *asOfStr != "" {
		d, err := civil.ParseDate(*asOfStr)
		if err != nil {
			log.Fatal().Err(err).Str("as_of", *asOfStr).Msg("Error: invalid as-of format, expected YYYY-MM-DD")
		}
		params.AsOf = d
	}
	if *horizon != 0 {
		params.HorizonDays = *horizon
	}
	if err := params.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Error: invalid projection window")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	svc, closeStore, err := app.NewService(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger")
	}
	defer closeStore()

	client := notionsync.NewNotionClient(cfg.Notion.Token)
	if err := client.CheckDatabase(ctx, cfg.Notion.DatabaseID); err != nil {
		log.Fatal().Err(err).Msg("Notion database is not reachable")
	}

	proj, err := svc.LiquidityProjection(ctx, params)
	if err != nil {
		log.Fatal().Err(err).Msg("Projection failed")
	}

	syncer := notionsync.NewSyncer(client, cfg.Notion.DatabaseID, proj.Currency, *dryRun || cfg.Notion.DryRun)
	stats, err := syncer.Sync(ctx, notionsync.Alert{
		AsOf:        params.AsOf,
		HorizonDays: params.HorizonDays,
		Currency:    proj.Currency,
	}, proj.Accounts)
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Printf("Sync completed: %d created, %d updated, %d archived, %d failed.\n",
		stats.Created, stats.Updated, stats.Archived, stats.Failed)
}
