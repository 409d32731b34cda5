// Package app wires configuration to the stores, services and background
// workers shared by the commands.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/treasury/internal/config"
	"github.com/dvloznov/treasury/internal/gcsuploader"
	infraBQ "github.com/dvloznov/treasury/internal/infra/bigquery"
	"github.com/dvloznov/treasury/internal/infra/postgres"
	"github.com/dvloznov/treasury/internal/insights"
	"github.com/dvloznov/treasury/internal/ledger"
	"github.com/dvloznov/treasury/internal/ledger/inmemory"
	"github.com/dvloznov/treasury/internal/notionsync"
	"github.com/dvloznov/treasury/internal/treasury"
)

// OpenRepository opens the ledger store selected by cfg.Driver. The
// returned close function releases its connections.
func OpenRepository(ctx context.Context, cfg config.StoreConfig, log zerolog.Logger) (ledger.Repository, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		repo, err := postgres.NewRepository(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return nil, nil, fmt.Errorf("OpenRepository: %w", err)
		}
		return repo, repo.Close, nil

	case config.DriverBigQuery:
		repo, err := infraBQ.NewBigQueryLedgerRepository(ctx, infraBQ.Dataset{
			ProjectID: cfg.BigQueryProject,
			DatasetID: cfg.BigQueryDataset,
		}, log)
		if err != nil {
			return nil, nil, fmt.Errorf("OpenRepository: %w", err)
		}
		return repo, func() {
			if err := repo.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close BigQuery client")
			}
		}, nil

	case config.DriverMemory, "":
		store := inmemory.NewStore()
		if cfg.FixturePath != "" {
			fixture, err := loadFixture(ctx, cfg.FixturePath)
			if err != nil {
				return nil, nil, fmt.Errorf("OpenRepository: %w", err)
			}
			rejected := store.Load(fixture, log)
			log.Info().
				Str("fixture", cfg.FixturePath).
				Int("rejected", rejected).
				Msg("Loaded ledger fixture")
		}
		return store, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("OpenRepository: unknown store driver %q", cfg.Driver)
	}
}

// loadFixture reads a fixture from a local path or a gs:// URI.
func loadFixture(ctx context.Context, path string) (inmemory.Fixture, error) {
	if !strings.HasPrefix(path, "gs://") {
		return inmemory.LoadFixture(path)
	}
	data, err := gcsuploader.DownloadFile(ctx, path)
	if err != nil {
		return inmemory.Fixture{}, fmt.Errorf("loadFixture: %w", err)
	}
	return inmemory.ParseFixture(data)
}

// NewService opens the configured store and builds the treasury service.
func NewService(ctx context.Context, cfg config.Config, log zerolog.Logger) (*treasury.Service, func(), error) {
	svcCfg, err := cfg.ServiceConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("NewService: %w", err)
	}
	repo, closeRepo, err := OpenRepository(ctx, cfg.Store, log)
	if err != nil {
		return nil, nil, err
	}
	return treasury.NewService(repo, svcCfg), closeRepo, nil
}

// NewAlertSyncer returns the Notion syncer, or nil when Notion is not
// configured.
func NewAlertSyncer(cfg config.Config, svc *treasury.Service) *notionsync.Syncer {
	if !cfg.NotionEnabled() {
		return nil
	}
	client := notionsync.NewNotionClient(cfg.Notion.Token)
	return notionsync.NewSyncer(client, cfg.Notion.DatabaseID, svc.Currencies().Primary, cfg.Notion.DryRun)
}

// NewNarrator returns the Gemini narrator, or nil when it cannot be created.
func NewNarrator(ctx context.Context, cfg config.Config, log zerolog.Logger) insights.Narrator {
	narrator, err := insights.NewGeminiNarrator(ctx, cfg.Insights.Model)
	if err != nil {
		log.Warn().Err(err).Msg("Briefings disabled")
		return nil
	}
	return narrator
}
