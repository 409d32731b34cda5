package notionsync

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/jomei/notionapi"

	"github.com/dvloznov/treasury/internal/domain"
	"github.com/dvloznov/treasury/internal/logger"
	"github.com/dvloznov/treasury/internal/treasury"
)

// SyncStats counts the page operations of one sync.
type SyncStats struct {
	Created  int `json:"created"`
	Updated  int `json:"updated"`
	Archived int `json:"archived"`
	Failed   int `json:"failed"`
}

// Syncer mirrors at-risk accounts into a Notion database: one page per
// account, updated in place, archived once the account is no longer at risk.
type Syncer struct {
	client     NotionService
	databaseID string
	currency   domain.Currency
	dryRun     bool
}

// NewSyncer creates a Syncer writing to databaseID. Amounts are labelled
// in currency.
func NewSyncer(client NotionService, databaseID string, currency domain.Currency, dryRun bool) *Syncer {
	return &Syncer{client: client, databaseID: databaseID, currency: currency, dryRun: dryRun}
}

// SyncRiskAlerts publishes the at-risk accounts of a scan.
func (s *Syncer) SyncRiskAlerts(ctx context.Context, asOf civil.Date, horizonDays int, accounts []treasury.AccountProjection) error {
	_, err := s.Sync(ctx, Alert{AsOf: asOf, HorizonDays: horizonDays, Currency: s.currency}, accounts)
	return err
}

// Sync creates or updates a page for every at-risk account and archives the
// pages of accounts that are no longer at risk. Accounts not at risk in the
// input are ignored. Individual page failures are logged and counted.
func (s *Syncer) Sync(ctx context.Context, alert Alert, accounts []treasury.AccountProjection) (*SyncStats, error) {
	log := logger.FromContext(ctx)

	log.Info().
		Bool("dry_run", s.dryRun).
		Str("as_of", alert.AsOf.String()).
		Int("horizon_days", alert.HorizonDays).
		Msg("Starting risk alert sync to Notion")

	pages, err := queryAllNotionPages(ctx, s.client, s.databaseID)
	if err != nil {
		return nil, fmt.Errorf("Sync: querying Notion pages: %w", err)
	}

	existing := make(map[string]string, len(pages))
	for _, page := range pages {
		if id := extractAccountID(page); id != "" {
			existing[id] = string(page.ID)
		}
	}

	stats := &SyncStats{}
	atRisk := make(map[string]bool)
	for _, acc := range accounts {
		if !acc.AtRisk {
			continue
		}
		atRisk[acc.AccountID] = true
		props := RiskAlertToNotionProperties(acc, alert)

		pageID, found := existing[acc.AccountID]
		if s.dryRun {
			log.Info().
				Str("account_id", acc.AccountID).
				Bool("exists", found).
				Msg("[DRY RUN] Would create/update Notion page for at-risk account")
			if found {
				stats.Updated++
			} else {
				stats.Created++
			}
			continue
		}

		if found {
			if _, err := s.client.UpdatePage(ctx, pageID, props); err != nil {
				log.Warn().Err(err).Str("account_id", acc.AccountID).Str("page_id", pageID).Msg("Failed to update Notion page")
				stats.Failed++
				continue
			}
			stats.Updated++
			continue
		}

		page, err := s.client.CreatePage(ctx, s.databaseID, props)
		if err != nil {
			log.Warn().Err(err).Str("account_id", acc.AccountID).Msg("Failed to create Notion page")
			stats.Failed++
			continue
		}
		log.Info().Str("account_id", acc.AccountID).Str("page_id", string(page.ID)).Msg("Created Notion page for at-risk account")
		stats.Created++
	}

	for accountID, pageID := range existing {
		if atRisk[accountID] {
			continue
		}
		if s.dryRun {
			log.Info().Str("account_id", accountID).Str("page_id", pageID).Msg("[DRY RUN] Would archive cleared alert page")
			stats.Archived++
			continue
		}
		if _, err := s.client.UpdatePage(ctx, pageID, ClearedAlertProperties(alert)); err != nil {
			log.Warn().Err(err).Str("account_id", accountID).Msg("Failed to clear alert page")
		}
		if err := s.client.DeletePage(ctx, pageID); err != nil {
			log.Warn().Err(err).Str("account_id", accountID).Str("page_id", pageID).Msg("Failed to archive Notion page")
			stats.Failed++
			continue
		}
		stats.Archived++
	}

	log.Info().
		Int("created", stats.Created).
		Int("updated", stats.Updated).
		Int("archived", stats.Archived).
		Int("failed", stats.Failed).
		Msg("Risk alert sync completed")

	return stats, nil
}

// queryAllNotionPages queries all pages from a Notion database and returns them.
// Handles pagination automatically.
func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: 100,
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}

		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}
