package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/rs/zerolog"

	"github.com/dvloznov/treasury/internal/domain"
	"github.com/dvloznov/treasury/internal/ledger"
)

// BigQueryLedgerRepository is the concrete implementation of
// ledger.Repository that reads a BigQuery mirror of the ledger. It holds a
// shared BigQuery client to avoid creating a new connection for each call.
type BigQueryLedgerRepository struct {
	client *bigquery.Client
	ds     Dataset
	log    zerolog.Logger
}

// NewBigQueryLedgerRepository creates a repository reading from ds.
func NewBigQueryLedgerRepository(ctx context.Context, ds Dataset, log zerolog.Logger) (*BigQueryLedgerRepository, error) {
	client, err := bigquery.NewClient(ctx, ds.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryLedgerRepository: creating client: %w", err)
	}
	return &BigQueryLedgerRepository{client: client, ds: ds, log: log}, nil
}

// Close closes the BigQuery client connection.
func (r *BigQueryLedgerRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// ListMovements implements the ledger.Repository interface.
func (r *BigQueryLedgerRepository) ListMovements(ctx context.Context, filter ledger.MovementFilter) ([]domain.Movement, error) {
	rows, err := ListMovementsWithClient(ctx, r.client, r.ds, filter)
	if err != nil {
		return nil, err
	}
	return movementsFromRows(rows, filter, r.log), nil
}

// ListAccounts implements the ledger.Repository interface.
func (r *BigQueryLedgerRepository) ListAccounts(ctx context.Context, filter ledger.AccountFilter) ([]domain.Account, error) {
	rows, err := ListAccountsWithClient(ctx, r.client, r.ds, filter.IDs)
	if err != nil {
		return nil, err
	}
	return accountsFromRows(rows, filter, r.log), nil
}

// ListProjects implements the ledger.Repository interface.
func (r *BigQueryLedgerRepository) ListProjects(ctx context.Context) ([]domain.Project, error) {
	rows, err := ListProjectsWithClient(ctx, r.client, r.ds)
	if err != nil {
		return nil, err
	}
	projects := make([]domain.Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, domain.Project{ID: row.ProjectID, Name: row.ProjectName.StringVal, ClientID: row.ClientID.StringVal})
	}
	return projects, nil
}

// ListProviders implements the ledger.Repository interface.
func (r *BigQueryLedgerRepository) ListProviders(ctx context.Context) ([]domain.Provider, error) {
	rows, err := ListProvidersWithClient(ctx, r.client, r.ds)
	if err != nil {
		return nil, err
	}
	providers := make([]domain.Provider, 0, len(rows))
	for _, row := range rows {
		providers = append(providers, domain.Provider{ID: row.ProviderID, Name: row.ProviderName.StringVal})
	}
	return providers, nil
}

// ListClients implements the ledger.Repository interface.
func (r *BigQueryLedgerRepository) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := ListClientsWithClient(ctx, r.client, r.ds)
	if err != nil {
		return nil, err
	}
	clients := make([]domain.Client, 0, len(rows))
	for _, row := range rows {
		clients = append(clients, domain.Client{ID: row.ClientID, Name: row.ClientName.StringVal})
	}
	return clients, nil
}

// movementsFromRows validates rows, logging and skipping the rejected ones.
func movementsFromRows(rows []MovementRow, filter ledger.MovementFilter, log zerolog.Logger) []domain.Movement {
	movements := make([]domain.Movement, 0, len(rows))
	for _, row := range rows {
		m, err := domain.NewMovement(row.Raw())
		if err != nil {
			log.Warn().Err(err).Str("movement_id", row.MovementID).Msg("Skipping invalid movement")
			continue
		}
		if filter.Matches(m) {
			movements = append(movements, m)
		}
	}
	return movements
}

func accountsFromRows(rows []AccountRow, filter ledger.AccountFilter, log zerolog.Logger) []domain.Account {
	accounts := make([]domain.Account, 0, len(rows))
	for _, row := range rows {
		a, err := domain.NewAccount(row.Raw())
		if err != nil {
			log.Warn().Err(err).Str("account_id", row.AccountID).Msg("Skipping invalid account")
			continue
		}
		if filter.Matches(a) {
			accounts = append(accounts, a)
		}
	}
	return accounts
}

// Ensure BigQueryLedgerRepository implements the ledger.Repository interface.
var _ ledger.Repository = (*BigQueryLedgerRepository)(nil)
