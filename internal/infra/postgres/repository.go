package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/dvloznov/treasury/internal/domain"
	"github.com/dvloznov/treasury/internal/ledger"
)

// Repository implements ledger.Repository on a Postgres database.
type Repository struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// NewRepository connects to the database at dsn.
func NewRepository(ctx context.Context, dsn string, log zerolog.Logger) (*Repository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: connecting: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("NewRepository: ping: %w", err)
	}
	return &Repository{pool: pool, log: log}, nil
}

// Close releases the connection pool.
func (r *Repository) Close() {
	r.pool.Close()
}

// movementRow mirrors the movements table with every value read as text so
// malformed rows reach domain validation instead of failing the scan.
type movementRow struct {
	ID              string  `db:"id"`
	Date            string  `db:"date"`
	Kind            string  `db:"kind"`
	Status          string  `db:"status"`
	AmountPrimary   string  `db:"amount_primary"`
	AmountSecondary *string `db:"amount_secondary"`
	AccountID       *string `db:"account_id"`
	ProjectID       *string `db:"project_id"`
	ProviderID      *string `db:"provider_id"`
	Deleted         bool    `db:"deleted"`
}

func (row movementRow) raw() domain.RawMovement {
	return domain.RawMovement{
		ID:              row.ID,
		Date:            row.Date,
		Kind:            row.Kind,
		Status:          row.Status,
		AmountPrimary:   row.AmountPrimary,
		AmountSecondary: row.AmountSecondary,
		AccountID:       row.AccountID,
		ProjectID:       row.ProjectID,
		ProviderID:      row.ProviderID,
		Deleted:         row.Deleted,
	}
}

type accountRow struct {
	ID             string  `db:"id"`
	Name           *string `db:"name"`
	Type           *string `db:"type"`
	CurrentBalance *string `db:"current_balance"`
	Status         *string `db:"status"`
}

func (row accountRow) raw() domain.RawAccount {
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	return domain.RawAccount{
		ID:             row.ID,
		Name:           deref(row.Name),
		Type:           deref(row.Type),
		CurrentBalance: deref(row.CurrentBalance),
		Status:         deref(row.Status),
	}
}

// buildMovementQuery pushes the date, account and deleted criteria down to
// SQL. Status labels are free text upstream, so statuses are filtered after
// normalization.
func buildMovementQuery(filter ledger.MovementFilter) (string, []any) {
	query := `
		SELECT id, date::text AS date, kind, status,
			amount_primary::text AS amount_primary,
			amount_secondary::text AS amount_secondary,
			account_id, project_id, provider_id,
			COALESCE(deleted, false) AS deleted
		FROM movements`

	var where []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if !filter.IncludeDeleted {
		where = append(where, "NOT COALESCE(deleted, false)")
	}
	if filter.From != nil {
		add("date >= $%d::date", filter.From.String())
	}
	if filter.To != nil {
		add("date <= $%d::date", filter.To.String())
	}
	if len(filter.AccountIDs) > 0 {
		add("account_id = ANY($%d)", filter.AccountIDs)
	}
	if len(where) > 0 {
		query += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	query += "\n\t\tORDER BY date, id"
	return query, args
}

func buildAccountQuery(filter ledger.AccountFilter) (string, []any) {
	query := `
		SELECT id, name, type, current_balance::text AS current_balance, status
		FROM accounts`
	var args []any
	if len(filter.IDs) > 0 {
		args = append(args, filter.IDs)
		query += "\n\t\tWHERE id = ANY($1)"
	}
	query += "\n\t\tORDER BY id"
	return query, args
}

// ListMovements implements the ledger.Repository interface.
func (r *Repository) ListMovements(ctx context.Context, filter ledger.MovementFilter) ([]domain.Movement, error) {
	query, args := buildMovementQuery(filter)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListMovements: querying: %w", err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[movementRow])
	if err != nil {
		return nil, fmt.Errorf("ListMovements: scanning: %w", err)
	}

	movements := make([]domain.Movement, 0, len(records))
	for _, rec := range records {
		m, err := domain.NewMovement(rec.raw())
		if err != nil {
			r.log.Warn().Err(err).Str("movement_id", rec.ID).Msg("Skipping invalid movement")
			continue
		}
		if !filter.Matches(m) {
			continue
		}
		movements = append(movements, m)
	}
	return movements, nil
}

// ListAccounts implements the ledger.Repository interface.
func (r *Repository) ListAccounts(ctx context.Context, filter ledger.AccountFilter) ([]domain.Account, error) {
	query, args := buildAccountQuery(filter)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: querying: %w", err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[accountRow])
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: scanning: %w", err)
	}

	accounts := make([]domain.Account, 0, len(records))
	for _, rec := range records {
		a, err := domain.NewAccount(rec.raw())
		if err != nil {
			r.log.Warn().Err(err).Str("account_id", rec.ID).Msg("Skipping invalid account")
			continue
		}
		// status synonyms are resolved in Go
		if !filter.Matches(a) {
			continue
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

// ListProjects implements the ledger.Repository interface.
func (r *Repository) ListProjects(ctx context.Context) ([]domain.Project, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, COALESCE(name, '') AS name, COALESCE(client_id, '') AS client_id
		FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ListProjects: querying: %w", err)
	}
	projects, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Project, error) {
		var p domain.Project
		err := row.Scan(&p.ID, &p.Name, &p.ClientID)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("ListProjects: scanning: %w", err)
	}
	return projects, nil
}

// ListProviders implements the ledger.Repository interface.
func (r *Repository) ListProviders(ctx context.Context) ([]domain.Provider, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, COALESCE(name, '') AS name FROM providers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ListProviders: querying: %w", err)
	}
	providers, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Provider, error) {
		var p domain.Provider
		err := row.Scan(&p.ID, &p.Name)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("ListProviders: scanning: %w", err)
	}
	return providers, nil
}

// ListClients implements the ledger.Repository interface.
func (r *Repository) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, COALESCE(name, '') AS name FROM clients ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ListClients: querying: %w", err)
	}
	clients, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Client, error) {
		var c domain.Client
		err := row.Scan(&c.ID, &c.Name)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("ListClients: scanning: %w", err)
	}
	return clients, nil
}

// Ensure Repository implements the ledger.Repository interface.
var _ ledger.Repository = (*Repository)(nil)
