package bigquery

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/treasury/internal/ledger"
)

// Dataset names the BigQuery project and dataset holding the ledger tables.
type Dataset struct {
	ProjectID string
	DatasetID string
}

// Table returns the fully qualified, backquoted name of table.
func (d Dataset) Table(table string) string {
	return fmt.Sprintf("`%s.%s.%s`", d.ProjectID, d.DatasetID, table)
}

// readAll runs q and decodes every row into a T.
func readAll[T any](ctx context.Context, q *bigquery.Query) ([]T, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading query: %w", err)
	}
	var rows []T
	for {
		var row T
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// buildMovementQuery pushes the date, account and deleted criteria down to
// SQL as named parameters. Statuses are free text and filtered after
// normalization.
func buildMovementQuery(ds Dataset, filter ledger.MovementFilter) (string, []bigquery.QueryParameter) {
	query := fmt.Sprintf(`
		SELECT
			movement_id,
			CAST(date AS STRING) AS date,
			kind,
			status,
			CAST(amount_primary AS STRING) AS amount_primary,
			CAST(amount_secondary AS STRING) AS amount_secondary,
			account_id,
			project_id,
			provider_id,
			IFNULL(is_deleted, FALSE) AS is_deleted
		FROM %s`, ds.Table("movements"))

	var where []string
	var params []bigquery.QueryParameter
	if !filter.IncludeDeleted {
		where = append(where, "NOT IFNULL(is_deleted, FALSE)")
	}
	if filter.From != nil {
		where = append(where, "date >= @fromDate")
		params = append(params, bigquery.QueryParameter{Name: "fromDate", Value: *filter.From})
	}
	if filter.To != nil {
		where = append(where, "date <= @toDate")
		params = append(params, bigquery.QueryParameter{Name: "toDate", Value: *filter.To})
	}
	if len(filter.AccountIDs) > 0 {
		where = append(where, "account_id IN UNNEST(@accountIds)")
		params = append(params, bigquery.QueryParameter{Name: "accountIds", Value: filter.AccountIDs})
	}
	if len(where) > 0 {
		query += "\n\t\tWHERE " + strings.Join(where, "\n\t\t  AND ")
	}
	query += "\n\t\tORDER BY date, movement_id"
	return query, params
}

// ListMovementsWithClient retrieves movement rows matching the filter.
func ListMovementsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, filter ledger.MovementFilter) ([]MovementRow, error) {
	query, params := buildMovementQuery(ds, filter)
	q := client.Query(query)
	q.Parameters = params

	rows, err := readAll[MovementRow](ctx, q)
	if err != nil {
		return nil, fmt.Errorf("ListMovementsWithClient: %w", err)
	}
	return rows, nil
}

// ListAccountsWithClient retrieves account rows, restricted to ids when given.
func ListAccountsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, ids []string) ([]AccountRow, error) {
	query := fmt.Sprintf(`
		SELECT
			account_id,
			account_name,
			account_type,
			CAST(current_balance AS STRING) AS current_balance,
			status
		FROM %s`, ds.Table("accounts"))
	var params []bigquery.QueryParameter
	if len(ids) > 0 {
		query += "\n\t\tWHERE account_id IN UNNEST(@accountIds)"
		params = append(params, bigquery.QueryParameter{Name: "accountIds", Value: ids})
	}
	query += "\n\t\tORDER BY account_id"

	q := client.Query(query)
	q.Parameters = params
	rows, err := readAll[AccountRow](ctx, q)
	if err != nil {
		return nil, fmt.Errorf("ListAccountsWithClient: %w", err)
	}
	return rows, nil
}

// ListProjectsWithClient retrieves every project row.
func ListProjectsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset) ([]ProjectRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT project_id, project_name, client_id
		FROM %s
		ORDER BY project_id
	`, ds.Table("projects")))
	rows, err := readAll[ProjectRow](ctx, q)
	if err != nil {
		return nil, fmt.Errorf("ListProjectsWithClient: %w", err)
	}
	return rows, nil
}

// ListProvidersWithClient retrieves every provider row.
func ListProvidersWithClient(ctx context.Context, client *bigquery.Client, ds Dataset) ([]ProviderRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT provider_id, provider_name
		FROM %s
		ORDER BY provider_id
	`, ds.Table("providers")))
	rows, err := readAll[ProviderRow](ctx, q)
	if err != nil {
		return nil, fmt.Errorf("ListProvidersWithClient: %w", err)
	}
	return rows, nil
}

// ListClientsWithClient retrieves every client row.
func ListClientsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset) ([]ClientRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT client_id, client_name
		FROM %s
		ORDER BY client_id
	`, ds.Table("clients")))
	rows, err := readAll[ClientRow](ctx, q)
	if err != nil {
		return nil, fmt.Errorf("ListClientsWithClient: %w", err)
	}
	return rows, nil
}
