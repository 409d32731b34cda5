package bigquery

import (
	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/treasury/internal/domain"
)

// MovementRow is a movements table row. Dates and NUMERIC amounts are cast
// to STRING in the query so malformed values reach domain validation.
type MovementRow struct {
	MovementID string `bigquery:"movement_id"` // REQUIRED

	Date   string `bigquery:"date"`   // DATE cast to STRING
	Kind   string `bigquery:"kind"`   // free-form label
	Status string `bigquery:"status"` // free-form label

	AmountPrimary   string              `bigquery:"amount_primary"`   // NUMERIC cast to STRING
	AmountSecondary bigquery.NullString `bigquery:"amount_secondary"` // NUMERIC cast to STRING, NULLABLE

	AccountID  bigquery.NullString `bigquery:"account_id"`  // NULLABLE
	ProjectID  bigquery.NullString `bigquery:"project_id"`  // NULLABLE
	ProviderID bigquery.NullString `bigquery:"provider_id"` // NULLABLE

	IsDeleted bool `bigquery:"is_deleted"`
}

func nullable(s bigquery.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.StringVal
	return &v
}

// Raw converts the row to the shape domain.NewMovement validates.
func (r MovementRow) Raw() domain.RawMovement {
	return domain.RawMovement{
		ID:              r.MovementID,
		Date:            r.Date,
		Kind:            r.Kind,
		Status:          r.Status,
		AmountPrimary:   r.AmountPrimary,
		AmountSecondary: nullable(r.AmountSecondary),
		AccountID:       nullable(r.AccountID),
		ProjectID:       nullable(r.ProjectID),
		ProviderID:      nullable(r.ProviderID),
		Deleted:         r.IsDeleted,
	}
}

type AccountRow struct {
	AccountID string `bigquery:"account_id"` // REQUIRED

	AccountName    bigquery.NullString `bigquery:"account_name"`    // NULLABLE
	AccountType    bigquery.NullString `bigquery:"account_type"`    // NULLABLE
	CurrentBalance bigquery.NullString `bigquery:"current_balance"` // NUMERIC cast to STRING
	Status         bigquery.NullString `bigquery:"status"`          // NULLABLE
}

// Raw converts the row to the shape domain.NewAccount validates.
func (r AccountRow) Raw() domain.RawAccount {
	return domain.RawAccount{
		ID:             r.AccountID,
		Name:           r.AccountName.StringVal,
		Type:           r.AccountType.StringVal,
		CurrentBalance: r.CurrentBalance.StringVal,
		Status:         r.Status.StringVal,
	}
}

type ProjectRow struct {
	ProjectID   string              `bigquery:"project_id"`
	ProjectName bigquery.NullString `bigquery:"project_name"`
	ClientID    bigquery.NullString `bigquery:"client_id"`
}

type ProviderRow struct {
	ProviderID   string              `bigquery:"provider_id"`
	ProviderName bigquery.NullString `bigquery:"provider_name"`
}

type ClientRow struct {
	ClientID   string              `bigquery:"client_id"`
	ClientName bigquery.NullString `bigquery:"client_name"`
}
