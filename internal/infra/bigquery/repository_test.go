package bigquery

import (
	"bytes"
	"strings"
	"testing"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/treasury/internal/domain"
	"github.com/dvloznov/treasury/internal/ledger"
)

var testDataset = Dataset{ProjectID: "acme-prod", DatasetID: "treasury"}

func TestDataset_Table(t *testing.T) {
	if got := testDataset.Table("movements"); got != "`acme-prod.treasury.movements`" {
		t.Errorf("Table() = %s", got)
	}
}

func TestBuildMovementQuery(t *testing.T) {
	from := civil.Date{Year: 2024, Month: 3, Day: 2}
	to := civil.Date{Year: 2024, Month: 3, Day: 31}
	query, params := buildMovementQuery(testDataset, ledger.MovementFilter{
		From:       &from,
		To:         &to,
		AccountIDs: []string{"acc-1"},
	})

	for _, want := range []string{
		"`acme-prod.treasury.movements`",
		"NOT IFNULL(is_deleted, FALSE)",
		"date >= @fromDate",
		"date <= @toDate",
		"account_id IN UNNEST(@accountIds)",
	} {
		if !strings.Contains(query, want) {
			t.Errorf("Expected query to contain %q, got:\n%s", want, query)
		}
	}

	names := map[string]interface{}{}
	for _, p := range params {
		names[p.Name] = p.Value
	}
	if names["fromDate"] != from || names["toDate"] != to {
		t.Errorf("Unexpected date params %v", names)
	}
	if ids, ok := names["accountIds"].([]string); !ok || len(ids) != 1 {
		t.Errorf("Unexpected accountIds param %v", names["accountIds"])
	}
}

func TestBuildMovementQuery_IncludeDeleted(t *testing.T) {
	query, params := buildMovementQuery(testDataset, ledger.MovementFilter{IncludeDeleted: true})
	if strings.Contains(query, "WHERE") || len(params) != 0 {
		t.Errorf("Expected unfiltered query, got %d params:\n%s", len(params), query)
	}
}

func TestMovementsFromRows(t *testing.T) {
	buf := &bytes.Buffer{}
	log := zerolog.New(buf)
	rows := []MovementRow{
		{
			MovementID:      "m1",
			Date:            "2024-03-05",
			Kind:            "Egreso",
			Status:          "Pagado",
			AmountPrimary:   "120.5",
			AmountSecondary: bigquery.NullString{StringVal: "110", Valid: true},
			AccountID:       bigquery.NullString{StringVal: "acc-1", Valid: true},
		},
		{MovementID: "m2", Date: "not a date", Kind: "INCOME", Status: "CONFIRMED", AmountPrimary: "1"},
		{MovementID: "m3", Date: "2024-03-06", Kind: "INCOME", Status: "PENDING", AmountPrimary: "1"},
	}

	got := movementsFromRows(rows, ledger.MovementFilter{Statuses: []domain.Status{domain.StatusConfirmed}}, log)
	if len(got) != 1 || got[0].ID != "m1" {
		t.Fatalf("Expected only m1, got %+v", got)
	}
	if got[0].Kind != domain.KindExpense || got[0].AmountSecondary == nil || got[0].AccountID != "acc-1" {
		t.Errorf("Unexpected movement %+v", got[0])
	}
	if !strings.Contains(buf.String(), `"movement_id":"m2"`) {
		t.Errorf("Expected rejected row to be logged, got: %s", buf.String())
	}
}

func TestAccountsFromRows(t *testing.T) {
	rows := []AccountRow{
		{AccountID: "a", AccountName: bigquery.NullString{StringVal: "Operating", Valid: true}, CurrentBalance: bigquery.NullString{StringVal: "10.5", Valid: true}},
		{AccountID: "b", Status: bigquery.NullString{StringVal: "Inactiva", Valid: true}},
		{AccountID: "c", CurrentBalance: bigquery.NullString{StringVal: "ten", Valid: true}},
	}

	got := accountsFromRows(rows, ledger.AccountFilter{ActiveOnly: true}, zerolog.Nop())
	if len(got) != 1 || got[0].ID != "a" || got[0].Name != "Operating" {
		t.Errorf("Expected only the active, valid account, got %+v", got)
	}
}
