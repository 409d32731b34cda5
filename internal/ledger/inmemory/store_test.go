package inmemory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/treasury/internal/domain"
	"github.com/dvloznov/treasury/internal/ledger"
)

const fixtureYAML = `
accounts:
  - id: acc-1
    name: Operating
    current_balance: "1000.00"
    status: Activa
  - id: acc-2
    name: Savings
    current_balance: "500"
    status: closed
  - id: ""
    name: broken
movements:
  - id: m1
    date: "2024-02-10"
    kind: Ingreso
    status: Cobrado
    amount_primary: "150.50"
    account_id: acc-1
    project_id: p1
  - id: m2
    date: "2024-02-30"
    kind: gasto
    status: pagado
    amount_primary: "10"
  - id: m3
    date: "2024-03-01"
    kind: gasto
    status: pendiente
    amount_primary: "20"
    deleted: true
projects:
  - id: p1
    name: Website
    client_id: c1
clients:
  - id: c1
    name: Acme
`

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	if err := os.WriteFile(path, []byte(fixtureYAML), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestLoadFixture(t *testing.T) {
	f, err := LoadFixture(writeFixture(t))
	if err != nil {
		t.Fatalf("LoadFixture() error = %v", err)
	}
	if len(f.Movements) != 3 {
		t.Errorf("Expected 3 raw movements, got %d", len(f.Movements))
	}
	if len(f.Accounts) != 3 {
		t.Errorf("Expected 3 raw accounts, got %d", len(f.Accounts))
	}
	if f.Projects[0].ClientID != "c1" {
		t.Errorf("Expected project client c1, got %q", f.Projects[0].ClientID)
	}
}

func TestLoadFixture_MissingFile(t *testing.T) {
	if _, err := LoadFixture(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestStore_Load(t *testing.T) {
	f, err := LoadFixture(writeFixture(t))
	if err != nil {
		t.Fatalf("LoadFixture() error = %v", err)
	}
	store := NewStore()
	rejected := store.Load(f, zerolog.Nop())

	// invalid date and missing account id
	if rejected != 2 {
		t.Errorf("Expected 2 rejected records, got %d", rejected)
	}

	ctx := context.Background()
	movements, err := store.ListMovements(ctx, ledger.MovementFilter{})
	if err != nil {
		t.Fatalf("ListMovements() error = %v", err)
	}
	if len(movements) != 1 || movements[0].ID != "m1" {
		t.Fatalf("Expected only m1, got %+v", movements)
	}
	m := movements[0]
	if m.Kind != domain.KindIncome || m.Status != domain.StatusConfirmed {
		t.Errorf("Expected confirmed income, got %v/%v", m.Kind, m.Status)
	}
	if !m.AmountPrimary.Equal(decimal.RequireFromString("150.50")) {
		t.Errorf("Expected amount 150.50, got %s", m.AmountPrimary)
	}

	all, _ := store.ListMovements(ctx, ledger.MovementFilter{IncludeDeleted: true})
	if len(all) != 2 {
		t.Errorf("Expected 2 movements including deleted, got %d", len(all))
	}

	active, _ := store.ListAccounts(ctx, ledger.AccountFilter{ActiveOnly: true})
	if len(active) != 1 || active[0].ID != "acc-1" {
		t.Errorf("Expected only acc-1 active, got %+v", active)
	}
}

func TestStore_ListMovements_Filter(t *testing.T) {
	store := NewStore()
	store.PutMovements(
		domain.Movement{ID: "a", Date: civil.Date{Year: 2024, Month: 1, Day: 31}, Status: domain.StatusConfirmed, AccountID: "x"},
		domain.Movement{ID: "b", Date: civil.Date{Year: 2024, Month: 2, Day: 1}, Status: domain.StatusPending, AccountID: "x"},
		domain.Movement{ID: "c", Date: civil.Date{Year: 2024, Month: 2, Day: 29}, Status: domain.StatusConfirmed, AccountID: "y"},
		domain.Movement{ID: "d", Date: civil.Date{Year: 2024, Month: 3, Day: 1}, Status: domain.StatusConfirmed, AccountID: "x"},
	)
	from := civil.Date{Year: 2024, Month: 2, Day: 1}
	to := civil.Date{Year: 2024, Month: 2, Day: 29}

	tests := []struct {
		name   string
		filter ledger.MovementFilter
		want   []string
	}{
		{"no filter", ledger.MovementFilter{}, []string{"a", "b", "c", "d"}},
		{"date range", ledger.MovementFilter{From: &from, To: &to}, []string{"b", "c"}},
		{"confirmed", ledger.MovementFilter{Statuses: []domain.Status{domain.StatusConfirmed}}, []string{"a", "c", "d"}},
		{"account", ledger.MovementFilter{AccountIDs: []string{"y"}}, []string{"c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ListMovements(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("ListMovements() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %d movements, got %d", len(tt.want), len(got))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("Movement %d: expected %s, got %s", i, id, got[i].ID)
				}
			}
		})
	}
}

func TestStore_ReturnsCopies(t *testing.T) {
	store := NewStore()
	store.PutProjects(domain.Project{ID: "p1", Name: "Original"})

	projects, _ := store.ListProjects(context.Background())
	projects[0].Name = "Modified"

	again, _ := store.ListProjects(context.Background())
	if again[0].Name != "Original" {
		t.Errorf("Expected stored project to be unchanged, got %q", again[0].Name)
	}
}
