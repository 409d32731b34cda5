package app

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/treasury/internal/config"
	"github.com/dvloznov/treasury/internal/jobs"
	"github.com/dvloznov/treasury/internal/ledger"
	"github.com/dvloznov/treasury/internal/treasury"
)

func fixtureConfig() config.Config {
	cfg := config.Default()
	cfg.Currencies.Secondary = "EUR"
	cfg.Store.FixturePath = "testdata/ledger.yaml"
	return cfg
}

func TestOpenRepository_MemoryFixture(t *testing.T) {
	repo, closeRepo, err := OpenRepository(context.Background(), fixtureConfig().Store, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenRepository() error = %v", err)
	}
	defer closeRepo()

	movements, err := repo.ListMovements(context.Background(), ledger.MovementFilter{})
	if err != nil {
		t.Fatalf("ListMovements() error = %v", err)
	}
	// m-009 has an impossible date and m-008 is deleted
	if len(movements) != 7 {
		t.Errorf("Expected 7 movements, got %d", len(movements))
	}

	accounts, err := repo.ListAccounts(context.Background(), ledger.AccountFilter{ActiveOnly: true})
	if err != nil {
		t.Fatalf("ListAccounts() error = %v", err)
	}
	if len(accounts) != 2 {
		t.Errorf("Expected 2 active accounts, got %d", len(accounts))
	}
}

func TestOpenRepository_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.StoreConfig
	}{
		{"unknown driver", config.StoreConfig{Driver: "mongo"}},
		{"missing fixture", config.StoreConfig{Driver: config.DriverMemory, FixturePath: "testdata/missing.yaml"}},
		{"bad gcs uri", config.StoreConfig{Driver: config.DriverMemory, FixturePath: "gs://bucket-only"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := OpenRepository(context.Background(), tt.cfg, zerolog.Nop()); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestNewService_FromFixture(t *testing.T) {
	ctx := context.Background()
	svc, closeRepo, err := NewService(ctx, fixtureConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	defer closeRepo()

	kpis, err := svc.KPIs(ctx, treasury.MonthPeriod(2024, time.February), "")
	if err != nil {
		t.Fatalf("KPIs() error = %v", err)
	}
	if !kpis.Income.Equal(decimal.NewFromInt(8500)) || !kpis.Expense.Equal(decimal.NewFromInt(2500)) {
		t.Errorf("Unexpected KPIs income=%s expense=%s", kpis.Income, kpis.Expense)
	}

	summary, err := svc.RiskSummary(ctx, treasury.ProjectionParams{
		AsOf:        civil.Date{Year: 2024, Month: time.March, Day: 1},
		HorizonDays: 14,
	})
	if err != nil {
		t.Fatalf("RiskSummary() error = %v", err)
	}
	if summary.TotalAccounts != 2 || summary.AtRiskCount != 1 {
		t.Errorf("Unexpected summary %+v", summary)
	}
	if summary.WorstBalance == nil || summary.WorstBalance.AccountID != "acc-tax" || !summary.WorstBalance.Amount.Equal(decimal.NewFromInt(-700)) {
		t.Errorf("Unexpected worst balance %+v", summary.WorstBalance)
	}
}

func TestNewAlertSyncer_Disabled(t *testing.T) {
	svc, closeRepo, err := NewService(context.Background(), fixtureConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	defer closeRepo()

	if NewAlertSyncer(fixtureConfig(), svc) != nil {
		t.Error("Expected no syncer without Notion credentials")
	}
}

func TestStartRiskScans(t *testing.T) {
	ctx := context.Background()
	cfg := fixtureConfig()
	svc, closeRepo, err := NewService(ctx, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	defer closeRepo()

	cfg.Scan.Schedule = "not a schedule"
	if _, err := StartRiskScans(ctx, cfg, svc, zerolog.Nop()); err == nil {
		t.Error("Expected invalid schedule error")
	}

	cfg.Scan.Schedule = "@daily"
	rs, err := StartRiskScans(ctx, cfg, svc, zerolog.Nop())
	if err != nil {
		t.Fatalf("StartRiskScans() error = %v", err)
	}
	defer rs.Stop(ctx)

	params := treasury.ProjectionParams{AsOf: civil.Date{Year: 2024, Month: time.March, Day: 1}, HorizonDays: 14}
	if _, err := rs.Scanner.Submit(ctx, params, jobs.TriggerCLI); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if outcome, ok := rs.Scanner.Latest(); ok {
			if outcome.Summary.AtRiskCount != 1 {
				t.Errorf("Unexpected outcome %+v", outcome.Summary)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Scan did not complete in time")
}
