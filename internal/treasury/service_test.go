package treasury

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/treasury/internal/domain"
	"github.com/dvloznov/treasury/internal/ledger"
)

// mockRepository is a ledger.Repository with overridable methods.
type mockRepository struct {
	ListMovementsFunc func(ctx context.Context, filter ledger.MovementFilter) ([]domain.Movement, error)
	ListAccountsFunc  func(ctx context.Context, filter ledger.AccountFilter) ([]domain.Account, error)
	ListProjectsFunc  func(ctx context.Context) ([]domain.Project, error)
	ListProvidersFunc func(ctx context.Context) ([]domain.Provider, error)
	ListClientsFunc   func(ctx context.Context) ([]domain.Client, error)
}

func (m *mockRepository) ListMovements(ctx context.Context, filter ledger.MovementFilter) ([]domain.Movement, error) {
	if m.ListMovementsFunc != nil {
		return m.ListMovementsFunc(ctx, filter)
	}
	return nil, nil
}

func (m *mockRepository) ListAccounts(ctx context.Context, filter ledger.AccountFilter) ([]domain.Account, error) {
	if m.ListAccountsFunc != nil {
		return m.ListAccountsFunc(ctx, filter)
	}
	return nil, nil
}

func (m *mockRepository) ListProjects(ctx context.Context) ([]domain.Project, error) {
	if m.ListProjectsFunc != nil {
		return m.ListProjectsFunc(ctx)
	}
	return nil, nil
}

func (m *mockRepository) ListProviders(ctx context.Context) ([]domain.Provider, error) {
	if m.ListProvidersFunc != nil {
		return m.ListProvidersFunc(ctx)
	}
	return nil, nil
}

func (m *mockRepository) ListClients(ctx context.Context) ([]domain.Client, error) {
	if m.ListClientsFunc != nil {
		return m.ListClientsFunc(ctx)
	}
	return nil, nil
}

func newTestService(t *testing.T, repo ledger.Repository) *Service {
	t.Helper()
	return NewService(repo, ServiceConfig{Currencies: usdEUR(t), Threshold: dec("0")})
}

func TestService_KPIs(t *testing.T) {
	snap := sampleSnapshot(t)
	var gotFilter ledger.MovementFilter
	repo := &mockRepository{
		ListMovementsFunc: func(ctx context.Context, filter ledger.MovementFilter) ([]domain.Movement, error) {
			gotFilter = filter
			return snap.Movements, nil
		},
	}

	k, err := newTestService(t, repo).KPIs(context.Background(), MonthPeriod(2024, time.February), "")
	if err != nil {
		t.Fatalf("KPIs() error = %v", err)
	}
	if gotFilter.From != nil || gotFilter.To != nil {
		t.Error("Expected KPIs to load every date for the total balance")
	}
	assertDecimal(t, "Profit", k.Profit, "350")
	assertDecimal(t, "TotalBalance", k.TotalBalance, "750")
}

func TestService_ValidatesBeforeFetching(t *testing.T) {
	called := false
	repo := &mockRepository{
		ListMovementsFunc: func(ctx context.Context, filter ledger.MovementFilter) ([]domain.Movement, error) {
			called = true
			return nil, nil
		},
	}
	svc := newTestService(t, repo)
	ctx := context.Background()

	if _, err := svc.KPIs(ctx, MonthPeriod(2024, 13), ""); !domain.IsValidation(err) {
		t.Errorf("Expected ValidationError for month 13, got %v", err)
	}
	if _, err := svc.TimeSeries(ctx, MonthPeriod(2024, 1), "JPY"); !domain.IsValidation(err) {
		t.Errorf("Expected ValidationError for JPY, got %v", err)
	}
	if _, err := svc.TopProviders(ctx, MonthPeriod(2024, 1), "", -2); !domain.IsValidation(err) {
		t.Errorf("Expected ValidationError for negative n, got %v", err)
	}
	if _, err := svc.LiquidityProjection(ctx, ProjectionParams{AsOf: date(t, "2024-01-01"), HorizonDays: 0}); !domain.IsValidation(err) {
		t.Errorf("Expected ValidationError for zero horizon, got %v", err)
	}
	if called {
		t.Error("Expected no repository call for invalid input")
	}
}

func TestService_PropagatesRepositoryErrors(t *testing.T) {
	boom := errors.New("connection refused")
	repo := &mockRepository{
		ListProjectsFunc: func(ctx context.Context) ([]domain.Project, error) {
			return nil, boom
		},
		ListAccountsFunc: func(ctx context.Context, filter ledger.AccountFilter) ([]domain.Account, error) {
			return nil, boom
		},
	}
	svc := newTestService(t, repo)
	ctx := context.Background()

	if _, err := svc.ProjectRanking(ctx, MonthPeriod(2024, 2), ""); !errors.Is(err, boom) {
		t.Errorf("Expected wrapped repository error, got %v", err)
	}
	if _, err := svc.RiskSummary(ctx, ProjectionParams{AsOf: date(t, "2024-01-01"), HorizonDays: 5}); !errors.Is(err, boom) {
		t.Errorf("Expected wrapped repository error, got %v", err)
	}
}

func TestService_LiquidityProjection(t *testing.T) {
	var gotMovements ledger.MovementFilter
	var gotAccounts ledger.AccountFilter
	drain := dailyDrain(t, "acc", 10, "200")
	repo := &mockRepository{
		ListMovementsFunc: func(ctx context.Context, filter ledger.MovementFilter) ([]domain.Movement, error) {
			gotMovements = filter
			return drain, nil
		},
		ListAccountsFunc: func(ctx context.Context, filter ledger.AccountFilter) ([]domain.Account, error) {
			gotAccounts = filter
			return []domain.Account{{ID: "acc", Name: "Operating", CurrentBalance: dec("1000"), Status: domain.AccountActive}}, nil
		},
	}
	svc := newTestService(t, repo)
	params := ProjectionParams{AsOf: date(t, "2024-03-01"), HorizonDays: 10}

	summary, err := svc.RiskSummary(context.Background(), params)
	if err != nil {
		t.Fatalf("RiskSummary() error = %v", err)
	}
	if !gotAccounts.ActiveOnly {
		t.Error("Expected only active accounts to be requested")
	}
	if gotMovements.From == nil || *gotMovements.From != date(t, "2024-03-02") || *gotMovements.To != date(t, "2024-03-11") {
		t.Errorf("Unexpected movement window %v..%v", gotMovements.From, gotMovements.To)
	}
	if summary.AtRiskCount != 1 || summary.WorstBalance == nil {
		t.Fatalf("Expected one account at risk, got %+v", summary)
	}
	assertDecimal(t, "worst", summary.WorstBalance.Amount, "-1000")
}

func TestService_RiskSummary_CountsAllAccounts(t *testing.T) {
	repo := &mockRepository{
		ListMovementsFunc: func(ctx context.Context, filter ledger.MovementFilter) ([]domain.Movement, error) {
			return dailyDrain(t, "acc", 10, "200"), nil
		},
		ListAccountsFunc: func(ctx context.Context, filter ledger.AccountFilter) ([]domain.Account, error) {
			return []domain.Account{
				{ID: "acc", Name: "Operating", CurrentBalance: dec("1000"), Status: domain.AccountActive},
				{ID: "safe", Name: "Reserve", CurrentBalance: dec("5000"), Status: domain.AccountActive},
			}, nil
		},
	}
	svc := newTestService(t, repo)

	for _, riskOnly := range []bool{false, true} {
		params := ProjectionParams{AsOf: date(t, "2024-03-01"), HorizonDays: 10, RiskOnly: riskOnly}
		summary, err := svc.RiskSummary(context.Background(), params)
		if err != nil {
			t.Fatalf("RiskSummary(riskOnly=%v) error = %v", riskOnly, err)
		}
		if summary.TotalAccounts != 2 || summary.AtRiskCount != 1 {
			t.Errorf("RiskSummary(riskOnly=%v) = %d accounts, %d at risk; want 2 and 1", riskOnly, summary.TotalAccounts, summary.AtRiskCount)
		}
	}
}

func TestService_TopClients(t *testing.T) {
	snap := sampleSnapshot(t)
	repo := &mockRepository{
		ListMovementsFunc: func(ctx context.Context, filter ledger.MovementFilter) ([]domain.Movement, error) {
			var out []domain.Movement
			for _, m := range snap.Movements {
				if filter.Matches(m) {
					out = append(out, m)
				}
			}
			return out, nil
		},
		ListProjectsFunc: func(ctx context.Context) ([]domain.Project, error) { return snap.Projects, nil },
		ListClientsFunc:  func(ctx context.Context) ([]domain.Client, error) { return snap.Clients, nil },
	}

	clients, err := newTestService(t, repo).TopClients(context.Background(), MonthPeriod(2024, time.February), "USD", 0)
	if err != nil {
		t.Fatalf("TopClients() error = %v", err)
	}
	if len(clients) != 1 || clients[0].Name != "Acme" {
		t.Fatalf("Expected Acme, got %+v", clients)
	}
	assertDecimal(t, "Acme", clients[0].Amount, "1500")
}
