package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/treasury/internal/domain"
	"github.com/dvloznov/treasury/internal/treasury"
)

type mockProjector struct {
	LiquidityProjectionFunc func(ctx context.Context, params treasury.ProjectionParams) (treasury.Projection, error)
}

func (m *mockProjector) LiquidityProjection(ctx context.Context, params treasury.ProjectionParams) (treasury.Projection, error) {
	return m.LiquidityProjectionFunc(ctx, params)
}

type mockPublisher struct {
	published []*RiskScanJob
	err       error
}

func (m *mockPublisher) PublishRiskScan(ctx context.Context, job *RiskScanJob) error {
	if m.err != nil {
		return m.err
	}
	job.JobID = "job-" + string(rune('a'+len(m.published)))
	m.published = append(m.published, job)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

type mockAlertSink struct {
	SyncRiskAlertsFunc func(ctx context.Context, asOf civil.Date, horizonDays int, accounts []treasury.AccountProjection) error
	calls              int
}

func (m *mockAlertSink) SyncRiskAlerts(ctx context.Context, asOf civil.Date, horizonDays int, accounts []treasury.AccountProjection) error {
	m.calls++
	if m.SyncRiskAlertsFunc != nil {
		return m.SyncRiskAlertsFunc(ctx, asOf, horizonDays, accounts)
	}
	return nil
}

var asOf = civil.Date{Year: 2024, Month: time.March, Day: 1}

func projectionWith(balances ...string) treasury.Projection {
	var accounts []treasury.AccountProjection
	for i, b := range balances {
		amount := decimal.RequireFromString(b)
		accounts = append(accounts, treasury.AccountProjection{
			AccountID: string(rune('a' + i)),
			Name:      "Account",
			Points:    []treasury.BalancePoint{{Date: asOf.AddDays(1), Balance: amount}},
			Worst:     treasury.DatedAmount{Amount: amount, Date: asOf.AddDays(1)},
			AtRisk:    amount.IsNegative(),
		})
	}
	return treasury.Projection{AsOf: asOf, HorizonDays: 1, Currency: domain.Currency("USD"), Accounts: accounts}
}

func TestScanner_SubmitValidates(t *testing.T) {
	pub := &mockPublisher{}
	s := NewScanner(&mockProjector{}, pub, nil, zerolog.Nop())

	_, err := s.Submit(context.Background(), treasury.ProjectionParams{AsOf: asOf, HorizonDays: 0}, TriggerAPI)
	if !domain.IsValidation(err) {
		t.Errorf("Expected ValidationError, got %v", err)
	}
	if len(pub.published) != 0 {
		t.Error("Expected nothing to be published")
	}

	pub.err = errors.New("queue is closed")
	if _, err := s.Submit(context.Background(), treasury.ProjectionParams{AsOf: asOf, HorizonDays: 5}, TriggerAPI); err == nil {
		t.Error("Expected publish error")
	}
}

func TestScanner_KeepsLatestSubmission(t *testing.T) {
	pub := &mockPublisher{}
	proj := &mockProjector{
		LiquidityProjectionFunc: func(ctx context.Context, params treasury.ProjectionParams) (treasury.Projection, error) {
			if params.HorizonDays == 10 {
				return projectionWith("-5", "100"), nil
			}
			return projectionWith("-1"), nil
		},
	}
	sink := &mockAlertSink{}
	s := NewScanner(proj, pub, sink, zerolog.Nop())
	ctx := context.Background()

	older, err := s.Submit(ctx, treasury.ProjectionParams{AsOf: asOf, HorizonDays: 5}, TriggerSchedule)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	newer, err := s.Submit(ctx, treasury.ProjectionParams{AsOf: asOf, HorizonDays: 10}, TriggerAPI)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if newer.Sequence <= older.Sequence {
		t.Fatalf("Expected increasing sequences, got %d then %d", older.Sequence, newer.Sequence)
	}

	// the newer scan finishes first
	if err := s.Handle(ctx, newer); err != nil {
		t.Fatalf("Handle(newer) error = %v", err)
	}
	if err := s.Handle(ctx, older); err != nil {
		t.Fatalf("Handle(older) error = %v", err)
	}

	if !newer.Result.Accepted || older.Result.Accepted {
		t.Errorf("Expected only the newer scan to be accepted, got newer=%v older=%v", newer.Result.Accepted, older.Result.Accepted)
	}
	outcome, ok := s.Latest()
	if !ok || outcome.JobID != newer.JobID || outcome.HorizonDays != 10 {
		t.Fatalf("Expected the newer outcome, got %+v", outcome)
	}
	if outcome.Summary.TotalAccounts != 2 || outcome.Summary.AtRiskCount != 1 || len(outcome.AtRisk) != 1 {
		t.Errorf("Unexpected summary %+v", outcome.Summary)
	}
	if sink.calls != 1 || !newer.Result.AlertsSynced {
		t.Errorf("Expected alerts to be synced once, got %d calls", sink.calls)
	}
}

func TestScanner_RiskOnlyScanCountsAllAccounts(t *testing.T) {
	proj := &mockProjector{
		LiquidityProjectionFunc: func(ctx context.Context, params treasury.ProjectionParams) (treasury.Projection, error) {
			p := projectionWith("-5", "100", "40")
			if params.RiskOnly {
				return p.AtRiskOnly(), nil
			}
			return p, nil
		},
	}
	s := NewScanner(proj, &mockPublisher{}, nil, zerolog.Nop())
	ctx := context.Background()

	job, err := s.Submit(ctx, treasury.ProjectionParams{AsOf: asOf, HorizonDays: 7, RiskOnly: true}, TriggerAPI)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if err := s.Handle(ctx, job); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	outcome, ok := s.Latest()
	if !ok {
		t.Fatal("Expected an outcome")
	}
	if !outcome.RiskOnly || outcome.Summary.TotalAccounts != 3 || len(outcome.AtRisk) != 1 {
		t.Errorf("Unexpected outcome %+v", outcome)
	}
}

func TestScanner_HandleErrors(t *testing.T) {
	boom := errors.New("connection reset")
	proj := &mockProjector{
		LiquidityProjectionFunc: func(ctx context.Context, params treasury.ProjectionParams) (treasury.Projection, error) {
			return treasury.Projection{}, boom
		},
	}
	s := NewScanner(proj, &mockPublisher{}, nil, zerolog.Nop())
	job, _ := s.Submit(context.Background(), treasury.ProjectionParams{AsOf: asOf, HorizonDays: 5}, TriggerCLI)

	if err := s.Handle(context.Background(), job); !errors.Is(err, boom) {
		t.Errorf("Expected projection error to be returned for retry, got %v", err)
	}
	if _, ok := s.Latest(); ok {
		t.Error("Expected no outcome after a failed scan")
	}
}

func TestScanner_AlertFailureKeepsOutcome(t *testing.T) {
	proj := &mockProjector{
		LiquidityProjectionFunc: func(ctx context.Context, params treasury.ProjectionParams) (treasury.Projection, error) {
			return projectionWith("-10"), nil
		},
	}
	sink := &mockAlertSink{
		SyncRiskAlertsFunc: func(ctx context.Context, asOf civil.Date, horizonDays int, accounts []treasury.AccountProjection) error {
			return errors.New("notion unavailable")
		},
	}
	s := NewScanner(proj, &mockPublisher{}, sink, zerolog.Nop())
	job, _ := s.Submit(context.Background(), treasury.ProjectionParams{AsOf: asOf, HorizonDays: 5}, TriggerAPI)

	if err := s.Handle(context.Background(), job); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if job.Result.AlertsSynced {
		t.Error("Expected alerts not to be marked as synced")
	}
	if _, ok := s.Latest(); !ok {
		t.Error("Expected the outcome to be kept")
	}
}

func TestScheduler(t *testing.T) {
	pub := &mockPublisher{}
	s := NewScanner(&mockProjector{}, pub, nil, zerolog.Nop())

	if _, err := NewScheduler("every tuesday", s, 30, false, zerolog.Nop()); err == nil {
		t.Error("Expected error for invalid schedule")
	}

	sched, err := NewScheduler("@daily", s, 30, true, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	sched.now = func() time.Time { return time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC) }
	sched.submit(context.Background())

	if len(pub.published) != 1 {
		t.Fatalf("Expected 1 scheduled scan, got %d", len(pub.published))
	}
	job := pub.published[0]
	if job.AsOf != asOf || job.HorizonDays != 30 || !job.RiskOnly || job.Trigger != TriggerSchedule {
		t.Errorf("Unexpected scheduled job %+v", job)
	}

	sched.Start()
	sched.Stop()
}
