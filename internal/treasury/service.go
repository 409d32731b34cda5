package treasury

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/dvloznov/treasury/internal/domain"
	"github.com/dvloznov/treasury/internal/ledger"
	"github.com/dvloznov/treasury/internal/logger"
)

// ServiceConfig configures a Service.
type ServiceConfig struct {
	Currencies domain.CurrencyPair
	Threshold  decimal.Decimal

	// StrictCurrency fails aggregations that hit a movement without an
	// amount in the requested currency instead of counting it as zero.
	StrictCurrency bool
}

// Service loads ledger snapshots from a repository and runs the engines
// over them. Each call fetches a fresh snapshot.
type Service struct {
	repo       ledger.Repository
	normalizer Normalizer
	aggregator *Aggregator
	projector  *Projector
}

// NewService creates a Service reading from repo.
func NewService(repo ledger.Repository, cfg ServiceConfig) *Service {
	n := NewNormalizer(cfg.Currencies)
	agg := NewAggregator(n)
	if cfg.StrictCurrency {
		agg = agg.WithFallback(Strict)
	}
	return &Service{
		repo:       repo,
		normalizer: n,
		aggregator: agg,
		projector:  NewProjector(cfg.Threshold, cfg.Currencies.Primary),
	}
}

// Currencies returns the configured currency pair.
func (s *Service) Currencies() domain.CurrencyPair { return s.normalizer.Pair() }

// Threshold returns the liquidity risk threshold.
func (s *Service) Threshold() decimal.Decimal { return s.projector.Threshold() }

type snapshotQuery struct {
	movements ledger.MovementFilter
	accounts  *ledger.AccountFilter
	directory bool
}

// loadSnapshot fetches the parts of the ledger a computation needs
// concurrently. The first repository error cancels the other calls.
func (s *Service) loadSnapshot(ctx context.Context, q snapshotQuery) (Snapshot, error) {
	log := logger.FromContext(ctx)
	var snap Snapshot

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ms, err := s.repo.ListMovements(gctx, q.movements)
		if err != nil {
			return fmt.Errorf("listing movements: %w", err)
		}
		snap.Movements = ms
		return nil
	})
	if q.accounts != nil {
		filter := *q.accounts
		g.Go(func() error {
			as, err := s.repo.ListAccounts(gctx, filter)
			if err != nil {
				return fmt.Errorf("listing accounts: %w", err)
			}
			snap.Accounts = as
			return nil
		})
	}
	if q.directory {
		g.Go(func() error {
			ps, err := s.repo.ListProjects(gctx)
			if err != nil {
				return fmt.Errorf("listing projects: %w", err)
			}
			snap.Projects = ps
			return nil
		})
		g.Go(func() error {
			ps, err := s.repo.ListProviders(gctx)
			if err != nil {
				return fmt.Errorf("listing providers: %w", err)
			}
			snap.Providers = ps
			return nil
		})
		g.Go(func() error {
			cs, err := s.repo.ListClients(gctx)
			if err != nil {
				return fmt.Errorf("listing clients: %w", err)
			}
			snap.Clients = cs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	log.Debug().
		Int("movements", len(snap.Movements)).
		Int("accounts", len(snap.Accounts)).
		Int("projects", len(snap.Projects)).
		Msg("Loaded ledger snapshot")
	return snap, nil
}

// periodQuery returns the movements dated inside p.
func periodQuery(p Period) snapshotQuery {
	start, end := p.Range()
	return snapshotQuery{
		movements: ledger.MovementFilter{From: &start, To: &end},
		directory: true,
	}
}

func (s *Service) prepare(p Period, currency string) (domain.Currency, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	return s.normalizer.Resolve(currency)
}

// KPIs returns the period KPIs in currency. An empty currency selects the
// primary one.
func (s *Service) KPIs(ctx context.Context, p Period, currency string) (KPIs, error) {
	cur, err := s.prepare(p, currency)
	if err != nil {
		return KPIs{}, err
	}
	// the total balance spans every date
	snap, err := s.loadSnapshot(ctx, snapshotQuery{})
	if err != nil {
		return KPIs{}, fmt.Errorf("KPIs: %w", err)
	}
	return s.aggregator.KPIs(snap, p, cur)
}

// BreakdownByProject returns the per-project totals of one side of the
// ledger over p.
func (s *Service) BreakdownByProject(ctx context.Context, p Period, currency string, group domain.KindGroup) (Breakdown, error) {
	cur, err := s.prepare(p, currency)
	if err != nil {
		return Breakdown{}, err
	}
	if group != domain.GroupIncome && group != domain.GroupExpense {
		return Breakdown{}, domain.Invalid("group", "unknown kind group %d", int(group))
	}
	snap, err := s.loadSnapshot(ctx, periodQuery(p))
	if err != nil {
		return Breakdown{}, fmt.Errorf("BreakdownByProject: %w", err)
	}
	return s.aggregator.BreakdownByProject(snap, p, cur, group)
}

// TimeSeries returns the income and expense buckets of p.
func (s *Service) TimeSeries(ctx context.Context, p Period, currency string) ([]Bucket, error) {
	cur, err := s.prepare(p, currency)
	if err != nil {
		return nil, err
	}
	snap, err := s.loadSnapshot(ctx, periodQuery(p))
	if err != nil {
		return nil, fmt.Errorf("TimeSeries: %w", err)
	}
	return s.aggregator.TimeSeries(snap, p, cur)
}

// ProjectRanking ranks projects by profit over p.
func (s *Service) ProjectRanking(ctx context.Context, p Period, currency string) ([]RankedProject, error) {
	cur, err := s.prepare(p, currency)
	if err != nil {
		return nil, err
	}
	snap, err := s.loadSnapshot(ctx, periodQuery(p))
	if err != nil {
		return nil, fmt.Errorf("ProjectRanking: %w", err)
	}
	return s.aggregator.ProjectRanking(snap, p, cur)
}

// TopProviders returns the n providers with the largest spend over p.
// n == 0 selects DefaultTopN.
func (s *Service) TopProviders(ctx context.Context, p Period, currency string, n int) ([]RankedProvider, error) {
	cur, err := s.prepare(p, currency)
	if err != nil {
		return nil, err
	}
	if _, err := topLimit(n); err != nil {
		return nil, err
	}
	snap, err := s.loadSnapshot(ctx, periodQuery(p))
	if err != nil {
		return nil, fmt.Errorf("TopProviders: %w", err)
	}
	return s.aggregator.TopProviders(snap, p, cur, n)
}

// TopClients returns the n clients with the largest gross income over p.
// n == 0 selects DefaultTopN.
func (s *Service) TopClients(ctx context.Context, p Period, currency string, n int) ([]RankedClient, error) {
	cur, err := s.prepare(p, currency)
	if err != nil {
		return nil, err
	}
	if _, err := topLimit(n); err != nil {
		return nil, err
	}
	snap, err := s.loadSnapshot(ctx, periodQuery(p))
	if err != nil {
		return nil, fmt.Errorf("TopClients: %w", err)
	}
	return s.aggregator.TopClients(snap, p, cur, n)
}

// LiquidityProjection projects the daily balances of active accounts.
func (s *Service) LiquidityProjection(ctx context.Context, params ProjectionParams) (Projection, error) {
	if err := params.Validate(); err != nil {
		return Projection{}, err
	}
	from := params.AsOf.AddDays(1)
	to := params.AsOf.AddDays(params.HorizonDays)
	snap, err := s.loadSnapshot(ctx, snapshotQuery{
		movements: ledger.MovementFilter{From: &from, To: &to},
		accounts:  &ledger.AccountFilter{ActiveOnly: true},
	})
	if err != nil {
		return Projection{}, fmt.Errorf("LiquidityProjection: %w", err)
	}
	return s.projector.Project(snap, params)
}

// RiskSummary projects balances and reduces them to a risk summary. The
// summary always covers every active account; RiskOnly has no effect on it.
func (s *Service) RiskSummary(ctx context.Context, params ProjectionParams) (RiskSummary, error) {
	params.RiskOnly = false
	proj, err := s.LiquidityProjection(ctx, params)
	if err != nil {
		return RiskSummary{}, err
	}
	return Summarize(proj.Accounts), nil
}
