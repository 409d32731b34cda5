// Package report assembles every treasury view for one period into a single
// document that can be rendered as Markdown or exported as a workbook.
package report

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dvloznov/treasury/internal/domain"
	"github.com/dvloznov/treasury/internal/treasury"
)

// Source is the part of treasury.Service a report reads from.
type Source interface {
	KPIs(ctx context.Context, p treasury.Period, currency string) (treasury.KPIs, error)
	BreakdownByProject(ctx context.Context, p treasury.Period, currency string, group domain.KindGroup) (treasury.Breakdown, error)
	TimeSeries(ctx context.Context, p treasury.Period, currency string) ([]treasury.Bucket, error)
	ProjectRanking(ctx context.Context, p treasury.Period, currency string) ([]treasury.RankedProject, error)
	TopProviders(ctx context.Context, p treasury.Period, currency string, n int) ([]treasury.RankedProvider, error)
	TopClients(ctx context.Context, p treasury.Period, currency string, n int) ([]treasury.RankedClient, error)
	LiquidityProjection(ctx context.Context, params treasury.ProjectionParams) (treasury.Projection, error)
}

var _ Source = (*treasury.Service)(nil)

// Options selects what a report covers.
type Options struct {
	Period     treasury.Period
	Currency   string
	TopN       int
	Projection treasury.ProjectionParams
}

// Report holds every view of one period plus a liquidity projection.
type Report struct {
	GeneratedAt time.Time                 `json:"generated_at"`
	Period      treasury.Period           `json:"period"`
	Currency    domain.Currency           `json:"currency"`
	KPIs        treasury.KPIs             `json:"kpis"`
	Income      treasury.Breakdown        `json:"income"`
	Expense     treasury.Breakdown        `json:"expense"`
	TimeSeries  []treasury.Bucket         `json:"time_series"`
	Ranking     []treasury.RankedProject  `json:"ranking"`
	Providers   []treasury.RankedProvider `json:"providers"`
	Clients     []treasury.RankedClient   `json:"clients"`
	Liquidity   treasury.Projection       `json:"liquidity"`
	Risk        treasury.RiskSummary      `json:"risk"`
}

// Build fetches every view concurrently. The first failing view aborts the
// report.
func Build(ctx context.Context, src Source, opts Options) (*Report, error) {
	r := &Report{GeneratedAt: time.Now().UTC(), Period: opts.Period}
	cur := opts.Currency

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		kpis, err := src.KPIs(gctx, opts.Period, cur)
		if err != nil {
			return fmt.Errorf("kpis: %w", err)
		}
		r.KPIs = kpis
		return nil
	})
	g.Go(func() error {
		b, err := src.BreakdownByProject(gctx, opts.Period, cur, domain.GroupIncome)
		if err != nil {
			return fmt.Errorf("income breakdown: %w", err)
		}
		r.Income = b
		return nil
	})
	g.Go(func() error {
		b, err := src.BreakdownByProject(gctx, opts.Period, cur, domain.GroupExpense)
		if err != nil {
			return fmt.Errorf("expense breakdown: %w", err)
		}
		r.Expense = b
		return nil
	})
	g.Go(func() error {
		series, err := src.TimeSeries(gctx, opts.Period, cur)
		if err != nil {
			return fmt.Errorf("time series: %w", err)
		}
		r.TimeSeries = series
		return nil
	})
	g.Go(func() error {
		ranking, err := src.ProjectRanking(gctx, opts.Period, cur)
		if err != nil {
			return fmt.Errorf("project ranking: %w", err)
		}
		r.Ranking = ranking
		return nil
	})
	g.Go(func() error {
		providers, err := src.TopProviders(gctx, opts.Period, cur, opts.TopN)
		if err != nil {
			return fmt.Errorf("top providers: %w", err)
		}
		r.Providers = providers
		return nil
	})
	g.Go(func() error {
		clients, err := src.TopClients(gctx, opts.Period, cur, opts.TopN)
		if err != nil {
			return fmt.Errorf("top clients: %w", err)
		}
		r.Clients = clients
		return nil
	})
	g.Go(func() error {
		params := opts.Projection
		params.RiskOnly = false
		proj, err := src.LiquidityProjection(gctx, params)
		if err != nil {
			return fmt.Errorf("liquidity projection: %w", err)
		}
		r.Risk = treasury.Summarize(proj.Accounts)
		if opts.Projection.RiskOnly {
			proj = proj.AtRiskOnly()
		}
		r.Liquidity = proj
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("Build: %w", err)
	}

	r.Currency = r.KPIs.Currency
	return r, nil
}
