package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/civil"
	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog"

	"github.com/dvloznov/treasury/internal/app"
	"github.com/dvloznov/treasury/internal/config"
	"github.com/dvloznov/treasury/internal/logger"
	"github.com/dvloznov/treasury/internal/treasury"
)

// globals holds the top-level flags and the lazily opened service.
type globals struct {
	configPath string
	fixture    string
	json       bool

	cfg     config.Config
	log     zerolog.Logger
	svc     *treasury.Service
	closeFn func()
}

// service loads the configuration and opens the ledger on first use.
func (g *globals) service(ctx context.Context) (context.Context, *treasury.Service, error) {
	if g.svc != nil {
		return logger.WithContext(ctx, g.log), g.svc, nil
	}
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return ctx, nil, err
	}
	if g.fixture != "" {
		cfg.Store.Driver = config.DriverMemory
		cfg.Store.FixturePath = g.fixture
	}
	// logs go to stderr so stdout stays machine readable
	g.cfg = cfg
	g.log = logger.NewWithOptions(os.Stderr, logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	ctx = logger.WithContext(ctx, g.log)

	svc, closeFn, err := app.NewService(ctx, cfg, g.log)
	if err != nil {
		return ctx, nil, err
	}
	g.svc, g.closeFn = svc, closeFn
	return ctx, svc, nil
}

func (g *globals) close() {
	if g.closeFn != nil {
		g.closeFn()
	}
}

// print writes v as JSON, or md rendered for the terminal.
func (g *globals) print(v interface{}, md string) error {
	if g.json {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	printMarkdown(md)
	return nil
}

func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

// periodFlags selects a reporting period and currency.
type periodFlags struct {
	mode     string
	year     int
	month    int
	currency string
}

func (p *periodFlags) register(f *flag.FlagSet) {
	now := time.Now()
	f.StringVar(&p.mode, "mode", "month", "period mode: month or year")
	f.IntVar(&p.year, "year", now.Year(), "period year")
	f.IntVar(&p.month, "month", int(now.Month()), "period month (month mode only)")
	f.StringVar(&p.currency, "currency", "", "reporting currency (defaults to the primary currency)")
}

func (p *periodFlags) period() (treasury.Period, error) {
	mode, err := treasury.ParsePeriodMode(p.mode)
	if err != nil {
		return treasury.Period{}, err
	}
	period := treasury.YearPeriod(p.year)
	if mode == treasury.ModeMonth {
		period = treasury.MonthPeriod(p.year, time.Month(p.month))
	}
	return period, period.Validate()
}

// projectionFlags selects a liquidity projection window.
type projectionFlags struct {
	asOf     string
	horizon  int
	riskOnly bool
}

func (p *projectionFlags) register(f *flag.FlagSet) {
	f.StringVar(&p.asOf, "as-of", "", "projection start date YYYY-MM-DD (defaults to today)")
	f.IntVar(&p.horizon, "horizon", 0, "projection horizon in days (defaults to risk.default_horizon_days)")
	f.BoolVar(&p.riskOnly, "risk-only", false, "only show accounts projected below the threshold")
}

func (p *projectionFlags) params(defaultHorizon int) (treasury.ProjectionParams, error) {
	params := treasury.ProjectionParams{
		AsOf:        civil.DateOf(time.Now()),
		HorizonDays: p.horizon,
		RiskOnly:    p.riskOnly,
	}
	if p.asOf != "" {
		d, err := civil.ParseDate(p.asOf)
		if err != nil {
			return params, fmt.Errorf("invalid -as-of %q: %w", p.asOf, err)
		}
		params.AsOf = d
	}
	if params.HorizonDays == 0 {
		params.HorizonDays = defaultHorizon
	}
	return params, params.Validate()
}
