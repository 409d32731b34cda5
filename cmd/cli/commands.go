package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/dvloznov/treasury/internal/domain"
	"github.com/dvloznov/treasury/internal/treasury"
)

// viewCmd is a command printing one treasury view.
type viewCmd struct {
	name     string
	synopsis string
	usage    string
	g        *globals

	period     periodFlags
	projection projectionFlags
	n          int
	group      string

	flags func(c *viewCmd, f *flag.FlagSet)
	run   func(ctx context.Context, c *viewCmd, svc *treasury.Service) (interface{}, string, error)
}

func (c *viewCmd) Name() string     { return c.name }
func (c *viewCmd) Synopsis() string { return c.synopsis }
func (c *viewCmd) Usage() string    { return c.usage }

func (c *viewCmd) SetFlags(f *flag.FlagSet) { c.flags(c, f) }

func (c *viewCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, svc, err := c.g.service(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	v, md, err := c.run(ctx, c, svc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if domain.IsValidation(err) {
			return subcommands.ExitUsageError
		}
		return subcommands.ExitFailure
	}
	if err := c.g.print(v, md); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func periodOnly(c *viewCmd, f *flag.FlagSet) { c.period.register(f) }

func periodAndN(c *viewCmd, f *flag.FlagSet) {
	c.period.register(f)
	f.IntVar(&c.n, "n", treasury.DefaultTopN, "number of entries to show")
}

func projectionOnly(c *viewCmd, f *flag.FlagSet) { c.projection.register(f) }

func commands(g *globals) []subcommands.Command {
	return []subcommands.Command{
		&viewCmd{
			name:     "kpis",
			synopsis: "show income, expense, profit and total balance for a period",
			usage: `kpis [-mode month|year] [-year y] [-month m] [-currency c]

  Shows the period KPIs. The total balance covers every confirmed movement.
`,
			g:     g,
			flags: periodOnly,
			run: func(ctx context.Context, c *viewCmd, svc *treasury.Service) (interface{}, string, error) {
				p, err := c.period.period()
				if err != nil {
					return nil, "", err
				}
				k, err := svc.KPIs(ctx, p, c.period.currency)
				if err != nil {
					return nil, "", err
				}
				return k, kpisMarkdown(k), nil
			},
		},
		&viewCmd{
			name:     "breakdown",
			synopsis: "show income or expense per project for a period",
			usage: `breakdown [-group income|expense] [period flags]

  Groups one side of the ledger by project. Movements without a project are
  reported as "Unassigned".
`,
			g: g,
			flags: func(c *viewCmd, f *flag.FlagSet) {
				c.period.register(f)
				f.StringVar(&c.group, "group", "income", "income or expense")
			},
			run: func(ctx context.Context, c *viewCmd, svc *treasury.Service) (interface{}, string, error) {
				p, err := c.period.period()
				if err != nil {
					return nil, "", err
				}
				group, err := domain.ParseKindGroup(c.group)
				if err != nil {
					return nil, "", err
				}
				b, err := svc.BreakdownByProject(ctx, p, c.period.currency, group)
				if err != nil {
					return nil, "", err
				}
				return b, breakdownMarkdown(p, currencyOf(svc, c.period.currency), b), nil
			},
		},
		&viewCmd{
			name:     "timeseries",
			synopsis: "show income and expense per day (month mode) or per month (year mode)",
			usage: `timeseries [period flags]
`,
			g:     g,
			flags: periodOnly,
			run: func(ctx context.Context, c *viewCmd, svc *treasury.Service) (interface{}, string, error) {
				p, err := c.period.period()
				if err != nil {
					return nil, "", err
				}
				buckets, err := svc.TimeSeries(ctx, p, c.period.currency)
				if err != nil {
					return nil, "", err
				}
				return buckets, timeSeriesMarkdown(p, currencyOf(svc, c.period.currency), buckets), nil
			},
		},
		&viewCmd{
			name:     "ranking",
			synopsis: "rank projects by profit for a period",
			usage: `ranking [period flags]
`,
			g:     g,
			flags: periodOnly,
			run: func(ctx context.Context, c *viewCmd, svc *treasury.Service) (interface{}, string, error) {
				p, err := c.period.period()
				if err != nil {
					return nil, "", err
				}
				projects, err := svc.ProjectRanking(ctx, p, c.period.currency)
				if err != nil {
					return nil, "", err
				}
				return projects, rankingMarkdown(p, currencyOf(svc, c.period.currency), projects), nil
			},
		},
		&viewCmd{
			name:     "providers",
			synopsis: "show the providers with the largest spend",
			usage: `providers [-n count] [period flags]
`,
			g:     g,
			flags: periodAndN,
			run: func(ctx context.Context, c *viewCmd, svc *treasury.Service) (interface{}, string, error) {
				p, err := c.period.period()
				if err != nil {
					return nil, "", err
				}
				providers, err := svc.TopProviders(ctx, p, c.period.currency, c.n)
				if err != nil {
					return nil, "", err
				}
				return providers, providersMarkdown(p, currencyOf(svc, c.period.currency), providers), nil
			},
		},
		&viewCmd{
			name:     "clients",
			synopsis: "show the clients with the largest gross income",
			usage: `clients [-n count] [period flags]
`,
			g:     g,
			flags: periodAndN,
			run: func(ctx context.Context, c *viewCmd, svc *treasury.Service) (interface{}, string, error) {
				p, err := c.period.period()
				if err != nil {
					return nil, "", err
				}
				clients, err := svc.TopClients(ctx, p, c.period.currency, c.n)
				if err != nil {
					return nil, "", err
				}
				return clients, clientsMarkdown(p, currencyOf(svc, c.period.currency), clients), nil
			},
		},
		&viewCmd{
			name:     "liquidity",
			synopsis: "project daily account balances",
			usage: `liquidity [-as-of YYYY-MM-DD] [-horizon days] [-risk-only]

  Projects the balance of every active account, applying pending and
  confirmed movements dated after the as-of date.
`,
			g:     g,
			flags: projectionOnly,
			run: func(ctx context.Context, c *viewCmd, svc *treasury.Service) (interface{}, string, error) {
				params, err := c.projection.params(c.g.cfg.Risk.DefaultHorizonDays)
				if err != nil {
					return nil, "", err
				}
				proj, err := svc.LiquidityProjection(ctx, params)
				if err != nil {
					return nil, "", err
				}
				return proj, liquidityMarkdown(proj), nil
			},
		},
		&viewCmd{
			name:     "risk",
			synopsis: "summarize accounts projected below the risk threshold",
			usage: `risk [-as-of YYYY-MM-DD] [-horizon days] [-risk-only]
`,
			g:     g,
			flags: projectionOnly,
			run: func(ctx context.Context, c *viewCmd, svc *treasury.Service) (interface{}, string, error) {
				params, err := c.projection.params(c.g.cfg.Risk.DefaultHorizonDays)
				if err != nil {
					return nil, "", err
				}
				summary, err := svc.RiskSummary(ctx, params)
				if err != nil {
					return nil, "", err
				}
				return summary, riskMarkdown(params, svc, summary), nil
			},
		},
	}
}

// currencyOf resolves the currency a view is reported in.
func currencyOf(svc *treasury.Service, code string) domain.Currency {
	if code == "" {
		return svc.Currencies().Primary
	}
	if c, err := domain.ParseCurrency(code); err == nil {
		return c
	}
	return domain.Currency(code)
}
