package main

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dvloznov/treasury/internal/domain"
	"github.com/dvloznov/treasury/internal/report"
	"github.com/dvloznov/treasury/internal/treasury"
)

var titleCase = cases.Title(language.English)

func kpisMarkdown(k treasury.KPIs) string {
	var b strings.Builder
	c := k.Currency
	fmt.Fprintf(&b, "# KPIs %s\n\n", k.Period)
	b.WriteString("| Income | Expense | Profit | Total balance |\n|---:|---:|---:|---:|\n")
	fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", c.Format(k.Income), c.Format(k.Expense), c.Format(k.Profit), c.Format(k.TotalBalance))
	return b.String()
}

func breakdownMarkdown(p treasury.Period, c domain.Currency, bd treasury.Breakdown) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s by project %s\n\n", titleCase.String(bd.Group), p)
	if len(bd.Items) == 0 {
		b.WriteString("No movements.\n")
		return b.String()
	}
	b.WriteString("| Project | Amount |\n|---|---:|\n")
	for _, it := range bd.Items {
		fmt.Fprintf(&b, "| %s | %s |\n", it.Name, c.Format(it.Amount))
	}
	fmt.Fprintf(&b, "| **Total** | **%s** |\n", c.Format(bd.Total))
	return b.String()
}

func timeSeriesMarkdown(p treasury.Period, c domain.Currency, buckets []treasury.Bucket) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Time series %s\n\n", p)
	b.WriteString("| Bucket | Income | Expense |\n|---|---:|---:|\n")
	for _, bk := range buckets {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", bk.Key, c.Format(bk.Income), c.Format(bk.Expense))
	}
	return b.String()
}

func rankingMarkdown(p treasury.Period, c domain.Currency, projects []treasury.RankedProject) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Project ranking %s\n\n", p)
	if len(projects) == 0 {
		b.WriteString("No project movements.\n")
		return b.String()
	}
	b.WriteString("| # | Project | Income | Expense | Profit | Margin |\n|---:|---|---:|---:|---:|---:|\n")
	for i, pr := range projects {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s |\n", i+1, pr.Name,
			c.Format(pr.Income), c.Format(pr.Expense), c.Format(pr.Profit), report.Percent(pr.Margin, pr.HasRevenue))
	}
	return b.String()
}

func providersMarkdown(p treasury.Period, c domain.Currency, providers []treasury.RankedProvider) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Top providers %s\n\n", p)
	if len(providers) == 0 {
		b.WriteString("No provider spend.\n")
		return b.String()
	}
	b.WriteString("| Provider | Spend | Movements |\n|---|---:|---:|\n")
	for _, pr := range providers {
		fmt.Fprintf(&b, "| %s | %s | %d |\n", pr.Name, c.Format(pr.Amount), pr.Count)
	}
	return b.String()
}

func clientsMarkdown(p treasury.Period, c domain.Currency, clients []treasury.RankedClient) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Top clients %s\n\n", p)
	if len(clients) == 0 {
		b.WriteString("No client income.\n")
		return b.String()
	}
	b.WriteString("| Client | Gross income | Projects |\n|---|---:|---:|\n")
	for _, cl := range clients {
		fmt.Fprintf(&b, "| %s | %s | %d |\n", cl.Name, c.Format(cl.Amount), cl.Projects)
	}
	return b.String()
}

func liquidityMarkdown(proj treasury.Projection) string {
	var b strings.Builder
	c := proj.Currency
	fmt.Fprintf(&b, "# Liquidity projection from %s (%d days)\n\n", proj.AsOf, proj.HorizonDays)
	if len(proj.Accounts) == 0 {
		b.WriteString("No accounts to project.\n")
		return b.String()
	}

	b.WriteString("| Date |")
	for _, acc := range proj.Accounts {
		fmt.Fprintf(&b, " %s |", acc.Label)
	}
	b.WriteString("\n|---|" + strings.Repeat("---:|", len(proj.Accounts)) + "\n")
	for _, pt := range proj.Series {
		fmt.Fprintf(&b, "| %s |", pt.Date)
		for _, acc := range proj.Accounts {
			fmt.Fprintf(&b, " %s |", c.Format(pt.Balances[acc.Label]))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\nThreshold: %s\n\n", c.Format(proj.Threshold))
	for _, acc := range proj.Accounts {
		if acc.AtRisk {
			fmt.Fprintf(&b, "- **%s** drops to %s on %s\n", acc.Label, c.Format(acc.Worst.Amount), acc.Worst.Date)
		}
	}
	return b.String()
}

func riskMarkdown(params treasury.ProjectionParams, svc *treasury.Service, s treasury.RiskSummary) string {
	var b strings.Builder
	c := svc.Currencies().Primary
	fmt.Fprintf(&b, "# Liquidity risk from %s (%d days)\n\n", params.AsOf, params.HorizonDays)
	fmt.Fprintf(&b, "%d of %d accounts fall below %s.\n\n", s.AtRiskCount, s.TotalAccounts, c.Format(svc.Threshold()))
	if s.WorstBalance != nil {
		fmt.Fprintf(&b, "Lowest projected balance: **%s** on %s (%s).\n\n", c.Format(s.WorstBalance.Amount), s.WorstBalance.Date, s.WorstBalance.AccountName)
	}
	if len(s.Ranked) == 0 {
		return b.String()
	}
	b.WriteString("| Account | Worst balance | Date |\n|---|---:|---|\n")
	for _, r := range s.Ranked {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", r.AccountName, c.Format(r.Amount), r.Date)
	}
	return b.String()
}
