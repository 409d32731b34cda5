package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/treasury/internal/treasury"
)

// Markdown renders the report as a Markdown document.
func Markdown(r *Report) string {
	var b strings.Builder
	cur := r.Currency
	money := func(d decimal.Decimal) string { return cur.Format(d) }

	fmt.Fprintf(&b, "# Treasury report %s\n\n", r.Period)
	fmt.Fprintf(&b, "_Generated %s, amounts in %s._\n\n", r.GeneratedAt.Format("2006-01-02 15:04 MST"), cur)

	b.WriteString("## KPIs\n\n")
	b.WriteString("| Income | Expense | Profit | Total balance |\n")
	b.WriteString("|---:|---:|---:|---:|\n")
	fmt.Fprintf(&b, "| %s | %s | %s | %s |\n\n",
		money(r.KPIs.Income), money(r.KPIs.Expense), money(r.KPIs.Profit), money(r.KPIs.TotalBalance))

	for _, bd := range []struct {
		title string
		data  treasury.Breakdown
	}{
		{"Income by project", r.Income},
		{"Expense by project", r.Expense},
	} {
		fmt.Fprintf(&b, "## %s\n\n", bd.title)
		if len(bd.data.Items) == 0 {
			b.WriteString("No movements.\n\n")
			continue
		}
		b.WriteString("| Project | Amount |\n|---|---:|\n")
		for _, it := range bd.data.Items {
			fmt.Fprintf(&b, "| %s | %s |\n", escape(it.Name), money(it.Amount))
		}
		fmt.Fprintf(&b, "| **Total** | **%s** |\n\n", money(bd.data.Total))
	}

	b.WriteString("## Time series\n\n")
	b.WriteString("| Bucket | Income | Expense |\n|---|---:|---:|\n")
	for _, bk := range r.TimeSeries {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", bk.Key, money(bk.Income), money(bk.Expense))
	}
	b.WriteString("\n")

	b.WriteString("## Project ranking\n\n")
	if len(r.Ranking) == 0 {
		b.WriteString("No project movements.\n\n")
	} else {
		b.WriteString("| # | Project | Income | Expense | Profit | Margin |\n|---:|---|---:|---:|---:|---:|\n")
		for i, p := range r.Ranking {
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s |\n",
				i+1, escape(p.Name), money(p.Income), money(p.Expense), money(p.Profit), Percent(p.Margin, p.HasRevenue))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Top providers\n\n")
	if len(r.Providers) == 0 {
		b.WriteString("No provider spend.\n\n")
	} else {
		b.WriteString("| Provider | Spend | Movements |\n|---|---:|---:|\n")
		for _, p := range r.Providers {
			fmt.Fprintf(&b, "| %s | %s | %d |\n", escape(p.Name), money(p.Amount), p.Count)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Top clients\n\n")
	if len(r.Clients) == 0 {
		b.WriteString("No client income.\n\n")
	} else {
		b.WriteString("| Client | Gross income | Projects |\n|---|---:|---:|\n")
		for _, c := range r.Clients {
			fmt.Fprintf(&b, "| %s | %s | %d |\n", escape(c.Name), money(c.Amount), c.Projects)
		}
		b.WriteString("\n")
	}

	writeRisk(&b, r)
	return b.String()
}

func writeRisk(b *strings.Builder, r *Report) {
	liq := r.Liquidity
	cur := liq.Currency
	fmt.Fprintf(b, "## Liquidity risk (%d days from %s)\n\n", liq.HorizonDays, liq.AsOf)
	fmt.Fprintf(b, "%d of %d accounts fall below %s.\n\n", r.Risk.AtRiskCount, r.Risk.TotalAccounts, cur.Format(liq.Threshold))
	if w := r.Risk.WorstBalance; w != nil {
		fmt.Fprintf(b, "Lowest projected balance: **%s** on %s (%s).\n\n", cur.Format(w.Amount), w.Date, escape(w.AccountName))
	}
	if len(liq.Accounts) == 0 {
		return
	}
	b.WriteString("| Account | Current | Worst | Worst date | At risk |\n|---|---:|---:|---|:---:|\n")
	for _, acc := range liq.Accounts {
		flag := ""
		if acc.AtRisk {
			flag = "yes"
		}
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s |\n",
			escape(acc.Label), cur.Format(acc.CurrentBalance), cur.Format(acc.Worst.Amount), acc.Worst.Date, flag)
	}
	b.WriteString("\n")
}

// Percent renders a margin fraction, or "n/a" for projects without revenue.
func Percent(margin decimal.Decimal, hasRevenue bool) string {
	if !hasRevenue {
		return "n/a"
	}
	return margin.Shift(2).StringFixed(1) + "%"
}

var cellEscaper = strings.NewReplacer("|", "\\|", "\n", " ")

func escape(s string) string { return cellEscaper.Replace(s) }
