package insights

import (
	"fmt"
	"strings"

	"github.com/dvloznov/treasury/internal/report"
)

// maxPromptItems caps each ranked list in the prompt.
const maxPromptItems = 5

// BuildPrompt renders the figures the briefing is based on. Amounts are
// formatted in the report currency so the model never does arithmetic on
// raw numbers.
func BuildPrompt(r *report.Report) string {
	var b strings.Builder
	cur := r.Currency
	k := r.KPIs

	b.WriteString("You are a treasury analyst. Write a short briefing (at most 6 bullet points) ")
	b.WriteString("for the management of a small services company, based ONLY on the figures below.\n\n")

	fmt.Fprintf(&b, "Period: %s (amounts in %s)\n", r.Period, cur)
	fmt.Fprintf(&b, "Income: %s\nExpense: %s\nProfit: %s\nTotal balance: %s\n\n",
		cur.Format(k.Income), cur.Format(k.Expense), cur.Format(k.Profit), cur.Format(k.TotalBalance))

	if len(r.Ranking) > 0 {
		b.WriteString("Projects by profit:\n")
		for i, p := range r.Ranking {
			if i == maxPromptItems {
				break
			}
			fmt.Fprintf(&b, "- %s: profit %s, margin %s\n", p.Name, cur.Format(p.Profit), report.Percent(p.Margin, p.HasRevenue))
		}
		b.WriteString("\n")
	}

	if len(r.Providers) > 0 {
		b.WriteString("Largest providers:\n")
		for i, p := range r.Providers {
			if i == maxPromptItems {
				break
			}
			fmt.Fprintf(&b, "- %s: %s over %d movements\n", p.Name, cur.Format(p.Amount), p.Count)
		}
		b.WriteString("\n")
	}

	liq := r.Liquidity
	fmt.Fprintf(&b, "Liquidity over the next %d days from %s: %d of %d accounts fall below %s.\n",
		liq.HorizonDays, liq.AsOf, r.Risk.AtRiskCount, r.Risk.TotalAccounts, liq.Currency.Format(liq.Threshold))
	for i, acc := range r.Risk.Ranked {
		if i == maxPromptItems {
			break
		}
		fmt.Fprintf(&b, "- %s reaches %s on %s\n", acc.AccountName, liq.Currency.Format(acc.Amount), acc.Date)
	}

	b.WriteString("\nRules:\n")
	b.WriteString("- Lead with liquidity risk if any account is at risk.\n")
	b.WriteString("- Do not invent figures that are not listed above.\n")
	b.WriteString("- Answer in plain Markdown bullet points without code fences.\n")
	return b.String()
}
