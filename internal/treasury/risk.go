package treasury

import (
	"sort"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// AccountBalance is a balance of a named account on a given day.
type AccountBalance struct {
	Amount      decimal.Decimal `json:"amount"`
	Date        civil.Date      `json:"date"`
	AccountID   string          `json:"account_id"`
	AccountName string          `json:"account_name"`
}

// RiskSummary reduces a set of account projections.
type RiskSummary struct {
	TotalAccounts int              `json:"total_accounts"`
	AtRiskCount   int              `json:"at_risk_count"`
	WorstBalance  *AccountBalance  `json:"worst_balance"`
	Ranked        []AccountBalance `json:"ranked"`
}

// Summarize counts the at-risk accounts, finds the lowest projected balance
// over every account and day (earliest date, then lowest account id, on
// ties) and ranks the at-risk accounts from worst to best.
func Summarize(accounts []AccountProjection) RiskSummary {
	summary := RiskSummary{TotalAccounts: len(accounts), Ranked: []AccountBalance{}}

	for _, ap := range accounts {
		if len(ap.Points) == 0 {
			continue
		}
		worst := AccountBalance{Amount: ap.Worst.Amount, Date: ap.Worst.Date, AccountID: ap.AccountID, AccountName: ap.Name}
		if summary.WorstBalance == nil || lowerBalance(worst, *summary.WorstBalance) {
			w := worst
			summary.WorstBalance = &w
		}
		if ap.AtRisk {
			summary.AtRiskCount++
			summary.Ranked = append(summary.Ranked, worst)
		}
	}

	sort.Slice(summary.Ranked, func(i, j int) bool {
		return lowerBalance(summary.Ranked[i], summary.Ranked[j])
	})
	return summary
}

func lowerBalance(a, b AccountBalance) bool {
	if c := a.Amount.Cmp(b.Amount); c != 0 {
		return c < 0
	}
	if a.Date != b.Date {
		return a.Date.Before(b.Date)
	}
	return a.AccountID < b.AccountID
}
