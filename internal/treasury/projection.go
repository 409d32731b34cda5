package treasury

import (
	"fmt"
	"sort"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/treasury/internal/domain"
)

// MaxHorizonDays bounds the size of a projection.
const MaxHorizonDays = 3660

// ProjectionParams selects the window of a liquidity projection. Days are
// projected from the day after AsOf through AsOf+HorizonDays.
type ProjectionParams struct {
	AsOf        civil.Date
	HorizonDays int
	RiskOnly    bool
}

// Validate rejects invalid dates and non-positive horizons.
func (p ProjectionParams) Validate() error {
	if !p.AsOf.IsValid() {
		return domain.Invalid("as_of", "invalid date %v", p.AsOf)
	}
	if p.HorizonDays <= 0 {
		return domain.Invalid("horizon_days", "must be positive, got %d", p.HorizonDays)
	}
	if p.HorizonDays > MaxHorizonDays {
		return domain.Invalid("horizon_days", "must not exceed %d, got %d", MaxHorizonDays, p.HorizonDays)
	}
	return nil
}

// BalancePoint is an account's projected balance at the end of a day.
type BalancePoint struct {
	Date    civil.Date      `json:"date"`
	Balance decimal.Decimal `json:"balance"`
}

// DatedAmount is a balance and the day it occurs.
type DatedAmount struct {
	Amount decimal.Decimal `json:"amount"`
	Date   civil.Date      `json:"date"`
}

// AccountProjection is the projected daily series of one account.
type AccountProjection struct {
	AccountID      string          `json:"account_id"`
	Name           string          `json:"name"`
	Label          string          `json:"label"`
	Type           string          `json:"type,omitempty"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	Points         []BalancePoint  `json:"points"`
	Worst          DatedAmount     `json:"worst"`
	AtRisk         bool            `json:"at_risk"`
}

// SeriesPoint is one row of the date pivot: account label to balance.
type SeriesPoint struct {
	Date     civil.Date                 `json:"date"`
	Balances map[string]decimal.Decimal `json:"balances"`
}

// Projection is the result of a liquidity projection.
type Projection struct {
	AsOf        civil.Date          `json:"as_of"`
	HorizonDays int                 `json:"horizon_days"`
	Currency    domain.Currency     `json:"currency"`
	Threshold   decimal.Decimal     `json:"threshold"`
	Series      []SeriesPoint       `json:"series"`
	Accounts    []AccountProjection `json:"accounts"`
}

// Projector simulates forward daily balances of active accounts.
type Projector struct {
	threshold decimal.Decimal
	currency  domain.Currency
}

// NewProjector returns a Projector flagging accounts whose balance drops
// below threshold. Balances are expressed in currency, the primary
// currency of the ledger.
func NewProjector(threshold decimal.Decimal, currency domain.Currency) *Projector {
	return &Projector{threshold: threshold, currency: currency}
}

// Threshold returns the risk threshold.
func (pr *Projector) Threshold() decimal.Decimal { return pr.threshold }

// Project computes the daily balance of every active account over the
// horizon. Past movements are assumed folded into CurrentBalance, so only
// movements dated after AsOf and within the horizon are applied.
func (pr *Projector) Project(s Snapshot, params ProjectionParams) (Projection, error) {
	if err := params.Validate(); err != nil {
		return Projection{}, err
	}
	h := params.HorizonDays
	end := params.AsOf.AddDays(h)

	accounts := activeAccounts(s.Accounts)
	deltas := make(map[string][]decimal.Decimal, len(accounts))
	for _, acc := range accounts {
		deltas[acc.ID] = make([]decimal.Decimal, h)
	}

	for _, m := range s.Movements {
		if m.Deleted || m.AccountID == "" {
			continue
		}
		if !m.Date.After(params.AsOf) || m.Date.After(end) {
			continue
		}
		d, ok := deltas[m.AccountID]
		if !ok {
			continue
		}
		i := m.Date.DaysSince(params.AsOf) - 1
		d[i] = d[i].Add(m.Signed(m.AmountPrimary))
	}

	labels := accountLabels(accounts)
	projected := make([]AccountProjection, 0, len(accounts))
	for _, acc := range accounts {
		ap := pr.projectAccount(acc, deltas[acc.ID], params.AsOf)
		ap.Label = labels[acc.ID]
		projected = append(projected, ap)
	}

	proj := Projection{
		AsOf:        params.AsOf,
		HorizonDays: h,
		Currency:    pr.currency,
		Threshold:   pr.threshold,
		Series:      pivot(projected, params.AsOf, h),
		Accounts:    projected,
	}
	if params.RiskOnly {
		return proj.AtRiskOnly(), nil
	}
	return proj, nil
}

// AtRiskOnly returns a copy of p restricted to at-risk accounts, pivot
// columns included.
func (p Projection) AtRiskOnly() Projection {
	accounts := make([]AccountProjection, 0, len(p.Accounts))
	for _, ap := range p.Accounts {
		if ap.AtRisk {
			accounts = append(accounts, ap)
		}
	}
	p.Accounts = accounts
	p.Series = pivot(accounts, p.AsOf, p.HorizonDays)
	return p
}

func (pr *Projector) projectAccount(acc domain.Account, deltas []decimal.Decimal, asOf civil.Date) AccountProjection {
	ap := AccountProjection{
		AccountID:      acc.ID,
		Name:           acc.Name,
		Type:           acc.Type,
		CurrentBalance: acc.CurrentBalance,
		Points:         make([]BalancePoint, len(deltas)),
	}
	balance := acc.CurrentBalance
	for i, delta := range deltas {
		balance = balance.Add(delta)
		day := asOf.AddDays(i + 1)
		ap.Points[i] = BalancePoint{Date: day, Balance: balance}
		// strict comparison keeps the earliest day on ties
		if i == 0 || balance.LessThan(ap.Worst.Amount) {
			ap.Worst = DatedAmount{Amount: balance, Date: day}
		}
	}
	ap.AtRisk = len(ap.Points) > 0 && ap.Worst.Amount.LessThan(pr.threshold)
	return ap
}

// activeAccounts returns the active accounts ordered by id.
func activeAccounts(accounts []domain.Account) []domain.Account {
	seen := make(map[string]bool, len(accounts))
	out := make([]domain.Account, 0, len(accounts))
	for _, acc := range accounts {
		if !acc.IsActive() || seen[acc.ID] {
			continue
		}
		seen[acc.ID] = true
		out = append(out, acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// accountLabels returns the pivot column of each account: its name, or
// "name (id)" when several accounts share a name.
func accountLabels(accounts []domain.Account) map[string]string {
	count := make(map[string]int, len(accounts))
	for _, acc := range accounts {
		count[acc.Name]++
	}
	labels := make(map[string]string, len(accounts))
	for _, acc := range accounts {
		if count[acc.Name] > 1 {
			labels[acc.ID] = fmt.Sprintf("%s (%s)", acc.Name, acc.ID)
		} else {
			labels[acc.ID] = acc.Name
		}
	}
	return labels
}

func pivot(accounts []AccountProjection, asOf civil.Date, h int) []SeriesPoint {
	series := make([]SeriesPoint, h)
	for i := range series {
		series[i] = SeriesPoint{Date: asOf.AddDays(i + 1), Balances: make(map[string]decimal.Decimal, len(accounts))}
	}
	for _, ap := range accounts {
		for i, pt := range ap.Points {
			series[i].Balances[ap.Label] = pt.Balance
		}
	}
	return series
}
