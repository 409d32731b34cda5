package treasury

import (
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/treasury/internal/domain"
)

const (
	// UnassignedLabel names the group of movements without a project.
	UnassignedLabel = "Unassigned"

	// DefaultTopN is the size of provider and client rankings.
	DefaultTopN = 5
)

// NoRevenueMargin is the margin reported for projects without income (-100%).
var NoRevenueMargin = decimal.NewFromInt(-1)

// KPIs summarizes a reporting period.
type KPIs struct {
	Period       Period          `json:"period"`
	Currency     domain.Currency `json:"currency"`
	Income       decimal.Decimal `json:"income"`
	Expense      decimal.Decimal `json:"expense"`
	Profit       decimal.Decimal `json:"profit"`
	TotalBalance decimal.Decimal `json:"total_balance"`
}

// BreakdownItem is the amount attributed to one project.
type BreakdownItem struct {
	ProjectID string          `json:"project_id,omitempty"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
}

// Breakdown groups one side of the ledger by project.
type Breakdown struct {
	Group string          `json:"group"`
	Items []BreakdownItem `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// Bucket is one sub-period of a time series.
type Bucket struct {
	Key     string          `json:"key"`
	Start   civil.Date      `json:"start"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// RankedProject is a project's profitability over a period. Margin is a
// fraction of income; it is NoRevenueMargin when HasRevenue is false.
type RankedProject struct {
	ProjectID  string          `json:"project_id"`
	Name       string          `json:"name"`
	Income     decimal.Decimal `json:"income"`
	Expense    decimal.Decimal `json:"expense"`
	Profit     decimal.Decimal `json:"profit"`
	Margin     decimal.Decimal `json:"margin"`
	HasRevenue bool            `json:"has_revenue"`
}

// RankedProvider is the spend with one provider.
type RankedProvider struct {
	ProviderID string          `json:"provider_id"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	Count      int             `json:"count"`
}

// RankedClient is the gross income attributed to one client through its
// projects. Costs are not subtracted.
type RankedClient struct {
	ClientID string          `json:"client_id"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
	Projects int             `json:"projects"`
}

// Aggregator computes period KPIs, breakdowns and rankings over a snapshot.
// It holds no state besides its configuration.
type Aggregator struct {
	normalizer Normalizer
	fallback   Fallback
}

// NewAggregator returns an Aggregator that treats missing secondary amounts
// as zero.
func NewAggregator(n Normalizer) *Aggregator {
	return &Aggregator{normalizer: n, fallback: ZeroFallback}
}

// WithFallback returns a copy of a using fallback for missing amounts.
func (a *Aggregator) WithFallback(fallback Fallback) *Aggregator {
	c := *a
	c.fallback = fallback
	return &c
}

// check validates p and resolves cur, an empty code meaning the primary
// currency.
func (a *Aggregator) check(p Period, cur domain.Currency) (domain.Currency, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	return a.normalizer.Resolve(string(cur))
}

// inPeriod returns the confirmed, non-deleted movements dated inside p.
func inPeriod(movements []domain.Movement, p Period) []domain.Movement {
	start, end := p.Range()
	var out []domain.Movement
	for _, m := range movements {
		if !m.IsConfirmed() || m.Date.Before(start) || m.Date.After(end) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func (a *Aggregator) amount(m domain.Movement, cur domain.Currency) (decimal.Decimal, error) {
	v, err := a.normalizer.Normalize(m, cur, a.fallback)
	if err != nil {
		return decimal.Zero, fmt.Errorf("normalizing movement %s: %w", m.ID, err)
	}
	return v, nil
}

// KPIs returns income, expense and profit over p, and the all-time balance
// of confirmed movements.
func (a *Aggregator) KPIs(s Snapshot, p Period, cur domain.Currency) (KPIs, error) {
	cur, err := a.check(p, cur)
	if err != nil {
		return KPIs{}, err
	}
	k := KPIs{Period: p, Currency: cur, Income: decimal.Zero, Expense: decimal.Zero, TotalBalance: decimal.Zero}

	for _, m := range inPeriod(s.Movements, p) {
		v, err := a.amount(m, cur)
		if err != nil {
			return KPIs{}, err
		}
		if m.Kind.IsCredit() {
			k.Income = k.Income.Add(v)
		} else {
			k.Expense = k.Expense.Add(v)
		}
	}
	k.Profit = k.Income.Sub(k.Expense)

	for _, m := range s.Movements {
		if !m.IsConfirmed() {
			continue
		}
		v, err := a.amount(m, cur)
		if err != nil {
			return KPIs{}, err
		}
		k.TotalBalance = k.TotalBalance.Add(m.Signed(v))
	}
	return k, nil
}

// BreakdownByProject sums one side of the ledger per project over p.
func (a *Aggregator) BreakdownByProject(s Snapshot, p Period, cur domain.Currency, group domain.KindGroup) (Breakdown, error) {
	cur, err := a.check(p, cur)
	if err != nil {
		return Breakdown{}, err
	}
	if group != domain.GroupIncome && group != domain.GroupExpense {
		return Breakdown{}, domain.Invalid("group", "unknown kind group %d", int(group))
	}
	dir := newDirectory(s)
	sums := make(map[string]decimal.Decimal)
	total := decimal.Zero

	for _, m := range inPeriod(s.Movements, p) {
		if !group.Contains(m.Kind) {
			continue
		}
		v, err := a.amount(m, cur)
		if err != nil {
			return Breakdown{}, err
		}
		sums[m.ProjectID] = sums[m.ProjectID].Add(v)
		total = total.Add(v)
	}

	items := make([]BreakdownItem, 0, len(sums))
	for id, amount := range sums {
		name := UnassignedLabel
		if id != "" {
			name = dir.projectName(id)
		}
		items = append(items, BreakdownItem{ProjectID: id, Name: name, Amount: amount})
	}
	sort.Slice(items, func(i, j int) bool {
		if c := items[i].Amount.Cmp(items[j].Amount); c != 0 {
			return c > 0
		}
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].ProjectID < items[j].ProjectID
	})
	return Breakdown{Group: group.String(), Items: items, Total: total}, nil
}

// TimeSeries returns one bucket per day (month periods) or per month (year
// periods), in chronological order, including empty buckets.
func (a *Aggregator) TimeSeries(s Snapshot, p Period, cur domain.Currency) ([]Bucket, error) {
	cur, err := a.check(p, cur)
	if err != nil {
		return nil, err
	}
	buckets := emptyBuckets(p)

	for _, m := range inPeriod(s.Movements, p) {
		v, err := a.amount(m, cur)
		if err != nil {
			return nil, err
		}
		i := int(m.Date.Month) - 1
		if p.Mode == ModeMonth {
			i = m.Date.Day - 1
		}
		if m.Kind.IsCredit() {
			buckets[i].Income = buckets[i].Income.Add(v)
		} else {
			buckets[i].Expense = buckets[i].Expense.Add(v)
		}
	}
	return buckets, nil
}

func emptyBuckets(p Period) []Bucket {
	start, end := p.Range()
	if p.Mode == ModeYear {
		buckets := make([]Bucket, 0, 12)
		for m := time.January; m <= time.December; m++ {
			d := civil.Date{Year: p.Year, Month: m, Day: 1}
			buckets = append(buckets, Bucket{Key: fmt.Sprintf("%04d-%02d", p.Year, int(m)), Start: d, Income: decimal.Zero, Expense: decimal.Zero})
		}
		return buckets
	}
	buckets := make([]Bucket, 0, end.Day)
	for d := start; !d.After(end); d = d.AddDays(1) {
		buckets = append(buckets, Bucket{Key: d.String(), Start: d, Income: decimal.Zero, Expense: decimal.Zero})
	}
	return buckets
}

// ProjectRanking returns income, expense, profit and margin per project over
// p, most profitable first. Movements without a project are not ranked.
func (a *Aggregator) ProjectRanking(s Snapshot, p Period, cur domain.Currency) ([]RankedProject, error) {
	cur, err := a.check(p, cur)
	if err != nil {
		return nil, err
	}
	dir := newDirectory(s)
	byID := make(map[string]*RankedProject)

	for _, m := range inPeriod(s.Movements, p) {
		if m.ProjectID == "" {
			continue
		}
		v, err := a.amount(m, cur)
		if err != nil {
			return nil, err
		}
		r, ok := byID[m.ProjectID]
		if !ok {
			r = &RankedProject{ProjectID: m.ProjectID, Name: dir.projectName(m.ProjectID), Income: decimal.Zero, Expense: decimal.Zero}
			byID[m.ProjectID] = r
		}
		if m.Kind.IsCredit() {
			r.Income = r.Income.Add(v)
		} else {
			r.Expense = r.Expense.Add(v)
		}
	}

	ranking := make([]RankedProject, 0, len(byID))
	for _, r := range byID {
		r.Profit = r.Income.Sub(r.Expense)
		if r.Income.IsPositive() {
			r.HasRevenue = true
			r.Margin = r.Profit.DivRound(r.Income, 4)
		} else {
			r.Margin = NoRevenueMargin
		}
		ranking = append(ranking, *r)
	}
	sort.Slice(ranking, func(i, j int) bool {
		if c := ranking[i].Profit.Cmp(ranking[j].Profit); c != 0 {
			return c > 0
		}
		if ranking[i].Name != ranking[j].Name {
			return ranking[i].Name < ranking[j].Name
		}
		return ranking[i].ProjectID < ranking[j].ProjectID
	})
	return ranking, nil
}

// TopProviders returns the n providers with the largest expense over p.
func (a *Aggregator) TopProviders(s Snapshot, p Period, cur domain.Currency, n int) ([]RankedProvider, error) {
	cur, err := a.check(p, cur)
	if err != nil {
		return nil, err
	}
	limit, err := topLimit(n)
	if err != nil {
		return nil, err
	}
	dir := newDirectory(s)
	byID := make(map[string]*RankedProvider)

	for _, m := range inPeriod(s.Movements, p) {
		if m.Kind != domain.KindExpense || m.ProviderID == "" {
			continue
		}
		v, err := a.amount(m, cur)
		if err != nil {
			return nil, err
		}
		r, ok := byID[m.ProviderID]
		if !ok {
			r = &RankedProvider{ProviderID: m.ProviderID, Name: dir.providerName(m.ProviderID), Amount: decimal.Zero}
			byID[m.ProviderID] = r
		}
		r.Amount = r.Amount.Add(v)
		r.Count++
	}

	ranking := make([]RankedProvider, 0, len(byID))
	for _, r := range byID {
		ranking = append(ranking, *r)
	}
	sort.Slice(ranking, func(i, j int) bool {
		if c := ranking[i].Amount.Cmp(ranking[j].Amount); c != 0 {
			return c > 0
		}
		if ranking[i].Name != ranking[j].Name {
			return ranking[i].Name < ranking[j].Name
		}
		return ranking[i].ProviderID < ranking[j].ProviderID
	})
	if len(ranking) > limit {
		ranking = ranking[:limit]
	}
	return ranking, nil
}

// TopClients returns the n clients with the largest gross income over p.
// Income is attributed through the movement's project; movements whose
// project has no client are ignored.
func (a *Aggregator) TopClients(s Snapshot, p Period, cur domain.Currency, n int) ([]RankedClient, error) {
	cur, err := a.check(p, cur)
	if err != nil {
		return nil, err
	}
	limit, err := topLimit(n)
	if err != nil {
		return nil, err
	}
	dir := newDirectory(s)
	byID := make(map[string]*RankedClient)
	projects := make(map[string]map[string]struct{})

	for _, m := range inPeriod(s.Movements, p) {
		if m.Kind != domain.KindIncome {
			continue
		}
		clientID := dir.clientOf(m.ProjectID)
		if clientID == "" {
			continue
		}
		v, err := a.amount(m, cur)
		if err != nil {
			return nil, err
		}
		r, ok := byID[clientID]
		if !ok {
			r = &RankedClient{ClientID: clientID, Name: dir.clientName(clientID), Amount: decimal.Zero}
			byID[clientID] = r
			projects[clientID] = make(map[string]struct{})
		}
		r.Amount = r.Amount.Add(v)
		projects[clientID][m.ProjectID] = struct{}{}
	}

	ranking := make([]RankedClient, 0, len(byID))
	for id, r := range byID {
		r.Projects = len(projects[id])
		ranking = append(ranking, *r)
	}
	sort.Slice(ranking, func(i, j int) bool {
		if c := ranking[i].Amount.Cmp(ranking[j].Amount); c != 0 {
			return c > 0
		}
		if ranking[i].Name != ranking[j].Name {
			return ranking[i].Name < ranking[j].Name
		}
		return ranking[i].ClientID < ranking[j].ClientID
	})
	if len(ranking) > limit {
		ranking = ranking[:limit]
	}
	return ranking, nil
}

func topLimit(n int) (int, error) {
	if n < 0 {
		return 0, domain.Invalid("n", "must not be negative, got %d", n)
	}
	if n == 0 {
		return DefaultTopN, nil
	}
	return n, nil
}
