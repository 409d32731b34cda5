package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/dvloznov/treasury/internal/treasury"
)

// Sheet names of the exported workbook, in order.
const (
	SheetKPIs       = "KPIs"
	SheetBreakdown  = "Breakdown"
	SheetTimeSeries = "TimeSeries"
	SheetRanking    = "Ranking"
	SheetProviders  = "Providers"
	SheetClients    = "Clients"
	SheetLiquidity  = "Liquidity"
	SheetRisk       = "Risk"
)

// XLSXContentType is the MIME type of the exported workbook.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type sheet struct {
	name   string
	header []any
	rows   [][]any
}

func num(d decimal.Decimal) float64 { return d.InexactFloat64() }

// WriteXLSX writes the report as a workbook with one sheet per view.
func WriteXLSX(w io.Writer, r *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	sheets := workbookSheets(r)
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("WriteXLSX: header style: %w", err)
	}

	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sh.name); err != nil {
				return fmt.Errorf("WriteXLSX: rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sh.name); err != nil {
			return fmt.Errorf("WriteXLSX: create sheet %s: %w", sh.name, err)
		}

		if err := f.SetSheetRow(sh.name, "A1", &sh.header); err != nil {
			return fmt.Errorf("WriteXLSX: %s header: %w", sh.name, err)
		}
		last, err := excelize.ColumnNumberToName(len(sh.header))
		if err != nil {
			return fmt.Errorf("WriteXLSX: %s columns: %w", sh.name, err)
		}
		if err := f.SetCellStyle(sh.name, "A1", last+"1", bold); err != nil {
			return fmt.Errorf("WriteXLSX: %s header style: %w", sh.name, err)
		}

		for j, row := range sh.rows {
			cell, err := excelize.CoordinatesToCellName(1, j+2)
			if err != nil {
				return fmt.Errorf("WriteXLSX: %s row %d: %w", sh.name, j, err)
			}
			if err := f.SetSheetRow(sh.name, cell, &row); err != nil {
				return fmt.Errorf("WriteXLSX: %s row %d: %w", sh.name, j, err)
			}
		}
		if err := f.SetColWidth(sh.name, "A", last, 18); err != nil {
			return fmt.Errorf("WriteXLSX: %s width: %w", sh.name, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("WriteXLSX: write: %w", err)
	}
	return nil
}

func workbookSheets(r *Report) []sheet {
	k := r.KPIs
	sheets := []sheet{
		{
			name:   SheetKPIs,
			header: []any{"Period", "Currency", "Income", "Expense", "Profit", "Total balance"},
			rows:   [][]any{{r.Period.String(), string(r.Currency), num(k.Income), num(k.Expense), num(k.Profit), num(k.TotalBalance)}},
		},
		{name: SheetBreakdown, header: []any{"Group", "Project ID", "Project", "Amount"}},
		{name: SheetTimeSeries, header: []any{"Bucket", "Start", "Income", "Expense"}},
		{name: SheetRanking, header: []any{"Rank", "Project ID", "Project", "Income", "Expense", "Profit", "Margin"}},
		{name: SheetProviders, header: []any{"Provider ID", "Provider", "Spend", "Movements"}},
		{name: SheetClients, header: []any{"Client ID", "Client", "Gross income", "Projects"}},
		{name: SheetLiquidity, header: []any{"Date"}},
		{name: SheetRisk, header: []any{"Account ID", "Account", "Current", "Worst", "Worst date", "At risk"}},
	}

	for _, bd := range []treasury.Breakdown{r.Income, r.Expense} {
		for _, it := range bd.Items {
			sheets[1].rows = append(sheets[1].rows, []any{bd.Group, it.ProjectID, it.Name, num(it.Amount)})
		}
	}
	for _, bk := range r.TimeSeries {
		sheets[2].rows = append(sheets[2].rows, []any{bk.Key, bk.Start.String(), num(bk.Income), num(bk.Expense)})
	}
	for i, p := range r.Ranking {
		var margin any = "n/a"
		if p.HasRevenue {
			margin = num(p.Margin)
		}
		sheets[3].rows = append(sheets[3].rows, []any{i + 1, p.ProjectID, p.Name, num(p.Income), num(p.Expense), num(p.Profit), margin})
	}
	for _, p := range r.Providers {
		sheets[4].rows = append(sheets[4].rows, []any{p.ProviderID, p.Name, num(p.Amount), p.Count})
	}
	for _, c := range r.Clients {
		sheets[5].rows = append(sheets[5].rows, []any{c.ClientID, c.Name, num(c.Amount), c.Projects})
	}

	liq := &sheets[6]
	labels := make([]string, 0, len(r.Liquidity.Accounts))
	for _, acc := range r.Liquidity.Accounts {
		labels = append(labels, acc.Label)
	}
	sort.Strings(labels)
	for _, l := range labels {
		liq.header = append(liq.header, l)
	}
	for _, pt := range r.Liquidity.Series {
		row := []any{pt.Date.String()}
		for _, l := range labels {
			row = append(row, num(pt.Balances[l]))
		}
		liq.rows = append(liq.rows, row)
	}

	for _, acc := range r.Liquidity.Accounts {
		sheets[7].rows = append(sheets[7].rows, []any{
			acc.AccountID, acc.Name, num(acc.CurrentBalance), num(acc.Worst.Amount), acc.Worst.Date.String(), acc.AtRisk,
		})
	}
	return sheets
}
