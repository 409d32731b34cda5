package insights

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/treasury/internal/report"
	"github.com/dvloznov/treasury/internal/treasury"
)

func sampleReport() *report.Report {
	asOf := civil.Date{Year: 2024, Month: time.March, Day: 1}
	return &report.Report{
		Period:   treasury.MonthPeriod(2024, time.February),
		Currency: "USD",
		KPIs: treasury.KPIs{
			Income:       decimal.NewFromInt(1700),
			Expense:      decimal.NewFromInt(1350),
			Profit:       decimal.NewFromInt(350),
			TotalBalance: decimal.NewFromInt(750),
		},
		Ranking: []treasury.RankedProject{
			{Name: "Website", Profit: decimal.NewFromInt(700), Margin: decimal.RequireFromString("0.7"), HasRevenue: true},
			{Name: "Internal", Profit: decimal.NewFromInt(-350), Margin: treasury.NoRevenueMargin},
		},
		Liquidity: treasury.Projection{AsOf: asOf, HorizonDays: 30, Currency: "USD", Threshold: decimal.Zero},
		Risk: treasury.RiskSummary{
			TotalAccounts: 2,
			AtRiskCount:   1,
			Ranked: []treasury.AccountBalance{
				{Amount: decimal.NewFromInt(-50), Date: asOf.AddDays(2), AccountID: "acc-2", AccountName: "Reserve"},
			},
		},
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(sampleReport())

	for _, want := range []string{
		"Period: 2024-02 (amounts in USD)",
		"Profit: $350.00",
		"- Website: profit $700.00, margin 70.0%",
		"- Internal: profit -$350.00, margin n/a",
		"1 of 2 accounts fall below $0.00",
		"- Reserve reaches -$50.00 on 2024-03-03",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "Largest providers") {
		t.Error("Expected no provider section without providers")
	}
}

func TestCleanModelText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "  - cash is fine\n", "- cash is fine"},
		{"fenced", "```markdown\n- cash is fine\n```", "- cash is fine"},
		{"bare fence", "```\n- a\n- b\n```\n", "- a\n- b"},
		{"fence only", "```", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanModelText(tt.raw); got != tt.want {
				t.Errorf("cleanModelText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGeminiNarrator_Briefing(t *testing.T) {
	var gotModel string
	n := &GeminiNarrator{
		model: "test-model",
		generate: func(ctx context.Context, model, prompt string) (string, error) {
			gotModel = model
			return "```\n- Reserve drops below zero on 2024-03-03\n```", nil
		},
	}

	text, err := n.Briefing(context.Background(), sampleReport())
	if err != nil {
		t.Fatalf("Briefing() error = %v", err)
	}
	if gotModel != "test-model" {
		t.Errorf("model = %q, want test-model", gotModel)
	}
	if text != "- Reserve drops below zero on 2024-03-03" {
		t.Errorf("Briefing() = %q", text)
	}
}

func TestGeminiNarrator_Errors(t *testing.T) {
	failing := &GeminiNarrator{generate: func(ctx context.Context, model, prompt string) (string, error) {
		return "", errors.New("quota exceeded")
	}}
	if _, err := failing.Briefing(context.Background(), sampleReport()); err == nil {
		t.Error("Expected generate error")
	}

	empty := &GeminiNarrator{generate: func(ctx context.Context, model, prompt string) (string, error) {
		return "  ", nil
	}}
	if _, err := empty.Briefing(context.Background(), sampleReport()); err == nil {
		t.Error("Expected empty response error")
	}
}
