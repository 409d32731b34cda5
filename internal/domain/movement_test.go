package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseKindGroup(t *testing.T) {
	tests := []struct {
		input   string
		want    KindGroup
		wantErr bool
	}{
		{"income", GroupIncome, false},
		{"", GroupIncome, false},
		{" Expense ", GroupExpense, false},
		{"expenses", GroupExpense, false},
		{"profit", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseKindGroup(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKindGroup(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseKindGroup(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestKindGroupContains(t *testing.T) {
	for _, k := range []Kind{KindIncome, KindInvestmentIn} {
		if !GroupIncome.Contains(k) || GroupExpense.Contains(k) {
			t.Errorf("%s should only belong to the income group", k)
		}
	}
	for _, k := range []Kind{KindExpense, KindInvestmentOut} {
		if !GroupExpense.Contains(k) || GroupIncome.Contains(k) {
			t.Errorf("%s should only belong to the expense group", k)
		}
	}
}

func TestMovementSigned(t *testing.T) {
	amount := decimal.NewFromInt(40)
	if got := (Movement{Kind: KindInvestmentOut}).Signed(amount); !got.Equal(decimal.NewFromInt(-40)) {
		t.Errorf("Signed() = %s, want -40", got)
	}
	if got := (Movement{Kind: KindIncome}).Signed(amount); !got.Equal(amount) {
		t.Errorf("Signed() = %s, want 40", got)
	}
	if (Movement{Status: StatusConfirmed, Deleted: true}).IsConfirmed() {
		t.Error("deleted movements must not count as confirmed")
	}
}
