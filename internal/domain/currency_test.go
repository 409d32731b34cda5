package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		input   string
		want    Currency
		wantErr bool
	}{
		{"USD", "USD", false},
		{" mxn ", "MXN", false},
		{"XYZ", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCurrency(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCurrency(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseCurrency(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewCurrencyPair(t *testing.T) {
	pair, err := NewCurrencyPair("mxn", "usd")
	if err != nil {
		t.Fatalf("NewCurrencyPair failed: %v", err)
	}
	if pair.Primary != "MXN" || pair.Secondary != "USD" {
		t.Errorf("pair = %+v", pair)
	}

	if _, err := NewCurrencyPair("USD", "usd"); !IsValidation(err) {
		t.Errorf("expected validation error for identical currencies, got %v", err)
	}

	single, err := NewCurrencyPair("EUR", "")
	if err != nil {
		t.Fatalf("NewCurrencyPair failed: %v", err)
	}
	if single.Secondary != "" {
		t.Errorf("Secondary = %q, want empty", single.Secondary)
	}
}

func TestIncompleteCurrencyDataError(t *testing.T) {
	err := error(&IncompleteCurrencyDataError{MovementID: "m1", Currency: "USD"})
	if !errors.Is(err, ErrIncompleteCurrencyData) {
		t.Error("expected errors.Is to match ErrIncompleteCurrencyData")
	}
}

func TestCurrencyFormat(t *testing.T) {
	got := Currency("USD").Format(decimal.RequireFromString("1234.5"))
	if got != "$1,234.50" {
		t.Errorf("Format = %q, want $1,234.50", got)
	}
}
