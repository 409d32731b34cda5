package treasury

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/treasury/internal/domain"
)

func date(t *testing.T, s string) civil.Date {
	t.Helper()
	d, err := civil.ParseDate(s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func confirmed(t *testing.T, id, day string, kind domain.Kind, amount string) domain.Movement {
	t.Helper()
	return domain.Movement{
		ID:            id,
		Date:          date(t, day),
		Kind:          kind,
		Status:        domain.StatusConfirmed,
		AmountPrimary: dec(amount),
	}
}

func usdEUR(t *testing.T) domain.CurrencyPair {
	t.Helper()
	pair, err := domain.NewCurrencyPair("USD", "EUR")
	if err != nil {
		t.Fatalf("NewCurrencyPair() error = %v", err)
	}
	return pair
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}
