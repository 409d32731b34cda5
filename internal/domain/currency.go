package domain

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency is an ISO-4217 currency code.
type Currency string

// ParseCurrency normalizes code and checks it against the ISO-4217 table.
func ParseCurrency(code string) (Currency, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if c == "" {
		return "", Invalid("currency", "code is required")
	}
	if money.GetCurrency(c) == nil {
		return "", Invalid("currency", "unknown currency code %q", code)
	}
	return Currency(c), nil
}

// Format renders amount using the currency's symbol and separators.
func (c Currency) Format(amount decimal.Decimal) string {
	cur := money.GetCurrency(string(c))
	if cur == nil {
		return amount.StringFixed(2) + " " + string(c)
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// CurrencyPair holds the two currencies every movement is recorded in.
type CurrencyPair struct {
	Primary   Currency
	Secondary Currency
}

// NewCurrencyPair validates both codes.
func NewCurrencyPair(primary, secondary string) (CurrencyPair, error) {
	p, err := ParseCurrency(primary)
	if err != nil {
		return CurrencyPair{}, err
	}
	pair := CurrencyPair{Primary: p}
	if strings.TrimSpace(secondary) == "" {
		return pair, nil
	}
	s, err := ParseCurrency(secondary)
	if err != nil {
		return CurrencyPair{}, err
	}
	if s == p {
		return CurrencyPair{}, Invalid("currency", "secondary currency %s equals primary", s)
	}
	pair.Secondary = s
	return pair, nil
}
