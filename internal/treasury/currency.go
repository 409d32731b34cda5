package treasury

import (
	"github.com/shopspring/decimal"

	"github.com/dvloznov/treasury/internal/domain"
)

// Fallback controls what Normalize does when a secondary amount is missing.
type Fallback int

const (
	// Strict fails with ErrIncompleteCurrencyData.
	Strict Fallback = iota
	// ZeroFallback treats the missing amount as zero.
	ZeroFallback
)

// Normalizer resolves a movement's value in a reporting currency from the
// amounts recorded with it. It never converts.
type Normalizer struct {
	pair domain.CurrencyPair
}

// NewNormalizer returns a Normalizer for the given currency pair.
func NewNormalizer(pair domain.CurrencyPair) Normalizer {
	return Normalizer{pair: pair}
}

// Pair returns the configured currency pair.
func (n Normalizer) Pair() domain.CurrencyPair { return n.pair }

// Resolve validates a requested reporting currency. An empty code selects
// the primary currency.
func (n Normalizer) Resolve(code string) (domain.Currency, error) {
	if code == "" {
		return n.pair.Primary, nil
	}
	c, err := domain.ParseCurrency(code)
	if err != nil {
		return "", err
	}
	if c != n.pair.Primary && (n.pair.Secondary == "" || c != n.pair.Secondary) {
		return "", domain.Invalid("currency", "%s is not a reporting currency (have %s/%s)", c, n.pair.Primary, n.pair.Secondary)
	}
	return c, nil
}

// Normalize returns the magnitude of m expressed in cur.
func (n Normalizer) Normalize(m domain.Movement, cur domain.Currency, fallback Fallback) (decimal.Decimal, error) {
	switch {
	case cur == n.pair.Primary:
		return m.AmountPrimary, nil
	case n.pair.Secondary != "" && cur == n.pair.Secondary:
		if m.AmountSecondary != nil {
			return *m.AmountSecondary, nil
		}
		if fallback == ZeroFallback {
			return decimal.Zero, nil
		}
		return decimal.Zero, &domain.IncompleteCurrencyDataError{MovementID: m.ID, Currency: cur}
	default:
		return decimal.Zero, domain.Invalid("currency", "%s is not a reporting currency", cur)
	}
}
