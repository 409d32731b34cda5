package domain

import (
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Kind classifies a movement. The sign of a movement is derived from its
// kind and is never stored.
type Kind int

const (
	KindIncome Kind = iota + 1
	KindExpense
	KindInvestmentIn
	KindInvestmentOut
)

func (k Kind) String() string {
	switch k {
	case KindIncome:
		return "INCOME"
	case KindExpense:
		return "EXPENSE"
	case KindInvestmentIn:
		return "INVESTMENT_IN"
	case KindInvestmentOut:
		return "INVESTMENT_OUT"
	default:
		return "UNKNOWN"
	}
}

// IsCredit reports whether the kind adds money to an account.
func (k Kind) IsCredit() bool { return k == KindIncome || k == KindInvestmentIn }

// IsDebit reports whether the kind removes money from an account.
func (k Kind) IsDebit() bool { return k == KindExpense || k == KindInvestmentOut }

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// KindGroup selects the credit or the debit side of the ledger.
type KindGroup int

const (
	GroupIncome KindGroup = iota + 1
	GroupExpense
)

func (g KindGroup) String() string {
	if g == GroupExpense {
		return "expense"
	}
	return "income"
}

// ParseKindGroup accepts "income" or "expense" in any case.
func ParseKindGroup(s string) (KindGroup, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "":
		return GroupIncome, nil
	case "expense", "expenses":
		return GroupExpense, nil
	default:
		return 0, Invalid("group", "unknown group %q", s)
	}
}

// Contains reports whether k belongs to the group.
func (g KindGroup) Contains(k Kind) bool {
	switch g {
	case GroupIncome:
		return k.IsCredit()
	case GroupExpense:
		return k.IsDebit()
	}
	return false
}

// Status is the settlement status of a movement.
type Status int

const (
	StatusPending Status = iota + 1
	StatusConfirmed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusConfirmed:
		return "CONFIRMED"
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Movement is a single dated financial event. Values are only built through
// NewMovement so the engine never sees an unknown kind, status or date.
type Movement struct {
	ID     string
	Date   civil.Date
	Kind   Kind
	Status Status

	// AmountPrimary is a non-negative magnitude in the primary currency.
	AmountPrimary decimal.Decimal
	// AmountSecondary is a non-negative magnitude in the secondary currency,
	// nil when it was never recorded.
	AmountSecondary *decimal.Decimal

	AccountID  string // empty when unassigned
	ProjectID  string // empty when unassigned
	ProviderID string // empty when unassigned

	Deleted bool
}

// Signed returns amount with the sign implied by the movement kind.
func (m Movement) Signed(amount decimal.Decimal) decimal.Decimal {
	if m.Kind.IsDebit() {
		return amount.Neg()
	}
	return amount
}

// IsConfirmed reports whether the movement is settled and not deleted.
func (m Movement) IsConfirmed() bool { return m.Status == StatusConfirmed && !m.Deleted }

// AccountStatus tells whether an account takes part in projections.
type AccountStatus string

const (
	AccountActive   AccountStatus = "active"
	AccountInactive AccountStatus = "inactive"
)

// Account is a cash-holding entity. CurrentBalance already reflects every
// past confirmed movement.
type Account struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	Status         AccountStatus   `json:"status"`
}

// IsActive reports whether the account is active.
func (a Account) IsActive() bool { return a.Status == AccountActive }

// Project attributes movements to a client.
type Project struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	ClientID string `json:"client_id,omitempty" yaml:"client_id"`
}

type Provider struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

type Client struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}
