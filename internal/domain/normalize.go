package domain

import (
	"strings"
	"unicode"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RawMovement is a movement as stored upstream: free-form kind and status
// labels, text dates and text amounts. Repositories decode into this shape
// and hand it to NewMovement.
type RawMovement struct {
	ID              string  `yaml:"id" json:"id"`
	Date            string  `yaml:"date" json:"date"`
	Kind            string  `yaml:"kind" json:"kind"`
	Status          string  `yaml:"status" json:"status"`
	AmountPrimary   string  `yaml:"amount_primary" json:"amount_primary"`
	AmountSecondary *string `yaml:"amount_secondary" json:"amount_secondary,omitempty"`
	AccountID       *string `yaml:"account_id" json:"account_id,omitempty"`
	ProjectID       *string `yaml:"project_id" json:"project_id,omitempty"`
	ProviderID      *string `yaml:"provider_id" json:"provider_id,omitempty"`
	Deleted         bool    `yaml:"deleted" json:"deleted"`
}

var kindSynonyms = map[string]Kind{
	"INCOME":         KindIncome,
	"INGRESO":        KindIncome,
	"INGRESOS":       KindIncome,
	"COBRO":          KindIncome,
	"VENTA":          KindIncome,
	"EXPENSE":        KindExpense,
	"EGRESO":         KindExpense,
	"EGRESOS":        KindExpense,
	"GASTO":          KindExpense,
	"PAGO":           KindExpense,
	"COMPRA":         KindExpense,
	"INVESTMENT_IN":  KindInvestmentIn,
	"INVERSION":      KindInvestmentIn,
	"APORTE":         KindInvestmentIn,
	"APORTACION":     KindInvestmentIn,
	"CAPITAL":        KindInvestmentIn,
	"INVESTMENT_OUT": KindInvestmentOut,
	"RETIRO":         KindInvestmentOut,
	"DESINVERSION":   KindInvestmentOut,
	"DIVIDENDO":      KindInvestmentOut,
}

var statusSynonyms = map[string]Status{
	"CONFIRMED":  StatusConfirmed,
	"CONFIRMADO": StatusConfirmed,
	"PAGADO":     StatusConfirmed,
	"COBRADO":    StatusConfirmed,
	"REALIZADO":  StatusConfirmed,
	"COMPLETED":  StatusConfirmed,
	"PAID":       StatusConfirmed,
	"PENDING":    StatusPending,
	"PENDIENTE":  StatusPending,
	"PROGRAMADO": StatusPending,
	"SCHEDULED":  StatusPending,
	"PLANNED":    StatusPending,
}

// foldLabel upper-cases s, strips accents and joins words with '_'.
func foldLabel(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToUpper(strings.TrimSpace(folded))
	return strings.Join(strings.FieldsFunc(folded, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	}), "_")
}

// ParseKind maps an upstream kind label onto Kind.
func ParseKind(label string) (Kind, error) {
	if k, ok := kindSynonyms[foldLabel(label)]; ok {
		return k, nil
	}
	return 0, Invalid("kind", "unknown movement kind %q", label)
}

// ParseStatus maps an upstream status label onto Status.
func ParseStatus(label string) (Status, error) {
	if s, ok := statusSynonyms[foldLabel(label)]; ok {
		return s, nil
	}
	return 0, Invalid("status", "unknown movement status %q", label)
}

// ParseDate accepts ISO dates, optionally followed by a time part.
func ParseDate(s string) (civil.Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > 10 && (s[10] == 'T' || s[10] == ' ') {
		s = s[:10]
	}
	d, err := civil.ParseDate(s)
	if err != nil || !d.IsValid() {
		return civil.Date{}, Invalid("date", "unparseable date %q", s)
	}
	return d, nil
}

func parseAmount(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, Invalid(field, "not a number: %q", s)
	}
	if d.IsNegative() {
		return decimal.Zero, Invalid(field, "negative magnitude %s", d)
	}
	return d, nil
}

func optional(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// NewMovement validates raw and returns the normalized movement.
func NewMovement(raw RawMovement) (Movement, error) {
	if strings.TrimSpace(raw.ID) == "" {
		return Movement{}, Invalid("id", "movement id is required")
	}
	date, err := ParseDate(raw.Date)
	if err != nil {
		return Movement{}, err
	}
	kind, err := ParseKind(raw.Kind)
	if err != nil {
		return Movement{}, err
	}
	status, err := ParseStatus(raw.Status)
	if err != nil {
		return Movement{}, err
	}
	primary, err := parseAmount("amount_primary", raw.AmountPrimary)
	if err != nil {
		return Movement{}, err
	}

	m := Movement{
		ID:            strings.TrimSpace(raw.ID),
		Date:          date,
		Kind:          kind,
		Status:        status,
		AmountPrimary: primary,
		AccountID:     optional(raw.AccountID),
		ProjectID:     optional(raw.ProjectID),
		ProviderID:    optional(raw.ProviderID),
		Deleted:       raw.Deleted,
	}
	if s := optional(raw.AmountSecondary); s != "" {
		secondary, err := parseAmount("amount_secondary", s)
		if err != nil {
			return Movement{}, err
		}
		m.AmountSecondary = &secondary
	}
	return m, nil
}

// RawAccount is an account as stored upstream.
type RawAccount struct {
	ID             string `yaml:"id" json:"id"`
	Name           string `yaml:"name" json:"name"`
	Type           string `yaml:"type" json:"type"`
	CurrentBalance string `yaml:"current_balance" json:"current_balance"`
	Status         string `yaml:"status" json:"status"`
}

// NewAccount validates raw. Balances may be negative; an unknown status is
// treated as inactive so it never enters a projection.
func NewAccount(raw RawAccount) (Account, error) {
	if strings.TrimSpace(raw.ID) == "" {
		return Account{}, Invalid("id", "account id is required")
	}
	balance := decimal.Zero
	if s := strings.TrimSpace(raw.CurrentBalance); s != "" {
		b, err := decimal.NewFromString(s)
		if err != nil {
			return Account{}, Invalid("current_balance", "not a number: %q", raw.CurrentBalance)
		}
		balance = b
	}
	status := AccountInactive
	switch foldLabel(raw.Status) {
	case "ACTIVE", "ACTIVA", "ACTIVO", "":
		status = AccountActive
	}
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		name = raw.ID
	}
	return Account{
		ID:             strings.TrimSpace(raw.ID),
		Name:           name,
		Type:           strings.TrimSpace(raw.Type),
		CurrentBalance: balance,
		Status:         status,
	}, nil
}
