package ledger

import (
	"context"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/treasury/internal/domain"
)

// Repository provides read-only access to the ledger. Implementations return
// whatever the store holds at call time; no snapshot isolation is implied
// across calls. Records that fail domain validation are skipped.
type Repository interface {
	// ListMovements retrieves movements matching the filter.
	ListMovements(ctx context.Context, filter MovementFilter) ([]domain.Movement, error)

	// ListAccounts retrieves accounts matching the filter.
	ListAccounts(ctx context.Context, filter AccountFilter) ([]domain.Account, error)

	// ListProjects retrieves all projects.
	ListProjects(ctx context.Context) ([]domain.Project, error)

	// ListProviders retrieves all providers.
	ListProviders(ctx context.Context) ([]domain.Provider, error)

	// ListClients retrieves all clients.
	ListClients(ctx context.Context) ([]domain.Client, error)
}

// MovementFilter defines filtering criteria for listing movements.
type MovementFilter struct {
	// From and To bound the movement date, inclusive. Nil means unbounded.
	From *civil.Date
	To   *civil.Date

	// Statuses restricts the settlement status. Empty means any.
	Statuses []domain.Status

	// AccountIDs restricts movements to these accounts. Empty means any.
	AccountIDs []string

	// IncludeDeleted also returns soft-deleted movements.
	IncludeDeleted bool
}

// Matches reports whether m satisfies the filter. Stores that cannot push
// a criterion down use it to filter in memory.
func (f MovementFilter) Matches(m domain.Movement) bool {
	if m.Deleted && !f.IncludeDeleted {
		return false
	}
	if f.From != nil && m.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && m.Date.After(*f.To) {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, m.Status) {
		return false
	}
	if len(f.AccountIDs) > 0 && !containsString(f.AccountIDs, m.AccountID) {
		return false
	}
	return true
}

// StatusLabels returns the canonical labels of the filter statuses.
func (f MovementFilter) StatusLabels() []string {
	labels := make([]string, 0, len(f.Statuses))
	for _, s := range f.Statuses {
		labels = append(labels, s.String())
	}
	return labels
}

// AccountFilter defines filtering criteria for listing accounts.
type AccountFilter struct {
	// ActiveOnly skips inactive accounts.
	ActiveOnly bool

	// IDs restricts the result to these accounts. Empty means any.
	IDs []string
}

// Matches reports whether a satisfies the filter.
func (f AccountFilter) Matches(a domain.Account) bool {
	if f.ActiveOnly && !a.IsActive() {
		return false
	}
	if len(f.IDs) > 0 && !containsString(f.IDs, a.ID) {
		return false
	}
	return true
}

func containsStatus(list []domain.Status, s domain.Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
