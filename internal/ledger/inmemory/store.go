package inmemory

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/dvloznov/treasury/internal/domain"
	"github.com/dvloznov/treasury/internal/ledger"
)

// Fixture is a ledger snapshot as written in a YAML file.
type Fixture struct {
	Accounts  []domain.RawAccount  `yaml:"accounts"`
	Movements []domain.RawMovement `yaml:"movements"`
	Projects  []domain.Project     `yaml:"projects"`
	Providers []domain.Provider    `yaml:"providers"`
	Clients   []domain.Client      `yaml:"clients"`
}

// LoadFixture reads a fixture from a YAML file.
func LoadFixture(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("LoadFixture: reading %s: %w", path, err)
	}
	f, err := ParseFixture(data)
	if err != nil {
		return Fixture{}, fmt.Errorf("LoadFixture: %s: %w", path, err)
	}
	return f, nil
}

// ParseFixture decodes a YAML fixture.
func ParseFixture(data []byte) (Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Fixture{}, fmt.Errorf("ParseFixture: %w", err)
	}
	return f, nil
}

// Store is an in-memory implementation of ledger.Repository.
// It is safe for concurrent use. Data is lost on restart.
type Store struct {
	mu        sync.RWMutex
	movements []domain.Movement
	accounts  []domain.Account
	projects  []domain.Project
	providers []domain.Provider
	clients   []domain.Client
}

// NewStore creates an empty in-memory ledger.
func NewStore() *Store {
	return &Store{}
}

// NewStoreFromFixture creates a store holding the fixture records. Records
// that fail validation are logged and skipped.
func NewStoreFromFixture(f Fixture, log zerolog.Logger) *Store {
	s := NewStore()
	s.Load(f, log)
	return s
}

// Load replaces the store contents with the fixture records and returns the
// number of rejected records.
func (s *Store) Load(f Fixture, log zerolog.Logger) int {
	var rejected int
	movements := make([]domain.Movement, 0, len(f.Movements))
	for _, raw := range f.Movements {
		m, err := domain.NewMovement(raw)
		if err != nil {
			log.Warn().Err(err).Str("movement_id", raw.ID).Msg("Skipping invalid movement")
			rejected++
			continue
		}
		movements = append(movements, m)
	}
	accounts := make([]domain.Account, 0, len(f.Accounts))
	for _, raw := range f.Accounts {
		a, err := domain.NewAccount(raw)
		if err != nil {
			log.Warn().Err(err).Str("account_id", raw.ID).Msg("Skipping invalid account")
			rejected++
			continue
		}
		accounts = append(accounts, a)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.movements = movements
	s.accounts = accounts
	s.projects = append([]domain.Project(nil), f.Projects...)
	s.providers = append([]domain.Provider(nil), f.Providers...)
	s.clients = append([]domain.Client(nil), f.Clients...)
	return rejected
}

// PutMovements appends movements.
func (s *Store) PutMovements(ms ...domain.Movement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.movements = append(s.movements, ms...)
}

// PutAccounts appends accounts.
func (s *Store) PutAccounts(as ...domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = append(s.accounts, as...)
}

// PutProjects appends projects.
func (s *Store) PutProjects(ps ...domain.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = append(s.projects, ps...)
}

// PutProviders appends providers.
func (s *Store) PutProviders(ps ...domain.Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers = append(s.providers, ps...)
}

// PutClients appends clients.
func (s *Store) PutClients(cs ...domain.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients = append(s.clients, cs...)
}

// ListMovements implements the ledger.Repository interface.
// Returned slices are copies.
func (s *Store) ListMovements(ctx context.Context, filter ledger.MovementFilter) ([]domain.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []domain.Movement{}
	for _, m := range s.movements {
		if filter.Matches(m) {
			result = append(result, m)
		}
	}
	return result, nil
}

// ListAccounts implements the ledger.Repository interface.
func (s *Store) ListAccounts(ctx context.Context, filter ledger.AccountFilter) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []domain.Account{}
	for _, a := range s.accounts {
		if filter.Matches(a) {
			result = append(result, a)
		}
	}
	return result, nil
}

// ListProjects implements the ledger.Repository interface.
func (s *Store) ListProjects(ctx context.Context) ([]domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Project{}, s.projects...), nil
}

// ListProviders implements the ledger.Repository interface.
func (s *Store) ListProviders(ctx context.Context) ([]domain.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Provider{}, s.providers...), nil
}

// ListClients implements the ledger.Repository interface.
func (s *Store) ListClients(ctx context.Context) ([]domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Client{}, s.clients...), nil
}

// Ensure Store implements the ledger.Repository interface.
var _ ledger.Repository = (*Store)(nil)
