package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"agora/contexts/governance-core/credit-ledger/domain/entities"
	domainerrors "agora/contexts/governance-core/credit-ledger/domain/errors"
)

// Store keeps accounts and supply in process memory. Used by tests and by
// deployments that run without Postgres.
type Store struct {
	mu       sync.Mutex
	accounts map[string]entities.Account
	supply   entities.Supply
}

func NewStore(cap int64) *Store {
	return &Store{
		accounts: make(map[string]entities.Account),
		supply: entities.Supply{
			Cap:       cap,
			UpdatedAt: time.Now().UTC(),
		},
	}
}

func (s *Store) GetAccount(ctx context.Context, address string) (entities.Account, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[strings.TrimSpace(address)]
	if !ok {
		return entities.Account{}, domainerrors.ErrAccountNotFound
	}
	return account, nil
}

func (s *Store) SaveAccount(ctx context.Context, account entities.Account) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	account.Address = strings.TrimSpace(account.Address)
	s.accounts[account.Address] = account
	return nil
}

func (s *Store) GetSupply(ctx context.Context) (entities.Supply, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.supply, nil
}

func (s *Store) SaveSupply(ctx context.Context, supply entities.Supply) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.supply = supply
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}
