package memory

import (
	"context"
	"fmt"
	"sync"

	"finance_ledger/internal/domain"
	"finance_ledger/internal/repository"
)

// AccountRepository keeps accounts in insertion order with an owner index.
type AccountRepository struct {
	mu        sync.RWMutex
	accounts  map[string]*domain.Account
	order     []string
	userIndex map[string][]string
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		accounts:  make(map[string]*domain.Account),
		userIndex: make(map[string][]string),
	}
}

func (r *AccountRepository) Save(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.accounts[account.ID()]; exists {
		return fmt.Errorf("%w: account %s", repository.ErrDuplicate, account.ID())
	}

	r.accounts[account.ID()] = account
	r.order = append(r.order, account.ID())

	ownerID := account.OwnerID()
	r.userIndex[ownerID] = append(r.userIndex[ownerID], account.ID())

	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, exists := r.accounts[id]
	if !exists {
		return nil, fmt.Errorf("%w: account %s", repository.ErrNotFound, id)
	}
	return account, nil
}

// GetByUserID returns the owner's accounts in creation order. An owner
// without accounts yields an empty slice.
func (r *AccountRepository) GetByUserID(ctx context.Context, userID string) ([]*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	accountIDs := r.userIndex[userID]
	result := make([]*domain.Account, 0, len(accountIDs))
	for _, id := range accountIDs {
		if account, exists := r.accounts[id]; exists {
			result = append(result, account)
		}
	}

	return result, nil
}

func (r *AccountRepository) List(ctx context.Context) ([]*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Account, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.accounts[id])
	}

	return result, nil
}
