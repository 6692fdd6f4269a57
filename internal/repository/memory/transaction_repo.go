package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"finance_ledger/internal/domain"
	"finance_ledger/internal/repository"
)

// TransactionRepository is an append-only journal. Each transaction is
// indexed under every account it touched; a transfer is indexed twice.
type TransactionRepository struct {
	mu           sync.RWMutex
	transactions map[string]*domain.Transaction
	order        []string
	index        map[string][]string
}

func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{
		transactions: make(map[string]*domain.Transaction),
		index:        make(map[string][]string),
	}
}

func (r *TransactionRepository) Save(ctx context.Context, tx *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.transactions[tx.ID()]; exists {
		return fmt.Errorf("%w: transaction %s", repository.ErrDuplicate, tx.ID())
	}

	r.transactions[tx.ID()] = tx
	r.order = append(r.order, tx.ID())

	if from := tx.SourceID(); from != "" {
		r.index[from] = append(r.index[from], tx.ID())
	}
	if to := tx.DestinationID(); to != "" && to != tx.SourceID() {
		r.index[to] = append(r.index[to], tx.ID())
	}

	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tx, exists := r.transactions[id]
	if !exists {
		return nil, fmt.Errorf("%w: transaction %s", repository.ErrNotFound, id)
	}
	return tx, nil
}

// GetByAccountID pages through an account's transactions, newest first.
// A non-positive limit returns everything after offset.
func (r *TransactionRepository) GetByAccountID(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	transactionIDs := r.index[accountID]
	if offset < 0 {
		offset = 0
	}
	if offset >= len(transactionIDs) {
		return []*domain.Transaction{}, nil
	}

	// insertion order is chronological; walk it backwards
	newest := len(transactionIDs) - 1 - offset
	count := newest + 1
	if limit > 0 && limit < count {
		count = limit
	}

	result := make([]*domain.Transaction, 0, count)
	for i := newest; i > newest-count; i-- {
		result = append(result, r.transactions[transactionIDs[i]])
	}

	return result, nil
}

// GetByPeriod returns transactions created in [from, to], oldest first.
func (r *TransactionRepository) GetByPeriod(ctx context.Context, from, to time.Time) ([]*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*domain.Transaction
	for _, id := range r.order {
		tx := r.transactions[id]
		if !tx.CreatedAt().Before(from) && !tx.CreatedAt().After(to) {
			result = append(result, tx)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt().Before(result[j].CreatedAt())
	})

	return result, nil
}
