package repository

import (
	"context"
	"errors"
	"time"

	"finance_ledger/internal/domain"
)

type UserRepository interface {
	Save(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
}

type AccountRepository interface {
	Save(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByUserID(ctx context.Context, userID string) ([]*domain.Account, error)
	List(ctx context.Context) ([]*domain.Account, error)
}

// TransactionRepository is the ledger-wide journal of completed transactions.
type TransactionRepository interface {
	Save(ctx context.Context, tx *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	GetByAccountID(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error)
	GetByPeriod(ctx context.Context, from, to time.Time) ([]*domain.Transaction, error)
}

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate entry")
)
