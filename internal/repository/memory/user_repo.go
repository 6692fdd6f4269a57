package memory

import (
	"context"
	"fmt"
	"sync"

	"finance_ledger/internal/domain"
	"finance_ledger/internal/repository"
)

type UserRepository struct {
	mu        sync.RWMutex
	users     map[string]*domain.User
	usernames map[string]string
	order     []string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:     make(map[string]*domain.User),
		usernames: make(map[string]string),
	}
}

// Save stores user; both the id and the username must be unused.
func (r *UserRepository) Save(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.ID]; exists {
		return fmt.Errorf("%w: user %s", repository.ErrDuplicate, user.ID)
	}
	if _, exists := r.usernames[user.Username]; exists {
		return fmt.Errorf("%w: username %s", repository.ErrDuplicate, user.Username)
	}

	r.users[user.ID] = user
	r.usernames[user.Username] = user.ID
	r.order = append(r.order, user.ID)

	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return nil, fmt.Errorf("%w: user %s", repository.ErrNotFound, id)
	}
	return user, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.usernames[username]
	if !exists {
		return nil, fmt.Errorf("%w: username %s", repository.ErrNotFound, username)
	}
	return r.users[id], nil
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.User, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.users[id])
	}
	return result, nil
}
