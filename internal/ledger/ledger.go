// Package ledger is the directory of users and accounts that sits in front of
// the transaction service. It resolves identifiers, applies the configured
// policy and keeps the journal of completed transactions.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"finance_ledger/internal/domain"
	"finance_ledger/internal/processor"
	"finance_ledger/internal/repository"
	"finance_ledger/internal/strategy"
	"finance_ledger/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrReentrantCall      = errors.New("ledger called from a transaction observer")
)

const (
	accountIDPrefix = "ACC-"
	userIDPrefix    = "USR-"
	maxIDAttempts   = 5
)

// BalanceTracker is told the balance of every newly opened account.
// Balances after a transaction reach it through the observers.
type BalanceTracker interface {
	UpdateAccountBalance(accountID string, balance decimal.Decimal)
}

type commandKey struct{}

// Ledger serializes every command behind a single lock: a command holds the
// write lock from id resolution until the last observer returns, so no reader
// sees a transfer half applied. Queries take the read lock and hand out
// snapshots, user copies or immutable transactions.
//
// Observers run under that lock. A call back into the ledger made with the
// context an observer received fails with ErrReentrantCall instead of
// deadlocking; AddObserver and RemoveObserver must not be called from an
// observer at all.
type Ledger struct {
	mu       sync.RWMutex
	users    repository.UserRepository
	accounts repository.AccountRepository
	journal  repository.TransactionRepository
	service  *processor.TransactionService
	policy   *validator.PolicyValidator
	balances BalanceTracker
	newID    func(prefix string) string
	logger   *slog.Logger
}

func New(
	users repository.UserRepository,
	accounts repository.AccountRepository,
	journal repository.TransactionRepository,
	service *processor.TransactionService,
	policy *validator.PolicyValidator,
	logger *slog.Logger,
) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}

	return &Ledger{
		users:    users,
		accounts: accounts,
		journal:  journal,
		service:  service,
		policy:   policy,
		newID:    newID,
		logger:   logger,
	}
}

// TrackBalances reports the opening balance of every account opened from now
// on to t.
func (l *Ledger) TrackBalances(t BalanceTracker) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances = t
}

func (l *Ledger) AddObserver(o processor.Observer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.service.AddObserver(o)
}

func (l *Ledger) RemoveObserver(o processor.Observer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.service.RemoveObserver(o)
}

func (l *Ledger) ObserverCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.service.ObserverCount()
}

// RegisterUser creates a user with a bcrypt password hash. Usernames are
// unique.
func (l *Ledger) RegisterUser(ctx context.Context, username, password, email string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidCredentials)
	}

	if err := l.lock(ctx); err != nil {
		return nil, err
	}
	defer l.mu.Unlock()

	user, err := l.registerUser(ctx, username, password, email)
	if err != nil {
		return nil, err
	}
	return publicUser(user), nil
}

func (l *Ledger) registerUser(ctx context.Context, username, password, email string) (*domain.User, error) {
	if _, err := l.users.GetByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserExists, username)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Email:        email,
		CreatedAt:    time.Now().UTC(),
	}
	// The username is known to be free under the lock, so a duplicate can
	// only be a generated id.
	_, err = l.saveWithFreshID(ctx, userIDPrefix, func(id string) error {
		user.ID = id
		return l.users.Save(ctx, user)
	})
	if err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}

	l.logger.InfoContext(ctx, "User registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username))

	return user, nil
}

func (l *Ledger) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	if err := l.rlock(ctx); err != nil {
		return nil, err
	}
	defer l.mu.RUnlock()

	user, err := l.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		l.logger.WarnContext(ctx, "Authentication failed", slog.String("username", username))
		return nil, ErrInvalidCredentials
	}

	return publicUser(user), nil
}

// OpenAccount opens an account for an existing user with an initial deposit
// between zero and the configured maximum.
func (l *Ledger) OpenAccount(ctx context.Context, ownerID string, initialDeposit decimal.Decimal) (domain.AccountSnapshot, error) {
	if err := l.lock(ctx); err != nil {
		return domain.AccountSnapshot{}, err
	}
	defer l.mu.Unlock()

	owner, err := l.user(ctx, ownerID)
	if err != nil {
		return domain.AccountSnapshot{}, err
	}

	return l.openAccount(ctx, owner, initialDeposit)
}

// OpenUserWithAccount registers a user and opens their first account in one
// step. Nothing is created when the initial deposit is out of bounds.
func (l *Ledger) OpenUserWithAccount(
	ctx context.Context,
	username, password, email string,
	initialDeposit decimal.Decimal,
) (*domain.User, domain.AccountSnapshot, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || password == "" {
		return nil, domain.AccountSnapshot{}, fmt.Errorf("%w: username and password are required", ErrInvalidCredentials)
	}

	if err := l.policy.ValidateInitialDeposit(initialDeposit); err != nil {
		return nil, domain.AccountSnapshot{}, err
	}

	if err := l.lock(ctx); err != nil {
		return nil, domain.AccountSnapshot{}, err
	}
	defer l.mu.Unlock()

	user, err := l.registerUser(ctx, username, password, email)
	if err != nil {
		return nil, domain.AccountSnapshot{}, err
	}

	snapshot, err := l.openAccount(ctx, user, initialDeposit)
	if err != nil {
		return nil, domain.AccountSnapshot{}, err
	}
	return publicUser(user), snapshot, nil
}

func (l *Ledger) openAccount(ctx context.Context, owner *domain.User, initialDeposit decimal.Decimal) (domain.AccountSnapshot, error) {
	if err := l.policy.ValidateAccountOpening(owner, initialDeposit); err != nil {
		return domain.AccountSnapshot{}, err
	}

	var account *domain.Account
	_, err := l.saveWithFreshID(ctx, accountIDPrefix, func(id string) error {
		acc, err := domain.NewAccount(id, owner, initialDeposit)
		if err != nil {
			return err
		}
		if err := l.accounts.Save(ctx, acc); err != nil {
			return err
		}
		account = acc
		return nil
	})
	if err != nil {
		return domain.AccountSnapshot{}, fmt.Errorf("save account: %w", err)
	}

	if l.balances != nil {
		l.balances.UpdateAccountBalance(account.ID(), account.Balance())
	}

	l.logger.InfoContext(ctx, "Account opened",
		slog.String("account_id", account.ID()),
		slog.String("owner_id", owner.ID),
		slog.String("initial_deposit", initialDeposit.StringFixed(2)))

	return account.Snapshot(), nil
}

// Deposit credits accountID. Business rejections come back in the result; an
// error means the account could not be resolved.
func (l *Ledger) Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (strategy.Result, error) {
	if err := l.lock(ctx); err != nil {
		return strategy.Result{}, err
	}
	defer l.mu.Unlock()

	account, err := l.account(ctx, accountID)
	if err != nil {
		return strategy.Result{}, err
	}

	res, err := l.service.Deposit(inCommand(ctx), account, amount)
	if err != nil {
		return strategy.Result{}, err
	}
	return res, l.record(ctx, res)
}

func (l *Ledger) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal) (strategy.Result, error) {
	if err := l.lock(ctx); err != nil {
		return strategy.Result{}, err
	}
	defer l.mu.Unlock()

	account, err := l.account(ctx, accountID)
	if err != nil {
		return strategy.Result{}, err
	}

	res, err := l.service.Withdraw(inCommand(ctx), account, amount)
	if err != nil {
		return strategy.Result{}, err
	}
	return res, l.record(ctx, res)
}

// Transfer moves amount between two accounts. Both ids must resolve and the
// amount must be within the transfer limit before either account is touched.
func (l *Ledger) Transfer(ctx context.Context, fromID, toID string, amount decimal.Decimal) (strategy.Result, error) {
	if err := l.lock(ctx); err != nil {
		return strategy.Result{}, err
	}
	defer l.mu.Unlock()

	from, err := l.account(ctx, fromID)
	if err != nil {
		return strategy.Result{}, err
	}
	to, err := l.account(ctx, toID)
	if err != nil {
		return strategy.Result{}, err
	}

	if err := l.policy.ValidateTransferAmount(amount); err != nil {
		l.logger.WarnContext(ctx, "Transfer blocked by policy",
			slog.String("from_account", fromID),
			slog.String("to_account", toID),
			slog.String("amount", amount.StringFixed(2)))
		return strategy.Result{}, err
	}

	res, err := l.service.Transfer(inCommand(ctx), from, to, amount)
	if err != nil {
		return strategy.Result{}, err
	}
	return res, l.record(ctx, res)
}

func (l *Ledger) CanDeposit(ctx context.Context, accountID string, amount decimal.Decimal) bool {
	if l.rlock(ctx) != nil {
		return false
	}
	defer l.mu.RUnlock()

	account, err := l.account(ctx, accountID)
	if err != nil {
		return false
	}
	return l.service.CanDeposit(account, amount)
}

func (l *Ledger) CanWithdraw(ctx context.Context, accountID string, amount decimal.Decimal) bool {
	if l.rlock(ctx) != nil {
		return false
	}
	defer l.mu.RUnlock()

	account, err := l.account(ctx, accountID)
	if err != nil {
		return false
	}
	return l.service.CanWithdraw(account, amount)
}

// CanTransfer also applies the transfer limit.
func (l *Ledger) CanTransfer(ctx context.Context, fromID, toID string, amount decimal.Decimal) bool {
	if l.rlock(ctx) != nil {
		return false
	}
	defer l.mu.RUnlock()

	from, err := l.account(ctx, fromID)
	if err != nil {
		return false
	}
	to, err := l.account(ctx, toID)
	if err != nil {
		return false
	}
	if l.policy.ValidateTransferAmount(amount) != nil {
		return false
	}
	return l.service.CanTransfer(from, to, amount)
}

func (l *Ledger) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	if err := l.rlock(ctx); err != nil {
		return decimal.Zero, err
	}
	defer l.mu.RUnlock()

	account, err := l.account(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance(), nil
}

// History lists the transactions of an account, oldest first.
func (l *Ledger) History(ctx context.Context, accountID string) ([]*domain.Transaction, error) {
	if err := l.rlock(ctx); err != nil {
		return nil, err
	}
	defer l.mu.RUnlock()

	account, err := l.account(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return account.Transactions(), nil
}

// RecentTransactions lists at most limit journal entries touching an account,
// newest first.
func (l *Ledger) RecentTransactions(ctx context.Context, accountID string, limit int) ([]*domain.Transaction, error) {
	if err := l.rlock(ctx); err != nil {
		return nil, err
	}
	defer l.mu.RUnlock()

	if _, err := l.account(ctx, accountID); err != nil {
		return nil, err
	}
	return l.journal.GetByAccountID(ctx, accountID, limit, 0)
}

func (l *Ledger) TransactionsBetween(ctx context.Context, from, to time.Time) ([]*domain.Transaction, error) {
	if err := l.rlock(ctx); err != nil {
		return nil, err
	}
	defer l.mu.RUnlock()
	return l.journal.GetByPeriod(ctx, from, to)
}

func (l *Ledger) Transaction(ctx context.Context, id string) (*domain.Transaction, error) {
	if err := l.rlock(ctx); err != nil {
		return nil, err
	}
	defer l.mu.RUnlock()
	return l.journal.GetByID(ctx, id)
}

func (l *Ledger) Account(ctx context.Context, accountID string) (domain.AccountSnapshot, error) {
	if err := l.rlock(ctx); err != nil {
		return domain.AccountSnapshot{}, err
	}
	defer l.mu.RUnlock()

	account, err := l.account(ctx, accountID)
	if err != nil {
		return domain.AccountSnapshot{}, err
	}
	return account.Snapshot(), nil
}

func (l *Ledger) Accounts(ctx context.Context) ([]domain.AccountSnapshot, error) {
	if err := l.rlock(ctx); err != nil {
		return nil, err
	}
	defer l.mu.RUnlock()

	accounts, err := l.accounts.List(ctx)
	if err != nil {
		return nil, err
	}
	return snapshots(accounts), nil
}

// AccountsByOwner lists the accounts of an existing user in opening order.
func (l *Ledger) AccountsByOwner(ctx context.Context, ownerID string) ([]domain.AccountSnapshot, error) {
	if err := l.rlock(ctx); err != nil {
		return nil, err
	}
	defer l.mu.RUnlock()

	if _, err := l.user(ctx, ownerID); err != nil {
		return nil, err
	}
	accounts, err := l.accounts.GetByUserID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return snapshots(accounts), nil
}

func (l *Ledger) AccountCount(ctx context.Context) (int, error) {
	if err := l.rlock(ctx); err != nil {
		return 0, err
	}
	defer l.mu.RUnlock()

	accounts, err := l.accounts.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(accounts), nil
}

func (l *Ledger) UserByID(ctx context.Context, id string) (*domain.User, error) {
	if err := l.rlock(ctx); err != nil {
		return nil, err
	}
	defer l.mu.RUnlock()

	user, err := l.user(ctx, id)
	if err != nil {
		return nil, err
	}
	return publicUser(user), nil
}

func (l *Ledger) UserByUsername(ctx context.Context, username string) (*domain.User, error) {
	if err := l.rlock(ctx); err != nil {
		return nil, err
	}
	defer l.mu.RUnlock()

	user, err := l.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
		}
		return nil, err
	}
	return publicUser(user), nil
}

func (l *Ledger) Users(ctx context.Context) ([]*domain.User, error) {
	if err := l.rlock(ctx); err != nil {
		return nil, err
	}
	defer l.mu.RUnlock()

	users, err := l.users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.User, 0, len(users))
	for _, u := range users {
		out = append(out, publicUser(u))
	}
	return out, nil
}

func (l *Ledger) UserCount(ctx context.Context) (int, error) {
	if err := l.rlock(ctx); err != nil {
		return 0, err
	}
	defer l.mu.RUnlock()

	users, err := l.users.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(users), nil
}

func (l *Ledger) lock(ctx context.Context) error {
	if ctx.Value(commandKey{}) != nil {
		return ErrReentrantCall
	}
	l.mu.Lock()
	return nil
}

func (l *Ledger) rlock(ctx context.Context) error {
	if ctx.Value(commandKey{}) != nil {
		return ErrReentrantCall
	}
	l.mu.RLock()
	return nil
}

// inCommand marks the context handed to observers so that calls back into
// the ledger can be refused.
func inCommand(ctx context.Context) context.Context {
	return context.WithValue(ctx, commandKey{}, struct{}{})
}

func (l *Ledger) account(ctx context.Context, id string) (*domain.Account, error) {
	account, err := l.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
		}
		return nil, err
	}
	return account, nil
}

func (l *Ledger) user(ctx context.Context, id string) (*domain.User, error) {
	user, err := l.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
		}
		return nil, err
	}
	return user, nil
}

// saveWithFreshID calls save with newly generated ids until one is not
// already taken.
func (l *Ledger) saveWithFreshID(ctx context.Context, prefix string, save func(id string) error) (string, error) {
	var err error
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := l.newID(prefix)
		if err = save(id); err == nil {
			return id, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return "", err
		}
		l.logger.WarnContext(ctx, "Generated id already in use", slog.String("id", id))
	}
	return "", err
}

// record appends an executed transaction to the journal. Rejections are not
// journaled.
func (l *Ledger) record(ctx context.Context, res strategy.Result) error {
	if !res.OK() {
		return nil
	}
	if err := l.journal.Save(ctx, res.Transaction); err != nil {
		l.logger.ErrorContext(ctx, "Failed to journal transaction",
			slog.String("transaction_id", res.Transaction.ID()),
			slog.String("error", err.Error()))
		return fmt.Errorf("journal transaction %s: %w", res.Transaction.ID(), err)
	}
	return nil
}

func snapshots(accounts []*domain.Account) []domain.AccountSnapshot {
	out := make([]domain.AccountSnapshot, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, a.Snapshot())
	}
	return out
}

// publicUser copies a stored user without its password hash.
func publicUser(u *domain.User) *domain.User {
	c := *u
	c.PasswordHash = ""
	return &c
}

func newID(prefix string) string {
	return prefix + strings.ToUpper(uuid.NewString()[:8])
}
