package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeBalance = errors.New("initial balance cannot be negative")
	ErrNilOwner        = errors.New("account owner is required")
	ErrEmptyID         = errors.New("account id is required")
)

// Account holds a balance and the append-only history of the transactions
// that touched it. The balance never drops below zero: it only moves through
// Credit and Debit, which refuse invalid amounts instead of failing loudly.
//
// Account is not safe for concurrent use; the ledger serializes access.
type Account struct {
	id           string
	owner        *User
	balance      decimal.Decimal
	transactions []*Transaction
	createdAt    time.Time
}

// AccountSnapshot is a read-only copy of an account's state.
type AccountSnapshot struct {
	ID               string          `json:"id"`
	OwnerID          string          `json:"owner_id"`
	Balance          decimal.Decimal `json:"balance"`
	TransactionCount int             `json:"transaction_count"`
	CreatedAt        time.Time       `json:"created_at"`
}

func NewAccount(id string, owner *User, initialBalance decimal.Decimal) (*Account, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	if owner == nil {
		return nil, ErrNilOwner
	}
	if initialBalance.IsNegative() {
		return nil, fmt.Errorf("%w: %s", ErrNegativeBalance, initialBalance.StringFixed(2))
	}

	return &Account{
		id:        id,
		owner:     owner,
		balance:   initialBalance,
		createdAt: time.Now(),
	}, nil
}

func (a *Account) ID() string {
	return a.id
}

func (a *Account) Owner() *User {
	return a.owner
}

func (a *Account) OwnerID() string {
	if a.owner == nil {
		return ""
	}
	return a.owner.ID
}

func (a *Account) Balance() decimal.Decimal {
	return a.balance
}

func (a *Account) CreatedAt() time.Time {
	return a.createdAt
}

// Transactions returns the history in insertion order, oldest first.
func (a *Account) Transactions() []*Transaction {
	out := make([]*Transaction, len(a.transactions))
	copy(out, a.transactions)
	return out
}

func (a *Account) TransactionCount() int {
	return len(a.transactions)
}

// Credit adds amount to the balance. It reports false and leaves the account
// untouched when amount is not positive.
func (a *Account) Credit(amount decimal.Decimal) bool {
	if !amount.IsPositive() {
		return false
	}
	a.balance = a.balance.Add(amount)
	return true
}

// Debit subtracts amount from the balance. It reports false and leaves the
// account untouched unless 0 < amount <= balance.
func (a *Account) Debit(amount decimal.Decimal) bool {
	if !amount.IsPositive() || amount.GreaterThan(a.balance) {
		return false
	}
	a.balance = a.balance.Sub(amount)
	return true
}

func (a *Account) HasSufficientFunds(amount decimal.Decimal) bool {
	return a.balance.GreaterThanOrEqual(amount)
}

// AddTransaction appends tx to the history unconditionally. Callers only
// append transactions that actually moved money on this account.
func (a *Account) AddTransaction(tx *Transaction) {
	a.transactions = append(a.transactions, tx)
}

// Equal compares accounts by identifier only.
func (a *Account) Equal(other *Account) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.id == other.id
}

func (a *Account) Snapshot() AccountSnapshot {
	return AccountSnapshot{
		ID:               a.id,
		OwnerID:          a.OwnerID(),
		Balance:          a.balance,
		TransactionCount: len(a.transactions),
		CreatedAt:        a.createdAt,
	}
}

func (a *Account) String() string {
	owner := ""
	if a.owner != nil {
		owner = a.owner.Username
	}
	return fmt.Sprintf("Account{id=%s, owner=%s, balance=%s}", a.id, owner, a.balance.StringFixed(2))
}
