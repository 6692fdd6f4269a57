package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func newTestAccount(t *testing.T, id, balance string) *Account {
	t.Helper()
	acc, err := NewAccount(id, &User{ID: "u-" + id, Username: "user_" + id, Email: id + "@example.com"}, d(balance))
	require.NoError(t, err)
	return acc
}

func TestNewAccount_NegativeInitialBalance(t *testing.T) {
	acc, err := NewAccount("a1", &User{ID: "u1"}, d("-0.01"))

	assert.Nil(t, acc)
	assert.True(t, errors.Is(err, ErrNegativeBalance), "got %v", err)
}

func TestNewAccount_MissingIdentity(t *testing.T) {
	_, err := NewAccount("", &User{ID: "u1"}, d("1"))
	assert.True(t, errors.Is(err, ErrEmptyID), "got %v", err)

	_, err = NewAccount("a1", nil, d("1"))
	assert.True(t, errors.Is(err, ErrNilOwner), "got %v", err)
}

func TestNewAccount_ZeroInitialBalance(t *testing.T) {
	acc := newTestAccount(t, "a1", "0")

	assert.True(t, acc.Balance().IsZero())
	assert.Equal(t, 0, acc.TransactionCount())
	assert.Equal(t, "u-a1", acc.OwnerID())
}

func TestAccount_Credit(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		ok      bool
		balance string
	}{
		{name: "positive", amount: "50.25", ok: true, balance: "150.25"},
		{name: "zero", amount: "0", ok: false, balance: "100"},
		{name: "negative", amount: "-10", ok: false, balance: "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := newTestAccount(t, "a1", "100")

			ok := acc.Credit(d(tt.amount))

			assert.Equal(t, tt.ok, ok)
			assert.True(t, acc.Balance().Equal(d(tt.balance)), "balance=%s", acc.Balance())
		})
	}
}

func TestAccount_Debit(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		ok      bool
		balance string
	}{
		{name: "partial", amount: "40", ok: true, balance: "60"},
		{name: "whole balance", amount: "100", ok: true, balance: "0"},
		{name: "overdraft", amount: "100.01", ok: false, balance: "100"},
		{name: "zero", amount: "0", ok: false, balance: "100"},
		{name: "negative", amount: "-5", ok: false, balance: "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := newTestAccount(t, "a1", "100")

			ok := acc.Debit(d(tt.amount))

			assert.Equal(t, tt.ok, ok)
			assert.True(t, acc.Balance().Equal(d(tt.balance)), "balance=%s", acc.Balance())
			assert.False(t, acc.Balance().IsNegative())
		})
	}
}

func TestAccount_HasSufficientFunds(t *testing.T) {
	acc := newTestAccount(t, "a1", "100")

	assert.True(t, acc.HasSufficientFunds(d("100")))
	assert.True(t, acc.HasSufficientFunds(d("99.99")))
	assert.False(t, acc.HasSufficientFunds(d("100.01")))
}

func TestAccount_TransactionsIsACopy(t *testing.T) {
	acc := newTestAccount(t, "a1", "100")
	acc.AddTransaction(NewTransaction(TypeDeposit, d("1"), acc, acc, ""))

	history := acc.Transactions()
	history[0] = nil

	require.Len(t, acc.Transactions(), 1)
	assert.NotNil(t, acc.Transactions()[0])
}

func TestAccount_EqualByID(t *testing.T) {
	a := newTestAccount(t, "same", "10")
	b := newTestAccount(t, "same", "999")
	c := newTestAccount(t, "other", "10")

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
}

func TestTransaction_IsTransfer(t *testing.T) {
	a := newTestAccount(t, "a", "10")
	b := newTestAccount(t, "b", "10")
	aCopy := newTestAccount(t, "a", "0")

	assert.True(t, NewTransaction(TypeTransfer, d("1"), a, b, "").IsTransfer())
	assert.False(t, NewTransaction(TypeTransfer, d("1"), a, aCopy, "").IsTransfer())
	assert.False(t, NewTransaction(TypeDeposit, d("1"), a, a, "").IsTransfer())
}

func TestTransaction_CapturesPartiesByValue(t *testing.T) {
	owner := &User{ID: "u1", Username: "alice", Email: "alice@example.com", PasswordHash: "secret"}
	a, err := NewAccount("a", owner, d("100"))
	require.NoError(t, err)
	b := newTestAccount(t, "b", "5")

	tx := NewTransaction(TypeTransfer, d("10"), a, b, "")
	a.Credit(d("50"))
	owner.Email = "changed@example.com"

	assert.Equal(t, "a", tx.Source().AccountID)
	assert.True(t, tx.Source().Balance.Equal(d("100")))
	assert.Equal(t, "alice@example.com", tx.Source().Owner.Email)
	assert.Empty(t, tx.Source().Owner.PasswordHash)
	assert.Equal(t, "b", tx.DestinationID())
	assert.True(t, tx.Destination().Balance.Equal(d("5")))
}

func TestTransaction_IdentityAndTouches(t *testing.T) {
	a := newTestAccount(t, "a", "10")
	b := newTestAccount(t, "b", "10")

	tx1 := NewTransaction(TypeTransfer, d("1"), a, b, "")
	tx2 := NewTransaction(TypeTransfer, d("1"), a, b, "")

	assert.NotEmpty(t, tx1.ID())
	assert.NotEqual(t, tx1.ID(), tx2.ID())
	assert.True(t, tx1.Equal(tx1))
	assert.False(t, tx1.Equal(tx2))
	assert.True(t, tx1.Touches("a"))
	assert.True(t, tx1.Touches("b"))
	assert.False(t, tx1.Touches("c"))
}

func TestTransaction_String(t *testing.T) {
	a := newTestAccount(t, "ACC-A", "10")
	b := newTestAccount(t, "ACC-B", "10")

	transfer := NewTransaction(TypeTransfer, d("300"), a, b, "rent").String()
	deposit := NewTransaction(TypeDeposit, d("12.5"), a, a, "").String()

	assert.True(t, strings.HasSuffix(transfer, " - Transfer: ACC-A -> ACC-B 300.00 (rent)"), transfer)
	assert.True(t, strings.HasSuffix(deposit, " - Deposit: 12.50"), deposit)
}
