package strategy

import (
	"errors"
	"testing"

	"finance_ledger/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amt(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func account(t *testing.T, id, balance string) *domain.Account {
	t.Helper()
	acc, err := domain.NewAccount(id, &domain.User{ID: "u-" + id}, amt(balance))
	require.NoError(t, err)
	return acc
}

func TestDeposit_Execute(t *testing.T) {
	acc := account(t, "a1", "100")
	s := NewDeposit()

	res, err := s.Execute(acc, amt("25"))

	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, domain.TypeDeposit, res.Transaction.Type())
	assert.True(t, res.Transaction.Amount().Equal(amt("25")))
	assert.Equal(t, acc.ID(), res.Transaction.SourceID())
	assert.Equal(t, acc.ID(), res.Transaction.DestinationID())
	assert.True(t, res.Transaction.Source().Balance.Equal(amt("125")))
	assert.True(t, acc.Balance().Equal(amt("125")))
	require.Len(t, acc.Transactions(), 1)
	assert.Same(t, res.Transaction, acc.Transactions()[0])
}

func TestDeposit_RejectsNonPositiveAmount(t *testing.T) {
	for _, v := range []string{"0", "-1"} {
		acc := account(t, "a1", "100")

		res, err := NewDeposit().Execute(acc, amt(v))

		require.NoError(t, err)
		assert.False(t, res.OK())
		assert.Equal(t, RejectNonPositiveAmount, res.Rejection)
		assert.True(t, acc.Balance().Equal(amt("100")))
		assert.Equal(t, 0, acc.TransactionCount())
	}
}

func TestDeposit_RejectsMissingAccount(t *testing.T) {
	res, err := NewDeposit().Execute(nil, amt("10"))

	require.NoError(t, err)
	assert.Equal(t, RejectMissingAccount, res.Rejection)
}

func TestWithdraw_Execute(t *testing.T) {
	acc := account(t, "a1", "1000")

	res, err := NewWithdraw().Execute(acc, amt("500"))

	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, domain.TypeWithdrawal, res.Transaction.Type())
	assert.True(t, acc.Balance().Equal(amt("500")))
	assert.Equal(t, 1, acc.TransactionCount())
}

func TestWithdraw_InsufficientFunds(t *testing.T) {
	acc := account(t, "a1", "1000")

	res, err := NewWithdraw().Execute(acc, amt("1500"))

	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.Equal(t, RejectInsufficientFunds, res.Rejection)
	assert.True(t, acc.Balance().Equal(amt("1000")))
	assert.Equal(t, 0, acc.TransactionCount())
}

func TestTransfer_Execute(t *testing.T) {
	from := account(t, "A", "1000")
	to := account(t, "B", "500")

	res, err := NewTransfer().ExecuteTransfer(from, to, amt("300"))

	require.NoError(t, err)
	require.True(t, res.OK())
	assert.True(t, from.Balance().Equal(amt("700")))
	assert.True(t, to.Balance().Equal(amt("800")))
	assert.True(t, from.Balance().Add(to.Balance()).Equal(amt("1500")))
	require.Len(t, from.Transactions(), 1)
	require.Len(t, to.Transactions(), 1)
	assert.Equal(t, from.Transactions()[0].ID(), to.Transactions()[0].ID())
	assert.Same(t, res.Transaction, to.Transactions()[0])
	assert.True(t, res.Transaction.IsTransfer())
	assert.True(t, res.Transaction.Source().Balance.Equal(amt("700")))
	assert.True(t, res.Transaction.Destination().Balance.Equal(amt("800")))
}

func TestTransfer_SameAccountRejected(t *testing.T) {
	acc := account(t, "A", "1000")
	sameID := account(t, "A", "0")

	for _, to := range []*domain.Account{acc, sameID} {
		res, err := NewTransfer().ExecuteTransfer(acc, to, amt("100"))

		require.NoError(t, err)
		assert.Equal(t, RejectSameAccount, res.Rejection)
	}
	assert.True(t, acc.Balance().Equal(amt("1000")))
	assert.Equal(t, 0, acc.TransactionCount())
}

func TestTransfer_SameAccountRejectedRegardlessOfFunds(t *testing.T) {
	acc := account(t, "A", "0")

	res, err := NewTransfer().ExecuteTransfer(acc, acc, amt("100"))

	require.NoError(t, err)
	assert.Equal(t, RejectSameAccount, res.Rejection)
}

func TestTransfer_FailureLeavesBothAccountsUnchanged(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		reason Rejection
	}{
		{name: "insufficient funds", amount: "1000.01", reason: RejectInsufficientFunds},
		{name: "zero", amount: "0", reason: RejectNonPositiveAmount},
		{name: "negative", amount: "-3", reason: RejectNonPositiveAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from := account(t, "A", "1000")
			to := account(t, "B", "500")

			res, err := NewTransfer().ExecuteTransfer(from, to, amt(tt.amount))

			require.NoError(t, err)
			assert.Equal(t, tt.reason, res.Rejection)
			assert.True(t, from.Balance().Equal(amt("1000")))
			assert.True(t, to.Balance().Equal(amt("500")))
			assert.Equal(t, 0, from.TransactionCount())
			assert.Equal(t, 0, to.TransactionCount())
		})
	}
}

func TestTransfer_RefusedCreditIsRolledBack(t *testing.T) {
	from := account(t, "A", "1000")
	to := account(t, "B", "500")
	s := NewTransfer()
	s.credit = func(*domain.Account, decimal.Decimal) bool { return false }

	res, err := s.ExecuteTransfer(from, to, amt("300"))

	require.NoError(t, err)
	assert.Equal(t, RejectMutationFailed, res.Rejection)
	assert.True(t, from.Balance().Equal(amt("1000")), "source=%s", from.Balance())
	assert.True(t, to.Balance().Equal(amt("500")))
	assert.Equal(t, 0, from.TransactionCount())
	assert.Equal(t, 0, to.TransactionCount())
}

func TestContractViolations(t *testing.T) {
	a := account(t, "A", "100")
	b := account(t, "B", "100")

	_, err := NewTransfer().Execute(a, amt("10"))
	assert.True(t, errors.Is(err, ErrUnsupportedOperation))

	_, err = NewDeposit().ExecuteTransfer(a, b, amt("10"))
	assert.True(t, errors.Is(err, ErrUnsupportedOperation))

	_, err = NewWithdraw().ExecuteTransfer(a, b, amt("10"))
	assert.True(t, errors.Is(err, ErrUnsupportedOperation))

	assert.True(t, a.Balance().Equal(amt("100")))
	assert.True(t, b.Balance().Equal(amt("100")))
}

func TestCanExecute_IsPureAndPredictsExecute(t *testing.T) {
	from := account(t, "A", "100")
	to := account(t, "B", "0")
	transfer := NewTransfer()
	withdraw := NewWithdraw()
	deposit := NewDeposit()

	for i := 0; i < 3; i++ {
		assert.True(t, transfer.CanTransfer(from, to, amt("100")))
		assert.False(t, transfer.CanTransfer(from, to, amt("100.01")))
		assert.False(t, transfer.CanExecute(from, amt("1")))
		assert.True(t, withdraw.CanExecute(from, amt("100")))
		assert.False(t, deposit.CanExecute(from, amt("0")))
	}
	assert.True(t, from.Balance().Equal(amt("100")))

	res, err := transfer.ExecuteTransfer(from, to, amt("100"))
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.False(t, withdraw.CanExecute(from, amt("1")))
}

func TestStrategyNames(t *testing.T) {
	assert.Equal(t, "DEPOSIT", NewDeposit().Name())
	assert.Equal(t, "WITHDRAWAL", NewWithdraw().Name())
	assert.Equal(t, "TRANSFER", NewTransfer().Name())
	assert.Equal(t, domain.TypeTransfer, NewTransfer().Type())
}
