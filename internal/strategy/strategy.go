// Package strategy holds the three money-movement operations. Each one either
// mutates the accounts and returns the resulting transaction, or leaves every
// account untouched and reports why it did not run.
package strategy

import (
	"errors"

	"finance_ledger/internal/domain"

	"github.com/shopspring/decimal"
)

// ErrUnsupportedOperation is returned when a single-account strategy is used
// for a transfer or the transfer strategy is used with a single account.
var ErrUnsupportedOperation = errors.New("operation not supported by strategy")

// Rejection explains why a strategy produced no transaction.
type Rejection string

const (
	RejectNone              Rejection = ""
	RejectMissingAccount    Rejection = "missing_account"
	RejectNonPositiveAmount Rejection = "non_positive_amount"
	RejectInsufficientFunds Rejection = "insufficient_funds"
	RejectSameAccount       Rejection = "same_account"
	RejectMutationFailed    Rejection = "mutation_failed"
)

// Result carries either the completed transaction or the rejection reason.
// A rejected result is an ordinary business outcome, not an error.
type Result struct {
	Transaction *domain.Transaction
	Rejection   Rejection
}

func Executed(tx *domain.Transaction) Result {
	return Result{Transaction: tx}
}

func Rejected(reason Rejection) Result {
	return Result{Rejection: reason}
}

// OK reports whether a transaction was produced.
func (r Result) OK() bool {
	return r.Transaction != nil
}

// Strategy is the common capability of Deposit, Withdraw and Transfer.
type Strategy interface {
	Type() domain.TransactionType
	Name() string
	// Execute runs a single-account operation.
	Execute(account *domain.Account, amount decimal.Decimal) (Result, error)
	// ExecuteTransfer runs a two-account operation.
	ExecuteTransfer(from, to *domain.Account, amount decimal.Decimal) (Result, error)
	// CanExecute predicts, without side effects, whether Execute would
	// produce a transaction for the same arguments and state.
	CanExecute(account *domain.Account, amount decimal.Decimal) bool
}

var (
	_ Strategy = (*Deposit)(nil)
	_ Strategy = (*Withdraw)(nil)
	_ Strategy = (*Transfer)(nil)
)
