package strategy

import (
	"fmt"

	"finance_ledger/internal/domain"

	"github.com/shopspring/decimal"
)

type Deposit struct{}

func NewDeposit() *Deposit {
	return &Deposit{}
}

func (s *Deposit) Type() domain.TransactionType {
	return domain.TypeDeposit
}

func (s *Deposit) Name() string {
	return "DEPOSIT"
}

func (s *Deposit) CanExecute(account *domain.Account, amount decimal.Decimal) bool {
	return s.check(account, amount) == RejectNone
}

func (s *Deposit) Execute(account *domain.Account, amount decimal.Decimal) (Result, error) {
	if reason := s.check(account, amount); reason != RejectNone {
		return Rejected(reason), nil
	}

	if !account.Credit(amount) {
		return Rejected(RejectMutationFailed), nil
	}

	tx := domain.NewTransaction(domain.TypeDeposit, amount, account, account,
		fmt.Sprintf("Deposit of %s", amount.StringFixed(2)))
	account.AddTransaction(tx)

	return Executed(tx), nil
}

func (s *Deposit) ExecuteTransfer(_, _ *domain.Account, _ decimal.Decimal) (Result, error) {
	return Result{}, fmt.Errorf("%w: %s works on a single account", ErrUnsupportedOperation, s.Name())
}

func (s *Deposit) check(account *domain.Account, amount decimal.Decimal) Rejection {
	if account == nil {
		return RejectMissingAccount
	}
	if !amount.IsPositive() {
		return RejectNonPositiveAmount
	}
	return RejectNone
}
