package strategy

import (
	"fmt"

	"finance_ledger/internal/domain"

	"github.com/shopspring/decimal"
)

type Withdraw struct{}

func NewWithdraw() *Withdraw {
	return &Withdraw{}
}

func (s *Withdraw) Type() domain.TransactionType {
	return domain.TypeWithdrawal
}

func (s *Withdraw) Name() string {
	return "WITHDRAWAL"
}

func (s *Withdraw) CanExecute(account *domain.Account, amount decimal.Decimal) bool {
	return s.check(account, amount) == RejectNone
}

func (s *Withdraw) Execute(account *domain.Account, amount decimal.Decimal) (Result, error) {
	if reason := s.check(account, amount); reason != RejectNone {
		return Rejected(reason), nil
	}

	if !account.Debit(amount) {
		return Rejected(RejectMutationFailed), nil
	}

	tx := domain.NewTransaction(domain.TypeWithdrawal, amount, account, account,
		fmt.Sprintf("Withdrawal of %s", amount.StringFixed(2)))
	account.AddTransaction(tx)

	return Executed(tx), nil
}

func (s *Withdraw) ExecuteTransfer(_, _ *domain.Account, _ decimal.Decimal) (Result, error) {
	return Result{}, fmt.Errorf("%w: %s works on a single account", ErrUnsupportedOperation, s.Name())
}

func (s *Withdraw) check(account *domain.Account, amount decimal.Decimal) Rejection {
	if account == nil {
		return RejectMissingAccount
	}
	if !amount.IsPositive() {
		return RejectNonPositiveAmount
	}
	if !account.HasSufficientFunds(amount) {
		return RejectInsufficientFunds
	}
	return RejectNone
}
