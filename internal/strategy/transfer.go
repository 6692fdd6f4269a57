package strategy

import (
	"fmt"

	"finance_ledger/internal/domain"

	"github.com/shopspring/decimal"
)

// Transfer moves money between two distinct accounts. Debit and credit are two
// separate account mutations, so a refused credit is undone by crediting the
// source back before reporting the rejection. This is the only multi-step
// mutation in the ledger; callers that share accounts between goroutines must
// hold exclusive access to both accounts for the whole call.
type Transfer struct {
	credit func(account *domain.Account, amount decimal.Decimal) bool
}

func NewTransfer() *Transfer {
	return &Transfer{credit: (*domain.Account).Credit}
}

func (s *Transfer) Type() domain.TransactionType {
	return domain.TypeTransfer
}

func (s *Transfer) Name() string {
	return "TRANSFER"
}

// CanExecute is always false: a transfer needs two accounts, see CanTransfer.
func (s *Transfer) CanExecute(_ *domain.Account, _ decimal.Decimal) bool {
	return false
}

func (s *Transfer) CanTransfer(from, to *domain.Account, amount decimal.Decimal) bool {
	return s.check(from, to, amount) == RejectNone
}

func (s *Transfer) Execute(_ *domain.Account, _ decimal.Decimal) (Result, error) {
	return Result{}, fmt.Errorf("%w: %s needs a source and a destination account", ErrUnsupportedOperation, s.Name())
}

func (s *Transfer) ExecuteTransfer(from, to *domain.Account, amount decimal.Decimal) (Result, error) {
	if reason := s.check(from, to, amount); reason != RejectNone {
		return Rejected(reason), nil
	}

	if !from.Debit(amount) {
		return Rejected(RejectMutationFailed), nil
	}

	if !s.credit(to, amount) {
		// undo the debit; the source must end where it started
		from.Credit(amount)
		return Rejected(RejectMutationFailed), nil
	}

	tx := domain.NewTransaction(domain.TypeTransfer, amount, from, to,
		fmt.Sprintf("Transfer from %s to %s", from.ID(), to.ID()))
	from.AddTransaction(tx)
	to.AddTransaction(tx)

	return Executed(tx), nil
}

func (s *Transfer) check(from, to *domain.Account, amount decimal.Decimal) Rejection {
	if from == nil || to == nil {
		return RejectMissingAccount
	}
	if from.Equal(to) {
		return RejectSameAccount
	}
	if !amount.IsPositive() {
		return RejectNonPositiveAmount
	}
	if !from.HasSufficientFunds(amount) {
		return RejectInsufficientFunds
	}
	return RejectNone
}
