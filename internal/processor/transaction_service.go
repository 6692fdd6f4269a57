package processor

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"finance_ledger/internal/domain"
	"finance_ledger/internal/strategy"

	"github.com/shopspring/decimal"
)

// TransactionService runs the matching strategy for each operation and, only
// when a transaction was produced, notifies the registered observers in
// registration order. The balance change is committed before observers run;
// nothing an observer does can undo it.
//
// TransactionService is not safe for concurrent use.
type TransactionService struct {
	deposit   *strategy.Deposit
	withdraw  *strategy.Withdraw
	transfer  *strategy.Transfer
	observers []Observer
	recorder  Recorder
	logger    *slog.Logger
}

func NewTransactionService(recorder Recorder, logger *slog.Logger) *TransactionService {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}

	return &TransactionService{
		deposit:  strategy.NewDeposit(),
		withdraw: strategy.NewWithdraw(),
		transfer: strategy.NewTransfer(),
		recorder: recorder,
		logger:   logger,
	}
}

// AddObserver registers o at the end of the notification order. Nil and
// already registered observers are ignored.
func (s *TransactionService) AddObserver(o Observer) {
	if o == nil {
		return
	}
	for _, existing := range s.observers {
		if sameObserver(existing, o) {
			return
		}
	}
	s.observers = append(s.observers, o)
}

func (s *TransactionService) RemoveObserver(o Observer) {
	for i, existing := range s.observers {
		if sameObserver(existing, o) {
			s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
			return
		}
	}
}

func (s *TransactionService) Observers() []Observer {
	out := make([]Observer, len(s.observers))
	copy(out, s.observers)
	return out
}

func (s *TransactionService) ObserverCount() int {
	return len(s.observers)
}

func (s *TransactionService) Deposit(ctx context.Context, account *domain.Account, amount decimal.Decimal) (strategy.Result, error) {
	return s.Execute(ctx, s.deposit, amount, account)
}

func (s *TransactionService) Withdraw(ctx context.Context, account *domain.Account, amount decimal.Decimal) (strategy.Result, error) {
	return s.Execute(ctx, s.withdraw, amount, account)
}

func (s *TransactionService) Transfer(ctx context.Context, from, to *domain.Account, amount decimal.Decimal) (strategy.Result, error) {
	return s.Execute(ctx, s.transfer, amount, from, to)
}

// Execute runs st against one account (deposit, withdrawal) or two accounts
// (transfer). Using a strategy with the wrong number of accounts is a
// programming error and returns strategy.ErrUnsupportedOperation.
func (s *TransactionService) Execute(ctx context.Context, st strategy.Strategy, amount decimal.Decimal, accounts ...*domain.Account) (strategy.Result, error) {
	var (
		res strategy.Result
		err error
	)

	switch len(accounts) {
	case 1:
		res, err = st.Execute(accounts[0], amount)
	case 2:
		res, err = st.ExecuteTransfer(accounts[0], accounts[1], amount)
	default:
		return strategy.Result{}, fmt.Errorf("%w: %s called with %d accounts",
			strategy.ErrUnsupportedOperation, st.Name(), len(accounts))
	}
	if err != nil {
		return strategy.Result{}, err
	}

	if !res.OK() {
		s.recorder.RecordRejection(st.Type(), res.Rejection)
		s.logger.InfoContext(ctx, "Transaction rejected",
			slog.String("type", string(st.Type())),
			slog.String("reason", string(res.Rejection)),
			slog.String("amount", amount.String()))
		return res, nil
	}

	s.logger.InfoContext(ctx, "Transaction completed",
		slog.String("transaction_id", res.Transaction.ID()),
		slog.String("type", string(res.Transaction.Type())),
		slog.String("from_account", res.Transaction.SourceID()),
		slog.String("to_account", res.Transaction.DestinationID()),
		slog.String("amount", res.Transaction.Amount().String()))

	s.notifyObservers(ctx, res.Transaction)
	return res, nil
}

func (s *TransactionService) CanDeposit(account *domain.Account, amount decimal.Decimal) bool {
	return s.deposit.CanExecute(account, amount)
}

func (s *TransactionService) CanWithdraw(account *domain.Account, amount decimal.Decimal) bool {
	return s.withdraw.CanExecute(account, amount)
}

func (s *TransactionService) CanTransfer(from, to *domain.Account, amount decimal.Decimal) bool {
	return s.transfer.CanTransfer(from, to, amount)
}

func (s *TransactionService) DepositStrategy() strategy.Strategy {
	return s.deposit
}

func (s *TransactionService) WithdrawStrategy() strategy.Strategy {
	return s.withdraw
}

func (s *TransactionService) TransferStrategy() strategy.Strategy {
	return s.transfer
}

func (s *TransactionService) notifyObservers(ctx context.Context, tx *domain.Transaction) {
	for _, o := range s.Observers() {
		s.notify(ctx, o, tx)
	}
}

func (s *TransactionService) notify(ctx context.Context, o Observer, tx *domain.Transaction) {
	defer func() {
		if r := recover(); r != nil {
			s.recorder.RecordObserverFailure(o.Name())
			s.logger.ErrorContext(ctx, "Observer panicked",
				slog.String("observer", o.Name()),
				slog.String("transaction_id", tx.ID()),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	if err := o.OnTransaction(ctx, tx); err != nil {
		s.recorder.RecordObserverFailure(o.Name())
		s.logger.ErrorContext(ctx, "Observer failed",
			slog.String("observer", o.Name()),
			slog.String("transaction_id", tx.ID()),
			slog.String("error", err.Error()))
	}
}
