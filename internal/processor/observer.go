package processor

import (
	"context"
	"reflect"

	"finance_ledger/internal/domain"
	"finance_ledger/internal/strategy"
)

// Observer is notified after every transaction that completed. Errors and
// panics raised by an observer are logged and swallowed by the service.
//
// Observers run while the caller still holds its locks. They must not call
// back into the ledger that executed the transaction.
type Observer interface {
	OnTransaction(ctx context.Context, tx *domain.Transaction) error
	Name() string
}

// Recorder receives the outcomes that never reach observers.
type Recorder interface {
	RecordRejection(txType domain.TransactionType, reason strategy.Rejection)
	RecordObserverFailure(observer string)
}

type noopRecorder struct{}

func (noopRecorder) RecordRejection(domain.TransactionType, strategy.Rejection) {}

func (noopRecorder) RecordObserverFailure(string) {}

// sameObserver compares by identity. Values of non-comparable dynamic types
// are never considered equal, so they cannot be deduplicated or removed.
func sameObserver(a, b Observer) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
