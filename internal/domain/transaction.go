package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TypeDeposit    TransactionType = "deposit"
	TypeWithdrawal TransactionType = "withdrawal"
	TypeTransfer   TransactionType = "transfer"
)

const timestampLayout = "2006-01-02 15:04:05"

// Label is the human-readable name of the transaction type.
func (t TransactionType) Label() string {
	switch t {
	case TypeDeposit:
		return "Deposit"
	case TypeWithdrawal:
		return "Withdrawal"
	case TypeTransfer:
		return "Transfer"
	default:
		return string(t)
	}
}

// Party is one end of a transaction as it stood when the transaction was
// recorded. It holds copies only, never the account itself.
type Party struct {
	AccountID string
	Owner     User
	Balance   decimal.Decimal
}

func partyOf(a *Account) Party {
	if a == nil {
		return Party{}
	}
	p := Party{AccountID: a.ID(), Balance: a.Balance()}
	if a.owner != nil {
		p.Owner = *a.owner
		p.Owner.PasswordHash = ""
	}
	return p
}

// Transaction is the immutable record of one completed money movement. It is
// shared by reference between the histories of every account it touched.
type Transaction struct {
	id          string
	txType      TransactionType
	amount      decimal.Decimal
	createdAt   time.Time
	source      Party
	destination Party
	description string
}

// NewTransaction records a movement of amount from source to destination.
// Deposits and withdrawals pass the same account as both ends. Both ends are
// captured by value, so balances are the ones after the movement when the
// caller builds the transaction once the accounts are updated.
func NewTransaction(t TransactionType, amount decimal.Decimal, source, destination *Account, description string) *Transaction {
	return &Transaction{
		id:          uuid.NewString(),
		txType:      t,
		amount:      amount,
		createdAt:   time.Now(),
		source:      partyOf(source),
		destination: partyOf(destination),
		description: description,
	}
}

func (tx *Transaction) ID() string {
	return tx.id
}

func (tx *Transaction) Type() TransactionType {
	return tx.txType
}

func (tx *Transaction) Amount() decimal.Decimal {
	return tx.amount
}

func (tx *Transaction) CreatedAt() time.Time {
	return tx.createdAt
}

func (tx *Transaction) Source() Party {
	return tx.source
}

func (tx *Transaction) Destination() Party {
	return tx.destination
}

func (tx *Transaction) SourceID() string {
	return tx.source.AccountID
}

func (tx *Transaction) DestinationID() string {
	return tx.destination.AccountID
}

func (tx *Transaction) Description() string {
	return tx.description
}

// IsTransfer is true for transfer transactions between two distinct accounts.
func (tx *Transaction) IsTransfer() bool {
	return tx.txType == TypeTransfer && tx.source.AccountID != tx.destination.AccountID
}

// Touches reports whether the transaction moved money on the given account.
func (tx *Transaction) Touches(accountID string) bool {
	return tx.SourceID() == accountID || tx.DestinationID() == accountID
}

func (tx *Transaction) Equal(other *Transaction) bool {
	if tx == nil || other == nil {
		return tx == other
	}
	return tx.id == other.id
}

func (tx *Transaction) FormattedTimestamp() string {
	return tx.createdAt.Format(timestampLayout)
}

// String renders the transaction as a single history line, e.g.
// "2024-01-02 10:00:00 - Transfer: ACC-1 -> ACC-2 300.00 (rent)".
func (tx *Transaction) String() string {
	var sb strings.Builder
	sb.WriteString(tx.FormattedTimestamp())
	sb.WriteString(" - ")
	sb.WriteString(tx.txType.Label())
	sb.WriteString(": ")
	if tx.IsTransfer() {
		sb.WriteString(tx.SourceID())
		sb.WriteString(" -> ")
		sb.WriteString(tx.DestinationID())
		sb.WriteString(" ")
	}
	sb.WriteString(tx.amount.StringFixed(2))
	if tx.description != "" {
		sb.WriteString(" (")
		sb.WriteString(tx.description)
		sb.WriteString(")")
	}
	return sb.String()
}
