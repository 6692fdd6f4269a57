package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"finance_ledger/internal/domain"
	"finance_ledger/pkg/crypto"
)

const auditLoggerName = "AuditLogger"

// AuditEntry is one line of the audit trail. Signature is empty when the
// logger runs without a signer.
type AuditEntry struct {
	TransactionID string
	Line          string
	Signature     string
	RecordedAt    time.Time
}

// AuditLogger keeps an in-memory trail of every completed transaction and
// optionally appends it to a file.
type AuditLogger struct {
	mu       sync.Mutex
	entries  []AuditEntry
	filePath string
	signer   *crypto.Signer
	logger   *slog.Logger
}

// NewAuditLogger builds an audit observer. An empty filePath keeps the trail
// in memory only; a nil signer leaves entries unsigned.
func NewAuditLogger(filePath string, signer *crypto.Signer, logger *slog.Logger) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		filePath: filePath,
		signer:   signer,
		logger:   logger,
	}
}

func (a *AuditLogger) Name() string {
	return auditLoggerName
}

func (a *AuditLogger) OnTransaction(ctx context.Context, tx *domain.Transaction) error {
	now := time.Now()
	entry := AuditEntry{
		TransactionID: tx.ID(),
		Line:          formatAuditLine(now, tx),
		RecordedAt:    now,
	}
	if a.signer != nil {
		entry.Signature = a.signer.SignString(entry.Line)
	}

	a.mu.Lock()
	a.entries = append(a.entries, entry)
	a.mu.Unlock()

	a.logger.InfoContext(ctx, "Audit entry recorded",
		slog.String("transaction_id", tx.ID()),
		slog.String("entry", entry.Line))

	if a.filePath == "" {
		return nil
	}
	if err := a.appendToFile(entry); err != nil {
		return fmt.Errorf("write audit file %s: %w", a.filePath, err)
	}
	return nil
}

// Verify checks an entry against its signature. Entries recorded without a
// signer cannot be verified.
func (a *AuditLogger) Verify(entry AuditEntry) error {
	if a.signer == nil {
		return fmt.Errorf("audit logger has no signer")
	}
	return a.signer.VerifyString(entry.Line, entry.Signature)
}

func (a *AuditLogger) Entries() []AuditEntry {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]AuditEntry, len(a.entries))
	copy(out, a.entries)
	return out
}

func (a *AuditLogger) Lines() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Line)
	}
	return out
}

func (a *AuditLogger) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

func (a *AuditLogger) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = nil
}

func (a *AuditLogger) appendToFile(entry AuditEntry) (err error) {
	f, err := os.OpenFile(a.filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	line := entry.Line
	if entry.Signature != "" {
		line += " | SIG: " + entry.Signature
	}
	_, err = f.WriteString(line + "\n")
	return err
}

func formatAuditLine(at time.Time, tx *domain.Transaction) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] TX_ID: %s | TYPE: %s | AMOUNT: %s | ",
		at.Format("2006-01-02 15:04:05"), tx.ID(), tx.Type().Label(), tx.Amount().StringFixed(2))
	if tx.IsTransfer() {
		fmt.Fprintf(&sb, "FROM: %s | TO: %s", tx.SourceID(), tx.DestinationID())
	} else {
		fmt.Fprintf(&sb, "ACCOUNT: %s", tx.SourceID())
	}
	return sb.String()
}
