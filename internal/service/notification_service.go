package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"finance_ledger/internal/domain"
)

type NotificationType string

const (
	NotificationConsole NotificationType = "console"
	NotificationEmail   NotificationType = "email"
	NotificationSMS     NotificationType = "sms"
)

const notificationServiceName = "NotificationService"

// NotificationSettings selects the delivery channels.
type NotificationSettings struct {
	Console bool
	Email   bool
	SMS     bool
}

// NotificationMessage is one delivery on one channel.
type NotificationMessage struct {
	Type          NotificationType
	Recipient     string
	Subject       string
	Message       string
	TransactionID string
	CreatedAt     time.Time
}

type EmailService interface {
	SendEmail(to, subject, body string) error
}

type SMSService interface {
	SendSMS(to, message string) error
}

// NotificationService tells the owner of the source account about every
// completed transaction, on each enabled channel. Email goes to the owner's
// address and SMS to the owner's username.
type NotificationService struct {
	mu           sync.Mutex
	emailService EmailService
	smsService   SMSService
	settings     NotificationSettings
	messages     []string
	deliveries   []NotificationMessage
	logger       *slog.Logger
}

func NewNotificationService(
	emailService EmailService,
	smsService SMSService,
	settings NotificationSettings,
	logger *slog.Logger,
) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}

	return &NotificationService{
		emailService: emailService,
		smsService:   smsService,
		settings:     settings,
		logger:       logger,
	}
}

func (s *NotificationService) Name() string {
	return notificationServiceName
}

func (s *NotificationService) OnTransaction(ctx context.Context, tx *domain.Transaction) error {
	message := notificationMessage(tx)

	s.mu.Lock()
	s.messages = append(s.messages, message)
	settings := s.settings
	s.mu.Unlock()

	owner := tx.Source().Owner
	subject := fmt.Sprintf("%s completed", tx.Type().Label())

	var errs []error

	if settings.Console {
		s.logger.InfoContext(ctx, "Notification",
			slog.String("transaction_id", tx.ID()),
			slog.String("message", message))
		s.record(NotificationConsole, "console", subject, message, tx)
	}

	if settings.Email {
		if err := s.sendEmail(owner, subject, message); err != nil {
			errs = append(errs, err)
		} else {
			s.record(NotificationEmail, owner.Email, subject, message, tx)
		}
	}

	if settings.SMS {
		if err := s.sendSMS(owner, message); err != nil {
			errs = append(errs, err)
		} else {
			s.record(NotificationSMS, owner.Username, subject, message, tx)
		}
	}

	return errors.Join(errs...)
}

// Sent returns one message per notified transaction, in order.
func (s *NotificationService) Sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.messages))
	copy(out, s.messages)
	return out
}

// Deliveries returns every successful channel delivery, in order.
func (s *NotificationService) Deliveries() []NotificationMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]NotificationMessage, len(s.deliveries))
	copy(out, s.deliveries)
	return out
}

func (s *NotificationService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func (s *NotificationService) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.deliveries = nil
}

func (s *NotificationService) Settings() NotificationSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *NotificationService) SetSettings(settings NotificationSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}

func (s *NotificationService) sendEmail(owner domain.User, subject, message string) error {
	if s.emailService == nil {
		return fmt.Errorf("email notifications enabled without an email service")
	}
	if owner.Email == "" {
		return fmt.Errorf("account owner has no email address")
	}
	if err := s.emailService.SendEmail(owner.Email, subject, message); err != nil {
		return fmt.Errorf("send email to %s: %w", owner.Email, err)
	}
	return nil
}

func (s *NotificationService) sendSMS(owner domain.User, message string) error {
	if s.smsService == nil {
		return fmt.Errorf("sms notifications enabled without an sms service")
	}
	if owner.Username == "" {
		return fmt.Errorf("account owner has no username")
	}
	if err := s.smsService.SendSMS(owner.Username, message); err != nil {
		return fmt.Errorf("send sms to %s: %w", owner.Username, err)
	}
	return nil
}

func (s *NotificationService) record(t NotificationType, recipient, subject, message string, tx *domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliveries = append(s.deliveries, NotificationMessage{
		Type:          t,
		Recipient:     recipient,
		Subject:       subject,
		Message:       message,
		TransactionID: tx.ID(),
		CreatedAt:     time.Now(),
	})
}

func notificationMessage(tx *domain.Transaction) string {
	amount := tx.Amount().StringFixed(2)

	switch tx.Type() {
	case domain.TypeDeposit:
		return fmt.Sprintf("Notification: Deposit of %s made to your account %s. New balance: %s",
			amount, tx.SourceID(), tx.Source().Balance.StringFixed(2))
	case domain.TypeWithdrawal:
		return fmt.Sprintf("Notification: Withdrawal of %s made from your account %s. New balance: %s",
			amount, tx.SourceID(), tx.Source().Balance.StringFixed(2))
	case domain.TypeTransfer:
		return fmt.Sprintf("Notification: Transfer of %s from %s to %s",
			amount, tx.SourceID(), tx.DestinationID())
	default:
		return fmt.Sprintf("Notification: %s of %s", tx.Type().Label(), amount)
	}
}

type MockEmailService struct {
	mu         sync.Mutex
	SentEmails []struct {
		To      string
		Subject string
		Body    string
	}
	Err error
}

func (m *MockEmailService) SendEmail(to, subject, body string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentEmails = append(m.SentEmails, struct {
		To      string
		Subject string
		Body    string
	}{to, subject, body})
	return nil
}

type MockSMSService struct {
	mu      sync.Mutex
	SentSMS []struct {
		To      string
		Message string
	}
	Err error
}

func (m *MockSMSService) SendSMS(to, message string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentSMS = append(m.SentSMS, struct {
		To      string
		Message string
	}{to, message})
	return nil
}
