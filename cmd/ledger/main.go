package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finance_ledger/internal/config"
	"finance_ledger/internal/ledger"
	"finance_ledger/internal/processor"
	"finance_ledger/internal/repository/memory"
	"finance_ledger/internal/service"
	"finance_ledger/pkg/crypto"
	"finance_ledger/pkg/metrics"
	"finance_ledger/pkg/validator"

	"github.com/shopspring/decimal"
)

func main() {
	cfg, err := config.Load(os.Getenv("LEDGER_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg)
	logger.Info("Starting application",
		slog.String("name", cfg.App.Name),
		slog.String("currency", cfg.App.Currency))

	metricsCollector := metrics.NewMetricsCollector(logger)

	l, err := setupLedger(cfg, metricsCollector, logger)
	if err != nil {
		logger.Error("Ledger setup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := runSession(context.Background(), l, logger); err != nil {
		logger.Error("Session failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.Metrics.Addr == "" {
		logger.Info("Application shutdown complete")
		return
	}

	metricsServer := metricsCollector.StartMetricsServer(cfg.Metrics.Addr)
	waitForShutdown(logger, metricsServer)
	logger.Info("Application shutdown complete")
}

func setupLogger(cfg config.Config) *slog.Logger {
	level, _ := cfg.LogLevel()
	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

func setupLedger(cfg config.Config, metricsCollector *metrics.MetricsCollector, logger *slog.Logger) (*ledger.Ledger, error) {
	maxTransfer, err := cfg.MaxTransfer()
	if err != nil {
		return nil, err
	}
	maxInitialDeposit, err := cfg.MaxInitialDeposit()
	if err != nil {
		return nil, err
	}

	txService := processor.NewTransactionService(metricsCollector, logger)
	l := ledger.New(
		memory.NewUserRepository(),
		memory.NewAccountRepository(),
		memory.NewTransactionRepository(),
		txService,
		validator.NewPolicyValidator(maxTransfer, maxInitialDeposit),
		logger,
	)

	l.TrackBalances(metricsCollector)
	l.AddObserver(metricsCollector)

	if cfg.Audit.Enabled {
		var signer *crypto.Signer
		if cfg.Audit.Secret != "" {
			signer = crypto.NewSigner(cfg.Audit.Secret, logger)
		}
		l.AddObserver(service.NewAuditLogger(cfg.Audit.File, signer, logger))
	}

	if cfg.Notifications.Enabled {
		l.AddObserver(service.NewNotificationService(
			&service.MockEmailService{},
			&service.MockSMSService{},
			service.NotificationSettings{
				Console: cfg.Notifications.Console,
				Email:   cfg.Notifications.Email,
				SMS:     cfg.Notifications.SMS,
			},
			logger,
		))
	}

	return l, nil
}

// runSession drives a short scripted session against the ledger.
func runSession(ctx context.Context, l *ledger.Ledger, logger *slog.Logger) error {
	_, alice, err := l.OpenUserWithAccount(ctx, "alice", "alice-password", "alice@example.com", decimal.NewFromInt(1000))
	if err != nil {
		return err
	}
	_, bob, err := l.OpenUserWithAccount(ctx, "bob", "bob-password", "bob@example.com", decimal.NewFromInt(500))
	if err != nil {
		return err
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{"deposit", func() error {
			_, err := l.Deposit(ctx, alice.ID, decimal.NewFromInt(250))
			return err
		}},
		{"withdraw", func() error {
			_, err := l.Withdraw(ctx, bob.ID, decimal.NewFromInt(100))
			return err
		}},
		{"transfer", func() error {
			_, err := l.Transfer(ctx, alice.ID, bob.ID, decimal.NewFromInt(300))
			return err
		}},
		{"overdraft", func() error {
			_, err := l.Withdraw(ctx, bob.ID, decimal.NewFromInt(5000))
			return err
		}},
		{"self transfer", func() error {
			_, err := l.Transfer(ctx, alice.ID, alice.ID, decimal.NewFromInt(10))
			return err
		}},
	}

	for _, step := range steps {
		if err := step.run(); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	accounts, err := l.Accounts(ctx)
	if err != nil {
		return err
	}
	for _, acc := range accounts {
		logger.InfoContext(ctx, "Account summary",
			slog.String("account_id", acc.ID),
			slog.String("owner_id", acc.OwnerID),
			slog.String("balance", acc.Balance.StringFixed(2)),
			slog.Int("transactions", acc.TransactionCount))
	}
	return nil
}

func waitForShutdown(logger *slog.Logger, metricsServer *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	logger.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := metricsServer.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Metrics server shutdown failed", slog.String("error", err.Error()))
	}
}
