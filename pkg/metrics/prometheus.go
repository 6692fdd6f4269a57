package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"finance_ledger/internal/domain"
	"finance_ledger/internal/strategy"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

const observerName = "MetricsCollector"

// MetricsCollector exports ledger activity to Prometheus. It is registered as
// a transaction observer for completed transactions and as the service
// recorder for rejections and observer failures.
type MetricsCollector struct {
	registry              *prometheus.Registry
	transactionsProcessed *prometheus.CounterVec
	transactionsRejected  *prometheus.CounterVec
	observerFailures      *prometheus.CounterVec
	transactionAmount     *prometheus.HistogramVec
	accountBalance        *prometheus.GaugeVec
	logger                *slog.Logger
}

func NewMetricsCollector(logger *slog.Logger) *MetricsCollector {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()

	return &MetricsCollector{
		registry: registry,
		transactionsProcessed: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_transactions_total",
			Help: "Total number of completed transactions",
		}, []string{"type"}),
		transactionsRejected: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_transactions_rejected_total",
			Help: "Total number of transactions rejected by business rules",
		}, []string{"type", "reason"}),
		observerFailures: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_observer_failures_total",
			Help: "Total number of failed observer notifications",
		}, []string{"observer"}),
		transactionAmount: promauto.With(registry).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_transaction_amount",
			Help:    "Distribution of completed transaction amounts",
			Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000},
		}, []string{"type"}),
		accountBalance: promauto.With(registry).NewGaugeVec(prometheus.GaugeOpts{
			Name: "ledger_account_balance",
			Help: "Current account balance",
		}, []string{"account_id"}),
		logger: logger,
	}
}

func (m *MetricsCollector) Name() string {
	return observerName
}

func (m *MetricsCollector) OnTransaction(_ context.Context, tx *domain.Transaction) error {
	txType := string(tx.Type())
	m.transactionsProcessed.WithLabelValues(txType).Inc()
	m.transactionAmount.WithLabelValues(txType).Observe(tx.Amount().InexactFloat64())

	src := tx.Source()
	m.UpdateAccountBalance(src.AccountID, src.Balance)
	if tx.IsTransfer() {
		dst := tx.Destination()
		m.UpdateAccountBalance(dst.AccountID, dst.Balance)
	}
	return nil
}

func (m *MetricsCollector) RecordRejection(txType domain.TransactionType, reason strategy.Rejection) {
	m.transactionsRejected.WithLabelValues(string(txType), string(reason)).Inc()
}

func (m *MetricsCollector) RecordObserverFailure(observer string) {
	m.observerFailures.WithLabelValues(observer).Inc()
}

func (m *MetricsCollector) UpdateAccountBalance(accountID string, balance decimal.Decimal) {
	m.accountBalance.WithLabelValues(accountID).Set(balance.InexactFloat64())
}

func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

func (m *MetricsCollector) GetHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *MetricsCollector) StartMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.GetHandler())

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		m.logger.Info("Starting metrics server", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("Metrics server failed", slog.String("error", err.Error()))
		}
	}()

	return server
}
