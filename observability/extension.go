// Package observability provides a metrics extension for Pointledger that
// records lifecycle event counts via go-utils MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/pointledger/account"
	"github.com/xraph/pointledger/entry"
	"github.com/xraph/pointledger/item"
	"github.com/xraph/pointledger/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin              = (*MetricsExtension)(nil)
	_ plugin.OnInit              = (*MetricsExtension)(nil)
	_ plugin.OnAccountCreated    = (*MetricsExtension)(nil)
	_ plugin.OnChargeCompleted   = (*MetricsExtension)(nil)
	_ plugin.OnTransferCompleted = (*MetricsExtension)(nil)
	_ plugin.OnItemSold          = (*MetricsExtension)(nil)
	_ plugin.OnOperationRejected = (*MetricsExtension)(nil)
	_ plugin.OnConflictRetried   = (*MetricsExtension)(nil)
	_ plugin.OnRetryExhausted    = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Pointledger plugin to automatically track
// transaction metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Account metrics
	AccountsCreated Counter

	// Transaction metrics
	ChargesCompleted   Counter
	TransfersCompleted Counter
	ItemsSold          Counter
	ChargeAmount       Histogram
	TransferAmount     Histogram

	// Rejection and retry metrics
	OperationsRejected Counter
	ConflictRetries    Counter
	RetriesExhausted   Counter
	RetryAttempts      Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Account metrics
		AccountsCreated: factory.Counter("pointledger.account.created"),

		// Transaction metrics
		ChargesCompleted:   factory.Counter("pointledger.charge.completed"),
		TransfersCompleted: factory.Counter("pointledger.transfer.completed"),
		ItemsSold:          factory.Counter("pointledger.item.sold"),
		ChargeAmount:       factory.Histogram("pointledger.charge.amount"),
		TransferAmount:     factory.Histogram("pointledger.transfer.amount"),

		// Rejection and retry metrics
		OperationsRejected: factory.Counter("pointledger.operation.rejected"),
		ConflictRetries:    factory.Counter("pointledger.conflict.retries"),
		RetriesExhausted:   factory.Counter("pointledger.retry.exhausted"),
		RetryAttempts:      factory.Histogram("pointledger.retry.attempts"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Account lifecycle hooks
// ──────────────────────────────────────────────────

// OnAccountCreated implements plugin.OnAccountCreated.
func (m *MetricsExtension) OnAccountCreated(_ context.Context, _ *account.Account) error {
	m.AccountsCreated.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Transaction lifecycle hooks
// ──────────────────────────────────────────────────

// OnChargeCompleted implements plugin.OnChargeCompleted.
func (m *MetricsExtension) OnChargeCompleted(_ context.Context, e *entry.Entry) error {
	m.ChargesCompleted.Inc()
	m.ChargeAmount.Observe(float64(e.Amount.Int64()))
	return nil
}

// OnTransferCompleted implements plugin.OnTransferCompleted.
func (m *MetricsExtension) OnTransferCompleted(_ context.Context, debit, _ *entry.Entry) error {
	m.TransfersCompleted.Inc()
	m.TransferAmount.Observe(float64(debit.Amount.Int64()))
	return nil
}

// OnItemSold implements plugin.OnItemSold.
func (m *MetricsExtension) OnItemSold(_ context.Context, _ *item.Item, _ *account.Account) error {
	m.ItemsSold.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Rejection and retry hooks
// ──────────────────────────────────────────────────

// OnOperationRejected implements plugin.OnOperationRejected.
func (m *MetricsExtension) OnOperationRejected(_ context.Context, _ string, _ error) error {
	m.OperationsRejected.Inc()
	return nil
}

// OnConflictRetried implements plugin.OnConflictRetried.
func (m *MetricsExtension) OnConflictRetried(_ context.Context, _ string, attempt int) error {
	m.ConflictRetries.Inc()
	m.RetryAttempts.Observe(float64(attempt))
	return nil
}

// OnRetryExhausted implements plugin.OnRetryExhausted.
func (m *MetricsExtension) OnRetryExhausted(_ context.Context, _ string, attempts int) error {
	m.RetriesExhausted.Inc()
	m.RetryAttempts.Observe(float64(attempts))
	return nil
}
