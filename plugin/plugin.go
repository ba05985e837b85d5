// Package plugin provides an extensible plugin system for Pointledger.
// Plugins can hook into transaction lifecycle events to extend functionality.
package plugin

import (
	"context"

	"github.com/xraph/pointledger/account"
	"github.com/xraph/pointledger/entry"
	"github.com/xraph/pointledger/item"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine any) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Account lifecycle hooks
// ──────────────────────────────────────────────────

// OnAccountCreated is called when a new account is registered and seeded.
type OnAccountCreated interface {
	Plugin
	OnAccountCreated(ctx context.Context, a *account.Account) error
}

// ──────────────────────────────────────────────────
// Transaction lifecycle hooks
// ──────────────────────────────────────────────────

// OnChargeCompleted is called after a charge has committed.
type OnChargeCompleted interface {
	Plugin
	OnChargeCompleted(ctx context.Context, e *entry.Entry) error
}

// OnTransferCompleted is called after a transfer has committed.
// debit is the sender-side entry, credit the receiver-side entry.
type OnTransferCompleted interface {
	Plugin
	OnTransferCompleted(ctx context.Context, debit, credit *entry.Entry) error
}

// OnItemSold is called after a transfer has committed the ON_SALE →
// SOLD_OUT transition of an item.
type OnItemSold interface {
	Plugin
	OnItemSold(ctx context.Context, it *item.Item, buyer *account.Account) error
}

// OnOperationRejected is called when a charge or transfer is rejected
// before commit (validation, authorization, not-found, business rule).
type OnOperationRejected interface {
	Plugin
	OnOperationRejected(ctx context.Context, op string, err error) error
}

// ──────────────────────────────────────────────────
// Conflict hooks
// ──────────────────────────────────────────────────

// OnConflictRetried is called each time a work unit aborts on a write
// conflict and the coordinator re-runs it from fresh reads.
type OnConflictRetried interface {
	Plugin
	OnConflictRetried(ctx context.Context, op string, attempt int) error
}

// OnRetryExhausted is called when the coordinator gives up after the
// bounded number of conflict retries.
type OnRetryExhausted interface {
	Plugin
	OnRetryExhausted(ctx context.Context, op string, attempts int) error
}
