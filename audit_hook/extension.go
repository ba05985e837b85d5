// Package audithook bridges Pointledger lifecycle events to an audit
// trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/pointledger/account"
	"github.com/xraph/pointledger/entry"
	"github.com/xraph/pointledger/item"
	"github.com/xraph/pointledger/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin              = (*Extension)(nil)
	_ plugin.OnAccountCreated    = (*Extension)(nil)
	_ plugin.OnChargeCompleted   = (*Extension)(nil)
	_ plugin.OnTransferCompleted = (*Extension)(nil)
	_ plugin.OnItemSold          = (*Extension)(nil)
	_ plugin.OnOperationRejected = (*Extension)(nil)
	_ plugin.OnConflictRetried   = (*Extension)(nil)
	_ plugin.OnRetryExhausted    = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly — callers inject
// the concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Pointledger lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Account lifecycle hooks
// ──────────────────────────────────────────────────

// OnAccountCreated implements plugin.OnAccountCreated.
func (e *Extension) OnAccountCreated(ctx context.Context, a *account.Account) error {
	return e.record(ctx, ActionAccountCreated, SeverityInfo, OutcomeSuccess,
		ResourceAccount, a.ID.String(), CategoryAccount, nil,
		"account_id", a.ID.String(),
		"starting_balance", a.Balance.Int64(),
	)
}

// ──────────────────────────────────────────────────
// Transaction lifecycle hooks
// ──────────────────────────────────────────────────

// OnChargeCompleted implements plugin.OnChargeCompleted.
func (e *Extension) OnChargeCompleted(ctx context.Context, rec *entry.Entry) error {
	return e.record(ctx, ActionChargeCompleted, SeverityInfo, OutcomeSuccess,
		ResourceEntry, rec.ID.String(), CategoryTransaction, nil,
		"account_id", rec.AccountID.String(),
		"amount", rec.Amount.Int64(),
		"resulting_balance", rec.ResultingBalance.Int64(),
	)
}

// OnTransferCompleted implements plugin.OnTransferCompleted.
func (e *Extension) OnTransferCompleted(ctx context.Context, debit, credit *entry.Entry) error {
	return e.record(ctx, ActionTransferCompleted, SeverityInfo, OutcomeSuccess,
		ResourceEntry, debit.ID.String(), CategoryTransaction, nil,
		"sender_id", debit.AccountID.String(),
		"receiver_id", credit.AccountID.String(),
		"amount", debit.Amount.Int64(),
		"item_id", debit.ItemID.String(),
		"credit_entry_id", credit.ID.String(),
	)
}

// OnItemSold implements plugin.OnItemSold.
func (e *Extension) OnItemSold(ctx context.Context, it *item.Item, buyer *account.Account) error {
	return e.record(ctx, ActionItemSold, SeverityInfo, OutcomeSuccess,
		ResourceItem, it.ID.String(), CategoryTransaction, nil,
		"item_id", it.ID.String(),
		"owner_id", it.OwnerID.String(),
		"buyer_id", buyer.ID.String(),
		"price", it.Price.Int64(),
	)
}

// ──────────────────────────────────────────────────
// Rejection and retry hooks
// ──────────────────────────────────────────────────

// OnOperationRejected implements plugin.OnOperationRejected.
func (e *Extension) OnOperationRejected(ctx context.Context, op string, cause error) error {
	return e.record(ctx, ActionOperationRejected, SeverityWarning, OutcomeFailure,
		ResourceEntry, "", CategoryAccess, cause,
		"operation", op,
	)
}

// OnConflictRetried implements plugin.OnConflictRetried.
func (e *Extension) OnConflictRetried(ctx context.Context, op string, attempt int) error {
	return e.record(ctx, ActionConflictRetried, SeverityInfo, OutcomePartial,
		ResourceEntry, "", CategoryTransaction, nil,
		"operation", op,
		"attempt", attempt,
	)
}

// OnRetryExhausted implements plugin.OnRetryExhausted.
func (e *Extension) OnRetryExhausted(ctx context.Context, op string, attempts int) error {
	return e.record(ctx, ActionRetryExhausted, SeverityError, OutcomeFailure,
		ResourceEntry, "", CategoryTransaction, nil,
		"operation", op,
		"attempts", attempts,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
