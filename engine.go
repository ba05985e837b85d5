package pointledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/xraph/pointledger/account"
	"github.com/xraph/pointledger/entry"
	"github.com/xraph/pointledger/id"
	"github.com/xraph/pointledger/item"
	"github.com/xraph/pointledger/plugin"
	"github.com/xraph/pointledger/store"
	"github.com/xraph/pointledger/types"
)

// Default policy constants.
const (
	// DefaultMaxAttempts bounds how many times a charge or transfer is
	// re-run after a write conflict before giving up.
	DefaultMaxAttempts = 5

	// DefaultChargeLimit is the maximum amount a single charge may add.
	DefaultChargeLimit = types.Points(1_000_000)

	// DefaultStartingBalance is the balance a newly registered account is
	// seeded with.
	DefaultStartingBalance = types.Points(100_000)
)

// Operation names used in hook emission and logging.
const (
	opCharge   = "charge"
	opTransfer = "transfer"
)

// Engine is the point transaction engine: the single authoritative
// coordinator for every balance movement. Charges and transfers run as
// optimistic work units against the store; on a write conflict the whole
// read-compute-write sequence is re-run from fresh reads, up to a bounded
// attempt count.
type Engine struct {
	store    store.Store
	accounts *account.Repository
	entries  *entry.Writer
	items    *item.Gate
	plugins  *plugin.Registry
	logger   *slog.Logger
	closed   atomic.Bool

	// Policy
	maxAttempts     int
	chargeLimit     types.Points
	startingBalance types.Points
}

// New creates a new Engine instance.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:           s,
		accounts:        account.NewRepository(),
		entries:         entry.NewWriter(),
		items:           item.NewGate(),
		plugins:         plugin.NewRegistry(),
		logger:          slog.Default(),
		maxAttempts:     DefaultMaxAttempts,
		chargeLimit:     DefaultChargeLimit,
		startingBalance: DefaultStartingBalance,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithMaxAttempts bounds the conflict-retry loop.
func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithChargeLimit sets the per-charge amount cap.
func WithChargeLimit(limit types.Points) Option {
	return func(e *Engine) {
		if limit.IsPositive() {
			e.chargeLimit = limit
		}
	}
}

// WithStartingBalance sets the balance newly registered accounts are
// seeded with.
func WithStartingBalance(balance types.Points) Option {
	return func(e *Engine) {
		if !balance.IsNegative() {
			e.startingBalance = balance
		}
	}
}

// Start migrates the store and initializes plugins.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Migrate(ctx); err != nil {
		return err
	}

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("engine started",
		"max_attempts", e.maxAttempts,
		"charge_limit", e.chargeLimit,
		"starting_balance", e.startingBalance,
	)

	return nil
}

// Stop shuts down the Engine. Mutating operations on a stopped engine
// fail with ErrEngineClosed.
func (e *Engine) Stop() error {
	e.closed.Store(true)

	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	return e.store.Close()
}

// Ping reports whether the store is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	return e.store.Ping(ctx)
}

// Plugins returns the engine's plugin registry.
func (e *Engine) Plugins() *plugin.Registry {
	return e.plugins
}

// ──────────────────────────────────────────────────
// Transactions
// ──────────────────────────────────────────────────

// Charge adds purchased points to the caller's own account. It returns
// the id of the CHARGE ledger entry recording the movement.
//
// If the commit outcome could not be confirmed, Charge returns the entry
// id of the attempt together with ErrOutcomeUnknown; the caller should
// look up that id in the audit log instead of retrying.
func (e *Engine) Charge(ctx context.Context, caller id.AccountID, req ChargeRequest) (id.EntryID, error) {
	if e.closed.Load() {
		return id.EntryID{}, ErrEngineClosed
	}
	if err := req.Validate(caller, e.chargeLimit); err != nil {
		return e.reject(ctx, opCharge, err)
	}

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		entryID, err := e.chargeOnce(ctx, req)
		if err == nil {
			return entryID, nil
		}
		if errors.Is(err, store.ErrConflict) {
			e.logger.Debug("charge conflicted, retrying",
				"account_id", req.AccountID,
				"attempt", attempt,
			)
			e.plugins.EmitConflictRetried(ctx, opCharge, attempt)
			continue
		}
		if errors.Is(err, store.ErrCommitUnknown) {
			return entryID, fmt.Errorf("%w: query ledger entry %s to confirm", ErrOutcomeUnknown, entryID)
		}
		if IsRejection(err) {
			return e.reject(ctx, opCharge, err)
		}
		return id.EntryID{}, fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}

	e.plugins.EmitRetryExhausted(ctx, opCharge, e.maxAttempts)
	return id.EntryID{}, fmt.Errorf("%w: charge conflicted %d times", ErrTransactionFailed, e.maxAttempts)
}

// chargeOnce runs one charge attempt as a single work unit.
func (e *Engine) chargeOnce(ctx context.Context, req ChargeRequest) (id.EntryID, error) {
	unit, err := e.store.Begin(ctx)
	if err != nil {
		return id.EntryID{}, err
	}
	defer unit.Abort(ctx) //nolint:errcheck // no-op after Commit

	acct, err := e.accounts.Get(ctx, unit, req.AccountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return id.EntryID{}, fmt.Errorf("%w: %s", ErrAccountNotFound, req.AccountID)
		}
		return id.EntryID{}, err
	}

	newBalance := acct.Balance.Add(req.Amount)
	if err := e.accounts.SetBalance(ctx, unit, req.AccountID, newBalance); err != nil {
		return id.EntryID{}, err
	}

	// Fresh id per attempt so a retried unit never collides with a
	// previous one.
	rec := &entry.Entry{
		ID:               id.NewEntryID(),
		AccountID:        req.AccountID,
		Kind:             entry.KindCharge,
		Amount:           req.Amount,
		ResultingBalance: newBalance,
		Description:      fmt.Sprintf("Point charge: %s", req.Amount.Format()),
	}
	if err := e.entries.Append(ctx, unit, rec); err != nil {
		return id.EntryID{}, err
	}

	if err := unit.Commit(ctx); err != nil {
		// On an unknown outcome the entry id identifies the attempt in
		// the audit log.
		return rec.ID, err
	}

	e.logger.Info("charge committed",
		"account_id", req.AccountID,
		"amount", req.Amount,
		"balance", newBalance,
		"entry_id", rec.ID,
	)
	e.plugins.EmitChargeCompleted(ctx, rec)

	return rec.ID, nil
}

// Transfer moves points from the caller's account to the receiver as
// payment for an ON_SALE item, marking the item SOLD_OUT. It returns the
// id of the sender-side TRANSFER_DEBIT entry.
//
// The debit, the credit, both audit entries, and the item transition
// commit together or not at all. See Charge for the ErrOutcomeUnknown
// contract.
func (e *Engine) Transfer(ctx context.Context, caller id.AccountID, req TransferRequest) (id.EntryID, error) {
	if e.closed.Load() {
		return id.EntryID{}, ErrEngineClosed
	}
	if err := req.Validate(caller); err != nil {
		return e.reject(ctx, opTransfer, err)
	}

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		entryID, err := e.transferOnce(ctx, req)
		if err == nil {
			return entryID, nil
		}
		if errors.Is(err, store.ErrConflict) {
			e.logger.Debug("transfer conflicted, retrying",
				"sender_id", req.SenderID,
				"item_id", req.ItemID,
				"attempt", attempt,
			)
			e.plugins.EmitConflictRetried(ctx, opTransfer, attempt)
			continue
		}
		if errors.Is(err, store.ErrCommitUnknown) {
			return entryID, fmt.Errorf("%w: query ledger entry %s to confirm", ErrOutcomeUnknown, entryID)
		}
		if IsRejection(err) {
			return e.reject(ctx, opTransfer, err)
		}
		return id.EntryID{}, fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}

	e.plugins.EmitRetryExhausted(ctx, opTransfer, e.maxAttempts)
	return id.EntryID{}, fmt.Errorf("%w: transfer conflicted %d times", ErrTransactionFailed, e.maxAttempts)
}

// transferOnce runs one transfer attempt as a single work unit.
func (e *Engine) transferOnce(ctx context.Context, req TransferRequest) (id.EntryID, error) {
	unit, err := e.store.Begin(ctx)
	if err != nil {
		return id.EntryID{}, err
	}
	defer unit.Abort(ctx) //nolint:errcheck // no-op after Commit

	sender, err := e.accounts.Get(ctx, unit, req.SenderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return id.EntryID{}, fmt.Errorf("%w: %s", ErrSenderNotFound, req.SenderID)
		}
		return id.EntryID{}, err
	}
	if sender.Balance.LessThan(req.Amount) {
		return id.EntryID{}, fmt.Errorf("%w: balance %s, requested %s", ErrInsufficientBalance, sender.Balance, req.Amount)
	}

	receiver, err := e.accounts.Get(ctx, unit, req.ReceiverID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return id.EntryID{}, fmt.Errorf("%w: %s", ErrReceiverNotFound, req.ReceiverID)
		}
		return id.EntryID{}, err
	}

	it, err := e.items.ReserveForSale(ctx, unit, req.ItemID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return id.EntryID{}, fmt.Errorf("%w: %s", ErrItemNotFound, req.ItemID)
		}
		if errors.Is(err, item.ErrNotAvailable) {
			return id.EntryID{}, fmt.Errorf("%w: %s", ErrItemNotAvailable, req.ItemID)
		}
		return id.EntryID{}, err
	}

	newSenderBalance := sender.Balance.Subtract(req.Amount)
	newReceiverBalance := receiver.Balance.Add(req.Amount)

	if err := e.accounts.SetBalance(ctx, unit, req.SenderID, newSenderBalance); err != nil {
		return id.EntryID{}, err
	}
	if err := e.accounts.SetBalance(ctx, unit, req.ReceiverID, newReceiverBalance); err != nil {
		return id.EntryID{}, err
	}

	debit := &entry.Entry{
		ID:               id.NewEntryID(),
		AccountID:        req.SenderID,
		Kind:             entry.KindTransferDebit,
		Amount:           req.Amount,
		ResultingBalance: newSenderBalance,
		CounterpartyID:   req.ReceiverID,
		ItemID:           req.ItemID,
		Description:      fmt.Sprintf("Item purchase: %s", it.Title),
	}
	if err := e.entries.Append(ctx, unit, debit); err != nil {
		return id.EntryID{}, err
	}

	credit := &entry.Entry{
		ID:               id.NewEntryID(),
		AccountID:        req.ReceiverID,
		Kind:             entry.KindTransferCredit,
		Amount:           req.Amount,
		ResultingBalance: newReceiverBalance,
		CounterpartyID:   req.SenderID,
		ItemID:           req.ItemID,
		Description:      fmt.Sprintf("Item sale: %s", it.Title),
	}
	if err := e.entries.Append(ctx, unit, credit); err != nil {
		return id.EntryID{}, err
	}

	if err := e.items.AdvanceTo(ctx, unit, req.ItemID, item.StateSoldOut); err != nil {
		return id.EntryID{}, err
	}

	if err := unit.Commit(ctx); err != nil {
		return debit.ID, err
	}

	e.logger.Info("transfer committed",
		"sender_id", req.SenderID,
		"receiver_id", req.ReceiverID,
		"item_id", req.ItemID,
		"amount", req.Amount,
		"entry_id", debit.ID,
	)
	e.plugins.EmitTransferCompleted(ctx, debit, credit)

	it.State = item.StateSoldOut
	e.plugins.EmitItemSold(ctx, it, sender)

	return debit.ID, nil
}

// reject emits the rejection hook and returns the error unchanged.
func (e *Engine) reject(ctx context.Context, op string, err error) (id.EntryID, error) {
	e.logger.Debug("operation rejected",
		"op", op,
		"code", ErrorCode(err),
		"error", err,
	)
	e.plugins.EmitOperationRejected(ctx, op, err)
	return id.EntryID{}, err
}

// ──────────────────────────────────────────────────
// Account Management
// ──────────────────────────────────────────────────

// CreateAccount registers a participant account. A zero balance is seeded
// with the engine's starting balance.
func (e *Engine) CreateAccount(ctx context.Context, a *account.Account) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	if a.ID == (id.AccountID{}) {
		a.ID = id.NewAccountID()
	}
	a.Entity = types.NewEntity()
	if a.Balance.IsZero() {
		a.Balance = e.startingBalance
	}
	if a.Balance.IsNegative() {
		return fmt.Errorf("%w: balance must not be negative", ErrInvalidInput)
	}

	if err := e.store.CreateAccount(ctx, a); err != nil {
		return err
	}

	e.plugins.EmitAccountCreated(ctx, a)
	return nil
}

// GetAccount retrieves an account by id.
func (e *Engine) GetAccount(ctx context.Context, accountID id.AccountID) (*account.Account, error) {
	a, err := e.store.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
		}
		return nil, err
	}
	return a, nil
}

// ──────────────────────────────────────────────────
// Item Management
// ──────────────────────────────────────────────────

// CreateItem lists an item for sale. State defaults to ON_SALE.
func (e *Engine) CreateItem(ctx context.Context, it *item.Item) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	if it.ID == (id.ItemID{}) {
		it.ID = id.NewItemID()
	}
	it.Entity = types.NewEntity()
	if it.State == "" {
		it.State = item.StateOnSale
	}
	if !it.State.Valid() {
		return fmt.Errorf("%w: unknown item state %q", ErrInvalidInput, it.State)
	}
	if it.OwnerID.IsNil() {
		return fmt.Errorf("%w: missing owner id", ErrInvalidInput)
	}
	if !it.Price.IsPositive() {
		return fmt.Errorf("%w: price must be positive", ErrInvalidAmount)
	}

	return e.store.CreateItem(ctx, it)
}

// GetItem retrieves an item by id.
func (e *Engine) GetItem(ctx context.Context, itemID id.ItemID) (*item.Item, error) {
	it, err := e.store.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
		}
		return nil, err
	}
	return it, nil
}

// ListItems lists items, newest first.
func (e *Engine) ListItems(ctx context.Context, opts item.ListOpts) ([]*item.Item, error) {
	return e.store.ListItems(ctx, opts)
}

// ──────────────────────────────────────────────────
// Audit Log
// ──────────────────────────────────────────────────

// GetEntry retrieves a ledger entry by id. This is also the recovery path
// after ErrOutcomeUnknown: a found entry means the commit was applied.
func (e *Engine) GetEntry(ctx context.Context, entryID id.EntryID) (*entry.Entry, error) {
	rec, err := e.store.GetEntry(ctx, entryID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, entryID)
		}
		return nil, err
	}
	return rec, nil
}

// ListEntries lists an account's ledger entries, newest first.
func (e *Engine) ListEntries(ctx context.Context, accountID id.AccountID, opts entry.ListOpts) ([]*entry.Entry, error) {
	return e.store.ListEntries(ctx, accountID, opts)
}
