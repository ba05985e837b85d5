// Package store defines the transactional document store contract the
// engine runs against.
//
// A Unit is the store's atomic, conflict-checked group of reads and writes:
// reads are snapshot-consistent within the unit, writes are invisible to
// other readers until Commit, and Commit fails with ErrConflict when any
// document read inside the unit was modified by a concurrently committed
// unit. Backends: store/memory (tests, development) and store/mongo
// (production).
package store

import (
	"context"
	"errors"

	"github.com/xraph/pointledger/account"
	"github.com/xraph/pointledger/entry"
	"github.com/xraph/pointledger/id"
	"github.com/xraph/pointledger/item"
	"github.com/xraph/pointledger/types"
)

// Sentinel errors shared by all store backends.
var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicate is returned when a create or append collides with an
	// existing document id.
	ErrDuplicate = errors.New("store: duplicate id")

	// ErrConflict is returned by Commit (or by a unit-scoped operation,
	// depending on the backend) when a concurrently committed unit modified
	// a document this unit read. Transient: re-running the whole unit from
	// fresh reads is the only correct response.
	ErrConflict = errors.New("store: write conflict")

	// ErrCommitUnknown is returned when the outcome of a commit could not
	// be confirmed (e.g. the confirmation was lost in flight). The commit
	// may or may not have been applied; callers should consult the audit
	// log by entry id rather than retry.
	ErrCommitUnknown = errors.New("store: commit outcome unknown")

	// ErrUnitDone is returned when a unit is used after Commit or Abort.
	ErrUnitDone = errors.New("store: unit already finished")

	// ErrClosed is returned when the store has been closed.
	ErrClosed = errors.New("store: closed")
)

// Collection name constants.
const (
	ColAccounts = "ledger_accounts"
	ColItems    = "ledger_items"
	ColEntries  = "ledger_entries"
)

// Unit is one atomic, conflict-checked group of reads and writes.
//
// Reads observe the snapshot the unit opened with plus the unit's own
// buffered writes. Writes stay invisible to other units until Commit.
// A Unit is not safe for concurrent use; each operation runs its own.
type Unit interface {
	// GetAccount reads an account within the unit's snapshot.
	GetAccount(ctx context.Context, accountID id.AccountID) (*account.Account, error)

	// SetBalance buffers a balance write for commit.
	SetBalance(ctx context.Context, accountID id.AccountID, balance types.Points) error

	// AppendEntry buffers an immutable ledger entry for commit. The store
	// stamps CreatedAt at commit time.
	AppendEntry(ctx context.Context, e *entry.Entry) error

	// GetItem reads an item within the unit's snapshot.
	GetItem(ctx context.Context, itemID id.ItemID) (*item.Item, error)

	// SetItemState buffers an item state write for commit.
	SetItemState(ctx context.Context, itemID id.ItemID, state item.State) error

	// Commit atomically applies every buffered write, or none of them.
	// Returns ErrConflict when conflict detection aborts the unit.
	Commit(ctx context.Context) error

	// Abort discards the unit. Safe to call after a failed Commit.
	Abort(ctx context.Context) error
}

// Store is the transactional document store the engine runs against.
//
// Direct methods run outside any work unit and are used for registration
// seeding, catalog writes, and read-only display queries. Everything that
// moves points goes through Begin.
type Store interface {
	// Begin opens a new work unit.
	Begin(ctx context.Context) (Unit, error)

	// Account methods
	CreateAccount(ctx context.Context, a *account.Account) error
	GetAccount(ctx context.Context, accountID id.AccountID) (*account.Account, error)

	// Item methods
	CreateItem(ctx context.Context, it *item.Item) error
	GetItem(ctx context.Context, itemID id.ItemID) (*item.Item, error)
	ListItems(ctx context.Context, opts item.ListOpts) ([]*item.Item, error)

	// Entry methods
	GetEntry(ctx context.Context, entryID id.EntryID) (*entry.Entry, error)
	ListEntries(ctx context.Context, accountID id.AccountID, opts entry.ListOpts) ([]*entry.Entry, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
