package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/pointledger/id"
	"github.com/xraph/pointledger/types"
)

// ErrNegativeBalance is returned when a write would leave an account with a
// balance below zero. The engine checks balances before writing, so hitting
// this error indicates a coordinator bug rather than a caller mistake.
var ErrNegativeBalance = errors.New("account: balance must not be negative")

// Unit is the slice of a store work unit the repository operates through.
// Reads reflect the snapshot visible to the unit and writes are buffered
// until the unit commits. Satisfied by store.Unit.
type Unit interface {
	GetAccount(ctx context.Context, accountID id.AccountID) (*Account, error)
	SetBalance(ctx context.Context, accountID id.AccountID, balance types.Points) error
}

// Repository reads and writes account balances inside a caller-supplied
// work unit. It never commits independently — atomicity and conflict
// detection belong to the unit.
type Repository struct{}

// NewRepository creates an account Repository.
func NewRepository() *Repository { return &Repository{} }

// Get returns the account as visible to the work unit's snapshot.
// The unit's not-found error passes through untouched so the caller can
// classify it by role (sender, receiver, charge target).
func (r *Repository) Get(ctx context.Context, u Unit, accountID id.AccountID) (*Account, error) {
	return u.GetAccount(ctx, accountID)
}

// SetBalance buffers a balance write into the work unit. Negative balances
// are rejected before they ever reach the store.
func (r *Repository) SetBalance(ctx context.Context, u Unit, accountID id.AccountID, balance types.Points) error {
	if balance.IsNegative() {
		return fmt.Errorf("%w: %s for %s", ErrNegativeBalance, balance, accountID)
	}
	return u.SetBalance(ctx, accountID, balance)
}
