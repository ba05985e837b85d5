package item

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/pointledger/id"
)

// ErrNotAvailable is returned when an item exists but is not ON_SALE.
var ErrNotAvailable = errors.New("item: not available for sale")

// Unit is the slice of a store work unit the gate operates through.
// Satisfied by store.Unit.
type Unit interface {
	GetItem(ctx context.Context, itemID id.ItemID) (*Item, error)
	SetItemState(ctx context.Context, itemID id.ItemID, state State) error
}

// Gate reads and conditionally advances an item's sale state inside a
// caller-supplied work unit. Because the availability check and the
// SOLD_OUT write share one unit, a conflicting concurrent sale aborts the
// whole unit at commit — two transfers can never both observe ON_SALE and
// both commit.
type Gate struct{}

// NewGate creates an item Gate.
func NewGate() *Gate { return &Gate{} }

// ReserveForSale returns the item as visible to the unit's snapshot,
// failing with ErrNotAvailable unless its state is ON_SALE. The unit's
// not-found error passes through untouched.
func (g *Gate) ReserveForSale(ctx context.Context, u Unit, itemID id.ItemID) (*Item, error) {
	it, err := u.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if it.State != StateOnSale {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotAvailable, itemID, it.State)
	}
	return it, nil
}

// AdvanceTo buffers a state transition into the work unit.
func (g *Gate) AdvanceTo(ctx context.Context, u Unit, itemID id.ItemID, state State) error {
	if !state.Valid() {
		return fmt.Errorf("item: unknown state %q", state)
	}
	return u.SetItemState(ctx, itemID, state)
}
