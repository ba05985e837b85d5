// Package item defines the traded item and its sale-state gate.
package item

import (
	"github.com/xraph/pointledger/id"
	"github.com/xraph/pointledger/types"
)

// State is an item's sale state.
type State string

// Item states. The engine only ever performs the ON_SALE → SOLD_OUT
// transition; RESERVED is read but never produced here.
const (
	StateOnSale   State = "ON_SALE"
	StateReserved State = "RESERVED"
	StateSoldOut  State = "SOLD_OUT"
)

// Valid reports whether s is a known item state.
func (s State) Valid() bool {
	switch s {
	case StateOnSale, StateReserved, StateSoldOut:
		return true
	}
	return false
}

// Item is a traded item. Created and edited by the catalog; the engine
// only reads it and flips its state to SOLD_OUT on a successful transfer.
type Item struct {
	types.Entity
	ID      id.ItemID    `json:"id"`
	OwnerID id.AccountID `json:"owner_id"`
	Title   string       `json:"title"`
	Price   types.Points `json:"price"`
	State   State        `json:"state"`
}

// ListOpts filters and paginates item queries.
type ListOpts struct {
	OwnerID id.AccountID
	State   State
	Limit   int
	Offset  int
}
