// Package entry defines the immutable ledger entry and its unit-scoped
// writer.
package entry

import (
	"time"

	"github.com/xraph/pointledger/id"
	"github.com/xraph/pointledger/types"
)

// Kind classifies a balance-affecting movement.
type Kind string

// Entry kinds. A charge produces exactly one CHARGE entry; a transfer
// produces exactly one TRANSFER_DEBIT for the sender and one
// TRANSFER_CREDIT for the receiver.
const (
	KindCharge         Kind = "CHARGE"
	KindTransferDebit  Kind = "TRANSFER_DEBIT"
	KindTransferCredit Kind = "TRANSFER_CREDIT"
)

// Valid reports whether k is a known entry kind.
func (k Kind) Valid() bool {
	switch k {
	case KindCharge, KindTransferDebit, KindTransferCredit:
		return true
	}
	return false
}

// Entry is an immutable audit record of one balance-affecting movement.
// Entries are append-only: never updated, never deleted.
type Entry struct {
	ID               id.EntryID   `json:"id"`
	AccountID        id.AccountID `json:"account_id"`
	Kind             Kind         `json:"kind"`
	Amount           types.Points `json:"amount"`
	ResultingBalance types.Points `json:"resulting_balance"`
	CounterpartyID   id.AccountID `json:"counterparty_id,omitempty"`
	ItemID           id.ItemID    `json:"item_id,omitempty"`
	Description      string       `json:"description"`
	CreatedAt        time.Time    `json:"created_at"`
}

// ListOpts filters and paginates entry history queries.
type ListOpts struct {
	Kind   Kind
	Limit  int
	Offset int
}
