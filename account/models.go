// Package account defines the participant point account and its
// unit-scoped repository.
package account

import (
	"github.com/xraph/pointledger/id"
	"github.com/xraph/pointledger/types"
)

// Account holds a participant's point balance.
//
// Balance is never negative, even transiently inside an uncommitted work
// unit. Accounts are created when a participant registers (seeded with a
// starting balance) and mutated only by the transaction engine.
type Account struct {
	types.Entity
	ID          id.AccountID `json:"id"`
	DisplayName string       `json:"display_name"`
	Balance     types.Points `json:"balance"`
}
