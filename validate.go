package pointledger

import (
	"fmt"

	"github.com/xraph/pointledger/id"
	"github.com/xraph/pointledger/types"
)

// ChargeRequest asks the engine to add purchased points to an account.
type ChargeRequest struct {
	AccountID id.AccountID `json:"account_id"`
	Amount    types.Points `json:"amount"`
}

// TransferRequest asks the engine to move points from sender to receiver
// as payment for an item.
type TransferRequest struct {
	SenderID   id.AccountID `json:"sender_id"`
	ReceiverID id.AccountID `json:"receiver_id"`
	Amount     types.Points `json:"amount"`
	ItemID     id.ItemID    `json:"item_id"`
}

// Validate checks the request against the authenticated caller identity.
// Checks run in order and short-circuit on the first failure; no storage
// is touched. chargeLimit is the per-charge policy cap.
func (r ChargeRequest) Validate(caller id.AccountID, chargeLimit types.Points) error {
	if caller.IsNil() {
		return ErrUnauthorized
	}
	if r.AccountID.IsNil() {
		return fmt.Errorf("%w: missing account id", ErrInvalidInput)
	}
	if caller != r.AccountID {
		return fmt.Errorf("%w: caller may only charge their own account", ErrForbidden)
	}
	if !r.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidAmount, r.Amount)
	}
	if r.Amount.GreaterThan(chargeLimit) {
		return fmt.Errorf("%w: amount %s exceeds the per-charge limit of %s", ErrInvalidAmount, r.Amount, chargeLimit)
	}
	return nil
}

// Validate checks the request against the authenticated caller identity.
// Checks run in order and short-circuit on the first failure; no storage
// is touched.
func (r TransferRequest) Validate(caller id.AccountID) error {
	if caller.IsNil() {
		return ErrUnauthorized
	}
	if r.SenderID.IsNil() {
		return fmt.Errorf("%w: missing sender id", ErrInvalidInput)
	}
	if r.ReceiverID.IsNil() {
		return fmt.Errorf("%w: missing receiver id", ErrInvalidInput)
	}
	if r.ItemID.IsNil() {
		return fmt.Errorf("%w: missing item id", ErrInvalidInput)
	}
	if caller != r.SenderID {
		return fmt.Errorf("%w: caller may only send from their own account", ErrForbidden)
	}
	if !r.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidAmount, r.Amount)
	}
	if r.SenderID == r.ReceiverID {
		return fmt.Errorf("%w: sender and receiver must differ", ErrInvalidReceiver)
	}
	return nil
}
