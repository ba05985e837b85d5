package entry

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidEntry is returned when an entry fails the append-time checks.
var ErrInvalidEntry = errors.New("entry: invalid ledger entry")

// Unit is the slice of a store work unit the writer operates through.
// Satisfied by store.Unit.
type Unit interface {
	AppendEntry(ctx context.Context, e *Entry) error
}

// Writer appends immutable ledger entries inside a caller-supplied work
// unit. An entry is never written outside the unit that carries the balance
// change it records, so a committed balance and its audit trail can never
// diverge.
type Writer struct{}

// NewWriter creates an entry Writer.
func NewWriter() *Writer { return &Writer{} }

// Append buffers a ledger entry into the work unit.
//
// The entry must carry a non-nil ID assigned by the coordinator for this
// attempt. Coordinators generate a fresh ID per attempt: if the unit
// conflicts and is re-run, the retry appends under a new ID so a partially
// visible previous attempt can never cause a duplicate-key failure.
// CreatedAt is stamped by the store at commit time.
func (w *Writer) Append(ctx context.Context, u Unit, e *Entry) error {
	if e.ID.IsNil() {
		return fmt.Errorf("%w: missing entry id", ErrInvalidEntry)
	}
	if e.AccountID.IsNil() {
		return fmt.Errorf("%w: missing account id", ErrInvalidEntry)
	}
	if !e.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEntry, e.Kind)
	}
	if !e.Amount.IsPositive() {
		return fmt.Errorf("%w: amount %s must be positive", ErrInvalidEntry, e.Amount)
	}
	if e.ResultingBalance.IsNegative() {
		return fmt.Errorf("%w: resulting balance %s must not be negative", ErrInvalidEntry, e.ResultingBalance)
	}
	return u.AppendEntry(ctx, e)
}
