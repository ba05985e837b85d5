package pointledger

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// Input and authorization errors — detected before any store
	// interaction, never retried.
	ErrUnauthorized    = errors.New("pointledger: unauthorized")
	ErrInvalidInput    = errors.New("pointledger: invalid input")
	ErrInvalidAmount   = errors.New("pointledger: invalid amount")
	ErrInvalidReceiver = errors.New("pointledger: invalid receiver")
	ErrForbidden       = errors.New("pointledger: forbidden")

	// Not-found errors — surfaced as a specific kind, never retried.
	ErrAccountNotFound  = errors.New("pointledger: account not found")
	ErrSenderNotFound   = errors.New("pointledger: sender not found")
	ErrReceiverNotFound = errors.New("pointledger: receiver not found")
	ErrItemNotFound     = errors.New("pointledger: item not found")
	ErrEntryNotFound    = errors.New("pointledger: ledger entry not found")

	// Business-rule violations — surfaced as a specific kind, never
	// retried.
	ErrInsufficientBalance = errors.New("pointledger: insufficient balance")
	ErrItemNotAvailable    = errors.New("pointledger: item not available")

	// Transaction errors.
	ErrTransactionFailed = errors.New("pointledger: transaction failed")
	ErrOutcomeUnknown    = errors.New("pointledger: transaction outcome unknown")

	// Lifecycle errors.
	ErrEngineClosed = errors.New("pointledger: engine is closed")
)

// Wire error kinds, surfaced verbatim to callers of the operation surface.
const (
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeInvalidAmount       = "INVALID_AMOUNT"
	CodeInvalidReceiver     = "INVALID_RECEIVER"
	CodeForbidden           = "FORBIDDEN"
	CodeAccountNotFound     = "ACCOUNT_NOT_FOUND"
	CodeSenderNotFound      = "SENDER_NOT_FOUND"
	CodeReceiverNotFound    = "RECEIVER_NOT_FOUND"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeProductNotFound     = "PRODUCT_NOT_FOUND"
	CodeProductNotAvailable = "PRODUCT_NOT_AVAILABLE"
	CodeTransactionFailed   = "TRANSACTION_FAILED"
)

// ErrorCode maps a domain error to its wire kind. Unclassified errors
// (conflict-retry exhaustion, store and transport failures) collapse to
// TRANSACTION_FAILED; the underlying cause stays on the error chain for
// logging.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrInvalidAmount):
		return CodeInvalidAmount
	case errors.Is(err, ErrInvalidReceiver):
		return CodeInvalidReceiver
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrSenderNotFound):
		return CodeSenderNotFound
	case errors.Is(err, ErrReceiverNotFound):
		return CodeReceiverNotFound
	case errors.Is(err, ErrAccountNotFound):
		return CodeAccountNotFound
	case errors.Is(err, ErrItemNotFound):
		return CodeProductNotFound
	case errors.Is(err, ErrItemNotAvailable):
		return CodeProductNotAvailable
	case errors.Is(err, ErrInsufficientBalance):
		return CodeInsufficientBalance
	default:
		return CodeTransactionFailed
	}
}

// IsNotFound reports whether the error is any of the not-found kinds.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrSenderNotFound) ||
		errors.Is(err, ErrReceiverNotFound) ||
		errors.Is(err, ErrItemNotFound) ||
		errors.Is(err, ErrEntryNotFound)
}

// IsRejection reports whether the error was caused by the request itself —
// bad input, failed authorization, absent entities, or a business-rule
// violation — as opposed to a store or transaction failure. Rejections are
// never retried.
func IsRejection(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidReceiver) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrItemNotAvailable) ||
		IsNotFound(err)
}

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("pointledger: validation failed for %s: %s", e.Field, e.Message)
}
