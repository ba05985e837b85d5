package audithook

// Action constants for audit events.
const (
	// Account actions
	ActionAccountCreated = "account.created"

	// Transaction actions
	ActionChargeCompleted   = "charge.completed"
	ActionTransferCompleted = "transfer.completed"
	ActionItemSold          = "item.sold"

	// Rejection and retry actions
	ActionOperationRejected = "operation.rejected"
	ActionConflictRetried   = "conflict.retried"
	ActionRetryExhausted    = "retry.exhausted"
)

// Resource constants for audit events.
const (
	ResourceAccount = "account"
	ResourceItem    = "item"
	ResourceEntry   = "entry"
)

// Category constants for audit events.
const (
	CategoryAccount     = "account"
	CategoryTransaction = "transaction"
	CategoryAccess      = "access"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
