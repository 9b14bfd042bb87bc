package audithook

// Action constants for audit events.
const (
	// Customer lifecycle actions
	ActionCustomerStopped  = "customer.stopped"
	ActionCustomerArchived = "customer.archived"
	ActionCustomerDeleted  = "customer.deleted"

	// Subscription actions
	ActionSubscriptionCreated = "subscription.created"

	// Funding actions
	ActionFundingCreated = "funding.created"
	ActionFundingEnded   = "funding.ended"
	ActionCapExceeded    = "funding.cap_exceeded"

	// Billing actions
	ActionEventBilled       = "event.billed"
	ActionBillCreated       = "bill.created"
	ActionBillDeleted       = "bill.deleted"
	ActionCreditNoteCreated = "credit_note.created"
	ActionCreditNoteDeleted = "credit_note.deleted"

	// Numbering actions
	ActionSequenceAllocated = "sequence.allocated"
)

// Resource constants for audit events.
const (
	ResourceCustomer     = "customer"
	ResourceSubscription = "subscription"
	ResourceFunding      = "funding"
	ResourceEvent        = "event"
	ResourceBill         = "bill"
	ResourceCreditNote   = "credit_note"
	ResourceSequence     = "sequence"
)

// Category constants for audit events.
const (
	CategoryBilling   = "billing"
	CategoryLifecycle = "lifecycle"
	CategoryFunding   = "funding"
	CategoryNumbering = "numbering"
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
