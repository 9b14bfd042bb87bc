// Package plugin provides an extensible plugin system for Carebill.
// Plugins can hook into various lifecycle events to extend functionality.
package plugin

import (
	"context"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Customer lifecycle hooks
// ──────────────────────────────────────────────────

// OnCustomerStopped is called when care for a customer is stopped.
type OnCustomerStopped interface {
	Plugin
	OnCustomerStopped(ctx context.Context, customer interface{}) error
}

// OnCustomerArchived is called when a customer is archived.
type OnCustomerArchived interface {
	Plugin
	OnCustomerArchived(ctx context.Context, customer interface{}) error
}

// OnCustomerDeleted is called when a customer is hard-deleted.
type OnCustomerDeleted interface {
	Plugin
	OnCustomerDeleted(ctx context.Context, customerID string) error
}

// ──────────────────────────────────────────────────
// Subscription and funding hooks
// ──────────────────────────────────────────────────

// OnSubscriptionCreated is called when a new subscription is created.
type OnSubscriptionCreated interface {
	Plugin
	OnSubscriptionCreated(ctx context.Context, sub interface{}) error
}

// OnFundingCreated is called when a new funding is created.
type OnFundingCreated interface {
	Plugin
	OnFundingCreated(ctx context.Context, funding interface{}) error
}

// OnFundingEnded is called when a funding is ended.
type OnFundingEnded interface {
	Plugin
	OnFundingEnded(ctx context.Context, funding interface{}) error
}

// OnCapExceeded is called when an event's payer share would exceed the
// remaining funding budget for the period.
type OnCapExceeded interface {
	Plugin
	OnCapExceeded(ctx context.Context, fundingID, period, requested, remaining string) error
}

// ──────────────────────────────────────────────────
// Billing document hooks
// ──────────────────────────────────────────────────

// OnEventBilled is called for each event frozen into a bill.
type OnEventBilled interface {
	Plugin
	OnEventBilled(ctx context.Context, event interface{}) error
}

// OnBillCreated is called when a bill is created.
type OnBillCreated interface {
	Plugin
	OnBillCreated(ctx context.Context, bill interface{}) error
}

// OnBillDeleted is called when an external-origin bill is deleted.
type OnBillDeleted interface {
	Plugin
	OnBillDeleted(ctx context.Context, billID string) error
}

// OnCreditNoteCreated is called when a credit note is created.
type OnCreditNoteCreated interface {
	Plugin
	OnCreditNoteCreated(ctx context.Context, note interface{}) error
}

// OnCreditNoteDeleted is called when a credit note is deleted.
type OnCreditNoteDeleted interface {
	Plugin
	OnCreditNoteDeleted(ctx context.Context, noteID string) error
}

// OnSequenceAllocated is called when a document number is issued.
type OnSequenceAllocated interface {
	Plugin
	OnSequenceAllocated(ctx context.Context, kind, number string) error
}

// ──────────────────────────────────────────────────
// Extension points
// ──────────────────────────────────────────────────

// NumberFormatter renders document numbers in a custom layout. At most one
// formatter per document kind is used; the built-in format applies otherwise.
type NumberFormatter interface {
	Plugin
	FormatsKind() string
	FormatNumber(companyCode, period string, seq int64) string
}

// ExportTarget receives finalized documents for downstream transmission
// (accounting exports, teletransmission).
type ExportTarget interface {
	Plugin
	ExportDocument(ctx context.Context, kind string, document interface{}) error
}
