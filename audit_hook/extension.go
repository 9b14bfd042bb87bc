// Package audithook bridges Carebill lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import an
// audit backend directly. Callers inject a RecorderFunc adapter that bridges
// to their backend at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/carebill/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                = (*Extension)(nil)
	_ plugin.OnCustomerStopped     = (*Extension)(nil)
	_ plugin.OnCustomerArchived    = (*Extension)(nil)
	_ plugin.OnCustomerDeleted     = (*Extension)(nil)
	_ plugin.OnSubscriptionCreated = (*Extension)(nil)
	_ plugin.OnFundingCreated      = (*Extension)(nil)
	_ plugin.OnFundingEnded        = (*Extension)(nil)
	_ plugin.OnCapExceeded         = (*Extension)(nil)
	_ plugin.OnBillCreated         = (*Extension)(nil)
	_ plugin.OnBillDeleted         = (*Extension)(nil)
	_ plugin.OnCreditNoteCreated   = (*Extension)(nil)
	_ plugin.OnCreditNoteDeleted   = (*Extension)(nil)
	_ plugin.OnSequenceAllocated   = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// It is defined locally so that the audit_hook package does not import a
// backend directly; callers inject the concrete recorder at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Carebill lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Customer lifecycle hooks
// ──────────────────────────────────────────────────

// OnCustomerStopped implements plugin.OnCustomerStopped.
func (e *Extension) OnCustomerStopped(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionCustomerStopped, SeverityInfo, OutcomeSuccess,
		ResourceCustomer, "", CategoryLifecycle, nil,
		"event", "customer_stopped",
	)
}

// OnCustomerArchived implements plugin.OnCustomerArchived.
func (e *Extension) OnCustomerArchived(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionCustomerArchived, SeverityInfo, OutcomeSuccess,
		ResourceCustomer, "", CategoryLifecycle, nil,
		"event", "customer_archived",
	)
}

// OnCustomerDeleted implements plugin.OnCustomerDeleted.
func (e *Extension) OnCustomerDeleted(ctx context.Context, customerID string) error {
	return e.record(ctx, ActionCustomerDeleted, SeverityWarning, OutcomeSuccess,
		ResourceCustomer, customerID, CategoryLifecycle, nil,
		"customer_id", customerID,
	)
}

// ──────────────────────────────────────────────────
// Subscription and funding hooks
// ──────────────────────────────────────────────────

// OnSubscriptionCreated implements plugin.OnSubscriptionCreated.
func (e *Extension) OnSubscriptionCreated(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionSubscriptionCreated, SeverityInfo, OutcomeSuccess,
		ResourceSubscription, "", CategoryBilling, nil,
		"event", "subscription_created",
	)
}

// OnFundingCreated implements plugin.OnFundingCreated.
func (e *Extension) OnFundingCreated(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionFundingCreated, SeverityInfo, OutcomeSuccess,
		ResourceFunding, "", CategoryFunding, nil,
		"event", "funding_created",
	)
}

// OnFundingEnded implements plugin.OnFundingEnded.
func (e *Extension) OnFundingEnded(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionFundingEnded, SeverityInfo, OutcomeSuccess,
		ResourceFunding, "", CategoryFunding, nil,
		"event", "funding_ended",
	)
}

// OnCapExceeded implements plugin.OnCapExceeded.
func (e *Extension) OnCapExceeded(ctx context.Context, fundingID, period, requested, remaining string) error {
	return e.record(ctx, ActionCapExceeded, SeverityWarning, OutcomePartial,
		ResourceFunding, fundingID, CategoryFunding, nil,
		"funding_id", fundingID,
		"period", period,
		"requested", requested,
		"remaining", remaining,
	)
}

// ──────────────────────────────────────────────────
// Billing hooks
// ──────────────────────────────────────────────────

// OnBillCreated implements plugin.OnBillCreated.
func (e *Extension) OnBillCreated(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionBillCreated, SeverityInfo, OutcomeSuccess,
		ResourceBill, "", CategoryBilling, nil,
		"event", "bill_created",
	)
}

// OnBillDeleted implements plugin.OnBillDeleted.
func (e *Extension) OnBillDeleted(ctx context.Context, billID string) error {
	return e.record(ctx, ActionBillDeleted, SeverityWarning, OutcomeSuccess,
		ResourceBill, billID, CategoryBilling, nil,
		"bill_id", billID,
	)
}

// OnCreditNoteCreated implements plugin.OnCreditNoteCreated.
func (e *Extension) OnCreditNoteCreated(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionCreditNoteCreated, SeverityInfo, OutcomeSuccess,
		ResourceCreditNote, "", CategoryBilling, nil,
		"event", "credit_note_created",
	)
}

// OnCreditNoteDeleted implements plugin.OnCreditNoteDeleted.
func (e *Extension) OnCreditNoteDeleted(ctx context.Context, noteID string) error {
	return e.record(ctx, ActionCreditNoteDeleted, SeverityWarning, OutcomeSuccess,
		ResourceCreditNote, noteID, CategoryBilling, nil,
		"credit_note_id", noteID,
	)
}

// ──────────────────────────────────────────────────
// Numbering hooks
// ──────────────────────────────────────────────────

// OnSequenceAllocated implements plugin.OnSequenceAllocated.
func (e *Extension) OnSequenceAllocated(ctx context.Context, kind, number string) error {
	return e.record(ctx, ActionSequenceAllocated, SeverityInfo, OutcomeSuccess,
		ResourceSequence, number, CategoryNumbering, nil,
		"kind", kind,
		"number", number,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
