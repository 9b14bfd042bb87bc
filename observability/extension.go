// Package observability provides a metrics extension for Carebill that
// records lifecycle event counts via a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/carebill/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                = (*MetricsExtension)(nil)
	_ plugin.OnInit                = (*MetricsExtension)(nil)
	_ plugin.OnCustomerStopped     = (*MetricsExtension)(nil)
	_ plugin.OnCustomerArchived    = (*MetricsExtension)(nil)
	_ plugin.OnCustomerDeleted     = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionCreated = (*MetricsExtension)(nil)
	_ plugin.OnFundingCreated      = (*MetricsExtension)(nil)
	_ plugin.OnFundingEnded        = (*MetricsExtension)(nil)
	_ plugin.OnCapExceeded         = (*MetricsExtension)(nil)
	_ plugin.OnEventBilled         = (*MetricsExtension)(nil)
	_ plugin.OnBillCreated         = (*MetricsExtension)(nil)
	_ plugin.OnBillDeleted         = (*MetricsExtension)(nil)
	_ plugin.OnCreditNoteCreated   = (*MetricsExtension)(nil)
	_ plugin.OnCreditNoteDeleted   = (*MetricsExtension)(nil)
	_ plugin.OnSequenceAllocated   = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Carebill plugin to automatically track billing metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Customer lifecycle metrics
	CustomerStopped  Counter
	CustomerArchived Counter
	CustomerDeleted  Counter

	// Subscription and funding metrics
	SubscriptionCreated Counter
	FundingCreated      Counter
	FundingEnded        Counter
	CapExceeded         Counter

	// Billing metrics
	EventsBilled      Counter
	BillCreated       Counter
	BillDeleted       Counter
	CreditNoteCreated Counter
	CreditNoteDeleted Counter

	// Numbering metrics
	SequencesAllocated Counter

	// Error metrics
	StoreErrors  Counter
	PluginErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Customer lifecycle metrics
		CustomerStopped:  factory.Counter("carebill.customer.stopped"),
		CustomerArchived: factory.Counter("carebill.customer.archived"),
		CustomerDeleted:  factory.Counter("carebill.customer.deleted"),

		// Subscription and funding metrics
		SubscriptionCreated: factory.Counter("carebill.subscription.created"),
		FundingCreated:      factory.Counter("carebill.funding.created"),
		FundingEnded:        factory.Counter("carebill.funding.ended"),
		CapExceeded:         factory.Counter("carebill.funding.cap_exceeded"),

		// Billing metrics
		EventsBilled:      factory.Counter("carebill.event.billed"),
		BillCreated:       factory.Counter("carebill.bill.created"),
		BillDeleted:       factory.Counter("carebill.bill.deleted"),
		CreditNoteCreated: factory.Counter("carebill.credit_note.created"),
		CreditNoteDeleted: factory.Counter("carebill.credit_note.deleted"),

		// Numbering metrics
		SequencesAllocated: factory.Counter("carebill.sequence.allocated"),

		// Error metrics
		StoreErrors:  factory.Counter("carebill.store.errors"),
		PluginErrors: factory.Counter("carebill.plugin.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Customer lifecycle hooks
// ──────────────────────────────────────────────────

// OnCustomerStopped implements plugin.OnCustomerStopped.
func (m *MetricsExtension) OnCustomerStopped(_ context.Context, _ interface{}) error {
	m.CustomerStopped.Inc()
	return nil
}

// OnCustomerArchived implements plugin.OnCustomerArchived.
func (m *MetricsExtension) OnCustomerArchived(_ context.Context, _ interface{}) error {
	m.CustomerArchived.Inc()
	return nil
}

// OnCustomerDeleted implements plugin.OnCustomerDeleted.
func (m *MetricsExtension) OnCustomerDeleted(_ context.Context, _ string) error {
	m.CustomerDeleted.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Subscription and funding hooks
// ──────────────────────────────────────────────────

// OnSubscriptionCreated implements plugin.OnSubscriptionCreated.
func (m *MetricsExtension) OnSubscriptionCreated(_ context.Context, _ interface{}) error {
	m.SubscriptionCreated.Inc()
	return nil
}

// OnFundingCreated implements plugin.OnFundingCreated.
func (m *MetricsExtension) OnFundingCreated(_ context.Context, _ interface{}) error {
	m.FundingCreated.Inc()
	return nil
}

// OnFundingEnded implements plugin.OnFundingEnded.
func (m *MetricsExtension) OnFundingEnded(_ context.Context, _ interface{}) error {
	m.FundingEnded.Inc()
	return nil
}

// OnCapExceeded implements plugin.OnCapExceeded.
func (m *MetricsExtension) OnCapExceeded(_ context.Context, _, _, _, _ string) error {
	m.CapExceeded.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Billing hooks
// ──────────────────────────────────────────────────

// OnEventBilled implements plugin.OnEventBilled.
func (m *MetricsExtension) OnEventBilled(_ context.Context, _ interface{}) error {
	m.EventsBilled.Inc()
	return nil
}

// OnBillCreated implements plugin.OnBillCreated.
func (m *MetricsExtension) OnBillCreated(_ context.Context, _ interface{}) error {
	m.BillCreated.Inc()
	return nil
}

// OnBillDeleted implements plugin.OnBillDeleted.
func (m *MetricsExtension) OnBillDeleted(_ context.Context, _ string) error {
	m.BillDeleted.Inc()
	return nil
}

// OnCreditNoteCreated implements plugin.OnCreditNoteCreated.
func (m *MetricsExtension) OnCreditNoteCreated(_ context.Context, _ interface{}) error {
	m.CreditNoteCreated.Inc()
	return nil
}

// OnCreditNoteDeleted implements plugin.OnCreditNoteDeleted.
func (m *MetricsExtension) OnCreditNoteDeleted(_ context.Context, _ string) error {
	m.CreditNoteDeleted.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Numbering hooks
// ──────────────────────────────────────────────────

// OnSequenceAllocated implements plugin.OnSequenceAllocated.
func (m *MetricsExtension) OnSequenceAllocated(_ context.Context, _, _ string) error {
	m.SequencesAllocated.Inc()
	return nil
}
