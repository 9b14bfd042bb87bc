// Package store defines the unified storage interface for all Carebill
// entities, plus the atomic primitives the billing pipeline relies on:
// per-(company, kind, period) sequence counters and the all-or-nothing
// document batch write.
package store

import (
	"context"

	"github.com/xraph/carebill/bill"
	"github.com/xraph/carebill/billingitem"
	"github.com/xraph/carebill/billslip"
	"github.com/xraph/carebill/company"
	"github.com/xraph/carebill/creditnote"
	"github.com/xraph/carebill/customer"
	"github.com/xraph/carebill/event"
	"github.com/xraph/carebill/funding"
	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/payer"
	"github.com/xraph/carebill/sequence"
	"github.com/xraph/carebill/subscription"
)

// DocumentBatch groups every write of one billing run. A batch commits
// atomically: event flags, documents and funding ledger rows either all
// persist or none do; a partially billed batch is never observable.
//
// Events in BilledEvents must still be unbilled in the store at commit
// time; a concurrent run that billed one of them first fails this batch
// with ErrEventAlreadyBilled.
type DocumentBatch struct {
	Bills            []*bill.Bill
	CreditNotes      []*creditnote.CreditNote
	Slips            []*billslip.BillSlip
	BilledEvents     []*event.Event
	FundingHistories []funding.History

	// LockBills marks the listed bills non-editable in the same commit,
	// set when a slip in the batch references them.
	LockBills []id.BillID

	// RenderNumber renders the printed number for a sequence value.
	// Documents entering the batch with an empty Number draw their
	// sequence inside the batch boundary, so a failed batch never
	// burns numbers. Required when any document is unnumbered.
	RenderNumber func(kind sequence.Kind, period sequence.Period, seq int64) string
}

// Store is the unified storage interface for all Carebill entities.
// Instead of embedding the per-entity sub-interfaces, we explicitly declare
// all methods to avoid naming conflicts.
//
// Every method is scoped by company; a reference that exists under another
// company behaves exactly like one that does not exist at all.
type Store interface {
	// Company methods
	CreateCompany(ctx context.Context, c *company.Company) error
	GetCompany(ctx context.Context, companyID id.CompanyID) (*company.Company, error)
	UpdateCompany(ctx context.Context, c *company.Company) error

	// Customer methods
	CreateCustomer(ctx context.Context, c *customer.Customer) error
	GetCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) (*customer.Customer, error)
	ListCustomers(ctx context.Context, companyID id.CompanyID) ([]*customer.Customer, error)
	UpdateCustomer(ctx context.Context, c *customer.Customer) error
	DeleteCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) error

	// Third-party payer methods
	CreatePayer(ctx context.Context, p *payer.ThirdPartyPayer) error
	GetPayer(ctx context.Context, companyID id.CompanyID, payerID id.PayerID) (*payer.ThirdPartyPayer, error)
	ListPayers(ctx context.Context, companyID id.CompanyID) ([]*payer.ThirdPartyPayer, error)

	// Subscription methods
	CreateSubscription(ctx context.Context, s *subscription.Subscription) error
	GetSubscription(ctx context.Context, companyID id.CompanyID, subID id.SubscriptionID) (*subscription.Subscription, error)
	ListSubscriptionsByCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) ([]*subscription.Subscription, error)
	UpdateSubscription(ctx context.Context, s *subscription.Subscription) error

	// Funding methods
	CreateFunding(ctx context.Context, f *funding.Funding) error
	GetFunding(ctx context.Context, companyID id.CompanyID, fundingID id.FundingID) (*funding.Funding, error)
	ListFundingsBySubscription(ctx context.Context, companyID id.CompanyID, subID id.SubscriptionID) ([]*funding.Funding, error)
	ListFundingsByCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) ([]*funding.Funding, error)
	UpdateFunding(ctx context.Context, f *funding.Funding) error
	ListFundingHistory(ctx context.Context, companyID id.CompanyID, fundingID id.FundingID, period string) ([]funding.History, error)

	// Event methods
	CreateEvent(ctx context.Context, e *event.Event) error
	GetEvent(ctx context.Context, companyID id.CompanyID, eventID id.EventID) (*event.Event, error)
	GetEvents(ctx context.Context, companyID id.CompanyID, eventIDs []id.EventID) ([]*event.Event, error)
	ListEventsByCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) ([]*event.Event, error)
	UpdateEvent(ctx context.Context, e *event.Event) error

	// Billing item methods
	CreateBillingItem(ctx context.Context, b *billingitem.BillingItem) error
	GetBillingItem(ctx context.Context, companyID id.CompanyID, itemID id.BillingItemID) (*billingitem.BillingItem, error)
	ListBillingItems(ctx context.Context, companyID id.CompanyID) ([]*billingitem.BillingItem, error)

	// Bill methods
	GetBill(ctx context.Context, companyID id.CompanyID, billID id.BillID) (*bill.Bill, error)
	ListBills(ctx context.Context, companyID id.CompanyID, opts bill.ListOpts) ([]*bill.Bill, error)
	DeleteBill(ctx context.Context, companyID id.CompanyID, billID id.BillID) error
	CountBillsByCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) (int64, error)

	// Credit note methods
	GetCreditNote(ctx context.Context, companyID id.CompanyID, noteID id.CreditNoteID) (*creditnote.CreditNote, error)
	ListCreditNotes(ctx context.Context, companyID id.CompanyID, opts creditnote.ListOpts) ([]*creditnote.CreditNote, error)
	DeleteCreditNote(ctx context.Context, companyID id.CompanyID, noteID id.CreditNoteID) error
	CountCreditNotesByCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) (int64, error)

	// Bill slip methods
	CreateBillSlip(ctx context.Context, s *billslip.BillSlip) error
	GetBillSlipByPayerMonth(ctx context.Context, companyID id.CompanyID, payerID id.PayerID, month string) (*billslip.BillSlip, error)
	ListBillSlips(ctx context.Context, companyID id.CompanyID) ([]*billslip.BillSlip, error)

	// NextSequence atomically increments and returns the counter for the
	// (company, kind, period) key. The increment must happen at the
	// storage layer, never as a read-then-write in application code.
	NextSequence(ctx context.Context, companyID id.CompanyID, kind sequence.Kind, period sequence.Period) (int64, error)

	// CreateDocumentBatch persists a billing run atomically.
	CreateDocumentBatch(ctx context.Context, companyID id.CompanyID, batch *DocumentBatch) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
