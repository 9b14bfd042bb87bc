// Package memory provides an in-memory Store implementation for testing
// and development. All data is lost when the process exits.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xraph/carebill"
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
	"github.com/xraph/carebill/store"
	"github.com/xraph/carebill/subscription"
)

type Store struct {
	mu sync.RWMutex

	companies     map[string]*company.Company
	customers     map[string]*customer.Customer
	payers        map[string]*payer.ThirdPartyPayer
	subscriptions map[string]*subscription.Subscription
	fundings      map[string]*funding.Funding
	histories     []funding.History
	events        map[string]*event.Event
	billingItems  map[string]*billingitem.BillingItem
	bills         map[string]*bill.Bill
	creditNotes   map[string]*creditnote.CreditNote
	billSlips     map[string]*billslip.BillSlip

	// sequences maps "companyID|kind|period" to the last issued value.
	sequences map[string]int64

	closed bool
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		companies:     make(map[string]*company.Company),
		customers:     make(map[string]*customer.Customer),
		payers:        make(map[string]*payer.ThirdPartyPayer),
		subscriptions: make(map[string]*subscription.Subscription),
		fundings:      make(map[string]*funding.Funding),
		histories:     make([]funding.History, 0),
		events:        make(map[string]*event.Event),
		billingItems:  make(map[string]*billingitem.BillingItem),
		bills:         make(map[string]*bill.Bill),
		creditNotes:   make(map[string]*creditnote.CreditNote),
		billSlips:     make(map[string]*billslip.BillSlip),
		sequences:     make(map[string]int64),
	}
}

// Company Store implementation

func (s *Store) CreateCompany(_ context.Context, c *company.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.companies[c.ID.String()]; exists {
		return carebill.ErrAlreadyExists
	}
	s.companies[c.ID.String()] = c
	return nil
}

func (s *Store) GetCompany(_ context.Context, companyID id.CompanyID) (*company.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.companies[companyID.String()]; ok {
		return c, nil
	}
	return nil, carebill.ErrCompanyNotFound
}

func (s *Store) UpdateCompany(_ context.Context, c *company.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.companies[c.ID.String()]; !ok {
		return carebill.ErrCompanyNotFound
	}
	s.companies[c.ID.String()] = c
	return nil
}

// Customer Store implementation

func (s *Store) CreateCustomer(_ context.Context, c *customer.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customers[c.ID.String()]; exists {
		return carebill.ErrAlreadyExists
	}
	s.customers[c.ID.String()] = c
	return nil
}

func (s *Store) GetCustomer(_ context.Context, companyID id.CompanyID, customerID id.CustomerID) (*customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.customers[customerID.String()]; ok && c.CompanyID == companyID {
		return c, nil
	}
	return nil, carebill.ErrCustomerNotFound
}

func (s *Store) ListCustomers(_ context.Context, companyID id.CompanyID) ([]*customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*customer.Customer
	for _, c := range s.customers {
		if c.CompanyID == companyID {
			out = append(out, c)
		}
	}
	sortByCreation(out, func(c *customer.Customer) string { return c.ID.String() })
	return out, nil
}

func (s *Store) UpdateCustomer(_ context.Context, c *customer.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.customers[c.ID.String()]
	if !ok || existing.CompanyID != c.CompanyID {
		return carebill.ErrCustomerNotFound
	}
	s.customers[c.ID.String()] = c
	return nil
}

func (s *Store) DeleteCustomer(_ context.Context, companyID id.CompanyID, customerID id.CustomerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.customers[customerID.String()]
	if !ok || c.CompanyID != companyID {
		return carebill.ErrCustomerNotFound
	}
	delete(s.customers, customerID.String())
	return nil
}

// Third-party payer Store implementation

func (s *Store) CreatePayer(_ context.Context, p *payer.ThirdPartyPayer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.payers[p.ID.String()]; exists {
		return carebill.ErrAlreadyExists
	}
	s.payers[p.ID.String()] = p
	return nil
}

func (s *Store) GetPayer(_ context.Context, companyID id.CompanyID, payerID id.PayerID) (*payer.ThirdPartyPayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.payers[payerID.String()]; ok && p.CompanyID == companyID {
		return p, nil
	}
	return nil, carebill.ErrPayerNotFound
}

func (s *Store) ListPayers(_ context.Context, companyID id.CompanyID) ([]*payer.ThirdPartyPayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*payer.ThirdPartyPayer
	for _, p := range s.payers {
		if p.CompanyID == companyID {
			out = append(out, p)
		}
	}
	sortByCreation(out, func(p *payer.ThirdPartyPayer) string { return p.ID.String() })
	return out, nil
}

// Subscription Store implementation

func (s *Store) CreateSubscription(_ context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subscriptions[sub.ID.String()]; exists {
		return carebill.ErrAlreadyExists
	}
	s.subscriptions[sub.ID.String()] = sub
	return nil
}

func (s *Store) GetSubscription(_ context.Context, companyID id.CompanyID, subID id.SubscriptionID) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sub, ok := s.subscriptions[subID.String()]; ok && sub.CompanyID == companyID {
		return sub, nil
	}
	return nil, carebill.ErrSubscriptionNotFound
}

func (s *Store) ListSubscriptionsByCustomer(_ context.Context, companyID id.CompanyID, customerID id.CustomerID) ([]*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*subscription.Subscription
	for _, sub := range s.subscriptions {
		if sub.CompanyID == companyID && sub.CustomerID == customerID {
			out = append(out, sub)
		}
	}
	sortByCreation(out, func(sub *subscription.Subscription) string { return sub.ID.String() })
	return out, nil
}

func (s *Store) UpdateSubscription(_ context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.subscriptions[sub.ID.String()]
	if !ok || existing.CompanyID != sub.CompanyID {
		return carebill.ErrSubscriptionNotFound
	}
	s.subscriptions[sub.ID.String()] = sub
	return nil
}

// Funding Store implementation

func (s *Store) CreateFunding(_ context.Context, f *funding.Funding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.fundings[f.ID.String()]; exists {
		return carebill.ErrAlreadyExists
	}
	s.fundings[f.ID.String()] = f
	return nil
}

func (s *Store) GetFunding(_ context.Context, companyID id.CompanyID, fundingID id.FundingID) (*funding.Funding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if f, ok := s.fundings[fundingID.String()]; ok && f.CompanyID == companyID {
		return f, nil
	}
	return nil, carebill.ErrFundingNotFound
}

func (s *Store) ListFundingsBySubscription(_ context.Context, companyID id.CompanyID, subID id.SubscriptionID) ([]*funding.Funding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*funding.Funding
	for _, f := range s.fundings {
		if f.CompanyID == companyID && f.SubscriptionID == subID {
			out = append(out, f)
		}
	}
	sortByCreation(out, func(f *funding.Funding) string { return f.ID.String() })
	return out, nil
}

func (s *Store) ListFundingsByCustomer(_ context.Context, companyID id.CompanyID, customerID id.CustomerID) ([]*funding.Funding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*funding.Funding
	for _, f := range s.fundings {
		if f.CompanyID == companyID && f.CustomerID == customerID {
			out = append(out, f)
		}
	}
	sortByCreation(out, func(f *funding.Funding) string { return f.ID.String() })
	return out, nil
}

func (s *Store) UpdateFunding(_ context.Context, f *funding.Funding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.fundings[f.ID.String()]
	if !ok || existing.CompanyID != f.CompanyID {
		return carebill.ErrFundingNotFound
	}
	s.fundings[f.ID.String()] = f
	return nil
}

func (s *Store) ListFundingHistory(_ context.Context, companyID id.CompanyID, fundingID id.FundingID, period string) ([]funding.History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []funding.History
	for _, h := range s.histories {
		if h.CompanyID != companyID || h.FundingID != fundingID {
			continue
		}
		if period != "" && h.Period != period {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

// Event Store implementation

func (s *Store) CreateEvent(_ context.Context, e *event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.events[e.ID.String()]; exists {
		return carebill.ErrAlreadyExists
	}
	s.events[e.ID.String()] = e
	return nil
}

func (s *Store) GetEvent(_ context.Context, companyID id.CompanyID, eventID id.EventID) (*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, ok := s.events[eventID.String()]; ok && e.CompanyID == companyID {
		return e, nil
	}
	return nil, carebill.ErrEventNotFound
}

func (s *Store) GetEvents(_ context.Context, companyID id.CompanyID, eventIDs []id.EventID) ([]*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*event.Event, 0, len(eventIDs))
	for _, eventID := range eventIDs {
		e, ok := s.events[eventID.String()]
		if !ok || e.CompanyID != companyID {
			return nil, fmt.Errorf("%w: %s", carebill.ErrEventNotFound, eventID)
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) ListEventsByCustomer(_ context.Context, companyID id.CompanyID, customerID id.CustomerID) ([]*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*event.Event
	for _, e := range s.events {
		if e.CompanyID == companyID && e.CustomerID == customerID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (s *Store) UpdateEvent(_ context.Context, e *event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.events[e.ID.String()]
	if !ok || existing.CompanyID != e.CompanyID {
		return carebill.ErrEventNotFound
	}
	s.events[e.ID.String()] = e
	return nil
}

// Billing item Store implementation

func (s *Store) CreateBillingItem(_ context.Context, b *billingitem.BillingItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.billingItems[b.ID.String()]; exists {
		return carebill.ErrAlreadyExists
	}
	s.billingItems[b.ID.String()] = b
	return nil
}

func (s *Store) GetBillingItem(_ context.Context, companyID id.CompanyID, itemID id.BillingItemID) (*billingitem.BillingItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if b, ok := s.billingItems[itemID.String()]; ok && b.CompanyID == companyID {
		return b, nil
	}
	return nil, carebill.ErrBillingItemNotFound
}

func (s *Store) ListBillingItems(_ context.Context, companyID id.CompanyID) ([]*billingitem.BillingItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*billingitem.BillingItem
	for _, b := range s.billingItems {
		if b.CompanyID == companyID {
			out = append(out, b)
		}
	}
	sortByCreation(out, func(b *billingitem.BillingItem) string { return b.ID.String() })
	return out, nil
}

// Bill Store implementation

func (s *Store) GetBill(_ context.Context, companyID id.CompanyID, billID id.BillID) (*bill.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if b, ok := s.bills[billID.String()]; ok && b.CompanyID == companyID {
		return b, nil
	}
	return nil, carebill.ErrBillNotFound
}

func (s *Store) ListBills(_ context.Context, companyID id.CompanyID, opts bill.ListOpts) ([]*bill.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*bill.Bill
	for _, b := range s.bills {
		if b.CompanyID != companyID {
			continue
		}
		if !opts.CustomerID.IsNil() && b.CustomerID != opts.CustomerID {
			continue
		}
		if !opts.PayerID.IsNil() && b.PayerID != opts.PayerID {
			continue
		}
		if opts.PayerOnly && b.PayerID.IsNil() {
			continue
		}
		if !opts.Start.IsZero() && b.Date.Before(opts.Start) {
			continue
		}
		if !opts.End.IsZero() && !b.Date.Before(opts.End) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return paginate(out, opts.Offset, opts.Limit), nil
}

func (s *Store) DeleteBill(_ context.Context, companyID id.CompanyID, billID id.BillID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bills[billID.String()]
	if !ok || b.CompanyID != companyID {
		return carebill.ErrBillNotFound
	}
	delete(s.bills, billID.String())
	return nil
}

func (s *Store) CountBillsByCustomer(_ context.Context, companyID id.CompanyID, customerID id.CustomerID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, b := range s.bills {
		if b.CompanyID == companyID && b.CustomerID == customerID {
			n++
		}
	}
	return n, nil
}

// Credit note Store implementation

func (s *Store) GetCreditNote(_ context.Context, companyID id.CompanyID, noteID id.CreditNoteID) (*creditnote.CreditNote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if cn, ok := s.creditNotes[noteID.String()]; ok && cn.CompanyID == companyID {
		return cn, nil
	}
	return nil, carebill.ErrCreditNoteNotFound
}

func (s *Store) ListCreditNotes(_ context.Context, companyID id.CompanyID, opts creditnote.ListOpts) ([]*creditnote.CreditNote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*creditnote.CreditNote
	for _, cn := range s.creditNotes {
		if cn.CompanyID != companyID {
			continue
		}
		if !opts.CustomerID.IsNil() && cn.CustomerID != opts.CustomerID {
			continue
		}
		if !opts.PayerID.IsNil() && cn.PayerID != opts.PayerID {
			continue
		}
		if opts.PayerOnly && cn.PayerID.IsNil() {
			continue
		}
		if !opts.Start.IsZero() && cn.Date.Before(opts.Start) {
			continue
		}
		if !opts.End.IsZero() && !cn.Date.Before(opts.End) {
			continue
		}
		out = append(out, cn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return paginate(out, opts.Offset, opts.Limit), nil
}

func (s *Store) DeleteCreditNote(_ context.Context, companyID id.CompanyID, noteID id.CreditNoteID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cn, ok := s.creditNotes[noteID.String()]
	if !ok || cn.CompanyID != companyID {
		return carebill.ErrCreditNoteNotFound
	}
	delete(s.creditNotes, noteID.String())
	return nil
}

func (s *Store) CountCreditNotesByCustomer(_ context.Context, companyID id.CompanyID, customerID id.CustomerID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, cn := range s.creditNotes {
		if cn.CompanyID == companyID && cn.CustomerID == customerID {
			n++
		}
	}
	return n, nil
}

// Bill slip Store implementation

func (s *Store) CreateBillSlip(_ context.Context, slip *billslip.BillSlip) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.billSlips[slip.ID.String()]; exists {
		return carebill.ErrAlreadyExists
	}
	for _, existing := range s.billSlips {
		if existing.CompanyID == slip.CompanyID && existing.PayerID == slip.PayerID && existing.Month == slip.Month {
			return carebill.ErrAlreadyExists
		}
	}
	s.billSlips[slip.ID.String()] = slip
	return nil
}

func (s *Store) GetBillSlipByPayerMonth(_ context.Context, companyID id.CompanyID, payerID id.PayerID, month string) (*billslip.BillSlip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, slip := range s.billSlips {
		if slip.CompanyID == companyID && slip.PayerID == payerID && slip.Month == month {
			return slip, nil
		}
	}
	return nil, carebill.ErrBillSlipNotFound
}

func (s *Store) ListBillSlips(_ context.Context, companyID id.CompanyID) ([]*billslip.BillSlip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*billslip.BillSlip
	for _, slip := range s.billSlips {
		if slip.CompanyID == companyID {
			out = append(out, slip)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

// Sequence and batch primitives

func (s *Store) NextSequence(_ context.Context, companyID id.CompanyID, kind sequence.Kind, period sequence.Period) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.Join([]string{companyID.String(), string(kind), string(period)}, "|")
	s.sequences[key]++
	return s.sequences[key], nil
}

func (s *Store) CreateDocumentBatch(_ context.Context, companyID id.CompanyID, batch *store.DocumentBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the whole batch before touching any map so a failure
	// leaves the store untouched, sequence counters included.
	for _, e := range batch.BilledEvents {
		existing, ok := s.events[e.ID.String()]
		if !ok || existing.CompanyID != companyID {
			return carebill.ErrEventNotFound
		}
		// The rebill guard holds against the latest persisted state,
		// not whatever the caller read earlier.
		if existing.IsBilled {
			return carebill.ErrEventAlreadyBilled
		}
	}
	for _, b := range batch.Bills {
		if b.CompanyID != companyID {
			return carebill.ErrBillNotFound
		}
		if _, exists := s.bills[b.ID.String()]; exists {
			return carebill.ErrAlreadyExists
		}
	}
	for _, cn := range batch.CreditNotes {
		if cn.CompanyID != companyID {
			return carebill.ErrCreditNoteNotFound
		}
		if _, exists := s.creditNotes[cn.ID.String()]; exists {
			return carebill.ErrAlreadyExists
		}
	}
	for _, slip := range batch.Slips {
		if slip.CompanyID != companyID {
			return carebill.ErrBillSlipNotFound
		}
		if _, exists := s.billSlips[slip.ID.String()]; exists {
			return carebill.ErrAlreadyExists
		}
		for _, existing := range s.billSlips {
			if existing.CompanyID == companyID && existing.PayerID == slip.PayerID && existing.Month == slip.Month {
				return carebill.ErrAlreadyExists
			}
		}
	}
	lockTargets := make([]*bill.Bill, 0, len(batch.LockBills))
	for _, billID := range batch.LockBills {
		existing, ok := s.bills[billID.String()]
		if !ok || existing.CompanyID != companyID {
			return carebill.ErrBillNotFound
		}
		lockTargets = append(lockTargets, existing)
	}

	// Draw numbers against staged counters; they commit with the rest.
	staged := map[string]int64{}
	draw := func(kind sequence.Kind, period sequence.Period) int64 {
		key := strings.Join([]string{companyID.String(), string(kind), string(period)}, "|")
		if _, ok := staged[key]; !ok {
			staged[key] = s.sequences[key]
		}
		staged[key]++
		return staged[key]
	}
	for _, b := range batch.Bills {
		if b.Number != "" {
			continue
		}
		if batch.RenderNumber == nil {
			return fmt.Errorf("%w: unnumbered bill without a number renderer", carebill.ErrInvalidInput)
		}
		period := sequence.PeriodOf(b.Date)
		b.Number = batch.RenderNumber(sequence.KindBill, period, draw(sequence.KindBill, period))
	}
	for _, cn := range batch.CreditNotes {
		if cn.Number != "" {
			continue
		}
		if batch.RenderNumber == nil {
			return fmt.Errorf("%w: unnumbered credit note without a number renderer", carebill.ErrInvalidInput)
		}
		period := sequence.PeriodOf(cn.Date)
		cn.Number = batch.RenderNumber(sequence.KindCreditNote, period, draw(sequence.KindCreditNote, period))
	}
	for _, slip := range batch.Slips {
		if slip.Number != "" {
			continue
		}
		if batch.RenderNumber == nil {
			return fmt.Errorf("%w: unnumbered bill slip without a number renderer", carebill.ErrInvalidInput)
		}
		period, err := sequence.PeriodOfMonth(slip.Month)
		if err != nil {
			return fmt.Errorf("%w: %v", carebill.ErrInvalidInput, err)
		}
		slip.Number = batch.RenderNumber(sequence.KindBillSlip, period, draw(sequence.KindBillSlip, period))
	}

	for _, b := range batch.Bills {
		for _, existing := range s.bills {
			if existing.CompanyID == companyID && existing.Number == b.Number {
				return carebill.ErrSequenceCollision
			}
		}
	}
	for _, cn := range batch.CreditNotes {
		for _, existing := range s.creditNotes {
			if existing.CompanyID == companyID && existing.Number == cn.Number {
				return carebill.ErrSequenceCollision
			}
		}
	}

	for key, seq := range staged {
		s.sequences[key] = seq
	}
	for _, b := range batch.Bills {
		s.bills[b.ID.String()] = b
	}
	for _, cn := range batch.CreditNotes {
		s.creditNotes[cn.ID.String()] = cn
	}
	for _, slip := range batch.Slips {
		s.billSlips[slip.ID.String()] = slip
	}
	for _, e := range batch.BilledEvents {
		s.events[e.ID.String()] = e
	}
	for _, b := range lockTargets {
		b.IsEditable = false
		b.Touch()
	}
	s.histories = append(s.histories, batch.FundingHistories...)
	return nil
}

// Core methods

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return carebill.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// sortByCreation orders map-derived slices deterministically by ID. Typeid
// suffixes are UUIDv7-based, so lexical ID order tracks creation order.
func sortByCreation[T any](items []T, key func(T) string) {
	sort.Slice(items, func(i, j int) bool { return key(items[i]) < key(items[j]) })
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
