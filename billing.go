package carebill

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/carebill/bill"
	"github.com/xraph/carebill/billing"
	"github.com/xraph/carebill/company"
	"github.com/xraph/carebill/event"
	"github.com/xraph/carebill/funding"
	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/payer"
	"github.com/xraph/carebill/sequence"
	"github.com/xraph/carebill/store"
	"github.com/xraph/carebill/subscription"
	"github.com/xraph/carebill/types"
)

// BillRun names the events of one customer to bill together.
type BillRun struct {
	CustomerID id.CustomerID
	EventIDs   []id.EventID
	// Date is the document date; it also selects the numbering period.
	Date time.Time
	// Discounts holds an optional inclusive-tax discount per subscription,
	// applied to the customer bill only.
	Discounts map[id.SubscriptionID]decimal.Decimal
}

// eventSplit pairs a billed event with its computed split and the pricing
// context it was resolved under.
type eventSplit struct {
	event *event.Event
	split billing.Split
	sub   *subscription.Subscription
	ver   subscription.Version
}

// ──────────────────────────────────────────────────
// Event Billing
// ──────────────────────────────────────────────────

// BillEvents bills a batch of events for one customer: one automatic bill
// for the customer's share plus one per third-party payer involved.
//
// Every write of the run commits atomically: event billing snapshots, the
// documents, and the funding consumption rows either all persist or none
// do. Rebilling an already-billed event fails the whole run.
func (e *Engine) BillEvents(ctx context.Context, companyID id.CompanyID, run BillRun) ([]*bill.Bill, error) {
	if len(run.EventIDs) == 0 {
		return nil, ValidationError{Field: "event_ids", Message: "at least one event is required"}
	}
	if run.Date.IsZero() {
		run.Date = e.now()
	}

	comp, err := e.store.GetCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	cust, err := e.store.GetCustomer(ctx, companyID, run.CustomerID)
	if err != nil {
		return nil, err
	}
	if cust.IsArchived() {
		return nil, ErrCustomerArchived
	}

	fetched, err := e.store.GetEvents(ctx, companyID, run.EventIDs)
	if err != nil {
		return nil, err
	}

	// Stamp copies, not the fetched records: a failed run must leave the
	// events exactly as they were, even behind a store that shares pointers.
	events := make([]*event.Event, len(fetched))
	for i, ev := range fetched {
		c := *ev
		events[i] = &c
	}

	splits, histories, err := e.splitEvents(ctx, companyID, run.CustomerID, events)
	if err != nil {
		return nil, err
	}

	bills, err := e.assembleBills(ctx, comp, cust.ID, run, splits)
	if err != nil {
		return nil, err
	}

	batch := &store.DocumentBatch{
		Bills:            bills,
		BilledEvents:     events,
		FundingHistories: histories,
		RenderNumber:     e.renderNumber(comp),
	}
	if err := e.store.CreateDocumentBatch(ctx, companyID, batch); err != nil {
		return nil, err
	}

	e.logger.Info("events billed",
		"customer_id", run.CustomerID.String(),
		"events", len(events),
		"bills", len(bills),
	)
	for _, ev := range events {
		e.plugins.EmitEventBilled(ctx, ev)
	}
	for _, b := range bills {
		e.plugins.EmitSequenceAllocated(ctx, string(sequence.KindBill), b.Number)
		e.plugins.EmitBillCreated(ctx, b)
	}

	return bills, nil
}

// PreviewEventBill computes the split an event would be billed at without
// persisting anything.
func (e *Engine) PreviewEventBill(ctx context.Context, companyID id.CompanyID, eventID id.EventID) (billing.Split, error) {
	ev, err := e.store.GetEvent(ctx, companyID, eventID)
	if err != nil {
		return billing.Split{}, err
	}

	// Work on a copy so the preview never mutates the stored event.
	preview := *ev
	splits, _, err := e.splitEvents(ctx, companyID, ev.CustomerID, []*event.Event{&preview})
	if err != nil {
		return billing.Split{}, err
	}
	return splits[0].split, nil
}

// splitEvents computes the customer/payer split of every event and mutates
// each event with its billing snapshot. Funding consumption is tracked
// across the batch so the cap applies to the run as a whole, and returned
// as ledger rows aggregated per funding and period.
func (e *Engine) splitEvents(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID, events []*event.Event) ([]eventSplit, []funding.History, error) {
	subs := map[string]*subscription.Subscription{}
	fundingsBySub := map[string][]*funding.Funding{}
	remaining := map[string]decimal.Decimal{}

	type consumption struct {
		fundingID id.FundingID
		period    string
		amount    decimal.Decimal
		hours     decimal.Decimal
	}
	consumed := map[string]*consumption{}
	var consumedOrder []string

	splits := make([]eventSplit, 0, len(events))

	for _, ev := range events {
		if ev.CustomerID != customerID {
			return nil, nil, fmt.Errorf("%w: %s", ErrEventNotFound, ev.ID)
		}
		if ev.IsBilled {
			return nil, nil, fmt.Errorf("%w: %s", ErrEventAlreadyBilled, ev.ID)
		}
		if ev.IsCancelled && ev.Cancellation != nil && !ev.Cancellation.Condition.RequiresBilling() {
			return nil, nil, fmt.Errorf("%w: %s", ErrEventCancelled, ev.ID)
		}

		sub, ok := subs[ev.SubscriptionID.String()]
		if !ok {
			var err error
			sub, err = e.store.GetSubscription(ctx, companyID, ev.SubscriptionID)
			if err != nil {
				return nil, nil, err
			}
			subs[ev.SubscriptionID.String()] = sub
		}

		ver, err := sub.VersionAt(ev.StartDate)
		if err != nil {
			return nil, nil, fmt.Errorf("event %s: %w", ev.ID, err)
		}

		price, err := billing.PriceEvent(ev, ver, sub.VAT, e.surcharges)
		if err != nil {
			return nil, nil, err
		}

		fund, fundVer, err := e.fundingFor(ctx, companyID, ev, fundingsBySub)
		if err != nil {
			return nil, nil, err
		}

		var split billing.Split
		if fund == nil {
			split = billing.CustomerOnly(price)
		} else {
			period := fund.PeriodKey(ev.StartDate)
			capKey := fund.ID.String() + "|" + period

			left, ok := remaining[capKey]
			if !ok {
				history, err := e.store.ListFundingHistory(ctx, companyID, fund.ID, period)
				if err != nil {
					return nil, nil, err
				}
				left = funding.Remaining(fundVer.AmountTTC, history)
			}

			split, err = billing.SplitWithFunding(price, fundVer, fund.ID, fund.PayerID, left, sub.VAT, e.capPolicy)
			if err != nil {
				return nil, nil, fmt.Errorf("event %s: %w", ev.ID, err)
			}
			if split.CapApplied {
				e.plugins.EmitCapExceeded(ctx, fund.ID.String(), period,
					price.InclTaxes.StringFixed(2), left.StringFixed(2))
			}

			remaining[capKey] = left.Sub(split.InclTaxesTpp)

			c, ok := consumed[capKey]
			if !ok {
				c = &consumption{fundingID: fund.ID, period: period}
				consumed[capKey] = c
				consumedOrder = append(consumedOrder, capKey)
			}
			c.amount = c.amount.Add(split.InclTaxesTpp)
			c.hours = c.hours.Add(split.CareHours)
		}

		ev.Bills = split.Snapshot()
		ev.IsBilled = true
		ev.Touch()

		splits = append(splits, eventSplit{event: ev, split: split, sub: sub, ver: ver})
	}

	histories := make([]funding.History, 0, len(consumedOrder))
	for _, key := range consumedOrder {
		c := consumed[key]
		histories = append(histories, funding.History{
			Entity:    types.NewEntity(),
			FundingID: c.fundingID,
			CompanyID: companyID,
			Period:    c.period,
			AmountTTC: c.amount,
			CareHours: c.hours,
		})
	}

	return splits, histories, nil
}

// fundingFor resolves the funding covering an event, or nil when the event
// is unfunded. A funding applies when one of its versions is active at the
// event start and that version covers the event's weekday.
func (e *Engine) fundingFor(ctx context.Context, companyID id.CompanyID, ev *event.Event, cache map[string][]*funding.Funding) (*funding.Funding, funding.Version, error) {
	key := ev.SubscriptionID.String()
	fundings, ok := cache[key]
	if !ok {
		var err error
		fundings, err = e.store.ListFundingsBySubscription(ctx, companyID, ev.SubscriptionID)
		if err != nil {
			return nil, funding.Version{}, err
		}
		cache[key] = fundings
	}

	for _, f := range fundings {
		ver, err := f.VersionAt(ev.StartDate)
		if err != nil {
			continue
		}
		if !ver.CoversDay(ev.StartDate.Weekday()) {
			continue
		}
		return f, ver, nil
	}

	return nil, funding.Version{}, nil
}

// assembleBills groups the splits into one customer bill plus one bill per
// directly billed third-party payer. Shares funded by an indirect payer stay
// on the customer bill; the customer is reimbursed outside this system.
func (e *Engine) assembleBills(ctx context.Context, comp *company.Company, customerID id.CustomerID, run BillRun, splits []eventSplit) ([]*bill.Bill, error) {
	customerGroups := newGroupSet()
	payerGroups := map[string]*groupSet{}
	payerCache := map[string]*payer.ThirdPartyPayer{}
	var payerOrder []id.PayerID

	for _, s := range splits {
		line := bill.EventLine{
			EventID:     s.event.ID,
			AuxiliaryID: s.event.AuxiliaryID,
			StartDate:   s.event.StartDate,
			EndDate:     s.event.EndDate,
			CareHours:   s.split.CareHours,
			FundingID:   s.split.FundingID,
		}

		custLine := line
		custLine.InclTaxes = s.split.InclTaxesCustomer
		custLine.ExclTaxes = s.split.ExclTaxesCustomer

		if s.split.PayerID != (id.PayerID{}) {
			p, ok := payerCache[s.split.PayerID.String()]
			if !ok {
				var err error
				p, err = e.store.GetPayer(ctx, comp.ID, s.split.PayerID)
				if err != nil {
					return nil, err
				}
				payerCache[s.split.PayerID.String()] = p
			}

			if p.BillingMode == payer.BillingIndirect {
				custLine.InclTaxes = custLine.InclTaxes.Add(s.split.InclTaxesTpp)
				custLine.ExclTaxes = custLine.ExclTaxes.Add(s.split.ExclTaxesTpp)
			} else {
				gs, ok := payerGroups[s.split.PayerID.String()]
				if !ok {
					gs = newGroupSet()
					payerGroups[s.split.PayerID.String()] = gs
					payerOrder = append(payerOrder, s.split.PayerID)
				}
				payerLine := line
				payerLine.InclTaxes = s.split.InclTaxesTpp
				payerLine.ExclTaxes = s.split.ExclTaxesTpp
				gs.add(s.sub, s.ver, payerLine)
			}
		}

		customerGroups.add(s.sub, s.ver, custLine)
	}

	bills := make([]*bill.Bill, 0, 1+len(payerOrder))
	bills = append(bills, newAutomaticBill(comp, customerID, id.Nil, run.Date, customerGroups.finish(run.Discounts)))

	for _, payerID := range payerOrder {
		gs := payerGroups[payerID.String()]
		bills = append(bills, newAutomaticBill(comp, customerID, payerID, run.Date, gs.finish(nil)))
	}

	return bills, nil
}

// newAutomaticBill builds an automatic bill from subscription groups. The
// number stays empty here; the store assigns it inside the batch commit.
func newAutomaticBill(comp *company.Company, customerID id.CustomerID, payerID id.PayerID, date time.Time, groups []bill.SubscriptionGroup) *bill.Bill {
	net := decimal.Zero
	for _, g := range groups {
		net = net.Add(g.InclTaxes).Sub(g.Discount)
	}

	return &bill.Bill{
		Entity:        types.NewEntity(),
		ID:            id.NewBillID(),
		CompanyID:     comp.ID,
		CustomerID:    customerID,
		PayerID:       payerID,
		Date:          date,
		Type:          bill.TypeAutomatic,
		Origin:        bill.OriginInternal,
		NetInclTaxes:  types.Round2(net),
		Subscriptions: groups,
		IsEditable:    true,
	}
}

// renderNumber returns the number renderer for batch writes. A registered
// NumberFormatter plugin overrides the default format for its kind.
func (e *Engine) renderNumber(comp *company.Company) func(kind sequence.Kind, period sequence.Period, seq int64) string {
	return func(kind sequence.Kind, period sequence.Period, seq int64) string {
		if f := e.plugins.GetNumberFormatter(string(kind)); f != nil {
			return f.FormatNumber(comp.Code, string(period), seq)
		}
		return sequence.Format(kind, comp.Code, period, seq)
	}
}

// allocateNumber draws and renders the next number for standalone
// allocations such as quotes, where the draw itself is the persisted
// outcome. Documents created through a batch are numbered by the store
// inside the batch boundary instead.
func (e *Engine) allocateNumber(ctx context.Context, comp *company.Company, kind sequence.Kind, at time.Time) (string, error) {
	period := sequence.PeriodOf(at)

	seq, err := e.store.NextSequence(ctx, comp.ID, kind, period)
	if err != nil {
		return "", err
	}

	number := e.renderNumber(comp)(kind, period, seq)
	e.plugins.EmitSequenceAllocated(ctx, string(kind), number)
	return number, nil
}

// ──────────────────────────────────────────────────
// Subscription grouping
// ──────────────────────────────────────────────────

// groupSet accumulates event lines per subscription, in first-seen order.
type groupSet struct {
	groups map[string]*groupAcc
	order  []string
}

type groupAcc struct {
	sub       *subscription.Subscription
	lines     []bill.EventLine
	hours     decimal.Decimal
	incl      decimal.Decimal
	excl      decimal.Decimal
	rateHours decimal.Decimal
}

func newGroupSet() *groupSet {
	return &groupSet{groups: map[string]*groupAcc{}}
}

func (gs *groupSet) add(sub *subscription.Subscription, ver subscription.Version, line bill.EventLine) {
	key := sub.ID.String()
	g, ok := gs.groups[key]
	if !ok {
		g = &groupAcc{sub: sub}
		gs.groups[key] = g
		gs.order = append(gs.order, key)
	}

	g.lines = append(g.lines, line)
	g.hours = g.hours.Add(line.CareHours)
	g.incl = g.incl.Add(line.InclTaxes)
	g.excl = g.excl.Add(line.ExclTaxes)
	g.rateHours = g.rateHours.Add(ver.UnitRate.Mul(line.CareHours))
}

// finish renders the accumulated groups. Unit rates are hour-weighted
// averages across the group's events.
func (gs *groupSet) finish(discounts map[id.SubscriptionID]decimal.Decimal) []bill.SubscriptionGroup {
	out := make([]bill.SubscriptionGroup, 0, len(gs.order))
	for _, key := range gs.order {
		g := gs.groups[key]

		unitIncl := decimal.Zero
		if g.hours.IsPositive() {
			unitIncl = g.rateHours.DivRound(g.hours, 8)
		}

		discount := decimal.Zero
		if discounts != nil {
			if d, ok := discounts[g.sub.ID]; ok {
				discount = d
			}
		}

		out = append(out, bill.SubscriptionGroup{
			SubscriptionID: g.sub.ID,
			ServiceName:    g.sub.ServiceName,
			Events:         g.lines,
			Hours:          g.hours,
			UnitExclTaxes:  types.Round2(types.ExclTaxes(unitIncl, g.sub.VAT)),
			UnitInclTaxes:  types.Round2(unitIncl),
			ExclTaxes:      types.Round2(g.excl),
			InclTaxes:      types.Round2(g.incl),
			Discount:       types.Round2(discount),
			VAT:            g.sub.VAT,
		})
	}
	return out
}
