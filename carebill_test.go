package carebill_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/carebill"
	"github.com/xraph/carebill/bill"
	"github.com/xraph/carebill/billing"
	"github.com/xraph/carebill/billingitem"
	"github.com/xraph/carebill/company"
	"github.com/xraph/carebill/customer"
	"github.com/xraph/carebill/event"
	"github.com/xraph/carebill/funding"
	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/payer"
	"github.com/xraph/carebill/store/memory"
	"github.com/xraph/carebill/subscription"
	"github.com/xraph/carebill/types"
)

var allDays = []time.Weekday{
	time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
	time.Thursday, time.Friday, time.Saturday,
}

// fixture assembles a started engine with one company, customer,
// subscription and payer.
type fixture struct {
	eng   *carebill.Engine
	comp  *company.Company
	cust  *customer.Customer
	sub   *subscription.Subscription
	payer *payer.ThirdPartyPayer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	eng := carebill.New(memory.New())
	require.NoError(t, eng.Start(ctx))
	t.Cleanup(func() { _ = eng.Stop() })

	comp := &company.Company{Name: "Alenvi", Code: "101"}
	require.NoError(t, eng.CreateCompany(ctx, comp))

	cust := &customer.Customer{
		CompanyID: comp.ID,
		Identity:  customer.Identity{FirstName: "Jeanne", LastName: "Durand"},
	}
	require.NoError(t, eng.CreateCustomer(ctx, cust))

	sub := &subscription.Subscription{
		CompanyID:   comp.ID,
		CustomerID:  cust.ID,
		ServiceName: "home care",
		Versions: []subscription.Version{
			{UnitRate: types.Dec("20"), StartDate: date(2019, 1, 1)},
		},
	}
	require.NoError(t, eng.CreateSubscription(ctx, sub))

	p := &payer.ThirdPartyPayer{
		CompanyID:   comp.ID,
		Name:        "Conseil départemental",
		BillingMode: payer.BillingDirect,
	}
	require.NoError(t, eng.CreatePayer(ctx, p))

	return &fixture{eng: eng, comp: comp, cust: cust, sub: sub, payer: p}
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// addFunding attaches a monthly funding to the fixture subscription:
// cap amountTTC, customer keeps participationRate percent.
func (f *fixture) addFunding(t *testing.T, amountTTC, participationRate string) *funding.Funding {
	t.Helper()
	fund := &funding.Funding{
		CompanyID:      f.comp.ID,
		CustomerID:     f.cust.ID,
		SubscriptionID: f.sub.ID,
		PayerID:        f.payer.ID,
		Nature:         funding.NatureFixed,
		Frequency:      funding.FrequencyMonthly,
		Versions: []funding.Version{{
			AmountTTC:                 types.Dec(amountTTC),
			CustomerParticipationRate: types.Dec(participationRate),
			CareDays:                  allDays,
			StartDate:                 date(2019, 1, 1),
		}},
	}
	require.NoError(t, f.eng.CreateFunding(context.Background(), fund))
	return fund
}

// addEvent schedules an intervention of the given length in hours.
func (f *fixture) addEvent(t *testing.T, start time.Time, hours int) *event.Event {
	t.Helper()
	ev := &event.Event{
		CompanyID:      f.comp.ID,
		CustomerID:     f.cust.ID,
		SubscriptionID: f.sub.ID,
		StartDate:      start,
		EndDate:        start.Add(time.Duration(hours) * time.Hour),
	}
	require.NoError(t, f.eng.CreateEvent(context.Background(), ev))
	return ev
}

func TestBillEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("funded event splits between payer and customer", func(t *testing.T) {
		f := newFixture(t)
		fund := f.addFunding(t, "120", "10")
		ev := f.addEvent(t, date(2019, 5, 6).Add(10*time.Hour), 1)

		bills, err := f.eng.BillEvents(ctx, f.comp.ID, carebill.BillRun{
			CustomerID: f.cust.ID,
			EventIDs:   []id.EventID{ev.ID},
			Date:       date(2019, 5, 31),
		})
		require.NoError(t, err)
		require.Len(t, bills, 2)

		custBill, payerBill := bills[0], bills[1]
		assert.True(t, custBill.PayerID.IsNil())
		assert.Equal(t, f.payer.ID, payerBill.PayerID)
		assert.True(t, custBill.NetInclTaxes.Equal(types.Dec("2")), "customer: %s", custBill.NetInclTaxes)
		assert.True(t, payerBill.NetInclTaxes.Equal(types.Dec("18")), "payer: %s", payerBill.NetInclTaxes)
		assert.Equal(t, "FACT-101190500001", custBill.Number)
		assert.Equal(t, "FACT-101190500002", payerBill.Number)

		stored, err := f.eng.GetEvent(ctx, f.comp.ID, ev.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsBilled)
		require.NotNil(t, stored.Bills)
		assert.True(t, stored.Bills.InclTaxesTpp.Equal(types.Dec("18")))
		assert.True(t, stored.Bills.InclTaxesCustomer.Equal(types.Dec("2")))

		remaining, err := f.eng.FundingRemaining(ctx, f.comp.ID, fund.ID, "2019-05")
		require.NoError(t, err)
		assert.True(t, remaining.Equal(types.Dec("102")), "remaining: %s", remaining)
	})

	t.Run("second billing attempt fails with conflict", func(t *testing.T) {
		f := newFixture(t)
		f.addFunding(t, "120", "10")
		ev := f.addEvent(t, date(2019, 5, 6).Add(10*time.Hour), 1)

		run := carebill.BillRun{CustomerID: f.cust.ID, EventIDs: []id.EventID{ev.ID}}
		_, err := f.eng.BillEvents(ctx, f.comp.ID, run)
		require.NoError(t, err)

		_, err = f.eng.BillEvents(ctx, f.comp.ID, run)
		require.Error(t, err)
		assert.ErrorIs(t, err, carebill.ErrEventAlreadyBilled)
		assert.True(t, carebill.IsConflict(err))
	})

	t.Run("unfunded event bills the customer in full", func(t *testing.T) {
		f := newFixture(t)
		ev := f.addEvent(t, date(2019, 5, 6).Add(10*time.Hour), 2)

		bills, err := f.eng.BillEvents(ctx, f.comp.ID, carebill.BillRun{
			CustomerID: f.cust.ID,
			EventIDs:   []id.EventID{ev.ID},
		})
		require.NoError(t, err)
		require.Len(t, bills, 1)
		assert.True(t, bills[0].NetInclTaxes.Equal(types.Dec("40")))
	})

	t.Run("cap limits the payer share across the run", func(t *testing.T) {
		f := newFixture(t)
		// Cap 30 with full coverage: first event takes 20, second gets
		// only the remaining 10.
		f.addFunding(t, "30", "0")
		ev1 := f.addEvent(t, date(2019, 5, 6).Add(10*time.Hour), 1)
		ev2 := f.addEvent(t, date(2019, 5, 7).Add(10*time.Hour), 1)

		bills, err := f.eng.BillEvents(ctx, f.comp.ID, carebill.BillRun{
			CustomerID: f.cust.ID,
			EventIDs:   []id.EventID{ev1.ID, ev2.ID},
		})
		require.NoError(t, err)
		require.Len(t, bills, 2)

		custBill, payerBill := bills[0], bills[1]
		assert.True(t, payerBill.NetInclTaxes.Equal(types.Dec("30")), "payer: %s", payerBill.NetInclTaxes)
		assert.True(t, custBill.NetInclTaxes.Equal(types.Dec("10")), "customer: %s", custBill.NetInclTaxes)
	})

	t.Run("cap policy reject fails the run", func(t *testing.T) {
		ctx := context.Background()
		st := memory.New()
		eng := carebill.New(st, carebill.WithCapPolicy(billing.CapPolicyReject))
		require.NoError(t, eng.Start(ctx))
		t.Cleanup(func() { _ = eng.Stop() })

		comp := &company.Company{Name: "Alenvi", Code: "101"}
		require.NoError(t, eng.CreateCompany(ctx, comp))
		cust := &customer.Customer{CompanyID: comp.ID, Identity: customer.Identity{LastName: "Durand"}}
		require.NoError(t, eng.CreateCustomer(ctx, cust))
		sub := &subscription.Subscription{
			CompanyID: comp.ID, CustomerID: cust.ID, ServiceName: "home care",
			Versions: []subscription.Version{{UnitRate: types.Dec("20"), StartDate: date(2019, 1, 1)}},
		}
		require.NoError(t, eng.CreateSubscription(ctx, sub))
		p := &payer.ThirdPartyPayer{CompanyID: comp.ID, Name: "CD", BillingMode: payer.BillingDirect}
		require.NoError(t, eng.CreatePayer(ctx, p))
		fund := &funding.Funding{
			CompanyID: comp.ID, CustomerID: cust.ID, SubscriptionID: sub.ID, PayerID: p.ID,
			Nature: funding.NatureFixed, Frequency: funding.FrequencyMonthly,
			Versions: []funding.Version{{
				AmountTTC:                 types.Dec("10"),
				CustomerParticipationRate: types.Dec("0"),
				CareDays:                  allDays,
				StartDate:                 date(2019, 1, 1),
			}},
		}
		require.NoError(t, eng.CreateFunding(ctx, fund))

		ev := &event.Event{
			CompanyID: comp.ID, CustomerID: cust.ID, SubscriptionID: sub.ID,
			StartDate: date(2019, 5, 6).Add(10 * time.Hour),
			EndDate:   date(2019, 5, 6).Add(11 * time.Hour),
		}
		require.NoError(t, eng.CreateEvent(ctx, ev))

		_, err := eng.BillEvents(ctx, comp.ID, carebill.BillRun{
			CustomerID: cust.ID, EventIDs: []id.EventID{ev.ID},
		})
		assert.ErrorIs(t, err, carebill.ErrFundingCapExceeded)
	})

	t.Run("failed run persists nothing", func(t *testing.T) {
		f := newFixture(t)
		f.addFunding(t, "120", "10")
		ev1 := f.addEvent(t, date(2019, 5, 6).Add(10*time.Hour), 1)
		ev2 := f.addEvent(t, date(2019, 5, 7).Add(10*time.Hour), 1)

		// Bill ev2 alone, then try a run containing both: it must fail
		// and leave ev1 untouched.
		_, err := f.eng.BillEvents(ctx, f.comp.ID, carebill.BillRun{
			CustomerID: f.cust.ID, EventIDs: []id.EventID{ev2.ID},
			Date: date(2019, 5, 31),
		})
		require.NoError(t, err)

		_, err = f.eng.BillEvents(ctx, f.comp.ID, carebill.BillRun{
			CustomerID: f.cust.ID, EventIDs: []id.EventID{ev1.ID, ev2.ID},
			Date: date(2019, 5, 31),
		})
		require.ErrorIs(t, err, carebill.ErrEventAlreadyBilled)

		stored, err := f.eng.GetEvent(ctx, f.comp.ID, ev1.ID)
		require.NoError(t, err)
		assert.False(t, stored.IsBilled)

		// The failed run must not have burned numbers: the next bill
		// continues the sequence without a gap.
		bills, err := f.eng.BillEvents(ctx, f.comp.ID, carebill.BillRun{
			CustomerID: f.cust.ID, EventIDs: []id.EventID{ev1.ID},
			Date: date(2019, 5, 31),
		})
		require.NoError(t, err)
		require.Len(t, bills, 2)
		assert.Equal(t, "FACT-101190500003", bills[0].Number)
	})

	t.Run("groups events by subscription with weighted unit rate", func(t *testing.T) {
		f := newFixture(t)
		ev1 := f.addEvent(t, date(2019, 5, 6).Add(10*time.Hour), 1)

		// Second version doubles the rate from mid-month.
		require.NoError(t, f.eng.AddSubscriptionVersion(ctx, f.comp.ID, f.sub.ID, subscription.Version{
			UnitRate:  types.Dec("40"),
			StartDate: date(2019, 5, 15),
		}))
		ev2 := f.addEvent(t, date(2019, 5, 20).Add(10*time.Hour), 1)

		bills, err := f.eng.BillEvents(ctx, f.comp.ID, carebill.BillRun{
			CustomerID: f.cust.ID, EventIDs: []id.EventID{ev1.ID, ev2.ID},
		})
		require.NoError(t, err)
		require.Len(t, bills, 1)
		require.Len(t, bills[0].Subscriptions, 1)

		group := bills[0].Subscriptions[0]
		assert.True(t, group.Hours.Equal(types.Dec("2")))
		assert.True(t, group.UnitInclTaxes.Equal(types.Dec("30")), "unit: %s", group.UnitInclTaxes)
		assert.True(t, group.InclTaxes.Equal(types.Dec("60")))
		assert.True(t, bills[0].NetInclTaxes.Equal(types.Dec("60")))
	})

	t.Run("rejects events before any pricing version", func(t *testing.T) {
		f := newFixture(t)
		ev := f.addEvent(t, date(2018, 5, 6).Add(10*time.Hour), 1)

		_, err := f.eng.BillEvents(ctx, f.comp.ID, carebill.BillRun{
			CustomerID: f.cust.ID, EventIDs: []id.EventID{ev.ID},
		})
		assert.ErrorIs(t, err, carebill.ErrVersionNotFound)
	})
}

func TestManualBills(t *testing.T) {
	ctx := context.Background()

	t.Run("requires at least one line", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.eng.CreateManualBill(ctx, f.comp.ID, f.cust.ID, date(2019, 5, 31), nil)
		assert.ErrorIs(t, err, carebill.ErrEmptyBillingItems)
	})

	t.Run("nets count times unit price", func(t *testing.T) {
		f := newFixture(t)
		item := &billingitem.BillingItem{
			CompanyID:     f.comp.ID,
			Name:          "protective gloves",
			UnitInclTaxes: types.Dec("2.50"),
		}
		require.NoError(t, f.eng.CreateBillingItem(ctx, item))

		b, err := f.eng.CreateManualBill(ctx, f.comp.ID, f.cust.ID, date(2019, 5, 31), []carebill.ManualLine{
			{BillingItemID: item.ID, Count: 4},
		})
		require.NoError(t, err)
		assert.Equal(t, bill.TypeManual, b.Type)
		assert.True(t, b.NetInclTaxes.Equal(types.Dec("10")), "net: %s", b.NetInclTaxes)
		require.Len(t, b.BillingItems, 1)
		assert.EqualValues(t, 4, b.BillingItems[0].Count)
	})
}

func TestCreditNotes(t *testing.T) {
	ctx := context.Background()

	t.Run("payer reversal creates a linked pair with consecutive numbers", func(t *testing.T) {
		f := newFixture(t)

		notes, err := f.eng.CreateCreditNote(ctx, f.comp.ID, carebill.CreditNoteInput{
			CustomerID:        f.cust.ID,
			PayerID:           f.payer.ID,
			SubscriptionID:    f.sub.ID,
			Date:              date(2019, 5, 31),
			InclTaxesCustomer: types.Dec("2"),
			InclTaxesTpp:      types.Dec("18"),
		})
		require.NoError(t, err)
		require.Len(t, notes, 2)

		custNote, payerNote := notes[0], notes[1]
		assert.Equal(t, "AV-101190500001", custNote.Number)
		assert.Equal(t, "AV-101190500002", payerNote.Number)
		assert.Equal(t, payerNote.ID, custNote.LinkedCreditNoteID)
		assert.Equal(t, custNote.ID, payerNote.LinkedCreditNoteID)
		assert.True(t, payerNote.InclTaxesTpp.Equal(types.Dec("18")))
	})

	t.Run("customer-only reversal creates a single note", func(t *testing.T) {
		f := newFixture(t)

		notes, err := f.eng.CreateCreditNote(ctx, f.comp.ID, carebill.CreditNoteInput{
			CustomerID:        f.cust.ID,
			Date:              date(2019, 5, 31),
			InclTaxesCustomer: types.Dec("20"),
		})
		require.NoError(t, err)
		require.Len(t, notes, 1)
		assert.True(t, notes[0].LinkedCreditNoteID.IsNil())
	})

	t.Run("deleting one side of a pair removes both", func(t *testing.T) {
		f := newFixture(t)

		notes, err := f.eng.CreateCreditNote(ctx, f.comp.ID, carebill.CreditNoteInput{
			CustomerID:        f.cust.ID,
			PayerID:           f.payer.ID,
			Date:              date(2019, 5, 31),
			InclTaxesCustomer: types.Dec("2"),
			InclTaxesTpp:      types.Dec("18"),
		})
		require.NoError(t, err)

		require.NoError(t, f.eng.DeleteCreditNote(ctx, f.comp.ID, notes[0].ID))

		_, err = f.eng.GetCreditNote(ctx, f.comp.ID, notes[1].ID)
		assert.True(t, carebill.IsNotFound(err))
	})

	t.Run("payer share requires a payer", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.eng.CreateCreditNote(ctx, f.comp.ID, carebill.CreditNoteInput{
			CustomerID:   f.cust.ID,
			InclTaxesTpp: types.Dec("18"),
		})
		assert.True(t, carebill.IsValidation(err))
	})
}

func TestCustomerLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("stop requires a known reason", func(t *testing.T) {
		f := newFixture(t)
		err := f.eng.StopCustomer(ctx, f.comp.ID, f.cust.ID, time.Now(), "boredom")
		assert.ErrorIs(t, err, carebill.ErrInvalidStopReason)
	})

	t.Run("stop rejects dates before creation", func(t *testing.T) {
		f := newFixture(t)
		err := f.eng.StopCustomer(ctx, f.comp.ID, f.cust.ID, date(2000, 1, 1), customer.StopReasonOther)
		assert.ErrorIs(t, err, carebill.ErrInvalidStopDate)
	})

	t.Run("stopping twice conflicts", func(t *testing.T) {
		f := newFixture(t)
		stoppedAt := time.Now().Add(time.Hour)
		require.NoError(t, f.eng.StopCustomer(ctx, f.comp.ID, f.cust.ID, stoppedAt, customer.StopReasonDeath))

		err := f.eng.StopCustomer(ctx, f.comp.ID, f.cust.ID, stoppedAt.Add(time.Hour), customer.StopReasonOther)
		assert.ErrorIs(t, err, carebill.ErrCustomerStopped)
	})

	t.Run("archive requires stop first", func(t *testing.T) {
		f := newFixture(t)
		err := f.eng.ArchiveCustomer(ctx, f.comp.ID, f.cust.ID, time.Now())
		assert.ErrorIs(t, err, carebill.ErrCustomerNotStopped)
	})

	t.Run("unbilled event blocks archive until billed", func(t *testing.T) {
		f := newFixture(t)
		stoppedAt := time.Now().Add(time.Hour)
		ev := f.addEvent(t, stoppedAt.Add(24*time.Hour), 1)

		require.NoError(t, f.eng.StopCustomer(ctx, f.comp.ID, f.cust.ID, stoppedAt, customer.StopReasonNursingHome))

		err := f.eng.ArchiveCustomer(ctx, f.comp.ID, f.cust.ID, stoppedAt.Add(48*time.Hour))
		require.ErrorIs(t, err, carebill.ErrUnbilledEvents)

		_, err = f.eng.BillEvents(ctx, f.comp.ID, carebill.BillRun{
			CustomerID: f.cust.ID, EventIDs: []id.EventID{ev.ID},
		})
		require.NoError(t, err)

		assert.NoError(t, f.eng.ArchiveCustomer(ctx, f.comp.ID, f.cust.ID, stoppedAt.Add(48*time.Hour)))
	})

	t.Run("cancelled write-off event does not block archive", func(t *testing.T) {
		f := newFixture(t)
		stoppedAt := time.Now().Add(time.Hour)
		ev := f.addEvent(t, stoppedAt.Add(24*time.Hour), 1)
		require.NoError(t, f.eng.CancelEvent(ctx, f.comp.ID, ev.ID, event.Cancellation{
			Condition: event.ConditionNotInvoicedAndNotPaid,
		}))

		require.NoError(t, f.eng.StopCustomer(ctx, f.comp.ID, f.cust.ID, stoppedAt, customer.StopReasonOther))
		assert.NoError(t, f.eng.ArchiveCustomer(ctx, f.comp.ID, f.cust.ID, stoppedAt.Add(48*time.Hour)))
	})

	t.Run("cancelled to-invoice event blocks archive", func(t *testing.T) {
		f := newFixture(t)
		stoppedAt := time.Now().Add(time.Hour)
		ev := f.addEvent(t, stoppedAt.Add(24*time.Hour), 1)
		require.NoError(t, f.eng.CancelEvent(ctx, f.comp.ID, ev.ID, event.Cancellation{
			Condition: event.ConditionInvoicedAndNotPaid,
		}))

		require.NoError(t, f.eng.StopCustomer(ctx, f.comp.ID, f.cust.ID, stoppedAt, customer.StopReasonOther))
		err := f.eng.ArchiveCustomer(ctx, f.comp.ID, f.cust.ID, stoppedAt.Add(48*time.Hour))
		assert.ErrorIs(t, err, carebill.ErrUnbilledEvents)
	})

	t.Run("customers with documents cannot be deleted", func(t *testing.T) {
		f := newFixture(t)
		ev := f.addEvent(t, date(2019, 5, 6).Add(10*time.Hour), 1)
		_, err := f.eng.BillEvents(ctx, f.comp.ID, carebill.BillRun{
			CustomerID: f.cust.ID, EventIDs: []id.EventID{ev.ID},
		})
		require.NoError(t, err)

		err = f.eng.DeleteCustomer(ctx, f.comp.ID, f.cust.ID)
		assert.ErrorIs(t, err, carebill.ErrCustomerHasDocuments)
	})

	t.Run("customers without documents can be deleted", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.eng.DeleteCustomer(ctx, f.comp.ID, f.cust.ID))

		_, err := f.eng.GetCustomer(ctx, f.comp.ID, f.cust.ID)
		assert.True(t, carebill.IsNotFound(err))
	})
}

func TestDeleteBill(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ev := f.addEvent(t, date(2019, 5, 6).Add(10*time.Hour), 1)

	bills, err := f.eng.BillEvents(ctx, f.comp.ID, carebill.BillRun{
		CustomerID: f.cust.ID, EventIDs: []id.EventID{ev.ID},
	})
	require.NoError(t, err)

	t.Run("internal editable bill goes", func(t *testing.T) {
		require.NoError(t, f.eng.DeleteBill(ctx, f.comp.ID, bills[0].ID))
		_, err := f.eng.GetBill(ctx, f.comp.ID, bills[0].ID)
		assert.True(t, carebill.IsNotFound(err))
	})
}

func TestBillSlips(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addFunding(t, "1000", "10")
	ev1 := f.addEvent(t, date(2019, 5, 6).Add(10*time.Hour), 1)
	ev2 := f.addEvent(t, date(2019, 5, 7).Add(10*time.Hour), 1)

	_, err := f.eng.BillEvents(ctx, f.comp.ID, carebill.BillRun{
		CustomerID: f.cust.ID,
		EventIDs:   []id.EventID{ev1.ID, ev2.ID},
		Date:       date(2019, 5, 31),
	})
	require.NoError(t, err)

	t.Run("report without slip skips the pair", func(t *testing.T) {
		rows, err := f.eng.BillSlipReport(ctx, f.comp.ID)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	slips, err := f.eng.GenerateBillSlips(ctx, f.comp.ID)
	require.NoError(t, err)
	require.Len(t, slips, 1)
	assert.Equal(t, "BORD-101190500001", slips[0].Number)

	t.Run("report sums payer bills for the month", func(t *testing.T) {
		rows, err := f.eng.BillSlipReport(ctx, f.comp.ID)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, f.payer.ID, rows[0].PayerID)
		assert.Equal(t, "2019-05", rows[0].Month)
		assert.Equal(t, slips[0].Number, rows[0].Number)
		// Two events at 20 each, payer covers 90%.
		assert.True(t, rows[0].NetInclTaxes.Equal(types.Dec("36")), "net: %s", rows[0].NetInclTaxes)
	})

	t.Run("credit notes net into the report", func(t *testing.T) {
		_, err := f.eng.CreateCreditNote(ctx, f.comp.ID, carebill.CreditNoteInput{
			CustomerID:   f.cust.ID,
			PayerID:      f.payer.ID,
			Date:         date(2019, 5, 31),
			InclTaxesTpp: types.Dec("18"),
		})
		require.NoError(t, err)

		rows, err := f.eng.BillSlipReport(ctx, f.comp.ID)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.True(t, rows[0].NetInclTaxes.Equal(types.Dec("18")), "net: %s", rows[0].NetInclTaxes)
	})

	t.Run("regeneration leaves existing slips alone", func(t *testing.T) {
		again, err := f.eng.GenerateBillSlips(ctx, f.comp.ID)
		require.NoError(t, err)
		assert.Empty(t, again)
	})
}

func TestFundingGuards(t *testing.T) {
	ctx := context.Background()

	t.Run("overlapping active funding conflicts", func(t *testing.T) {
		f := newFixture(t)
		f.addFunding(t, "120", "10")

		second := &funding.Funding{
			CompanyID:      f.comp.ID,
			CustomerID:     f.cust.ID,
			SubscriptionID: f.sub.ID,
			PayerID:        f.payer.ID,
			Nature:         funding.NatureFixed,
			Frequency:      funding.FrequencyMonthly,
			Versions: []funding.Version{{
				AmountTTC:                 types.Dec("50"),
				CustomerParticipationRate: types.Dec("0"),
				CareDays:                  allDays,
				StartDate:                 date(2019, 6, 1),
			}},
		}
		err := f.eng.CreateFunding(ctx, second)
		assert.ErrorIs(t, err, carebill.ErrFundingConflict)
	})

	t.Run("teletransmission payer requires a funding plan", func(t *testing.T) {
		f := newFixture(t)
		tele := &payer.ThirdPartyPayer{
			CompanyID:          f.comp.ID,
			Name:               "CPAM",
			BillingMode:        payer.BillingDirect,
			TeletransmissionID: "tele-42",
		}
		require.NoError(t, f.eng.CreatePayer(ctx, tele))

		fund := &funding.Funding{
			CompanyID:      f.comp.ID,
			CustomerID:     f.cust.ID,
			SubscriptionID: f.sub.ID,
			PayerID:        tele.ID,
			Nature:         funding.NatureFixed,
			Frequency:      funding.FrequencyMonthly,
			Versions: []funding.Version{{
				AmountTTC: types.Dec("120"),
				CareDays:  allDays,
				StartDate: date(2019, 1, 1),
			}},
		}
		err := f.eng.CreateFunding(ctx, fund)
		require.ErrorIs(t, err, carebill.ErrFundingPlanID)

		fund.Versions[0].FundingPlanID = "plan-7"
		assert.NoError(t, f.eng.CreateFunding(ctx, fund))
	})

	t.Run("end date must follow start date", func(t *testing.T) {
		f := newFixture(t)
		end := date(2018, 12, 1)
		fund := &funding.Funding{
			CompanyID:      f.comp.ID,
			CustomerID:     f.cust.ID,
			SubscriptionID: f.sub.ID,
			PayerID:        f.payer.ID,
			Versions: []funding.Version{{
				AmountTTC: types.Dec("120"),
				CareDays:  allDays,
				StartDate: date(2019, 1, 1),
				EndDate:   &end,
			}},
		}
		err := f.eng.CreateFunding(ctx, fund)
		assert.ErrorIs(t, err, carebill.ErrFundingDates)
	})

	t.Run("rejected version leaves the open version open", func(t *testing.T) {
		f := newFixture(t)
		fund := f.addFunding(t, "120", "10")

		err := f.eng.AddFundingVersion(ctx, f.comp.ID, fund.ID, funding.Version{
			AmountTTC: types.Dec("60"),
			CareDays:  allDays,
			StartDate: date(2018, 6, 1),
		})
		require.ErrorIs(t, err, carebill.ErrFundingDates)

		stored, err := f.eng.GetFunding(ctx, f.comp.ID, fund.ID)
		require.NoError(t, err)
		require.Len(t, stored.Versions, 1)
		assert.Nil(t, stored.Versions[0].EndDate)
	})

	t.Run("ending a funding frees the subscription", func(t *testing.T) {
		f := newFixture(t)
		fund := f.addFunding(t, "120", "10")

		require.NoError(t, f.eng.EndFunding(ctx, f.comp.ID, fund.ID, date(2019, 6, 1)))

		next := &funding.Funding{
			CompanyID:      f.comp.ID,
			CustomerID:     f.cust.ID,
			SubscriptionID: f.sub.ID,
			PayerID:        f.payer.ID,
			Nature:         funding.NatureFixed,
			Frequency:      funding.FrequencyMonthly,
			Versions: []funding.Version{{
				AmountTTC:                 types.Dec("80"),
				CustomerParticipationRate: types.Dec("0"),
				CareDays:                  allDays,
				StartDate:                 date(2019, 6, 1),
			}},
		}
		assert.NoError(t, f.eng.CreateFunding(ctx, next))
	})
}

func TestSubscriptionGuards(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate service conflicts", func(t *testing.T) {
		f := newFixture(t)
		dup := &subscription.Subscription{
			CompanyID:   f.comp.ID,
			CustomerID:  f.cust.ID,
			ServiceName: "home care",
			Versions: []subscription.Version{
				{UnitRate: types.Dec("25"), StartDate: date(2019, 1, 1)},
			},
		}
		err := f.eng.CreateSubscription(ctx, dup)
		assert.ErrorIs(t, err, carebill.ErrDuplicateService)
	})

	t.Run("cross-company lookups surface as not found", func(t *testing.T) {
		f := newFixture(t)
		other := &company.Company{Name: "Other", Code: "999"}
		require.NoError(t, f.eng.CreateCompany(ctx, other))

		_, err := f.eng.GetSubscription(ctx, other.ID, f.sub.ID)
		assert.True(t, carebill.IsNotFound(err))
	})
}

func TestQuoteNumbers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	n1, err := f.eng.NextQuoteNumber(ctx, f.comp.ID, date(2019, 5, 10))
	require.NoError(t, err)
	assert.Equal(t, "DEV-101190500001", n1)

	n2, err := f.eng.NextQuoteNumber(ctx, f.comp.ID, date(2019, 5, 20))
	require.NoError(t, err)
	assert.Equal(t, "DEV-101190500002", n2)

	// A new period restarts the counter.
	n3, err := f.eng.NextQuoteNumber(ctx, f.comp.ID, date(2019, 6, 1))
	require.NoError(t, err)
	assert.Equal(t, "DEV-101190600001", n3)
}

func TestPayerBillingMode(t *testing.T) {
	ctx := context.Background()

	t.Run("mode defaults to direct", func(t *testing.T) {
		f := newFixture(t)
		p := &payer.ThirdPartyPayer{CompanyID: f.comp.ID, Name: "CCAS"}
		require.NoError(t, f.eng.CreatePayer(ctx, p))
		assert.Equal(t, payer.BillingDirect, p.BillingMode)
	})

	t.Run("indirect payer share stays on the customer bill", func(t *testing.T) {
		f := newFixture(t)
		indirect := &payer.ThirdPartyPayer{
			CompanyID:   f.comp.ID,
			Name:        "Mutuelle",
			BillingMode: payer.BillingIndirect,
		}
		require.NoError(t, f.eng.CreatePayer(ctx, indirect))

		fund := &funding.Funding{
			CompanyID:      f.comp.ID,
			CustomerID:     f.cust.ID,
			SubscriptionID: f.sub.ID,
			PayerID:        indirect.ID,
			Nature:         funding.NatureFixed,
			Frequency:      funding.FrequencyMonthly,
			Versions: []funding.Version{{
				AmountTTC:                 types.Dec("120"),
				CustomerParticipationRate: types.Dec("10"),
				CareDays:                  allDays,
				StartDate:                 date(2019, 1, 1),
			}},
		}
		require.NoError(t, f.eng.CreateFunding(ctx, fund))

		ev := f.addEvent(t, date(2019, 5, 6).Add(10*time.Hour), 1)
		bills, err := f.eng.BillEvents(ctx, f.comp.ID, carebill.BillRun{
			CustomerID: f.cust.ID,
			EventIDs:   []id.EventID{ev.ID},
			Date:       date(2019, 5, 31),
		})
		require.NoError(t, err)

		// No payer bill: the customer pays in full and is reimbursed by
		// the payer outside this system.
		require.Len(t, bills, 1)
		assert.True(t, bills[0].PayerID.IsNil())
		assert.True(t, bills[0].NetInclTaxes.Equal(types.Dec("20")), "net: %s", bills[0].NetInclTaxes)

		// The funded share still consumes the cap.
		remaining, err := f.eng.FundingRemaining(ctx, f.comp.ID, fund.ID, "2019-05")
		require.NoError(t, err)
		assert.True(t, remaining.Equal(types.Dec("102")), "remaining: %s", remaining)
	})
}

func TestSlipLocksCoveredBills(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addFunding(t, "1000", "10")
	ev := f.addEvent(t, date(2019, 5, 6).Add(10*time.Hour), 1)

	bills, err := f.eng.BillEvents(ctx, f.comp.ID, carebill.BillRun{
		CustomerID: f.cust.ID,
		EventIDs:   []id.EventID{ev.ID},
		Date:       date(2019, 5, 31),
	})
	require.NoError(t, err)
	require.Len(t, bills, 2)
	custBill, payerBill := bills[0], bills[1]

	slips, err := f.eng.GenerateBillSlips(ctx, f.comp.ID)
	require.NoError(t, err)
	require.Len(t, slips, 1)

	// The slip reconciles the payer bill, which is no longer editable.
	err = f.eng.DeleteBill(ctx, f.comp.ID, payerBill.ID)
	assert.ErrorIs(t, err, carebill.ErrDocumentNotEditable)

	// The customer bill is not covered by the slip and stays deletable.
	assert.NoError(t, f.eng.DeleteBill(ctx, f.comp.ID, custBill.ID))
}
