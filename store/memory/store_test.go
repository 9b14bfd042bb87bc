package memory

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/carebill"
	"github.com/xraph/carebill/bill"
	"github.com/xraph/carebill/billslip"
	"github.com/xraph/carebill/creditnote"
	"github.com/xraph/carebill/customer"
	"github.com/xraph/carebill/event"
	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/sequence"
	"github.com/xraph/carebill/store"
	"github.com/xraph/carebill/types"
)

func TestNextSequenceConcurrent(t *testing.T) {
	s := New()
	ctx := context.Background()
	companyID := id.NewCompanyID()

	const n = 100
	results := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq, err := s.NextSequence(ctx, companyID, sequence.KindBill, "1905")
			assert.NoError(t, err)
			results <- seq
		}()
	}
	wg.Wait()
	close(results)

	var got []int64
	for seq := range results {
		got = append(got, seq)
	}
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })

	// n concurrent callers draw n distinct contiguous values.
	require.Len(t, got, n)
	for i, seq := range got {
		assert.Equal(t, int64(i+1), seq)
	}
}

func TestNextSequenceIsolation(t *testing.T) {
	s := New()
	ctx := context.Background()
	a, b := id.NewCompanyID(), id.NewCompanyID()

	seq, err := s.NextSequence(ctx, a, sequence.KindBill, "1905")
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	// Different company, kind or period each own an independent counter.
	seq, err = s.NextSequence(ctx, b, sequence.KindBill, "1905")
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	seq, err = s.NextSequence(ctx, a, sequence.KindCreditNote, "1905")
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	seq, err = s.NextSequence(ctx, a, sequence.KindBill, "1906")
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	seq, err = s.NextSequence(ctx, a, sequence.KindBill, "1905")
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq)
}

func TestCreateDocumentBatchAtomicity(t *testing.T) {
	s := New()
	ctx := context.Background()
	companyID := id.NewCompanyID()
	customerID := id.NewCustomerID()

	ev := &event.Event{
		ID:         id.NewEventID(),
		CompanyID:  companyID,
		CustomerID: customerID,
		StartDate:  time.Date(2019, 5, 6, 10, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2019, 5, 6, 11, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.CreateEvent(ctx, ev))

	newBill := func(number string) *bill.Bill {
		return &bill.Bill{
			ID:           id.NewBillID(),
			CompanyID:    companyID,
			CustomerID:   customerID,
			Number:       number,
			Date:         time.Date(2019, 5, 31, 0, 0, 0, 0, time.UTC),
			Type:         bill.TypeAutomatic,
			Origin:       bill.OriginInternal,
			NetInclTaxes: types.Dec("20"),
		}
	}

	t.Run("missing event fails the whole batch", func(t *testing.T) {
		b := newBill("FACT-101190500001")
		missing := &event.Event{ID: id.NewEventID(), CompanyID: companyID, CustomerID: customerID}

		err := s.CreateDocumentBatch(ctx, companyID, &store.DocumentBatch{
			Bills:        []*bill.Bill{b},
			BilledEvents: []*event.Event{missing},
		})
		require.ErrorIs(t, err, carebill.ErrEventNotFound)

		_, err = s.GetBill(ctx, companyID, b.ID)
		assert.ErrorIs(t, err, carebill.ErrBillNotFound)
	})

	t.Run("duplicate number surfaces as collision", func(t *testing.T) {
		first := newBill("FACT-101190500001")
		require.NoError(t, s.CreateDocumentBatch(ctx, companyID, &store.DocumentBatch{
			Bills: []*bill.Bill{first},
		}))

		dup := newBill("FACT-101190500001")
		err := s.CreateDocumentBatch(ctx, companyID, &store.DocumentBatch{
			Bills: []*bill.Bill{dup},
		})
		require.ErrorIs(t, err, carebill.ErrSequenceCollision)
		assert.True(t, carebill.IsInvariantViolation(err))
	})
}

func TestCompanyScoping(t *testing.T) {
	s := New()
	ctx := context.Background()
	mine, theirs := id.NewCompanyID(), id.NewCompanyID()

	c := &customer.Customer{
		ID:        id.NewCustomerID(),
		CompanyID: mine,
		Identity:  customer.Identity{LastName: "Durand"},
	}
	require.NoError(t, s.CreateCustomer(ctx, c))

	_, err := s.GetCustomer(ctx, mine, c.ID)
	require.NoError(t, err)

	// The wrong company sees exactly what a missing record looks like.
	_, err = s.GetCustomer(ctx, theirs, c.ID)
	assert.ErrorIs(t, err, carebill.ErrCustomerNotFound)
}

func TestCreateDocumentBatchRebillGuard(t *testing.T) {
	s := New()
	ctx := context.Background()
	companyID := id.NewCompanyID()
	customerID := id.NewCustomerID()

	ev := &event.Event{
		ID:         id.NewEventID(),
		CompanyID:  companyID,
		CustomerID: customerID,
		StartDate:  time.Date(2019, 5, 6, 10, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2019, 5, 6, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.CreateEvent(ctx, ev))

	stamp := func() *event.Event {
		c := *ev
		c.IsBilled = true
		return &c
	}

	require.NoError(t, s.CreateDocumentBatch(ctx, companyID, &store.DocumentBatch{
		BilledEvents: []*event.Event{stamp()},
	}))

	// A second run that read the event before the first commit must fail
	// against the persisted state, not its own stale copy.
	err := s.CreateDocumentBatch(ctx, companyID, &store.DocumentBatch{
		BilledEvents: []*event.Event{stamp()},
	})
	require.ErrorIs(t, err, carebill.ErrEventAlreadyBilled)
}

func TestCreateDocumentBatchNumbering(t *testing.T) {
	s := New()
	ctx := context.Background()
	companyID := id.NewCompanyID()
	customerID := id.NewCustomerID()

	render := func(kind sequence.Kind, period sequence.Period, seq int64) string {
		return sequence.Format(kind, "101", period, seq)
	}
	newBill := func() *bill.Bill {
		return &bill.Bill{
			ID:           id.NewBillID(),
			CompanyID:    companyID,
			CustomerID:   customerID,
			Date:         time.Date(2019, 5, 31, 0, 0, 0, 0, time.UTC),
			Type:         bill.TypeAutomatic,
			Origin:       bill.OriginInternal,
			NetInclTaxes: types.Dec("20"),
		}
	}

	t.Run("failed batch does not advance the counter", func(t *testing.T) {
		missing := &event.Event{ID: id.NewEventID(), CompanyID: companyID, CustomerID: customerID}
		err := s.CreateDocumentBatch(ctx, companyID, &store.DocumentBatch{
			Bills:        []*bill.Bill{newBill()},
			BilledEvents: []*event.Event{missing},
			RenderNumber: render,
		})
		require.ErrorIs(t, err, carebill.ErrEventNotFound)

		b := newBill()
		require.NoError(t, s.CreateDocumentBatch(ctx, companyID, &store.DocumentBatch{
			Bills:        []*bill.Bill{b},
			RenderNumber: render,
		}))
		assert.Equal(t, "FACT-101190500001", b.Number)
	})

	t.Run("unnumbered document requires a renderer", func(t *testing.T) {
		err := s.CreateDocumentBatch(ctx, companyID, &store.DocumentBatch{
			Bills: []*bill.Bill{newBill()},
		})
		require.ErrorIs(t, err, carebill.ErrInvalidInput)
	})

	t.Run("duplicate credit note number surfaces as collision", func(t *testing.T) {
		newNote := func() *creditnote.CreditNote {
			return &creditnote.CreditNote{
				ID:         id.NewCreditNoteID(),
				CompanyID:  companyID,
				CustomerID: customerID,
				Number:     "AV-101190500001",
				Date:       time.Date(2019, 5, 31, 0, 0, 0, 0, time.UTC),
				Origin:     bill.OriginInternal,
			}
		}
		require.NoError(t, s.CreateDocumentBatch(ctx, companyID, &store.DocumentBatch{
			CreditNotes: []*creditnote.CreditNote{newNote()},
		}))

		err := s.CreateDocumentBatch(ctx, companyID, &store.DocumentBatch{
			CreditNotes: []*creditnote.CreditNote{newNote()},
		})
		require.ErrorIs(t, err, carebill.ErrSequenceCollision)
	})
}

func TestCreateDocumentBatchSlipLocksBills(t *testing.T) {
	s := New()
	ctx := context.Background()
	companyID := id.NewCompanyID()
	customerID := id.NewCustomerID()
	payerID := id.NewPayerID()

	b := &bill.Bill{
		ID:           id.NewBillID(),
		CompanyID:    companyID,
		CustomerID:   customerID,
		PayerID:      payerID,
		Number:       "FACT-101190500001",
		Date:         time.Date(2019, 5, 31, 0, 0, 0, 0, time.UTC),
		Type:         bill.TypeAutomatic,
		Origin:       bill.OriginInternal,
		NetInclTaxes: types.Dec("20"),
		IsEditable:   true,
	}
	require.NoError(t, s.CreateDocumentBatch(ctx, companyID, &store.DocumentBatch{
		Bills: []*bill.Bill{b},
	}))

	slip := &billslip.BillSlip{
		ID:        id.NewBillSlipID(),
		CompanyID: companyID,
		PayerID:   payerID,
		Month:     "2019-05",
	}
	require.NoError(t, s.CreateDocumentBatch(ctx, companyID, &store.DocumentBatch{
		Slips:     []*billslip.BillSlip{slip},
		LockBills: []id.BillID{b.ID},
		RenderNumber: func(kind sequence.Kind, period sequence.Period, seq int64) string {
			return sequence.Format(kind, "101", period, seq)
		},
	}))
	assert.Equal(t, "BORD-101190500001", slip.Number)

	got, err := s.GetBill(ctx, companyID, b.ID)
	require.NoError(t, err)
	assert.False(t, got.IsEditable)
}
