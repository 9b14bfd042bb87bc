package billing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/carebill/event"
	"github.com/xraph/carebill/funding"
	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/subscription"
	"github.com/xraph/carebill/surcharge"
	"github.com/xraph/carebill/types"
)

func testEvent(start time.Time, hours int) *event.Event {
	return &event.Event{
		ID:        id.NewEventID(),
		StartDate: start,
		EndDate:   start.Add(time.Duration(hours) * time.Hour),
	}
}

func TestPriceEvent(t *testing.T) {
	monday := time.Date(2019, time.May, 6, 10, 0, 0, 0, time.UTC)
	ver := subscription.Version{UnitRate: types.Dec("10"), StartDate: monday.AddDate(0, -1, 0)}

	t.Run("plain weekday", func(t *testing.T) {
		p, err := PriceEvent(testEvent(monday, 2), ver, decimal.Zero, surcharge.None)
		require.NoError(t, err)
		assert.True(t, p.CareHours.Equal(types.Dec("2")), "hours: %s", p.CareHours)
		assert.True(t, p.InclTaxes.Equal(types.Dec("20")), "incl: %s", p.InclTaxes)
		assert.True(t, p.ExclTaxes.Equal(types.Dec("20")), "excl: %s", p.ExclTaxes)
		assert.True(t, p.Surcharge.IsZero())
	})

	t.Run("vat separates excl from incl", func(t *testing.T) {
		p, err := PriceEvent(testEvent(monday, 2), ver, types.Dec("20"), surcharge.None)
		require.NoError(t, err)
		assert.True(t, p.InclTaxes.Equal(types.Dec("20")))
		assert.True(t, types.Round2(p.ExclTaxes).Equal(types.Dec("16.67")), "excl: %s", p.ExclTaxes)
	})

	t.Run("fractional duration", func(t *testing.T) {
		ev := &event.Event{
			ID:        id.NewEventID(),
			StartDate: monday,
			EndDate:   monday.Add(90 * time.Minute),
		}
		p, err := PriceEvent(ev, ver, decimal.Zero, surcharge.None)
		require.NoError(t, err)
		assert.True(t, p.CareHours.Equal(types.Dec("1.5")))
		assert.True(t, p.InclTaxes.Equal(types.Dec("15")))
	})

	t.Run("sunday surcharge", func(t *testing.T) {
		sunday := time.Date(2019, time.May, 5, 10, 0, 0, 0, time.UTC)
		table := &surcharge.Table{Sunday: types.Dec("25")}
		p, err := PriceEvent(testEvent(sunday, 2), ver, decimal.Zero, table)
		require.NoError(t, err)
		assert.True(t, p.InclTaxes.Equal(types.Dec("25")), "incl: %s", p.InclTaxes)
		assert.True(t, p.Surcharge.Equal(types.Dec("25")))
	})

	t.Run("end before start rejected", func(t *testing.T) {
		ev := &event.Event{ID: id.NewEventID(), StartDate: monday, EndDate: monday.Add(-time.Hour)}
		_, err := PriceEvent(ev, ver, decimal.Zero, surcharge.None)
		assert.ErrorIs(t, err, ErrInvalidDuration)
	})

	t.Run("zero duration rejected", func(t *testing.T) {
		ev := &event.Event{ID: id.NewEventID(), StartDate: monday, EndDate: monday}
		_, err := PriceEvent(ev, ver, decimal.Zero, surcharge.None)
		assert.ErrorIs(t, err, ErrInvalidDuration)
	})
}

func allWeek() []time.Weekday {
	return []time.Weekday{
		time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
		time.Thursday, time.Friday, time.Saturday,
	}
}

func TestSplitWithFunding(t *testing.T) {
	fundingID := id.NewFundingID()
	payerID := id.NewPayerID()

	fv := funding.Version{
		AmountTTC:                 types.Dec("120"),
		CustomerParticipationRate: types.Dec("10"),
		CareDays:                  allWeek(),
	}

	t.Run("payer covers ninety percent", func(t *testing.T) {
		// Full price 20, participation 10%, cap far away: payer 18, customer 2.
		p := Price{CareHours: types.Dec("2"), InclTaxes: types.Dec("20"), ExclTaxes: types.Dec("20")}

		split, err := SplitWithFunding(p, fv, fundingID, payerID, types.Dec("120"), decimal.Zero, CapPolicyCap)
		require.NoError(t, err)

		assert.True(t, split.InclTaxesTpp.Equal(types.Dec("18")), "tpp: %s", split.InclTaxesTpp)
		assert.True(t, split.InclTaxesCustomer.Equal(types.Dec("2")), "customer: %s", split.InclTaxesCustomer)
		assert.False(t, split.CapApplied)
	})

	t.Run("shares always sum to full price", func(t *testing.T) {
		p := Price{CareHours: types.Dec("1"), InclTaxes: types.Dec("13.333333"), ExclTaxes: types.Dec("13.333333")}

		split, err := SplitWithFunding(p, fv, fundingID, payerID, types.Dec("120"), decimal.Zero, CapPolicyCap)
		require.NoError(t, err)

		total := split.InclTaxesCustomer.Add(split.InclTaxesTpp)
		assert.True(t, total.Equal(types.Round2(p.InclTaxes)), "sum: %s", total)
	})

	t.Run("cap reduces payer share", func(t *testing.T) {
		p := Price{CareHours: types.Dec("2"), InclTaxes: types.Dec("20"), ExclTaxes: types.Dec("20")}

		split, err := SplitWithFunding(p, fv, fundingID, payerID, types.Dec("5"), decimal.Zero, CapPolicyCap)
		require.NoError(t, err)

		assert.True(t, split.InclTaxesTpp.Equal(types.Dec("5")), "tpp: %s", split.InclTaxesTpp)
		assert.True(t, split.InclTaxesCustomer.Equal(types.Dec("15")), "customer: %s", split.InclTaxesCustomer)
		assert.True(t, split.CapApplied)
	})

	t.Run("reject policy fails on exhausted cap", func(t *testing.T) {
		p := Price{CareHours: types.Dec("2"), InclTaxes: types.Dec("20"), ExclTaxes: types.Dec("20")}

		_, err := SplitWithFunding(p, fv, fundingID, payerID, types.Dec("5"), decimal.Zero, CapPolicyReject)
		assert.ErrorIs(t, err, ErrCapExceeded)
	})

	t.Run("exhausted cap leaves customer with everything", func(t *testing.T) {
		p := Price{CareHours: types.Dec("2"), InclTaxes: types.Dec("20"), ExclTaxes: types.Dec("20")}

		split, err := SplitWithFunding(p, fv, fundingID, payerID, decimal.Zero, decimal.Zero, CapPolicyCap)
		require.NoError(t, err)

		assert.True(t, split.InclTaxesTpp.IsZero())
		assert.True(t, split.InclTaxesCustomer.Equal(types.Dec("20")))
	})
}

func TestCustomerOnly(t *testing.T) {
	p := Price{CareHours: types.Dec("2"), InclTaxes: types.Dec("20.005"), ExclTaxes: types.Dec("20.005")}

	split := CustomerOnly(p)
	assert.True(t, split.InclTaxesCustomer.Equal(types.Dec("20.01")), "rounded half-up: %s", split.InclTaxesCustomer)
	assert.True(t, split.InclTaxesTpp.IsZero())
	assert.True(t, split.FundingID.IsNil())
}

func TestSnapshot(t *testing.T) {
	fundingID := id.NewFundingID()
	payerID := id.NewPayerID()

	split := Split{
		CareHours:         types.Dec("2"),
		InclTaxesCustomer: types.Dec("2"),
		ExclTaxesCustomer: types.Dec("2"),
		InclTaxesTpp:      types.Dec("18"),
		ExclTaxesTpp:      types.Dec("18"),
		FundingID:         fundingID,
		PayerID:           payerID,
	}

	snap := split.Snapshot()
	assert.Equal(t, payerID.String(), snap.PayerID.String())
	assert.Equal(t, fundingID.String(), snap.FundingID.String())
	assert.True(t, snap.InclTaxes().Equal(types.Dec("20")))
}
