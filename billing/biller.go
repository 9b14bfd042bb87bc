// Package billing computes the customer/third-party-payer split for care
// events. It is pure computation: no storage access, no side effects.
//
// All arithmetic runs on decimal values at full precision; amounts are
// rounded to 2 decimals half-up exactly once, when the final split is
// assembled, so rounding error never compounds across the events of a bill.
package billing

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/carebill/event"
	"github.com/xraph/carebill/funding"
	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/subscription"
	"github.com/xraph/carebill/surcharge"
	"github.com/xraph/carebill/types"
)

// ErrInvalidDuration is returned when an event ends at or before its start.
var ErrInvalidDuration = errors.New("billing: event end must be after start")

// ErrCapExceeded is returned under CapPolicyReject when the payer share
// would exceed the funding's remaining cap for the period.
var ErrCapExceeded = errors.New("billing: funding cap exceeded")

// CapPolicy decides what happens when a funded event's payer share exceeds
// the remaining cap.
type CapPolicy int

const (
	// CapPolicyCap silently caps the payer share at the remaining amount;
	// the customer pays the difference. This is the default.
	CapPolicyCap CapPolicy = iota
	// CapPolicyReject fails the billing run with ErrCapExceeded.
	CapPolicyReject
)

// Price is the full price of one event before any funding split.
type Price struct {
	// CareHours is the event duration in hours.
	CareHours decimal.Decimal
	// InclTaxes and ExclTaxes are full-precision amounts; rounding is
	// deferred to the final Split.
	InclTaxes decimal.Decimal
	ExclTaxes decimal.Decimal
	// Surcharge is the applied surcharge percentage, zero when none.
	Surcharge decimal.Decimal
}

// Split is the final customer/payer division for one event,
// rounded to 2 decimals.
type Split struct {
	CareHours         decimal.Decimal
	InclTaxesCustomer decimal.Decimal
	ExclTaxesCustomer decimal.Decimal
	InclTaxesTpp      decimal.Decimal
	ExclTaxesTpp      decimal.Decimal
	FundingID         id.FundingID
	PayerID           id.PayerID
	Surcharge         decimal.Decimal

	// CapApplied reports that the payer share was reduced to the
	// funding's remaining cap.
	CapApplied bool
}

// PriceEvent computes the full price of an event under the subscription
// version active at its start date.
func PriceEvent(ev *event.Event, ver subscription.Version, vat decimal.Decimal, surcharges surcharge.Provider) (Price, error) {
	if !ev.EndDate.After(ev.StartDate) {
		return Price{}, fmt.Errorf("%w: event %s", ErrInvalidDuration, ev.ID)
	}

	minutes := int64(ev.EndDate.Sub(ev.StartDate) / time.Minute)
	hours := decimal.NewFromInt(minutes).Div(decimal.NewFromInt(60))

	pct := decimal.Zero
	if surcharges != nil {
		pct = surcharges.Percentage(ev.StartDate, ev.EndDate)
	}

	inclTaxes := ver.UnitRate.Mul(hours)
	if pct.IsPositive() {
		multiplier := decimal.NewFromInt(1).Add(pct.Div(decimal.NewFromInt(100)))
		inclTaxes = inclTaxes.Mul(multiplier)
	}

	return Price{
		CareHours: hours,
		InclTaxes: inclTaxes,
		ExclTaxes: types.ExclTaxes(inclTaxes, vat),
		Surcharge: pct,
	}, nil
}

// CustomerOnly builds the split for an unfunded event: the customer pays
// the full price.
func CustomerOnly(p Price) Split {
	return Split{
		CareHours:         p.CareHours,
		InclTaxesCustomer: types.Round2(p.InclTaxes),
		ExclTaxesCustomer: types.Round2(p.ExclTaxes),
		InclTaxesTpp:      decimal.Zero,
		ExclTaxesTpp:      decimal.Zero,
		Surcharge:         p.Surcharge,
	}
}

// SplitWithFunding divides the event price between payer and customer.
//
// The payer share is the lesser of the funding's remaining cap for the
// period and fullPrice × (1 − participationRate). The customer always pays
// the remainder, so the two shares sum to the full price within rounding
// tolerance.
func SplitWithFunding(
	p Price,
	fundVersion funding.Version,
	fundingID id.FundingID,
	payerID id.PayerID,
	remaining decimal.Decimal,
	vat decimal.Decimal,
	policy CapPolicy,
) (Split, error) {
	coverage := decimal.NewFromInt(1).Sub(fundVersion.CustomerParticipationRate.Div(decimal.NewFromInt(100)))
	tppIncl := p.InclTaxes.Mul(coverage)

	capApplied := false
	if tppIncl.GreaterThan(remaining) {
		if policy == CapPolicyReject {
			return Split{}, fmt.Errorf("%w: share %s exceeds remaining %s",
				ErrCapExceeded, tppIncl.StringFixed(2), remaining.StringFixed(2))
		}
		tppIncl = remaining
		capApplied = true
	}

	// Round the payer share first and derive the customer side from the
	// rounded total so the two always reconcile.
	totalIncl := types.Round2(p.InclTaxes)
	totalExcl := types.Round2(p.ExclTaxes)
	tppInclR := types.Round2(tppIncl)
	tppExclR := types.Round2(types.ExclTaxes(tppIncl, vat))

	return Split{
		CareHours:         p.CareHours,
		InclTaxesCustomer: totalIncl.Sub(tppInclR),
		ExclTaxesCustomer: totalExcl.Sub(tppExclR),
		InclTaxesTpp:      tppInclR,
		ExclTaxesTpp:      tppExclR,
		FundingID:         fundingID,
		PayerID:           payerID,
		Surcharge:         p.Surcharge,
		CapApplied:        capApplied,
	}, nil
}

// Snapshot converts a split into the immutable event billing snapshot.
func (s Split) Snapshot() *event.BillSnapshot {
	return &event.BillSnapshot{
		PayerID:           s.PayerID,
		FundingID:         s.FundingID,
		CareHours:         s.CareHours,
		InclTaxesCustomer: s.InclTaxesCustomer,
		ExclTaxesCustomer: s.ExclTaxesCustomer,
		InclTaxesTpp:      s.InclTaxesTpp,
		ExclTaxesTpp:      s.ExclTaxesTpp,
		Surcharge:         s.Surcharge,
	}
}
