// Package funding models third-party subsidy agreements and the consumption
// ledger recorded against them.
package funding

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/temporal"
	"github.com/xraph/carebill/types"
)

// Nature describes how the subsidy cap is expressed.
type Nature string

const (
	// NatureFixed caps the subsidy at a fixed inclusive-tax amount.
	NatureFixed Nature = "fixed"
	// NatureHourly caps the subsidy at a number of care hours.
	NatureHourly Nature = "hourly"
)

// Frequency describes the accounting period of the cap.
type Frequency string

const (
	// FrequencyOnce: the cap covers the funding's whole lifetime.
	FrequencyOnce Frequency = "once"
	// FrequencyMonthly: the cap renews each calendar month.
	FrequencyMonthly Frequency = "monthly"
)

type Funding struct {
	types.Entity
	ID             id.FundingID      `json:"id"`
	CompanyID      id.CompanyID      `json:"company_id"`
	CustomerID     id.CustomerID     `json:"customer_id"`
	SubscriptionID id.SubscriptionID `json:"subscription_id"`
	PayerID        id.PayerID        `json:"third_party_payer_id"`
	Nature         Nature            `json:"nature"`
	Frequency      Frequency         `json:"frequency"`

	// Versions is the append-only history of funding terms.
	Versions []Version `json:"versions"`
}

// Version is a time-bounded snapshot of funding terms.
type Version struct {
	// AmountTTC is the inclusive-tax subsidy cap per accounting period.
	AmountTTC decimal.Decimal `json:"amount_ttc"`

	// UnitTTCRate is the subsidized hourly rate for hourly-nature fundings.
	UnitTTCRate decimal.Decimal `json:"unit_ttc_rate"`

	// CareHours is the hour cap per period for hourly-nature fundings.
	CareHours decimal.Decimal `json:"care_hours"`

	// CustomerParticipationRate is the percentage the customer keeps
	// paying, e.g. 10 means the payer covers at most 90%.
	CustomerParticipationRate decimal.Decimal `json:"customer_participation_rate"`

	// CareDays lists the weekdays the subsidy covers.
	CareDays []time.Weekday `json:"care_days"`

	FolderNumber  string     `json:"folder_number,omitempty"`
	FundingPlanID string     `json:"funding_plan_id,omitempty"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (v Version) VersionStart() time.Time { return v.StartDate }
func (v Version) VersionEnd() *time.Time  { return v.EndDate }

// CoversDay reports whether the subsidy applies on the given weekday.
func (v Version) CoversDay(d time.Weekday) bool {
	for _, day := range v.CareDays {
		if day == d {
			return true
		}
	}
	return false
}

// VersionAt resolves the funding terms applicable at the given date.
func (f *Funding) VersionAt(at time.Time) (Version, error) {
	return temporal.Resolve(at, f.Versions)
}

// ActiveAt reports whether some version of the funding covers the date.
func (f *Funding) ActiveAt(at time.Time) bool {
	_, err := f.VersionAt(at)
	return err == nil
}

// LastVersion returns the most recently started version.
func (f *Funding) LastVersion() *Version {
	if len(f.Versions) == 0 {
		return nil
	}
	last := &f.Versions[0]
	for i := range f.Versions {
		if f.Versions[i].StartDate.After(last.StartDate) {
			last = &f.Versions[i]
		}
	}
	return last
}

// History is an append-only ledger row recording consumption against a
// funding for one accounting period. Written only when bills are generated.
type History struct {
	types.Entity
	FundingID id.FundingID `json:"funding_id"`
	CompanyID id.CompanyID `json:"company_id"`

	// Period identifies the accounting period ("2019-05" for monthly
	// fundings, "once" for lifetime caps).
	Period string `json:"period"`

	AmountTTC decimal.Decimal `json:"amount_ttc"`
	CareHours decimal.Decimal `json:"care_hours"`
}

// PeriodKey computes the accounting period key for a billing date under
// the funding's frequency.
func (f *Funding) PeriodKey(at time.Time) string {
	if f.Frequency == FrequencyMonthly {
		return at.Format("2006-01")
	}
	return "once"
}

// Remaining computes how much of the cap is left for a period given the
// consumed ledger rows for that period. Never negative.
func Remaining(cap decimal.Decimal, consumed []History) decimal.Decimal {
	left := cap
	for _, h := range consumed {
		left = left.Sub(h.AmountTTC)
	}
	if left.IsNegative() {
		return decimal.Zero
	}
	return left
}

// RemainingHours is Remaining for hourly-nature caps.
func RemainingHours(cap decimal.Decimal, consumed []History) decimal.Decimal {
	left := cap
	for _, h := range consumed {
		left = left.Sub(h.CareHours)
	}
	if left.IsNegative() {
		return decimal.Zero
	}
	return left
}
