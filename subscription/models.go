// Package subscription models a customer's service subscription with its
// append-only pricing history.
package subscription

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/temporal"
	"github.com/xraph/carebill/types"
)

type Subscription struct {
	types.Entity
	ID          id.SubscriptionID `json:"id"`
	CompanyID   id.CompanyID      `json:"company_id"`
	CustomerID  id.CustomerID     `json:"customer_id"`
	ServiceName string            `json:"service_name"`

	// VAT is the service's VAT percentage applied to all versions.
	VAT decimal.Decimal `json:"vat"`

	// Versions is the append-only pricing history, ordered by start date.
	// Past entries are never edited; changed terms append a new version
	// whose start ends the previous one.
	Versions []Version `json:"versions"`
}

// Version is a time-bounded snapshot of subscription terms.
// Its validity runs from StartDate until the next version's start;
// the last version has no end.
type Version struct {
	UnitRate    decimal.Decimal `json:"unit_rate"`
	WeeklyHours decimal.Decimal `json:"weekly_hours"`
	WeeklyCount int             `json:"weekly_count"`
	Evenings    int             `json:"evenings"`
	Sundays     int             `json:"sundays"`
	StartDate   time.Time       `json:"start_date"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (v Version) VersionStart() time.Time { return v.StartDate }
func (v Version) VersionEnd() *time.Time  { return nil }

// VersionAt resolves the pricing version applicable at the given date.
func (s *Subscription) VersionAt(at time.Time) (Version, error) {
	return temporal.Resolve(at, s.Versions)
}

// CurrentVersion returns the version applicable now, if any.
func (s *Subscription) CurrentVersion() (Version, error) {
	return s.VersionAt(time.Now())
}
