// Package surcharge supplies time-of-day pricing multipliers for care events.
//
// The engine treats the surcharge configuration as an external collaborator:
// it only consumes the Provider interface. Table is the default implementation
// covering evening hours, Sundays, public holidays and custom date ranges.
package surcharge

import (
	"time"

	"github.com/shopspring/decimal"
)

// Provider returns the surcharge percentage applicable to an event interval.
// A zero result means no surcharge; 25 means the base rate is increased by 25%.
type Provider interface {
	Percentage(start, end time.Time) decimal.Decimal
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(start, end time.Time) decimal.Decimal

func (f ProviderFunc) Percentage(start, end time.Time) decimal.Decimal {
	return f(start, end)
}

// None is a Provider that never applies a surcharge.
var None Provider = ProviderFunc(func(_, _ time.Time) decimal.Decimal {
	return decimal.Zero
})

// Range is a custom surcharge window within a day, e.g. 20:00-06:00.
type Range struct {
	StartHour  int
	EndHour    int
	Percentage decimal.Decimal
}

// Table is a company's surcharge configuration.
// When several surcharges apply to the same event, the highest wins;
// surcharges do not stack.
type Table struct {
	EveningStartHour int
	EveningEndHour   int
	Evening          decimal.Decimal
	Sunday           decimal.Decimal
	PublicHoliday    decimal.Decimal
	Custom           []Range

	// Holidays holds public holiday dates formatted as "2006-01-02".
	Holidays map[string]bool
}

var _ Provider = (*Table)(nil)

// Percentage implements Provider. It inspects the event's start instant;
// events are short enough that start determines the applicable rates.
func (t *Table) Percentage(start, _ time.Time) decimal.Decimal {
	best := decimal.Zero

	if t.Holidays[start.Format("2006-01-02")] && t.PublicHoliday.GreaterThan(best) {
		best = t.PublicHoliday
	}
	if start.Weekday() == time.Sunday && t.Sunday.GreaterThan(best) {
		best = t.Sunday
	}
	if t.inEvening(start.Hour()) && t.Evening.GreaterThan(best) {
		best = t.Evening
	}
	for _, r := range t.Custom {
		if hourInRange(start.Hour(), r.StartHour, r.EndHour) && r.Percentage.GreaterThan(best) {
			best = r.Percentage
		}
	}

	return best
}

func (t *Table) inEvening(hour int) bool {
	if t.Evening.IsZero() {
		return false
	}
	return hourInRange(hour, t.EveningStartHour, t.EveningEndHour)
}

// hourInRange handles windows that wrap past midnight (e.g. 20..6).
func hourInRange(hour, from, to int) bool {
	if from == to {
		return false
	}
	if from < to {
		return hour >= from && hour < to
	}
	return hour >= from || hour < to
}
