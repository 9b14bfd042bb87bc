package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Monetary values are decimal.Decimal throughout the engine, never binary
// floating point. Intermediate computations keep full precision; Round2 is
// applied exactly once, at the output boundary, so that rounding error never
// compounds across the events of a bill.

// Round2 rounds a monetary amount to 2 decimal places, half-up.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Sum adds any number of decimal amounts. Returns zero for no arguments.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	result := decimal.Zero
	for _, v := range values {
		result = result.Add(v)
	}
	return result
}

// Dec parses a decimal literal and panics on malformed input.
// Use for hardcoded amounts and tests.
func Dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(fmt.Sprintf("types: invalid decimal %q: %v", s, err))
	}
	return d
}

// ExclTaxes converts an inclusive-tax amount to its exclusive-tax value
// for the given VAT percentage. A zero rate returns the amount unchanged.
func ExclTaxes(inclTaxes, vatRate decimal.Decimal) decimal.Decimal {
	if vatRate.IsZero() {
		return inclTaxes
	}
	divisor := decimal.NewFromInt(1).Add(vatRate.Div(decimal.NewFromInt(100)))
	return inclTaxes.DivRound(divisor, 8)
}

// InclTaxes converts an exclusive-tax amount to its inclusive-tax value
// for the given VAT percentage.
func InclTaxes(exclTaxes, vatRate decimal.Decimal) decimal.Decimal {
	multiplier := decimal.NewFromInt(1).Add(vatRate.Div(decimal.NewFromInt(100)))
	return exclTaxes.Mul(multiplier)
}

// FormatEuro renders an amount as a euro string rounded to 2 decimals,
// e.g. "€18.00". Used for display only, never for arithmetic.
func FormatEuro(d decimal.Decimal) string {
	return "€" + Round2(d).StringFixed(2)
}
