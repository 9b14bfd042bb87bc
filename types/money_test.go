package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"exact", "18.00", "18"},
		{"half up", "2.005", "2.01"},
		{"below half", "2.004", "2"},
		{"above half", "2.006", "2.01"},
		{"long tail", "13.333333333", "13.33"},
		{"whole", "120", "120"},
		{"zero", "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Round2(Dec(tt.input))
			if !got.Equal(Dec(tt.expected)) {
				t.Errorf("Round2(%s): got %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSum(t *testing.T) {
	tests := []struct {
		name     string
		values   []decimal.Decimal
		expected string
	}{
		{"empty", nil, "0"},
		{"single", []decimal.Decimal{Dec("12.5")}, "12.5"},
		{"several", []decimal.Decimal{Dec("2"), Dec("18"), Dec("0.5")}, "20.5"},
		{"full precision", []decimal.Decimal{Dec("0.1"), Dec("0.2")}, "0.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sum(tt.values...)
			if !got.Equal(Dec(tt.expected)) {
				t.Errorf("Sum: got %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestTaxConversionRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		inclTaxes string
		vatRate   string
		exclTaxes string
	}{
		{"standard rate", "120", "20", "100"},
		{"reduced rate", "110", "10", "100"},
		{"zero rate", "100", "0", "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			excl := ExclTaxes(Dec(tt.inclTaxes), Dec(tt.vatRate))
			if !Round2(excl).Equal(Dec(tt.exclTaxes)) {
				t.Errorf("ExclTaxes: got %s, want %s", excl, tt.exclTaxes)
			}

			incl := InclTaxes(excl, Dec(tt.vatRate))
			if !Round2(incl).Equal(Dec(tt.inclTaxes)) {
				t.Errorf("InclTaxes round-trip: got %s, want %s", incl, tt.inclTaxes)
			}
		})
	}
}

func TestDecPanicsOnGarbage(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for malformed decimal")
		}
	}()

	_ = Dec("not-a-number")
}

func TestFormatEuro(t *testing.T) {
	if got := FormatEuro(Dec("18")); got != "€18.00" {
		t.Errorf("FormatEuro: got %s, want €18.00", got)
	}
	if got := FormatEuro(Dec("13.336")); got != "€13.34" {
		t.Errorf("FormatEuro: got %s, want €13.34", got)
	}
}
