package sequence

import (
	"testing"
	"time"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		kind     Kind
		code     string
		period   Period
		seq      int64
		expected string
	}{
		{"bill", KindBill, "101", "1905", 1, "FACT-101190500001"},
		{"credit note", KindCreditNote, "101", "1907", 1, "AV-101190700001"},
		{"bill slip", KindBillSlip, "123", "1906", 9, "BORD-123190600009"},
		{"quote", KindQuote, "5", "2012", 123, "DEV-5201200123"},
		{"large sequence keeps width", KindBill, "101", "1905", 99999, "FACT-101190599999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format(tt.kind, tt.code, tt.period, tt.seq)
			if got != tt.expected {
				t.Errorf("Format: got %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestPeriodOf(t *testing.T) {
	tests := []struct {
		date     time.Time
		expected Period
	}{
		{time.Date(2019, time.May, 18, 10, 0, 0, 0, time.UTC), "1905"},
		{time.Date(2019, time.December, 1, 0, 0, 0, 0, time.UTC), "1912"},
		{time.Date(2020, time.January, 31, 23, 59, 0, 0, time.UTC), "2001"},
	}

	for _, tt := range tests {
		if got := PeriodOf(tt.date); got != tt.expected {
			t.Errorf("PeriodOf(%s): got %s, want %s", tt.date, got, tt.expected)
		}
	}
}

func TestKindValid(t *testing.T) {
	for _, k := range []Kind{KindBill, KindCreditNote, KindBillSlip, KindQuote} {
		if !k.Valid() {
			t.Errorf("%s should be valid", k)
		}
	}
	if Kind("invoice").Valid() {
		t.Error("unknown kind should not be valid")
	}
}
