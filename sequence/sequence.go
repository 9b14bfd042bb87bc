// Package sequence defines document numbering: the kinds of numbered
// documents, per-month numbering periods, and the printed number format.
//
// The counter itself is a storage primitive (store.NextSequence) backed by an
// atomic increment: numbers appear on legal financial documents and must be
// gapless per company, kind and period.
package sequence

import (
	"fmt"
	"time"
)

// Kind identifies a numbered document family. Each (company, kind, period)
// triple owns an independent counter.
type Kind string

const (
	KindBill       Kind = "bill"
	KindCreditNote Kind = "credit_note"
	KindBillSlip   Kind = "bill_slip"
	KindQuote      Kind = "quote"
)

// DocPrefix returns the printed prefix for a document kind.
func (k Kind) DocPrefix() string {
	switch k {
	case KindBill:
		return "FACT"
	case KindCreditNote:
		return "AV"
	case KindBillSlip:
		return "BORD"
	case KindQuote:
		return "DEV"
	default:
		return "DOC"
	}
}

// Valid reports whether k is a known document kind.
func (k Kind) Valid() bool {
	switch k {
	case KindBill, KindCreditNote, KindBillSlip, KindQuote:
		return true
	default:
		return false
	}
}

// Period is a numbering period in YYMM form, e.g. "1905" for May 2019.
type Period string

// PeriodOf returns the numbering period containing t.
func PeriodOf(t time.Time) Period {
	return Period(t.Format("0601"))
}

// PeriodOfMonth converts a calendar month key ("2006-01") into its
// numbering period.
func PeriodOfMonth(month string) (Period, error) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return "", fmt.Errorf("sequence: bad month key %q: %w", month, err)
	}
	return PeriodOf(t), nil
}

// Format renders a human-readable document number:
// PREFIX-<companyCode><YYMM><5-digit-seq>, e.g. "FACT-1011905001".
func Format(kind Kind, companyCode string, period Period, seq int64) string {
	return fmt.Sprintf("%s-%s%s%05d", kind.DocPrefix(), companyCode, period, seq)
}
