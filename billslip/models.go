// Package billslip models the monthly per-payer reconciliation statements.
package billslip

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/types"
)

// BillSlip is the numbered statement for one (third-party payer, month)
// pair. One slip exists per pair per company; the aggregation view reports
// against it but never creates it.
type BillSlip struct {
	types.Entity
	ID        id.BillSlipID `json:"id"`
	CompanyID id.CompanyID  `json:"company_id"`
	PayerID   id.PayerID    `json:"third_party_payer_id"`

	// Month is the calendar month key, e.g. "2019-05".
	Month  string `json:"month"`
	Number string `json:"number"`
}

// MonthOf returns the slip month key containing t.
func MonthOf(t time.Time) string { return t.Format("2006-01") }

// ReportRow is one line of the reconciled per-payer monthly view:
// all bills for the payer and month, net of credit notes in the same window.
type ReportRow struct {
	PayerID      id.PayerID      `json:"third_party_payer_id"`
	PayerName    string          `json:"third_party_payer_name"`
	Month        string          `json:"month"`
	NetInclTaxes decimal.Decimal `json:"net_incl_taxes"`
	Number       string          `json:"number"`
}
