// Package billingitem models the ad-hoc line item catalog used by manual bills.
package billingitem

import (
	"github.com/shopspring/decimal"

	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/types"
)

type BillingItem struct {
	types.Entity
	ID            id.BillingItemID `json:"id"`
	CompanyID     id.CompanyID     `json:"company_id"`
	Name          string           `json:"name"`
	UnitInclTaxes decimal.Decimal  `json:"unit_incl_taxes"`
	VAT           decimal.Decimal  `json:"vat"`
}
