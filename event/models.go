// Package event models scheduled care interventions. Events are created by
// the external scheduling system; the engine only reads them and writes the
// billing snapshot.
package event

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/types"
)

// CancelCondition describes the billing consequence of a cancellation.
type CancelCondition string

const (
	// ConditionInvoicedAndPaid: the event must still be invoiced and the
	// auxiliary paid.
	ConditionInvoicedAndPaid CancelCondition = "invoiced_and_paid"
	// ConditionInvoicedAndNotPaid: the event must still be invoiced.
	ConditionInvoicedAndNotPaid CancelCondition = "invoiced_and_not_paid"
	// ConditionNotInvoicedAndNotPaid: the event is written off.
	ConditionNotInvoicedAndNotPaid CancelCondition = "not_invoiced_and_not_paid"
)

// RequiresBilling reports whether a cancellation under this condition must
// still be invoiced before the customer can be archived.
func (c CancelCondition) RequiresBilling() bool {
	return c == ConditionInvoicedAndPaid || c == ConditionInvoicedAndNotPaid
}

type Cancellation struct {
	Condition CancelCondition `json:"condition"`
	Reason    string          `json:"reason,omitempty"`
}

// Event is one scheduled care intervention.
type Event struct {
	types.Entity
	ID             id.EventID        `json:"id"`
	CompanyID      id.CompanyID      `json:"company_id"`
	CustomerID     id.CustomerID     `json:"customer_id"`
	SubscriptionID id.SubscriptionID `json:"subscription_id"`
	AuxiliaryID    id.AnyID          `json:"auxiliary_id,omitempty"`
	StartDate      time.Time         `json:"start_date"`
	EndDate        time.Time         `json:"end_date"`

	IsCancelled  bool          `json:"is_cancelled"`
	Cancellation *Cancellation `json:"cancellation,omitempty"`

	// IsBilled flips exactly once, when the billing snapshot is written.
	IsBilled bool `json:"is_billed"`

	// Bills is the immutable billing snapshot. Once set it is never
	// recomputed; corrections go through credit notes.
	Bills *BillSnapshot `json:"bills,omitempty"`
}

// BillSnapshot freezes the customer/payer split computed at billing time.
type BillSnapshot struct {
	PayerID           id.PayerID      `json:"third_party_payer_id,omitempty"`
	FundingID         id.FundingID    `json:"funding_id,omitempty"`
	CareHours         decimal.Decimal `json:"care_hours"`
	InclTaxesCustomer decimal.Decimal `json:"incl_taxes_customer"`
	ExclTaxesCustomer decimal.Decimal `json:"excl_taxes_customer"`
	InclTaxesTpp      decimal.Decimal `json:"incl_taxes_tpp"`
	ExclTaxesTpp      decimal.Decimal `json:"excl_taxes_tpp"`
	Surcharge         decimal.Decimal `json:"surcharge"`
}

// InclTaxes is the full inclusive-tax price of the snapshot.
func (b BillSnapshot) InclTaxes() decimal.Decimal {
	return b.InclTaxesCustomer.Add(b.InclTaxesTpp)
}

// ExclTaxes is the full exclusive-tax price of the snapshot.
func (b BillSnapshot) ExclTaxes() decimal.Decimal {
	return b.ExclTaxesCustomer.Add(b.ExclTaxesTpp)
}

// BlocksArchive reports whether this event prevents archiving its customer.
// An event is settled when it is billed, or dated before care stopped, or
// cancelled under a condition that does not require invoicing.
func (e *Event) BlocksArchive(stoppedAt time.Time) bool {
	if e.IsBilled {
		return false
	}
	if e.IsCancelled {
		return e.Cancellation != nil && e.Cancellation.Condition.RequiresBilling()
	}
	return !e.StartDate.Before(stoppedAt)
}
