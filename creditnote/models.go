// Package creditnote models reversal documents correcting issued bills.
package creditnote

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/carebill/bill"
	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/types"
)

type CreditNote struct {
	types.Entity
	ID         id.CreditNoteID `json:"id"`
	CompanyID  id.CompanyID    `json:"company_id"`
	CustomerID id.CustomerID   `json:"customer_id"`

	// PayerID is set on the payer-side note of a linked pair.
	PayerID id.PayerID `json:"third_party_payer_id,omitempty"`

	Number string      `json:"number"`
	Date   time.Time   `json:"date"`
	Origin bill.Origin `json:"origin"`

	SubscriptionID id.SubscriptionID `json:"subscription_id,omitempty"`

	// Events references the cancelled interventions being reversed.
	Events []bill.EventLine `json:"events,omitempty"`

	InclTaxesCustomer decimal.Decimal `json:"incl_taxes_customer"`
	ExclTaxesCustomer decimal.Decimal `json:"excl_taxes_customer"`
	InclTaxesTpp      decimal.Decimal `json:"incl_taxes_tpp"`
	ExclTaxesTpp      decimal.Decimal `json:"excl_taxes_tpp"`

	// LinkedCreditNoteID pairs the customer-side and payer-side notes of
	// one reversal. The pair is numbered consecutively.
	LinkedCreditNoteID id.CreditNoteID `json:"linked_credit_note,omitempty"`

	// IsEditable clears once a downstream document references this note.
	IsEditable bool `json:"is_editable"`
}

// IsInternal reports whether the document was issued by this system.
func (c *CreditNote) IsInternal() bool { return c.Origin == bill.OriginInternal }

// Month returns the calendar month key of the note date, e.g. "2019-05".
func (c *CreditNote) Month() string { return c.Date.Format("2006-01") }

// NetInclTaxes is the total inclusive-tax amount reversed by this note.
func (c *CreditNote) NetInclTaxes() decimal.Decimal {
	return c.InclTaxesCustomer.Add(c.InclTaxesTpp)
}
