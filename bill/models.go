// Package bill models immutable bill documents. Amounts are computed once at
// creation and never recomputed in place; corrections are credit notes.
package bill

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/types"
)

// Type distinguishes how a bill was assembled.
type Type string

const (
	// TypeAutomatic: generated from billed events grouped by subscription.
	TypeAutomatic Type = "automatic"
	// TypeManual: assembled from ad-hoc billing items.
	TypeManual Type = "manual"
)

// Origin records which system issued the document. Only internal documents
// may ever be deleted.
type Origin string

const (
	OriginInternal   Origin = "internal"
	OriginThirdParty Origin = "third_party"
	OriginExternal   Origin = "external"
)

type Bill struct {
	types.Entity
	ID         id.BillID     `json:"id"`
	CompanyID  id.CompanyID  `json:"company_id"`
	CustomerID id.CustomerID `json:"customer_id"`

	// PayerID is set on third-party-payer bills; nil on customer bills.
	PayerID id.PayerID `json:"third_party_payer_id,omitempty"`

	Number string    `json:"number"`
	Date   time.Time `json:"date"`
	Type   Type      `json:"type"`
	Origin Origin    `json:"origin"`

	NetInclTaxes decimal.Decimal `json:"net_incl_taxes"`

	// Subscriptions carries the per-subscription event groups of an
	// automatic bill. Empty on manual bills.
	Subscriptions []SubscriptionGroup `json:"subscriptions,omitempty"`

	// BillingItems carries the line items of a manual bill.
	BillingItems []ItemLine `json:"billing_item_list,omitempty"`

	// IsEditable clears once a downstream document (bill slip, tax
	// certificate) references this bill.
	IsEditable bool `json:"is_editable"`
}

// SubscriptionGroup aggregates the billed events of one subscription.
type SubscriptionGroup struct {
	SubscriptionID id.SubscriptionID `json:"subscription_id"`
	ServiceName    string            `json:"service_name"`
	Events         []EventLine       `json:"events"`
	Hours          decimal.Decimal   `json:"hours"`
	UnitExclTaxes  decimal.Decimal   `json:"unit_excl_taxes"`
	UnitInclTaxes  decimal.Decimal   `json:"unit_incl_taxes"`
	ExclTaxes      decimal.Decimal   `json:"excl_taxes"`
	InclTaxes      decimal.Decimal   `json:"incl_taxes"`
	Discount       decimal.Decimal   `json:"discount"`
	VAT            decimal.Decimal   `json:"vat"`
}

// EventLine is the immutable per-event snapshot embedded in a bill.
type EventLine struct {
	EventID     id.EventID      `json:"event_id"`
	AuxiliaryID id.AnyID        `json:"auxiliary_id,omitempty"`
	StartDate   time.Time       `json:"start_date"`
	EndDate     time.Time       `json:"end_date"`
	CareHours   decimal.Decimal `json:"care_hours"`
	InclTaxes   decimal.Decimal `json:"incl_taxes"`
	ExclTaxes   decimal.Decimal `json:"excl_taxes"`
	FundingID   id.FundingID    `json:"funding_id,omitempty"`
}

// ItemLine is one ad-hoc line of a manual bill.
type ItemLine struct {
	BillingItemID id.BillingItemID `json:"billing_item_id"`
	Name          string           `json:"name"`
	Count         int64            `json:"count"`
	UnitInclTaxes decimal.Decimal  `json:"unit_incl_taxes"`
	InclTaxes     decimal.Decimal  `json:"incl_taxes"`
	ExclTaxes     decimal.Decimal  `json:"excl_taxes"`
	VAT           decimal.Decimal  `json:"vat"`
}

// IsInternal reports whether the document was issued by this system.
func (b *Bill) IsInternal() bool { return b.Origin == OriginInternal }

// Month returns the calendar month key of the bill date, e.g. "2019-05".
func (b *Bill) Month() string { return b.Date.Format("2006-01") }
