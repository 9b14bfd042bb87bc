// Package id defines TypeID-based identity types for all Carebill entities.
//
// Every entity in Carebill uses a single ID struct with a prefix that identifies
// the entity type. IDs are K-sortable (UUIDv7-based), globally unique,
// and URL-safe in the format "prefix_suffix".
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the entity type encoded in a TypeID.
type Prefix string

// Prefix constants for all Carebill entity types.
const (
	PrefixCompany      Prefix = "comp"  // Billing company (tenant)
	PrefixCustomer     Prefix = "cust"  // Care customer
	PrefixSubscription Prefix = "sub"   // Customer service subscription
	PrefixFunding      Prefix = "fund"  // Third-party funding agreement
	PrefixEvent        Prefix = "evt"   // Scheduled care event
	PrefixBill         Prefix = "bill"  // Bill
	PrefixCreditNote   Prefix = "cn"    // Credit note
	PrefixBillSlip     Prefix = "bslip" // Monthly bill slip
	PrefixPayer        Prefix = "tpp"   // Third-party payer
	PrefixBillingItem  Prefix = "item"  // Ad-hoc billing item
	PrefixPayment      Prefix = "pay"   // Payment record
)

// ID is the primary identifier type for all Carebill entities.
// It wraps a TypeID providing a prefix-qualified, globally unique,
// sortable, URL-safe identifier in the format "prefix_suffix".
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new globally unique ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string (e.g., "cust_01h2xcejqtf2nbrexx3vqjhp41")
// into an ID. Returns an error if the string is not valid.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses a TypeID string and validates that its prefix
// matches the expected value.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}

	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}

	return parsed, nil
}

// MustParse is like Parse but panics on error. Use for hardcoded ID values.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}

	return parsed
}

// MustParseWithPrefix is like ParseWithPrefix but panics on error.
func MustParseWithPrefix(s string, expected Prefix) ID {
	parsed, err := ParseWithPrefix(s, expected)
	if err != nil {
		panic(fmt.Sprintf("id: must parse with prefix %q: %v", expected, err))
	}

	return parsed
}

// ──────────────────────────────────────────────────
// Type aliases per entity
// ──────────────────────────────────────────────────

// CompanyID is a type-safe identifier for companies (prefix: "comp").
type CompanyID = ID

// CustomerID is a type-safe identifier for customers (prefix: "cust").
type CustomerID = ID

// SubscriptionID is a type-safe identifier for subscriptions (prefix: "sub").
type SubscriptionID = ID

// FundingID is a type-safe identifier for fundings (prefix: "fund").
type FundingID = ID

// EventID is a type-safe identifier for events (prefix: "evt").
type EventID = ID

// BillID is a type-safe identifier for bills (prefix: "bill").
type BillID = ID

// CreditNoteID is a type-safe identifier for credit notes (prefix: "cn").
type CreditNoteID = ID

// BillSlipID is a type-safe identifier for bill slips (prefix: "bslip").
type BillSlipID = ID

// PayerID is a type-safe identifier for third-party payers (prefix: "tpp").
type PayerID = ID

// BillingItemID is a type-safe identifier for billing items (prefix: "item").
type BillingItemID = ID

// PaymentID is a type-safe identifier for payments (prefix: "pay").
type PaymentID = ID

// AnyID is a type alias that accepts any valid prefix.
type AnyID = ID

// ──────────────────────────────────────────────────
// Convenience constructors
// ──────────────────────────────────────────────────

// NewCompanyID generates a new unique company ID.
func NewCompanyID() ID { return New(PrefixCompany) }

// NewCustomerID generates a new unique customer ID.
func NewCustomerID() ID { return New(PrefixCustomer) }

// NewSubscriptionID generates a new unique subscription ID.
func NewSubscriptionID() ID { return New(PrefixSubscription) }

// NewFundingID generates a new unique funding ID.
func NewFundingID() ID { return New(PrefixFunding) }

// NewEventID generates a new unique event ID.
func NewEventID() ID { return New(PrefixEvent) }

// NewBillID generates a new unique bill ID.
func NewBillID() ID { return New(PrefixBill) }

// NewCreditNoteID generates a new unique credit note ID.
func NewCreditNoteID() ID { return New(PrefixCreditNote) }

// NewBillSlipID generates a new unique bill slip ID.
func NewBillSlipID() ID { return New(PrefixBillSlip) }

// NewPayerID generates a new unique third-party payer ID.
func NewPayerID() ID { return New(PrefixPayer) }

// NewBillingItemID generates a new unique billing item ID.
func NewBillingItemID() ID { return New(PrefixBillingItem) }

// NewPaymentID generates a new unique payment ID.
func NewPaymentID() ID { return New(PrefixPayment) }

// ──────────────────────────────────────────────────
// Convenience parsers
// ──────────────────────────────────────────────────

// ParseCompanyID parses a string and validates the "comp" prefix.
func ParseCompanyID(s string) (ID, error) { return ParseWithPrefix(s, PrefixCompany) }

// ParseCustomerID parses a string and validates the "cust" prefix.
func ParseCustomerID(s string) (ID, error) { return ParseWithPrefix(s, PrefixCustomer) }

// ParseSubscriptionID parses a string and validates the "sub" prefix.
func ParseSubscriptionID(s string) (ID, error) { return ParseWithPrefix(s, PrefixSubscription) }

// ParseFundingID parses a string and validates the "fund" prefix.
func ParseFundingID(s string) (ID, error) { return ParseWithPrefix(s, PrefixFunding) }

// ParseEventID parses a string and validates the "evt" prefix.
func ParseEventID(s string) (ID, error) { return ParseWithPrefix(s, PrefixEvent) }

// ParseBillID parses a string and validates the "bill" prefix.
func ParseBillID(s string) (ID, error) { return ParseWithPrefix(s, PrefixBill) }

// ParseCreditNoteID parses a string and validates the "cn" prefix.
func ParseCreditNoteID(s string) (ID, error) { return ParseWithPrefix(s, PrefixCreditNote) }

// ParseBillSlipID parses a string and validates the "bslip" prefix.
func ParseBillSlipID(s string) (ID, error) { return ParseWithPrefix(s, PrefixBillSlip) }

// ParsePayerID parses a string and validates the "tpp" prefix.
func ParsePayerID(s string) (ID, error) { return ParseWithPrefix(s, PrefixPayer) }

// ParseBillingItemID parses a string and validates the "item" prefix.
func ParseBillingItemID(s string) (ID, error) { return ParseWithPrefix(s, PrefixBillingItem) }

// ParsePaymentID parses a string and validates the "pay" prefix.
func ParsePaymentID(s string) (ID, error) { return ParseWithPrefix(s, PrefixPayment) }

// ParseAny parses a string into an ID without type checking the prefix.
func ParseAny(s string) (ID, error) { return Parse(s) }

// ──────────────────────────────────────────────────
// ID methods
// ──────────────────────────────────────────────────

// String returns the full TypeID string representation (prefix_suffix).
// Returns an empty string for the Nil ID.
func (i ID) String() string {
	if !i.valid {
		return ""
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}

	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}

	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}

// Value implements driver.Valuer for database storage.
// Returns nil for the Nil ID so that optional foreign key columns store NULL.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // nil is the canonical NULL for driver.Valuer
	}

	return i.inner.String(), nil
}

// Scan implements sql.Scanner for database retrieval.
func (i *ID) Scan(src any) error {
	if src == nil {
		*i = Nil

		return nil
	}

	switch v := src.(type) {
	case string:
		if v == "" {
			*i = Nil

			return nil
		}

		return i.UnmarshalText([]byte(v))
	case []byte:
		if len(v) == 0 {
			*i = Nil

			return nil
		}

		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
}
