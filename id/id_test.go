package id_test

import (
	"strings"
	"testing"

	"github.com/xraph/carebill/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"CompanyID", id.NewCompanyID, "comp_"},
		{"CustomerID", id.NewCustomerID, "cust_"},
		{"SubscriptionID", id.NewSubscriptionID, "sub_"},
		{"FundingID", id.NewFundingID, "fund_"},
		{"EventID", id.NewEventID, "evt_"},
		{"BillID", id.NewBillID, "bill_"},
		{"CreditNoteID", id.NewCreditNoteID, "cn_"},
		{"BillSlipID", id.NewBillSlipID, "bslip_"},
		{"PayerID", id.NewPayerID, "tpp_"},
		{"BillingItemID", id.NewBillingItemID, "item_"},
		{"PaymentID", id.NewPaymentID, "pay_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestNew(t *testing.T) {
	i := id.New(id.PrefixCustomer)
	if i.IsNil() {
		t.Fatal("expected non-nil ID")
	}
	if i.Prefix() != id.PrefixCustomer {
		t.Errorf("expected prefix %q, got %q", id.PrefixCustomer, i.Prefix())
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
	}{
		{"CompanyID", id.NewCompanyID, id.ParseCompanyID},
		{"CustomerID", id.NewCustomerID, id.ParseCustomerID},
		{"SubscriptionID", id.NewSubscriptionID, id.ParseSubscriptionID},
		{"FundingID", id.NewFundingID, id.ParseFundingID},
		{"EventID", id.NewEventID, id.ParseEventID},
		{"BillID", id.NewBillID, id.ParseBillID},
		{"CreditNoteID", id.NewCreditNoteID, id.ParseCreditNoteID},
		{"BillSlipID", id.NewBillSlipID, id.ParseBillSlipID},
		{"PayerID", id.NewPayerID, id.ParsePayerID},
		{"BillingItemID", id.NewBillingItemID, id.ParseBillingItemID},
		{"PaymentID", id.NewPaymentID, id.ParsePaymentID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			parsed, err := tt.parseFn(original.String())
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if parsed.String() != original.String() {
				t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
			}
		})
	}
}

func TestCrossTypeRejection(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		parseFn func(string) (id.ID, error)
	}{
		{"ParseCustomerID rejects sub_", id.NewSubscriptionID().String(), id.ParseCustomerID},
		{"ParseSubscriptionID rejects fund_", id.NewFundingID().String(), id.ParseSubscriptionID},
		{"ParseFundingID rejects evt_", id.NewEventID().String(), id.ParseFundingID},
		{"ParseEventID rejects bill_", id.NewBillID().String(), id.ParseEventID},
		{"ParseBillID rejects cn_", id.NewCreditNoteID().String(), id.ParseBillID},
		{"ParseCreditNoteID rejects bslip_", id.NewBillSlipID().String(), id.ParseCreditNoteID},
		{"ParseBillSlipID rejects tpp_", id.NewPayerID().String(), id.ParseBillSlipID},
		{"ParsePayerID rejects item_", id.NewBillingItemID().String(), id.ParsePayerID},
		{"ParseBillingItemID rejects pay_", id.NewPaymentID().String(), id.ParseBillingItemID},
		{"ParsePaymentID rejects comp_", id.NewCompanyID().String(), id.ParsePaymentID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.parseFn(tt.input)
			if err == nil {
				t.Errorf("expected error for cross-type parse of %q, got nil", tt.input)
			}
		})
	}
}

func TestParseAny(t *testing.T) {
	ids := []id.ID{
		id.NewCompanyID(),
		id.NewCustomerID(),
		id.NewSubscriptionID(),
		id.NewFundingID(),
		id.NewEventID(),
		id.NewBillID(),
		id.NewCreditNoteID(),
		id.NewBillSlipID(),
		id.NewPayerID(),
		id.NewBillingItemID(),
		id.NewPaymentID(),
	}

	for _, i := range ids {
		t.Run(i.String(), func(t *testing.T) {
			parsed, err := id.ParseAny(i.String())
			if err != nil {
				t.Fatalf("ParseAny(%q) failed: %v", i.String(), err)
			}
			if parsed.String() != i.String() {
				t.Errorf("round-trip mismatch: %q != %q", parsed.String(), i.String())
			}
		})
	}
}

func TestParseWithPrefix(t *testing.T) {
	i := id.NewCustomerID()
	parsed, err := id.ParseWithPrefix(i.String(), id.PrefixCustomer)
	if err != nil {
		t.Fatalf("ParseWithPrefix failed: %v", err)
	}
	if parsed.String() != i.String() {
		t.Errorf("mismatch: %q != %q", parsed.String(), i.String())
	}

	_, err = id.ParseWithPrefix(i.String(), id.PrefixFunding)
	if err == nil {
		t.Error("expected error for wrong prefix")
	}
}

func TestParseEmpty(t *testing.T) {
	_, err := id.Parse("")
	if err == nil {
		t.Error("expected error for empty string")
	}
}

func TestNilID(t *testing.T) {
	var i id.ID
	if !i.IsNil() {
		t.Error("zero-value ID should be nil")
	}
	if i.String() != "" {
		t.Errorf("expected empty string, got %q", i.String())
	}
	if i.Prefix() != "" {
		t.Errorf("expected empty prefix, got %q", i.Prefix())
	}
}

func TestMarshalUnmarshalText(t *testing.T) {
	original := id.NewBillID()
	data, err := original.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText failed: %v", err)
	}

	var restored id.ID
	if unmarshalErr := restored.UnmarshalText(data); unmarshalErr != nil {
		t.Fatalf("UnmarshalText failed: %v", unmarshalErr)
	}
	if restored.String() != original.String() {
		t.Errorf("mismatch: %q != %q", restored.String(), original.String())
	}

	// Nil round-trip.
	var nilID id.ID
	data, err = nilID.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText(nil) failed: %v", err)
	}
	var restored2 id.ID
	if err := restored2.UnmarshalText(data); err != nil {
		t.Fatalf("UnmarshalText(nil) failed: %v", err)
	}
	if !restored2.IsNil() {
		t.Error("expected nil after round-trip of nil ID")
	}
}

func TestValueScan(t *testing.T) {
	original := id.NewSubscriptionID()
	val, err := original.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var scanned id.ID
	if scanErr := scanned.Scan(val); scanErr != nil {
		t.Fatalf("Scan failed: %v", scanErr)
	}
	if scanned.String() != original.String() {
		t.Errorf("mismatch: %q != %q", scanned.String(), original.String())
	}

	// Nil round-trip.
	var nilID id.ID
	val, err = nilID.Value()
	if err != nil {
		t.Fatalf("Value(nil) failed: %v", err)
	}
	if val != nil {
		t.Errorf("expected nil value for nil ID, got %v", val)
	}

	var scanned2 id.ID
	if err := scanned2.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) failed: %v", err)
	}
	if !scanned2.IsNil() {
		t.Error("expected nil after scan of nil")
	}
}

func TestUniqueness(t *testing.T) {
	a := id.NewEventID()
	b := id.NewEventID()
	if a.String() == b.String() {
		t.Errorf("two consecutive NewEventID() calls returned the same ID: %q", a.String())
	}
}
