package postgres

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/carebill/bill"
	"github.com/xraph/carebill/creditnote"
	"github.com/xraph/carebill/event"
	"github.com/xraph/carebill/funding"
	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/subscription"
)

func decToStr(d decimal.Decimal) string { return d.String() }

func strToDec(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func idToStr(i id.ID) string {
	if i.IsNil() {
		return ""
	}
	return i.String()
}

func strToID(s string) id.ID {
	if s == "" {
		return id.Nil
	}
	parsed, err := id.Parse(s)
	if err != nil {
		return id.Nil
	}
	return parsed
}

// ==================== JSONB payloads ====================
//
// Versions, grouped event lines and billing snapshots nest too deep for
// columns and are only ever read back whole, so they ride in JSONB using the
// domain types' own json tags.

func marshalSubscriptionVersions(versions []subscription.Version) ([]byte, error) {
	return json.Marshal(versions)
}

func unmarshalSubscriptionVersions(data []byte) ([]subscription.Version, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var versions []subscription.Version
	if err := json.Unmarshal(data, &versions); err != nil {
		return nil, err
	}
	return versions, nil
}

func marshalFundingVersions(versions []funding.Version) ([]byte, error) {
	return json.Marshal(versions)
}

func unmarshalFundingVersions(data []byte) ([]funding.Version, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var versions []funding.Version
	if err := json.Unmarshal(data, &versions); err != nil {
		return nil, err
	}
	return versions, nil
}

func marshalCancellation(c *event.Cancellation) ([]byte, error) {
	if c == nil {
		return nil, nil
	}
	return json.Marshal(c)
}

func unmarshalCancellation(data []byte) (*event.Cancellation, error) {
	if len(data) == 0 {
		return nil, nil
	}
	c := new(event.Cancellation)
	if err := json.Unmarshal(data, c); err != nil {
		return nil, err
	}
	return c, nil
}

func marshalBillSnapshot(b *event.BillSnapshot) ([]byte, error) {
	if b == nil {
		return nil, nil
	}
	return json.Marshal(b)
}

func unmarshalBillSnapshot(data []byte) (*event.BillSnapshot, error) {
	if len(data) == 0 {
		return nil, nil
	}
	b := new(event.BillSnapshot)
	if err := json.Unmarshal(data, b); err != nil {
		return nil, err
	}
	return b, nil
}

func marshalSubscriptionGroups(groups []bill.SubscriptionGroup) ([]byte, error) {
	return json.Marshal(groups)
}

func unmarshalSubscriptionGroups(data []byte) ([]bill.SubscriptionGroup, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var groups []bill.SubscriptionGroup
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func marshalItemLines(items []bill.ItemLine) ([]byte, error) {
	return json.Marshal(items)
}

func unmarshalItemLines(data []byte) ([]bill.ItemLine, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var items []bill.ItemLine
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func marshalEventLines(lines []bill.EventLine) ([]byte, error) {
	return json.Marshal(lines)
}

func unmarshalEventLines(data []byte) ([]bill.EventLine, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var lines []bill.EventLine
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// nullableTime converts between *time.Time and what pgx scans for a
// nullable TIMESTAMPTZ. Declared for symmetry with the scan targets below.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// creditNoteScan collects the column targets of one credit note row.
type creditNoteScan struct {
	ID                 string
	CompanyID          string
	CustomerID         string
	PayerID            string
	Number             string
	Date               time.Time
	Origin             string
	SubscriptionID     string
	Events             []byte
	InclTaxesCustomer  string
	ExclTaxesCustomer  string
	InclTaxesTpp       string
	ExclTaxesTpp       string
	LinkedCreditNoteID string
	IsEditable         bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (r *creditNoteScan) toDomain() (*creditnote.CreditNote, error) {
	events, err := unmarshalEventLines(r.Events)
	if err != nil {
		return nil, err
	}
	cn := &creditnote.CreditNote{
		ID:                 strToID(r.ID),
		CompanyID:          strToID(r.CompanyID),
		CustomerID:         strToID(r.CustomerID),
		PayerID:            strToID(r.PayerID),
		Number:             r.Number,
		Date:               r.Date,
		Origin:             bill.Origin(r.Origin),
		SubscriptionID:     strToID(r.SubscriptionID),
		Events:             events,
		InclTaxesCustomer:  strToDec(r.InclTaxesCustomer),
		ExclTaxesCustomer:  strToDec(r.ExclTaxesCustomer),
		InclTaxesTpp:       strToDec(r.InclTaxesTpp),
		ExclTaxesTpp:       strToDec(r.ExclTaxesTpp),
		LinkedCreditNoteID: strToID(r.LinkedCreditNoteID),
		IsEditable:         r.IsEditable,
	}
	cn.CreatedAt = r.CreatedAt
	cn.UpdatedAt = r.UpdatedAt
	return cn, nil
}

// billScan collects the column targets of one bill row.
type billScan struct {
	ID            string
	CompanyID     string
	CustomerID    string
	PayerID       string
	Number        string
	Date          time.Time
	Type          string
	Origin        string
	NetInclTaxes  string
	Subscriptions []byte
	BillingItems  []byte
	IsEditable    bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (r *billScan) toDomain() (*bill.Bill, error) {
	groups, err := unmarshalSubscriptionGroups(r.Subscriptions)
	if err != nil {
		return nil, err
	}
	items, err := unmarshalItemLines(r.BillingItems)
	if err != nil {
		return nil, err
	}
	b := &bill.Bill{
		ID:            strToID(r.ID),
		CompanyID:     strToID(r.CompanyID),
		CustomerID:    strToID(r.CustomerID),
		PayerID:       strToID(r.PayerID),
		Number:        r.Number,
		Date:          r.Date,
		Type:          bill.Type(r.Type),
		Origin:        bill.Origin(r.Origin),
		NetInclTaxes:  strToDec(r.NetInclTaxes),
		Subscriptions: groups,
		BillingItems:  items,
		IsEditable:    r.IsEditable,
	}
	b.CreatedAt = r.CreatedAt
	b.UpdatedAt = r.UpdatedAt
	return b, nil
}

// eventScan collects the column targets of one event row.
type eventScan struct {
	ID             string
	CompanyID      string
	CustomerID     string
	SubscriptionID string
	AuxiliaryID    string
	StartDate      time.Time
	EndDate        time.Time
	IsCancelled    bool
	Cancellation   []byte
	IsBilled       bool
	Bills          []byte
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (r *eventScan) toDomain() (*event.Event, error) {
	cancellation, err := unmarshalCancellation(r.Cancellation)
	if err != nil {
		return nil, err
	}
	snapshot, err := unmarshalBillSnapshot(r.Bills)
	if err != nil {
		return nil, err
	}
	e := &event.Event{
		ID:             strToID(r.ID),
		CompanyID:      strToID(r.CompanyID),
		CustomerID:     strToID(r.CustomerID),
		SubscriptionID: strToID(r.SubscriptionID),
		AuxiliaryID:    strToID(r.AuxiliaryID),
		StartDate:      r.StartDate,
		EndDate:        r.EndDate,
		IsCancelled:    r.IsCancelled,
		Cancellation:   cancellation,
		IsBilled:       r.IsBilled,
		Bills:          snapshot,
	}
	e.CreatedAt = r.CreatedAt
	e.UpdatedAt = r.UpdatedAt
	return e, nil
}
