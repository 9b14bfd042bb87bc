package carebill

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/carebill/bill"
	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/sequence"
	"github.com/xraph/carebill/store"
	"github.com/xraph/carebill/types"
)

// ManualLine is one requested line of a manual bill, referencing a catalog
// billing item.
type ManualLine struct {
	BillingItemID id.BillingItemID
	Count         int64
}

// ──────────────────────────────────────────────────
// Manual Bills
// ──────────────────────────────────────────────────

// CreateManualBill assembles a bill from catalog billing items. At least one
// line is required; the net amount is the sum of count times unit price.
func (e *Engine) CreateManualBill(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID, date time.Time, lines []ManualLine) (*bill.Bill, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyBillingItems
	}
	if date.IsZero() {
		date = e.now()
	}

	comp, err := e.store.GetCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	cust, err := e.store.GetCustomer(ctx, companyID, customerID)
	if err != nil {
		return nil, err
	}
	if cust.IsArchived() {
		return nil, ErrCustomerArchived
	}

	items := make([]bill.ItemLine, 0, len(lines))
	net := decimal.Zero
	for _, line := range lines {
		if line.Count < 1 {
			return nil, ValidationError{Field: "count", Message: "line count must be at least 1"}
		}

		item, err := e.store.GetBillingItem(ctx, companyID, line.BillingItemID)
		if err != nil {
			return nil, err
		}

		incl := item.UnitInclTaxes.Mul(decimal.NewFromInt(line.Count))
		items = append(items, bill.ItemLine{
			BillingItemID: item.ID,
			Name:          item.Name,
			Count:         line.Count,
			UnitInclTaxes: types.Round2(item.UnitInclTaxes),
			InclTaxes:     types.Round2(incl),
			ExclTaxes:     types.Round2(types.ExclTaxes(incl, item.VAT)),
			VAT:           item.VAT,
		})
		net = net.Add(incl)
	}

	b := &bill.Bill{
		Entity:       types.NewEntity(),
		ID:           id.NewBillID(),
		CompanyID:    companyID,
		CustomerID:   customerID,
		Date:         date,
		Type:         bill.TypeManual,
		Origin:       bill.OriginInternal,
		NetInclTaxes: types.Round2(net),
		BillingItems: items,
		IsEditable:   true,
	}

	batch := &store.DocumentBatch{
		Bills:        []*bill.Bill{b},
		RenderNumber: e.renderNumber(comp),
	}
	if err := e.store.CreateDocumentBatch(ctx, companyID, batch); err != nil {
		return nil, err
	}

	e.plugins.EmitSequenceAllocated(ctx, string(sequence.KindBill), b.Number)
	e.plugins.EmitBillCreated(ctx, b)
	return b, nil
}

// ──────────────────────────────────────────────────
// Bill Access
// ──────────────────────────────────────────────────

// GetBill retrieves a bill by ID.
func (e *Engine) GetBill(ctx context.Context, companyID id.CompanyID, billID id.BillID) (*bill.Bill, error) {
	return e.store.GetBill(ctx, companyID, billID)
}

// ListBills lists bills matching the options, ordered by number.
func (e *Engine) ListBills(ctx context.Context, companyID id.CompanyID, opts bill.ListOpts) ([]*bill.Bill, error) {
	return e.store.ListBills(ctx, companyID, opts)
}

// DeleteBill removes a bill. Only internally issued documents that are
// still editable may go, and never for an archived customer.
func (e *Engine) DeleteBill(ctx context.Context, companyID id.CompanyID, billID id.BillID) error {
	b, err := e.store.GetBill(ctx, companyID, billID)
	if err != nil {
		return err
	}

	if !b.IsInternal() {
		return ErrExternalDocument
	}
	if !b.IsEditable {
		return ErrDocumentNotEditable
	}

	cust, err := e.store.GetCustomer(ctx, companyID, b.CustomerID)
	if err != nil {
		return err
	}
	if cust.IsArchived() {
		return ErrCustomerArchived
	}

	if err := e.store.DeleteBill(ctx, companyID, billID); err != nil {
		return err
	}

	e.plugins.EmitBillDeleted(ctx, billID.String())
	return nil
}
