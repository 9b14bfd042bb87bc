package carebill

import (
	"context"

	"github.com/xraph/carebill/billingitem"
	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/payer"
	"github.com/xraph/carebill/types"
)

// ──────────────────────────────────────────────────
// Third-Party Payer Management
// ──────────────────────────────────────────────────

// CreatePayer registers a third-party payer. Unless stated otherwise the
// payer is billed directly for its funded share.
func (e *Engine) CreatePayer(ctx context.Context, p *payer.ThirdPartyPayer) error {
	if p.Name == "" {
		return ValidationError{Field: "name", Message: "payer name is required"}
	}
	if p.BillingMode == "" {
		p.BillingMode = payer.BillingDirect
	}

	if p.ID == (id.PayerID{}) {
		p.ID = id.NewPayerID()
	}
	p.Entity = types.NewEntity()

	return e.store.CreatePayer(ctx, p)
}

// GetPayer retrieves a third-party payer by ID.
func (e *Engine) GetPayer(ctx context.Context, companyID id.CompanyID, payerID id.PayerID) (*payer.ThirdPartyPayer, error) {
	return e.store.GetPayer(ctx, companyID, payerID)
}

// ListPayers lists all third-party payers of a company.
func (e *Engine) ListPayers(ctx context.Context, companyID id.CompanyID) ([]*payer.ThirdPartyPayer, error) {
	return e.store.ListPayers(ctx, companyID)
}

// ──────────────────────────────────────────────────
// Billing Item Catalog
// ──────────────────────────────────────────────────

// CreateBillingItem adds an ad-hoc line item to the company catalog.
func (e *Engine) CreateBillingItem(ctx context.Context, b *billingitem.BillingItem) error {
	if b.Name == "" {
		return ValidationError{Field: "name", Message: "billing item name is required"}
	}
	if b.UnitInclTaxes.IsNegative() {
		return ValidationError{Field: "unit_incl_taxes", Message: "unit price cannot be negative"}
	}

	if b.ID == (id.BillingItemID{}) {
		b.ID = id.NewBillingItemID()
	}
	b.Entity = types.NewEntity()

	return e.store.CreateBillingItem(ctx, b)
}

// GetBillingItem retrieves a billing item by ID.
func (e *Engine) GetBillingItem(ctx context.Context, companyID id.CompanyID, itemID id.BillingItemID) (*billingitem.BillingItem, error) {
	return e.store.GetBillingItem(ctx, companyID, itemID)
}

// ListBillingItems lists the company's billing item catalog.
func (e *Engine) ListBillingItems(ctx context.Context, companyID id.CompanyID) ([]*billingitem.BillingItem, error) {
	return e.store.ListBillingItems(ctx, companyID)
}
