package funding

import (
	"context"

	"github.com/xraph/carebill/id"
)

type Store interface {
	Create(ctx context.Context, f *Funding) error
	Get(ctx context.Context, companyID id.CompanyID, fundingID id.FundingID) (*Funding, error)
	ListBySubscription(ctx context.Context, companyID id.CompanyID, subID id.SubscriptionID) ([]*Funding, error)
	ListByCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) ([]*Funding, error)
	Update(ctx context.Context, f *Funding) error

	// ListHistory returns the consumption ledger rows for one funding and
	// period. The ledger is append-only; rows are written inside the bill
	// creation transaction, never directly.
	ListHistory(ctx context.Context, companyID id.CompanyID, fundingID id.FundingID, period string) ([]History, error)
}
