package billingitem

import (
	"context"

	"github.com/xraph/carebill/id"
)

type Store interface {
	Create(ctx context.Context, b *BillingItem) error
	Get(ctx context.Context, companyID id.CompanyID, itemID id.BillingItemID) (*BillingItem, error)
	List(ctx context.Context, companyID id.CompanyID) ([]*BillingItem, error)
}
