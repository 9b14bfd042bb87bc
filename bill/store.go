package bill

import (
	"context"
	"time"

	"github.com/xraph/carebill/id"
)

type Store interface {
	Get(ctx context.Context, companyID id.CompanyID, billID id.BillID) (*Bill, error)
	List(ctx context.Context, companyID id.CompanyID, opts ListOpts) ([]*Bill, error)
	Delete(ctx context.Context, companyID id.CompanyID, billID id.BillID) error

	// CountByCustomer reports how many bills reference the customer,
	// regardless of origin. Used by the hard-delete guard.
	CountByCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) (int64, error)
}

type ListOpts struct {
	CustomerID id.CustomerID
	PayerID    id.PayerID
	// PayerOnly restricts the listing to third-party-payer bills.
	PayerOnly bool
	Start     time.Time
	End       time.Time
	Limit     int
	Offset    int
}
