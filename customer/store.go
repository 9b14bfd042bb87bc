package customer

import (
	"context"

	"github.com/xraph/carebill/id"
)

type Store interface {
	Create(ctx context.Context, c *Customer) error
	Get(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) (*Customer, error)
	List(ctx context.Context, companyID id.CompanyID) ([]*Customer, error)
	Update(ctx context.Context, c *Customer) error
	Delete(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) error
}
