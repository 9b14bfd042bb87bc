package company

import (
	"context"

	"github.com/xraph/carebill/id"
)

type Store interface {
	Create(ctx context.Context, c *Company) error
	Get(ctx context.Context, companyID id.CompanyID) (*Company, error)
	Update(ctx context.Context, c *Company) error
}
