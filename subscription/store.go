package subscription

import (
	"context"

	"github.com/xraph/carebill/id"
)

type Store interface {
	Create(ctx context.Context, s *Subscription) error
	Get(ctx context.Context, companyID id.CompanyID, subID id.SubscriptionID) (*Subscription, error)
	ListByCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) ([]*Subscription, error)
	Update(ctx context.Context, s *Subscription) error
}
