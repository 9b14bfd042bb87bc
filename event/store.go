package event

import (
	"context"
	"time"

	"github.com/xraph/carebill/id"
)

type Store interface {
	Create(ctx context.Context, e *Event) error
	Get(ctx context.Context, companyID id.CompanyID, eventID id.EventID) (*Event, error)
	GetMany(ctx context.Context, companyID id.CompanyID, eventIDs []id.EventID) ([]*Event, error)
	ListByCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) ([]*Event, error)
	Update(ctx context.Context, e *Event) error
}

// ListOpts narrows event listings.
type ListOpts struct {
	SubscriptionID id.SubscriptionID
	Start          time.Time
	End            time.Time
	UnbilledOnly   bool
}
