package creditnote

import (
	"context"
	"time"

	"github.com/xraph/carebill/id"
)

type Store interface {
	Get(ctx context.Context, companyID id.CompanyID, noteID id.CreditNoteID) (*CreditNote, error)
	List(ctx context.Context, companyID id.CompanyID, opts ListOpts) ([]*CreditNote, error)
	Delete(ctx context.Context, companyID id.CompanyID, noteID id.CreditNoteID) error

	// CountByCustomer reports how many credit notes reference the customer.
	// Used by the hard-delete guard.
	CountByCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) (int64, error)
}

type ListOpts struct {
	CustomerID id.CustomerID
	PayerID    id.PayerID
	PayerOnly  bool
	Start      time.Time
	End        time.Time
	Limit      int
	Offset     int
}
