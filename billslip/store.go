package billslip

import (
	"context"

	"github.com/xraph/carebill/id"
)

type Store interface {
	Create(ctx context.Context, s *BillSlip) error
	GetByPayerMonth(ctx context.Context, companyID id.CompanyID, payerID id.PayerID, month string) (*BillSlip, error)
	List(ctx context.Context, companyID id.CompanyID) ([]*BillSlip, error)
}
