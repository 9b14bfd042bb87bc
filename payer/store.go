package payer

import (
	"context"

	"github.com/xraph/carebill/id"
)

type Store interface {
	Create(ctx context.Context, p *ThirdPartyPayer) error
	Get(ctx context.Context, companyID id.CompanyID, payerID id.PayerID) (*ThirdPartyPayer, error)
	List(ctx context.Context, companyID id.CompanyID) ([]*ThirdPartyPayer, error)
}
