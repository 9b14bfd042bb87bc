// Package payer models third-party payers: organizations (public subsidy
// bodies, insurance funds) covering part of a customer's care cost.
package payer

import (
	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/types"
)

type BillingMode string

const (
	// BillingDirect: the payer is billed directly for its share.
	BillingDirect BillingMode = "direct"
	// BillingIndirect: the customer is billed in full and reimbursed.
	BillingIndirect BillingMode = "indirect"
)

type ThirdPartyPayer struct {
	types.Entity
	ID          id.PayerID   `json:"id"`
	CompanyID   id.CompanyID `json:"company_id"`
	Name        string       `json:"name"`
	BillingMode BillingMode  `json:"billing_mode"`

	// TeletransmissionID is the payer's electronic transmission identifier.
	// When set, fundings referencing this payer must carry a funding plan id.
	TeletransmissionID string `json:"teletransmission_id,omitempty"`
}

// RequiresFundingPlan reports whether fundings for this payer must
// reference a funding plan.
func (p *ThirdPartyPayer) RequiresFundingPlan() bool {
	return p.TeletransmissionID != ""
}
