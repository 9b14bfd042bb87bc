package company

import (
	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/types"
)

// Company is a billing tenant. Every query in the engine is scoped to one
// company; cross-company references surface as not-found.
type Company struct {
	types.Entity
	ID   id.CompanyID `json:"id"`
	Name string       `json:"name"`

	// Code is the numeric prefix embedded in every document number
	// issued for this company (e.g. "FACT-<code><yymm><seq>").
	Code string `json:"code"`
}
