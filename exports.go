package carebill

import "github.com/xraph/carebill/types"

// Re-export common types for convenience so users don't have to import types package.

// Entity is re-exported from types package.
type Entity = types.Entity

// Re-export decimal helpers
var (
	Round2 = types.Round2
	Sum    = types.Sum
	Dec    = types.Dec
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
