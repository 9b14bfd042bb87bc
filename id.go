package carebill

import "github.com/xraph/carebill/id"

// ID is the primary identifier type for all Carebill entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
