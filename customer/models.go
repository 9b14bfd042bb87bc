package customer

import (
	"time"

	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/types"
)

// Status is the lifecycle state of a customer.
// Transitions run active → stopped → archived; archived is terminal.
type Status string

const (
	StatusActive   Status = "active"
	StatusStopped  Status = "stopped"
	StatusArchived Status = "archived"
)

// StopReason explains why care for a customer ended.
type StopReason string

const (
	StopReasonDeath       StopReason = "death"
	StopReasonNursingHome StopReason = "nursing_home"
	StopReasonHospital    StopReason = "hospitalization"
	StopReasonQuality     StopReason = "quality"
	StopReasonOther       StopReason = "other"
)

// ValidStopReason reports whether r belongs to the enumerated reason set.
func ValidStopReason(r StopReason) bool {
	switch r {
	case StopReasonDeath, StopReasonNursingHome, StopReasonHospital, StopReasonQuality, StopReasonOther:
		return true
	default:
		return false
	}
}

type Identity struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type Customer struct {
	types.Entity
	ID        id.CustomerID `json:"id"`
	CompanyID id.CompanyID  `json:"company_id"`
	Identity  Identity      `json:"identity"`

	StoppedAt  *time.Time `json:"stopped_at,omitempty"`
	StopReason StopReason `json:"stop_reason,omitempty"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
}

// Status derives the lifecycle state from the stop/archive timestamps.
func (c *Customer) Status() Status {
	switch {
	case c.ArchivedAt != nil:
		return StatusArchived
	case c.StoppedAt != nil:
		return StatusStopped
	default:
		return StatusActive
	}
}

// IsStopped reports whether care for the customer has been stopped.
func (c *Customer) IsStopped() bool { return c.StoppedAt != nil }

// IsArchived reports whether the customer has been archived.
func (c *Customer) IsArchived() bool { return c.ArchivedAt != nil }
