package carebill

import (
	"context"
	"fmt"

	"github.com/xraph/carebill/event"
	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/types"
)

// ──────────────────────────────────────────────────
// Events
// ──────────────────────────────────────────────────

// CreateEvent registers a scheduled care intervention. Events normally come
// from the external scheduling system; the engine only validates the parts
// billing depends on.
func (e *Engine) CreateEvent(ctx context.Context, ev *event.Event) error {
	if !ev.EndDate.After(ev.StartDate) {
		return fmt.Errorf("%w: event end must be after start", ErrInvalidDuration)
	}

	sub, err := e.store.GetSubscription(ctx, ev.CompanyID, ev.SubscriptionID)
	if err != nil {
		return err
	}
	if sub.CustomerID != ev.CustomerID {
		return fmt.Errorf("%w: %s", ErrSubscriptionNotFound, ev.SubscriptionID)
	}

	if ev.ID == (id.EventID{}) {
		ev.ID = id.NewEventID()
	}
	ev.Entity = types.NewEntity()

	return e.store.CreateEvent(ctx, ev)
}

// GetEvent retrieves an event by ID.
func (e *Engine) GetEvent(ctx context.Context, companyID id.CompanyID, eventID id.EventID) (*event.Event, error) {
	return e.store.GetEvent(ctx, companyID, eventID)
}

// ListEvents lists a customer's events.
func (e *Engine) ListEvents(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) ([]*event.Event, error) {
	return e.store.ListEventsByCustomer(ctx, companyID, customerID)
}

// CancelEvent marks an event cancelled under the given condition. Billed
// events stay as they are; corrections go through credit notes.
func (e *Engine) CancelEvent(ctx context.Context, companyID id.CompanyID, eventID id.EventID, c event.Cancellation) error {
	ev, err := e.store.GetEvent(ctx, companyID, eventID)
	if err != nil {
		return err
	}

	if ev.IsBilled {
		return fmt.Errorf("%w: %s", ErrEventAlreadyBilled, eventID)
	}
	if ev.IsCancelled {
		return fmt.Errorf("%w: %s", ErrEventCancelled, eventID)
	}

	ev.IsCancelled = true
	ev.Cancellation = &c
	ev.Touch()

	return e.store.UpdateEvent(ctx, ev)
}
