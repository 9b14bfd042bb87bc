package carebill

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/subscription"
	"github.com/xraph/carebill/temporal"
	"github.com/xraph/carebill/types"
)

// ──────────────────────────────────────────────────
// Subscription Management
// ──────────────────────────────────────────────────

// CreateSubscription subscribes a customer to a service. A customer holds at
// most one subscription per service name.
func (e *Engine) CreateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	if sub.ServiceName == "" {
		return ValidationError{Field: "service_name", Message: "service name is required"}
	}
	if len(sub.Versions) == 0 {
		return ValidationError{Field: "versions", Message: "at least one pricing version is required"}
	}
	if err := temporal.Validate(sub.Versions); err != nil {
		return err
	}

	cust, err := e.store.GetCustomer(ctx, sub.CompanyID, sub.CustomerID)
	if err != nil {
		return err
	}
	if cust.IsArchived() {
		return ErrCustomerArchived
	}

	existing, err := e.store.ListSubscriptionsByCustomer(ctx, sub.CompanyID, sub.CustomerID)
	if err != nil {
		return err
	}
	for _, s := range existing {
		if s.ServiceName == sub.ServiceName {
			return fmt.Errorf("%w: %q", ErrDuplicateService, sub.ServiceName)
		}
	}

	if sub.ID == (id.SubscriptionID{}) {
		sub.ID = id.NewSubscriptionID()
	}
	sub.Entity = types.NewEntity()

	if err := e.store.CreateSubscription(ctx, sub); err != nil {
		return err
	}

	e.plugins.EmitSubscriptionCreated(ctx, sub)
	return nil
}

// GetSubscription retrieves a subscription by ID.
func (e *Engine) GetSubscription(ctx context.Context, companyID id.CompanyID, subID id.SubscriptionID) (*subscription.Subscription, error) {
	return e.store.GetSubscription(ctx, companyID, subID)
}

// ListSubscriptions lists a customer's subscriptions.
func (e *Engine) ListSubscriptions(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) ([]*subscription.Subscription, error) {
	return e.store.ListSubscriptionsByCustomer(ctx, companyID, customerID)
}

// AddSubscriptionVersion appends a pricing version to the subscription
// history. Past versions are never edited; the new version's start ends the
// previous one.
func (e *Engine) AddSubscriptionVersion(ctx context.Context, companyID id.CompanyID, subID id.SubscriptionID, ver subscription.Version) error {
	sub, err := e.store.GetSubscription(ctx, companyID, subID)
	if err != nil {
		return err
	}

	if ver.CreatedAt.IsZero() {
		ver.CreatedAt = e.now().UTC()
	}

	next := append(append([]subscription.Version{}, sub.Versions...), ver)
	if err := temporal.Validate(next); err != nil {
		return err
	}

	sub.Versions = next
	sub.Touch()
	return e.store.UpdateSubscription(ctx, sub)
}

// SubscriptionVersionAt resolves the pricing version applicable at a date.
func (e *Engine) SubscriptionVersionAt(ctx context.Context, companyID id.CompanyID, subID id.SubscriptionID, at time.Time) (subscription.Version, error) {
	sub, err := e.store.GetSubscription(ctx, companyID, subID)
	if err != nil {
		return subscription.Version{}, err
	}
	return sub.VersionAt(at)
}
