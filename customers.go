package carebill

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/carebill/customer"
	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/types"
)

// ──────────────────────────────────────────────────
// Customer Management
// ──────────────────────────────────────────────────

// CreateCustomer creates a new customer.
func (e *Engine) CreateCustomer(ctx context.Context, c *customer.Customer) error {
	if c.Identity.LastName == "" {
		return ValidationError{Field: "identity.last_name", Message: "last name is required"}
	}

	if c.ID == (id.CustomerID{}) {
		c.ID = id.NewCustomerID()
	}
	c.Entity = types.NewEntity()

	return e.store.CreateCustomer(ctx, c)
}

// GetCustomer retrieves a customer by ID.
func (e *Engine) GetCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) (*customer.Customer, error) {
	return e.store.GetCustomer(ctx, companyID, customerID)
}

// ListCustomers lists all customers of a company.
func (e *Engine) ListCustomers(ctx context.Context, companyID id.CompanyID) ([]*customer.Customer, error) {
	return e.store.ListCustomers(ctx, companyID)
}

// StopCustomer ends care for a customer. The customer stays visible and
// billable for past events; archiving is a separate, later transition.
func (e *Engine) StopCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID, stoppedAt time.Time, reason customer.StopReason) error {
	if !customer.ValidStopReason(reason) {
		return fmt.Errorf("%w: %q", ErrInvalidStopReason, reason)
	}

	c, err := e.store.GetCustomer(ctx, companyID, customerID)
	if err != nil {
		return err
	}

	if c.IsArchived() {
		return ErrCustomerArchived
	}
	if c.IsStopped() {
		return ErrCustomerStopped
	}
	if stoppedAt.Before(c.CreatedAt) {
		return fmt.Errorf("%w: %s before %s",
			ErrInvalidStopDate, stoppedAt.Format(time.RFC3339), c.CreatedAt.Format(time.RFC3339))
	}

	c.StoppedAt = &stoppedAt
	c.StopReason = reason
	c.Touch()

	if err := e.store.UpdateCustomer(ctx, c); err != nil {
		return err
	}

	e.logger.Info("customer stopped",
		"customer_id", c.ID.String(),
		"reason", string(reason),
	)
	e.plugins.EmitCustomerStopped(ctx, c)
	return nil
}

// ArchiveCustomer moves a stopped customer to the terminal archived state.
// Every event of the customer must be settled first: billed, or dated before
// care stopped, or cancelled under a condition that does not require
// invoicing. One blocking event rejects the whole transition.
func (e *Engine) ArchiveCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID, archivedAt time.Time) error {
	c, err := e.store.GetCustomer(ctx, companyID, customerID)
	if err != nil {
		return err
	}

	if c.IsArchived() {
		return ErrCustomerArchived
	}
	if !c.IsStopped() {
		return ErrCustomerNotStopped
	}
	if !archivedAt.After(*c.StoppedAt) {
		return fmt.Errorf("%w: %s not after %s",
			ErrInvalidArchiveDate, archivedAt.Format(time.RFC3339), c.StoppedAt.Format(time.RFC3339))
	}

	events, err := e.store.ListEventsByCustomer(ctx, companyID, customerID)
	if err != nil {
		return err
	}
	for _, ev := range events {
		if ev.BlocksArchive(*c.StoppedAt) {
			return fmt.Errorf("%w: event %s", ErrUnbilledEvents, ev.ID)
		}
	}

	c.ArchivedAt = &archivedAt
	c.Touch()

	if err := e.store.UpdateCustomer(ctx, c); err != nil {
		return err
	}

	e.logger.Info("customer archived", "customer_id", c.ID.String())
	e.plugins.EmitCustomerArchived(ctx, c)
	return nil
}

// DeleteCustomer hard-deletes a customer. Rejected once any financial
// document references the customer; stopped or archived customers with
// documents stay forever.
func (e *Engine) DeleteCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) error {
	if _, err := e.store.GetCustomer(ctx, companyID, customerID); err != nil {
		return err
	}

	bills, err := e.store.CountBillsByCustomer(ctx, companyID, customerID)
	if err != nil {
		return err
	}
	notes, err := e.store.CountCreditNotesByCustomer(ctx, companyID, customerID)
	if err != nil {
		return err
	}
	if bills > 0 || notes > 0 {
		return fmt.Errorf("%w: %d bills, %d credit notes", ErrCustomerHasDocuments, bills, notes)
	}

	if err := e.store.DeleteCustomer(ctx, companyID, customerID); err != nil {
		return err
	}

	e.plugins.EmitCustomerDeleted(ctx, customerID.String())
	return nil
}
