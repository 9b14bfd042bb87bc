package carebill_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/carebill"
	"github.com/xraph/carebill/company"
	"github.com/xraph/carebill/customer"
	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/store/memory"
	"github.com/xraph/carebill/subscription"
	"github.com/xraph/carebill/types"
)

// TestDocumentationExamples verifies that the examples in the documentation compile
func TestDocumentationExamples(t *testing.T) {
	// Test Quick Start example from the package doc
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use PostgreSQL in production)
		store := memory.New()

		// Initialize the engine
		eng := carebill.New(store,
			carebill.WithLogger(slog.Default()),
		)

		// Start the engine
		ctx := context.Background()
		if err := eng.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer eng.Stop()

		// Create a company
		comp := &company.Company{Name: "Alenvi", Code: "101"}
		if err := eng.CreateCompany(ctx, comp); err != nil {
			t.Fatal(err)
		}

		// Create a customer
		cust := &customer.Customer{
			CompanyID: comp.ID,
			Identity:  customer.Identity{FirstName: "Jeanne", LastName: "Durand"},
		}
		if err := eng.CreateCustomer(ctx, cust); err != nil {
			t.Fatal(err)
		}

		// Subscribe the customer to a service
		sub := &subscription.Subscription{
			CompanyID:   comp.ID,
			CustomerID:  cust.ID,
			ServiceName: "home care",
			VAT:         types.Dec("5.5"),
			Versions: []subscription.Version{
				{UnitRate: types.Dec("20"), StartDate: time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)},
			},
		}
		if err := eng.CreateSubscription(ctx, sub); err != nil {
			t.Fatal(err)
		}

		// Resolve the pricing version applicable at a date
		ver, err := eng.SubscriptionVersionAt(ctx, comp.ID, sub.ID, time.Date(2019, 5, 6, 0, 0, 0, 0, time.UTC))
		if err != nil {
			t.Fatal(err)
		}
		if !ver.UnitRate.Equal(types.Dec("20")) {
			t.Fatalf("unexpected unit rate: %s", ver.UnitRate)
		}
	})

	// TypeID example from the package doc
	t.Run("TypeIDExample", func(t *testing.T) {
		customerID := id.NewCustomerID()
		if customerID.Prefix() != id.PrefixCustomer {
			t.Fatalf("unexpected prefix: %s", customerID.Prefix())
		}

		parsed, err := id.Parse(customerID.String())
		if err != nil {
			t.Fatal(err)
		}
		if parsed != customerID {
			t.Fatal("round-trip changed the ID")
		}
	})
}
