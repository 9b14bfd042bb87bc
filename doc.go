// Package carebill provides a composable home-care billing and reconciliation
// engine for Go applications.
//
// Carebill is designed as a library, not a service. Import it directly into
// your Go application. It provides:
//
//   - Temporal version resolution for subscription pricing and funding terms
//   - Funding ledger with per-period subsidy caps and consumption tracking
//   - Customer/third-party-payer split computation with decimal arithmetic
//   - Collision-free sequential document numbering under concurrent callers
//   - Atomic bill, credit note and bill slip generation
//   - Customer stop/archive lifecycle guards tied to event billing state
//
// # Quick Start
//
// Create an engine instance with your preferred store:
//
//	import (
//	    "github.com/xraph/carebill"
//	    "github.com/xraph/carebill/store/postgres"
//	)
//
//	// Initialize store
//	store, err := postgres.New(ctx, databaseURL)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Create engine
//	eng := carebill.New(store)
//
//	// Start the engine (runs migrations, initializes plugins)
//	if err := eng.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Stop()
//
// # Core Concepts
//
// Subscriptions carry a customer's append-only pricing history:
//
//	sub := &subscription.Subscription{
//	    CompanyID:   companyID,
//	    CustomerID:  customerID,
//	    ServiceName: "home care",
//	    VAT:         types.Dec("5.5"),
//	    Versions: []subscription.Version{
//	        {UnitRate: types.Dec("20"), StartDate: start},
//	    },
//	}
//	err := eng.CreateSubscription(ctx, sub)
//
// Fundings record a third-party payer's subsidy on a subscription:
//
//	err := eng.CreateFunding(ctx, fund)
//
// Billing a batch of events produces one customer bill plus one bill per
// payer, commits the event snapshots and funding consumption atomically,
// and allocates human-readable document numbers:
//
//	bills, err := eng.BillEvents(ctx, companyID, carebill.BillRun{
//	    CustomerID: customerID,
//	    EventIDs:   eventIDs,
//	    Date:       time.Now(),
//	})
//
// # Arithmetic
//
// All monetary calculations use decimal arithmetic (shopspring/decimal),
// never binary floating point. Intermediate sums keep full precision;
// amounts are rounded to 2 decimals half-up exactly once, at the output
// boundary, so rounding error never compounds across the events of a bill.
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	cust_01h2xcejqtf2nbrexx3vqjhp41  // Customer ID
//	bill_01h455vb4pex5vsknk084sn02q  // Bill ID
//	fund_01h2xcejqtf2nbrexx3vqjhp41  // Funding ID
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of entities.
package carebill
