// Package pointledger provides a composable point ledger and transaction engine for Go applications.
//
// Pointledger is designed as a library, not a service. Import it directly into your
// Go application and deploy it behind a single trust boundary. It provides:
//
//   - Atomic point charges with a per-charge policy cap
//   - Item-backed transfers: debit, credit, audit trail, and the item's
//     SOLD_OUT transition commit together or not at all
//   - Optimistic concurrency with bounded conflict retry (no locks)
//   - An append-only audit log with a resulting balance on every entry
//   - Pluggable stores (in-memory and MongoDB built-in)
//   - Lifecycle hooks for audit, metrics, and custom integrations
//
// # Quick Start
//
// Create an engine instance with your preferred store:
//
//	import (
//	    "github.com/xraph/pointledger"
//	    "github.com/xraph/pointledger/store/memory"
//	)
//
//	// Initialize store
//	store := memory.New()
//
//	// Create engine
//	eng := pointledger.New(store)
//
//	// Start the engine (migrates the store, initializes plugins)
//	if err := eng.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Stop()
//
// # Core Concepts
//
// Accounts hold a participant's point balance, seeded at registration:
//
//	acct := &account.Account{DisplayName: "su-yeon"}
//	err := eng.CreateAccount(ctx, acct) // seeded with the starting balance
//
// Charge adds purchased points to the caller's own account:
//
//	entryID, err := eng.Charge(ctx, acct.ID, pointledger.ChargeRequest{
//	    AccountID: acct.ID,
//	    Amount:    pointledger.NewPoints(50_000),
//	})
//
// Transfer pays for an ON_SALE item, moving points from sender to
// receiver and marking the item SOLD_OUT:
//
//	entryID, err := eng.Transfer(ctx, buyer.ID, pointledger.TransferRequest{
//	    SenderID:   buyer.ID,
//	    ReceiverID: seller.ID,
//	    Amount:     it.Price,
//	    ItemID:     it.ID,
//	})
//
// Every balance movement is recorded as an immutable ledger entry:
//
//	entries, err := eng.ListEntries(ctx, acct.ID, entry.ListOpts{Limit: 20})
//
// # Concurrency
//
// Charges and transfers run as optimistic work units: snapshot reads,
// buffered writes, and a commit that detects concurrently modified
// documents. On conflict the engine re-runs the whole read-compute-write
// sequence from fresh reads, up to a bounded attempt count. Two transfers
// racing for the same item can never both commit.
//
// All point arithmetic uses integer math on the smallest point unit; there
// are no floating-point balances anywhere.
//
// # Errors
//
// Rejections map to stable wire kinds via ErrorCode:
//
//	entryID, err := eng.Transfer(ctx, caller, req)
//	if err != nil {
//	    code := pointledger.ErrorCode(err) // e.g. "INSUFFICIENT_BALANCE"
//	}
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	acct_01h2xcejqtf2nbrexx3vqjhp41   // Account ID
//	item_01h2xcejqtf2nbrexx3vqjhp41   // Item ID
//	entry_01h455vb4pex5vsknk084sn02q  // Ledger entry ID
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of entities.
package pointledger
