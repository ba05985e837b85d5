package pointledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	pointledger "github.com/xraph/pointledger"
	"github.com/xraph/pointledger/account"
	"github.com/xraph/pointledger/entry"
	"github.com/xraph/pointledger/id"
	"github.com/xraph/pointledger/item"
	"github.com/xraph/pointledger/store"
	"github.com/xraph/pointledger/store/memory"
	"github.com/xraph/pointledger/types"
)

func newTestEngine(t *testing.T, opts ...pointledger.Option) *pointledger.Engine {
	t.Helper()

	eng := pointledger.New(memory.New(), opts...)
	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	t.Cleanup(func() {
		_ = eng.Stop()
	})
	return eng
}

func seedAccount(t *testing.T, eng *pointledger.Engine, balance types.Points) *account.Account {
	t.Helper()

	a := &account.Account{DisplayName: "tester", Balance: balance}
	if err := eng.CreateAccount(context.Background(), a); err != nil {
		t.Fatalf("CreateAccount() = %v", err)
	}
	return a
}

func seedItem(t *testing.T, eng *pointledger.Engine, owner id.AccountID, price types.Points, state item.State) *item.Item {
	t.Helper()

	it := &item.Item{OwnerID: owner, Title: "old camera", Price: price, State: state}
	if err := eng.CreateItem(context.Background(), it); err != nil {
		t.Fatalf("CreateItem() = %v", err)
	}
	return it
}

// ──────────────────────────────────────────────────
// Charge
// ──────────────────────────────────────────────────

func TestChargeAddsBalanceAndAppendsEntry(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	a := seedAccount(t, eng, types.NewPoints(50_000))

	entryID, err := eng.Charge(ctx, a.ID, pointledger.ChargeRequest{
		AccountID: a.ID,
		Amount:    types.NewPoints(30_000),
	})
	if err != nil {
		t.Fatalf("Charge() = %v", err)
	}
	if entryID.IsNil() {
		t.Fatal("Charge() returned a nil entry id")
	}

	got, err := eng.GetAccount(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetAccount() = %v", err)
	}
	if got.Balance != types.NewPoints(80_000) {
		t.Errorf("balance = %s, want 80,000", got.Balance)
	}

	rec, err := eng.GetEntry(ctx, entryID)
	if err != nil {
		t.Fatalf("GetEntry() = %v", err)
	}
	if rec.Kind != entry.KindCharge {
		t.Errorf("entry kind = %s, want %s", rec.Kind, entry.KindCharge)
	}
	if rec.Amount != types.NewPoints(30_000) {
		t.Errorf("entry amount = %s, want 30,000", rec.Amount)
	}
	if rec.ResultingBalance != types.NewPoints(80_000) {
		t.Errorf("entry resulting balance = %s, want 80,000", rec.ResultingBalance)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("entry CreatedAt was not stamped")
	}

	entries, err := eng.ListEntries(ctx, a.ID, entry.ListOpts{})
	if err != nil {
		t.Fatalf("ListEntries() = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("ListEntries() returned %d entries, want 1", len(entries))
	}
}

func TestChargeUnknownAccount(t *testing.T) {
	eng := newTestEngine(t)
	ghost := id.NewAccountID()

	_, err := eng.Charge(context.Background(), ghost, pointledger.ChargeRequest{
		AccountID: ghost,
		Amount:    types.NewPoints(100),
	})
	if !errors.Is(err, pointledger.ErrAccountNotFound) {
		t.Fatalf("Charge() = %v, want ErrAccountNotFound", err)
	}
	if code := pointledger.ErrorCode(err); code != pointledger.CodeAccountNotFound {
		t.Errorf("ErrorCode = %q, want %q", code, pointledger.CodeAccountNotFound)
	}
}

func TestChargeRejectionsTouchNothing(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	a := seedAccount(t, eng, types.NewPoints(10_000))

	// Over the per-charge limit.
	_, err := eng.Charge(ctx, a.ID, pointledger.ChargeRequest{
		AccountID: a.ID,
		Amount:    types.NewPoints(2_000_000),
	})
	if !errors.Is(err, pointledger.ErrInvalidAmount) {
		t.Fatalf("Charge() = %v, want ErrInvalidAmount", err)
	}

	got, err := eng.GetAccount(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetAccount() = %v", err)
	}
	if got.Balance != types.NewPoints(10_000) {
		t.Errorf("balance = %s, want 10,000 untouched", got.Balance)
	}

	entries, err := eng.ListEntries(ctx, a.ID, entry.ListOpts{})
	if err != nil {
		t.Fatalf("ListEntries() = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("ListEntries() returned %d entries, want 0", len(entries))
	}
}

func TestConcurrentChargesAllApply(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, pointledger.WithMaxAttempts(100))
	a := seedAccount(t, eng, types.NewPoints(100_000))

	const workers = 8
	const amount = 1_000

	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = eng.Charge(ctx, a.ID, pointledger.ChargeRequest{
				AccountID: a.ID,
				Amount:    types.NewPoints(amount),
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("worker %d: Charge() = %v", i, err)
		}
	}

	got, err := eng.GetAccount(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetAccount() = %v", err)
	}
	want := types.NewPoints(100_000 + workers*amount)
	if got.Balance != want {
		t.Errorf("balance = %s, want %s", got.Balance, want)
	}

	entries, err := eng.ListEntries(ctx, a.ID, entry.ListOpts{})
	if err != nil {
		t.Fatalf("ListEntries() = %v", err)
	}
	if len(entries) != workers {
		t.Errorf("ListEntries() returned %d entries, want %d", len(entries), workers)
	}
}

// ──────────────────────────────────────────────────
// Transfer
// ──────────────────────────────────────────────────

func TestTransferMovesPointsAndSellsItem(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	sender := seedAccount(t, eng, types.NewPoints(600_000))
	receiver := seedAccount(t, eng, types.NewPoints(1_000))
	it := seedItem(t, eng, receiver.ID, types.NewPoints(500_000), item.StateOnSale)

	entryID, err := eng.Transfer(ctx, sender.ID, pointledger.TransferRequest{
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		Amount:     it.Price,
		ItemID:     it.ID,
	})
	if err != nil {
		t.Fatalf("Transfer() = %v", err)
	}

	gotSender, err := eng.GetAccount(ctx, sender.ID)
	if err != nil {
		t.Fatalf("GetAccount(sender) = %v", err)
	}
	if gotSender.Balance != types.NewPoints(100_000) {
		t.Errorf("sender balance = %s, want 100,000", gotSender.Balance)
	}

	gotReceiver, err := eng.GetAccount(ctx, receiver.ID)
	if err != nil {
		t.Fatalf("GetAccount(receiver) = %v", err)
	}
	if gotReceiver.Balance != types.NewPoints(501_000) {
		t.Errorf("receiver balance = %s, want 501,000", gotReceiver.Balance)
	}

	gotItem, err := eng.GetItem(ctx, it.ID)
	if err != nil {
		t.Fatalf("GetItem() = %v", err)
	}
	if gotItem.State != item.StateSoldOut {
		t.Errorf("item state = %s, want %s", gotItem.State, item.StateSoldOut)
	}

	// Sender side: one debit entry carrying the counterparty and item.
	debit, err := eng.GetEntry(ctx, entryID)
	if err != nil {
		t.Fatalf("GetEntry(debit) = %v", err)
	}
	if debit.Kind != entry.KindTransferDebit {
		t.Errorf("debit kind = %s, want %s", debit.Kind, entry.KindTransferDebit)
	}
	if debit.AccountID != sender.ID {
		t.Errorf("debit account = %s, want sender", debit.AccountID)
	}
	if debit.CounterpartyID != receiver.ID {
		t.Errorf("debit counterparty = %s, want receiver", debit.CounterpartyID)
	}
	if debit.ItemID != it.ID {
		t.Errorf("debit item = %s, want %s", debit.ItemID, it.ID)
	}
	if debit.ResultingBalance != types.NewPoints(100_000) {
		t.Errorf("debit resulting balance = %s, want 100,000", debit.ResultingBalance)
	}

	// Receiver side: one credit entry mirroring the debit.
	credits, err := eng.ListEntries(ctx, receiver.ID, entry.ListOpts{Kind: entry.KindTransferCredit})
	if err != nil {
		t.Fatalf("ListEntries(receiver) = %v", err)
	}
	if len(credits) != 1 {
		t.Fatalf("receiver has %d credit entries, want 1", len(credits))
	}
	credit := credits[0]
	if credit.Amount != debit.Amount {
		t.Errorf("credit amount = %s, debit amount = %s; want equal", credit.Amount, debit.Amount)
	}
	if credit.CounterpartyID != sender.ID {
		t.Errorf("credit counterparty = %s, want sender", credit.CounterpartyID)
	}
	if credit.ResultingBalance != types.NewPoints(501_000) {
		t.Errorf("credit resulting balance = %s, want 501,000", credit.ResultingBalance)
	}
}

func TestTransferInsufficientBalanceLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	sender := seedAccount(t, eng, types.NewPoints(10_000))
	receiver := seedAccount(t, eng, types.NewPoints(1)) // zero would be re-seeded
	it := seedItem(t, eng, receiver.ID, types.NewPoints(500_000), item.StateOnSale)

	_, err := eng.Transfer(ctx, sender.ID, pointledger.TransferRequest{
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		Amount:     it.Price,
		ItemID:     it.ID,
	})
	if !errors.Is(err, pointledger.ErrInsufficientBalance) {
		t.Fatalf("Transfer() = %v, want ErrInsufficientBalance", err)
	}
	if code := pointledger.ErrorCode(err); code != pointledger.CodeInsufficientBalance {
		t.Errorf("ErrorCode = %q, want %q", code, pointledger.CodeInsufficientBalance)
	}

	gotSender, _ := eng.GetAccount(ctx, sender.ID)
	if gotSender.Balance != types.NewPoints(10_000) {
		t.Errorf("sender balance = %s, want 10,000 untouched", gotSender.Balance)
	}
	gotReceiver, _ := eng.GetAccount(ctx, receiver.ID)
	if gotReceiver.Balance != types.NewPoints(1) {
		t.Errorf("receiver balance = %s, want 1 untouched", gotReceiver.Balance)
	}
	gotItem, _ := eng.GetItem(ctx, it.ID)
	if gotItem.State != item.StateOnSale {
		t.Errorf("item state = %s, want still %s", gotItem.State, item.StateOnSale)
	}
	for _, accountID := range []id.AccountID{sender.ID, receiver.ID} {
		entries, _ := eng.ListEntries(ctx, accountID, entry.ListOpts{})
		if len(entries) != 0 {
			t.Errorf("account %s has %d entries, want 0", accountID, len(entries))
		}
	}
}

func TestTransferRoleErrors(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	sender := seedAccount(t, eng, types.NewPoints(50_000))
	receiver := seedAccount(t, eng, types.NewPoints(50_000))
	onSale := seedItem(t, eng, receiver.ID, types.NewPoints(1_000), item.StateOnSale)
	soldOut := seedItem(t, eng, receiver.ID, types.NewPoints(1_000), item.StateSoldOut)
	ghost := id.NewAccountID()

	tests := []struct {
		name    string
		caller  id.AccountID
		req     pointledger.TransferRequest
		wantErr error
	}{
		{
			name:   "sender not found",
			caller: ghost,
			req: pointledger.TransferRequest{
				SenderID:   ghost,
				ReceiverID: receiver.ID,
				Amount:     types.NewPoints(1_000),
				ItemID:     onSale.ID,
			},
			wantErr: pointledger.ErrSenderNotFound,
		},
		{
			name:   "receiver not found",
			caller: sender.ID,
			req: pointledger.TransferRequest{
				SenderID:   sender.ID,
				ReceiverID: ghost,
				Amount:     types.NewPoints(1_000),
				ItemID:     onSale.ID,
			},
			wantErr: pointledger.ErrReceiverNotFound,
		},
		{
			name:   "item not found",
			caller: sender.ID,
			req: pointledger.TransferRequest{
				SenderID:   sender.ID,
				ReceiverID: receiver.ID,
				Amount:     types.NewPoints(1_000),
				ItemID:     id.NewItemID(),
			},
			wantErr: pointledger.ErrItemNotFound,
		},
		{
			name:   "item not available",
			caller: sender.ID,
			req: pointledger.TransferRequest{
				SenderID:   sender.ID,
				ReceiverID: receiver.ID,
				Amount:     types.NewPoints(1_000),
				ItemID:     soldOut.ID,
			},
			wantErr: pointledger.ErrItemNotAvailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.Transfer(ctx, tt.caller, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Transfer() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConcurrentTransfersSellItemOnce(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, pointledger.WithMaxAttempts(20))
	seller := seedAccount(t, eng, types.NewPoints(1_000))
	it := seedItem(t, eng, seller.ID, types.NewPoints(5_000), item.StateOnSale)

	const buyers = 4
	accounts := make([]*account.Account, buyers)
	for i := range accounts {
		accounts[i] = seedAccount(t, eng, types.NewPoints(100_000))
	}

	var wg sync.WaitGroup
	errs := make([]error, buyers)

	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = eng.Transfer(ctx, accounts[i].ID, pointledger.TransferRequest{
				SenderID:   accounts[i].ID,
				ReceiverID: seller.ID,
				Amount:     it.Price,
				ItemID:     it.ID,
			})
		}(i)
	}
	wg.Wait()

	var won, unavailable int
	for i, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, pointledger.ErrItemNotAvailable):
			unavailable++
		default:
			t.Errorf("buyer %d: unexpected error %v", i, err)
		}
	}
	if won != 1 {
		t.Fatalf("%d transfers committed, want exactly 1", won)
	}
	if unavailable != buyers-1 {
		t.Errorf("%d buyers observed unavailability, want %d", unavailable, buyers-1)
	}

	// Conservation: exactly one price moved.
	gotSeller, _ := eng.GetAccount(ctx, seller.ID)
	if gotSeller.Balance != types.NewPoints(1_000+5_000) {
		t.Errorf("seller balance = %s, want 6,000", gotSeller.Balance)
	}

	var total types.Points
	for _, a := range accounts {
		got, _ := eng.GetAccount(ctx, a.ID)
		if got.Balance.IsNegative() {
			t.Errorf("account %s has negative balance %s", a.ID, got.Balance)
		}
		total = total.Add(got.Balance)
	}
	if total != types.NewPoints(buyers*100_000-5_000) {
		t.Errorf("buyer balances sum to %s, want %s", total, types.NewPoints(buyers*100_000-5_000))
	}

	gotItem, _ := eng.GetItem(ctx, it.ID)
	if gotItem.State != item.StateSoldOut {
		t.Errorf("item state = %s, want %s", gotItem.State, item.StateSoldOut)
	}
}

// ──────────────────────────────────────────────────
// Conflict retry
// ──────────────────────────────────────────────────

// conflictStore wraps a memory store and forces Commit to fail a fixed
// number of times before delegating.
type conflictStore struct {
	store.Store

	mu        sync.Mutex
	conflicts int
	commitErr error
}

func (s *conflictStore) Begin(ctx context.Context) (store.Unit, error) {
	u, err := s.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &conflictUnit{Unit: u, parent: s}, nil
}

type conflictUnit struct {
	store.Unit
	parent *conflictStore
}

func (u *conflictUnit) Commit(ctx context.Context) error {
	u.parent.mu.Lock()
	defer u.parent.mu.Unlock()
	if u.parent.conflicts != 0 {
		if u.parent.conflicts > 0 {
			u.parent.conflicts--
		}
		_ = u.Unit.Abort(ctx)
		return u.parent.commitErr
	}
	return u.Unit.Commit(ctx)
}

func TestChargeRetriesThroughConflicts(t *testing.T) {
	ctx := context.Background()
	cs := &conflictStore{Store: memory.New(), conflicts: 3, commitErr: store.ErrConflict}
	eng := pointledger.New(cs)

	a := seedAccount(t, eng, types.NewPoints(1_000))

	entryID, err := eng.Charge(ctx, a.ID, pointledger.ChargeRequest{
		AccountID: a.ID,
		Amount:    types.NewPoints(500),
	})
	if err != nil {
		t.Fatalf("Charge() = %v, want success on the fourth attempt", err)
	}

	rec, err := eng.GetEntry(ctx, entryID)
	if err != nil {
		t.Fatalf("GetEntry() = %v", err)
	}
	if rec.ResultingBalance != types.NewPoints(1_500) {
		t.Errorf("resulting balance = %s, want 1,500", rec.ResultingBalance)
	}
}

func TestChargeRetryExhaustion(t *testing.T) {
	ctx := context.Background()
	cs := &conflictStore{Store: memory.New(), conflicts: -1, commitErr: store.ErrConflict}
	eng := pointledger.New(cs, pointledger.WithMaxAttempts(3))

	a := seedAccount(t, eng, types.NewPoints(1_000))

	_, err := eng.Charge(ctx, a.ID, pointledger.ChargeRequest{
		AccountID: a.ID,
		Amount:    types.NewPoints(500),
	})
	if !errors.Is(err, pointledger.ErrTransactionFailed) {
		t.Fatalf("Charge() = %v, want ErrTransactionFailed", err)
	}
	if code := pointledger.ErrorCode(err); code != pointledger.CodeTransactionFailed {
		t.Errorf("ErrorCode = %q, want %q", code, pointledger.CodeTransactionFailed)
	}

	got, _ := eng.GetAccount(ctx, a.ID)
	if got.Balance != types.NewPoints(1_000) {
		t.Errorf("balance = %s, want 1,000 untouched", got.Balance)
	}
}

func TestChargeUnknownOutcomeReturnsEntryID(t *testing.T) {
	ctx := context.Background()
	cs := &conflictStore{Store: memory.New(), conflicts: -1, commitErr: store.ErrCommitUnknown}
	eng := pointledger.New(cs)

	a := seedAccount(t, eng, types.NewPoints(1_000))

	entryID, err := eng.Charge(ctx, a.ID, pointledger.ChargeRequest{
		AccountID: a.ID,
		Amount:    types.NewPoints(500),
	})
	if !errors.Is(err, pointledger.ErrOutcomeUnknown) {
		t.Fatalf("Charge() = %v, want ErrOutcomeUnknown", err)
	}
	if entryID.IsNil() {
		t.Error("Charge() returned a nil entry id; callers need it to query the audit log")
	}
}

func TestTransferUnknownOutcomeReturnsEntryID(t *testing.T) {
	ctx := context.Background()
	cs := &conflictStore{Store: memory.New(), conflicts: -1, commitErr: store.ErrCommitUnknown}
	eng := pointledger.New(cs)

	sender := seedAccount(t, eng, types.NewPoints(50_000))
	receiver := seedAccount(t, eng, types.NewPoints(1_000))
	it := seedItem(t, eng, receiver.ID, types.NewPoints(30_000), item.StateOnSale)

	entryID, err := eng.Transfer(ctx, sender.ID, pointledger.TransferRequest{
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		Amount:     it.Price,
		ItemID:     it.ID,
	})
	if !errors.Is(err, pointledger.ErrOutcomeUnknown) {
		t.Fatalf("Transfer() = %v, want ErrOutcomeUnknown", err)
	}
	if entryID.IsNil() {
		t.Error("Transfer() returned a nil entry id; callers need it to query the audit log")
	}
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

func TestStoppedEngineRefusesMutations(t *testing.T) {
	ctx := context.Background()
	eng := pointledger.New(memory.New())
	if err := eng.Start(ctx); err != nil {
		t.Fatalf("Start() = %v", err)
	}

	a := seedAccount(t, eng, types.NewPoints(10_000))
	b := seedAccount(t, eng, types.NewPoints(10_000))
	it := seedItem(t, eng, b.ID, types.NewPoints(5_000), item.StateOnSale)

	if err := eng.Stop(); err != nil {
		t.Fatalf("Stop() = %v", err)
	}

	if _, err := eng.Charge(ctx, a.ID, pointledger.ChargeRequest{
		AccountID: a.ID,
		Amount:    types.NewPoints(500),
	}); !errors.Is(err, pointledger.ErrEngineClosed) {
		t.Errorf("Charge() = %v, want ErrEngineClosed", err)
	}

	if _, err := eng.Transfer(ctx, a.ID, pointledger.TransferRequest{
		SenderID:   a.ID,
		ReceiverID: b.ID,
		Amount:     it.Price,
		ItemID:     it.ID,
	}); !errors.Is(err, pointledger.ErrEngineClosed) {
		t.Errorf("Transfer() = %v, want ErrEngineClosed", err)
	}

	if err := eng.CreateAccount(ctx, &account.Account{DisplayName: "late"}); !errors.Is(err, pointledger.ErrEngineClosed) {
		t.Errorf("CreateAccount() = %v, want ErrEngineClosed", err)
	}

	if err := eng.CreateItem(ctx, &item.Item{
		OwnerID: a.ID,
		Title:   "late listing",
		Price:   types.NewPoints(100),
	}); !errors.Is(err, pointledger.ErrEngineClosed) {
		t.Errorf("CreateItem() = %v, want ErrEngineClosed", err)
	}
}

// ──────────────────────────────────────────────────
// Accounts and items
// ──────────────────────────────────────────────────

func TestCreateAccountSeedsStartingBalance(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	a := &account.Account{DisplayName: "newcomer"}
	if err := eng.CreateAccount(ctx, a); err != nil {
		t.Fatalf("CreateAccount() = %v", err)
	}
	if a.Balance != pointledger.DefaultStartingBalance {
		t.Errorf("balance = %s, want the default starting balance", a.Balance)
	}

	got, err := eng.GetAccount(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetAccount() = %v", err)
	}
	if got.Balance != pointledger.DefaultStartingBalance {
		t.Errorf("stored balance = %s, want the default starting balance", got.Balance)
	}
}

func TestCreateAccountCustomSeed(t *testing.T) {
	eng := newTestEngine(t, pointledger.WithStartingBalance(types.NewPoints(42)))

	a := &account.Account{DisplayName: "custom"}
	if err := eng.CreateAccount(context.Background(), a); err != nil {
		t.Fatalf("CreateAccount() = %v", err)
	}
	if a.Balance != types.NewPoints(42) {
		t.Errorf("balance = %s, want 42", a.Balance)
	}
}

func TestCreateItemDefaultsToOnSale(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	owner := seedAccount(t, eng, types.NewPoints(1_000))

	it := &item.Item{OwnerID: owner.ID, Title: "winter coat", Price: types.NewPoints(9_000)}
	if err := eng.CreateItem(ctx, it); err != nil {
		t.Fatalf("CreateItem() = %v", err)
	}
	if it.State != item.StateOnSale {
		t.Errorf("state = %s, want %s", it.State, item.StateOnSale)
	}

	if err := eng.CreateItem(ctx, &item.Item{OwnerID: owner.ID, Title: "free stuff"}); !errors.Is(err, pointledger.ErrInvalidAmount) {
		t.Errorf("CreateItem(zero price) = %v, want ErrInvalidAmount", err)
	}
	if err := eng.CreateItem(ctx, &item.Item{Title: "orphan", Price: types.NewPoints(1)}); !errors.Is(err, pointledger.ErrInvalidInput) {
		t.Errorf("CreateItem(no owner) = %v, want ErrInvalidInput", err)
	}
}

func TestListEntriesFiltersAndPaginates(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	a := seedAccount(t, eng, types.NewPoints(1_000))

	for i := 0; i < 5; i++ {
		if _, err := eng.Charge(ctx, a.ID, pointledger.ChargeRequest{
			AccountID: a.ID,
			Amount:    types.NewPoints(int64(100 * (i + 1))),
		}); err != nil {
			t.Fatalf("Charge() = %v", err)
		}
	}

	entries, err := eng.ListEntries(ctx, a.ID, entry.ListOpts{Limit: 2})
	if err != nil {
		t.Fatalf("ListEntries() = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("ListEntries(limit=2) returned %d entries", len(entries))
	}
	// Newest first.
	if entries[0].Amount != types.NewPoints(500) {
		t.Errorf("first entry amount = %s, want 500 (newest)", entries[0].Amount)
	}

	charges, err := eng.ListEntries(ctx, a.ID, entry.ListOpts{Kind: entry.KindTransferDebit})
	if err != nil {
		t.Fatalf("ListEntries() = %v", err)
	}
	if len(charges) != 0 {
		t.Errorf("ListEntries(kind=TRANSFER_DEBIT) returned %d entries, want 0", len(charges))
	}
}

// ──────────────────────────────────────────────────
// Plugin emission
// ──────────────────────────────────────────────────

// recordingPlugin counts lifecycle events for assertions.
type recordingPlugin struct {
	mu sync.Mutex

	accountsCreated int
	charges         int
	transfers       int
	itemsSold       int
	rejections      int
}

func (p *recordingPlugin) Name() string { return "recording" }

func (p *recordingPlugin) OnAccountCreated(context.Context, *account.Account) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accountsCreated++
	return nil
}

func (p *recordingPlugin) OnChargeCompleted(context.Context, *entry.Entry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.charges++
	return nil
}

func (p *recordingPlugin) OnTransferCompleted(context.Context, *entry.Entry, *entry.Entry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transfers++
	return nil
}

func (p *recordingPlugin) OnItemSold(context.Context, *item.Item, *account.Account) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.itemsSold++
	return nil
}

func (p *recordingPlugin) OnOperationRejected(context.Context, string, error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rejections++
	return nil
}

func TestPluginLifecycleEvents(t *testing.T) {
	ctx := context.Background()
	rec := &recordingPlugin{}
	eng := newTestEngine(t, pointledger.WithPlugin(rec))

	sender := seedAccount(t, eng, types.NewPoints(50_000))
	receiver := seedAccount(t, eng, types.NewPoints(1_000))
	it := seedItem(t, eng, receiver.ID, types.NewPoints(2_000), item.StateOnSale)

	if _, err := eng.Charge(ctx, sender.ID, pointledger.ChargeRequest{
		AccountID: sender.ID,
		Amount:    types.NewPoints(5_000),
	}); err != nil {
		t.Fatalf("Charge() = %v", err)
	}

	if _, err := eng.Transfer(ctx, sender.ID, pointledger.TransferRequest{
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		Amount:     it.Price,
		ItemID:     it.ID,
	}); err != nil {
		t.Fatalf("Transfer() = %v", err)
	}

	// One rejection: self transfer.
	if _, err := eng.Transfer(ctx, sender.ID, pointledger.TransferRequest{
		SenderID:   sender.ID,
		ReceiverID: sender.ID,
		Amount:     types.NewPoints(1),
		ItemID:     it.ID,
	}); !errors.Is(err, pointledger.ErrInvalidReceiver) {
		t.Fatalf("Transfer(self) = %v, want ErrInvalidReceiver", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.accountsCreated != 2 {
		t.Errorf("accountsCreated = %d, want 2", rec.accountsCreated)
	}
	if rec.charges != 1 {
		t.Errorf("charges = %d, want 1", rec.charges)
	}
	if rec.transfers != 1 {
		t.Errorf("transfers = %d, want 1", rec.transfers)
	}
	if rec.itemsSold != 1 {
		t.Errorf("itemsSold = %d, want 1", rec.itemsSold)
	}
	if rec.rejections != 1 {
		t.Errorf("rejections = %d, want 1", rec.rejections)
	}
}
