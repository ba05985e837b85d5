// Package memory provides an in-memory store backend with optimistic
// concurrency control. It is the reference implementation of the work-unit
// contract and the fixture for engine tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/xraph/pointledger/account"
	"github.com/xraph/pointledger/entry"
	"github.com/xraph/pointledger/id"
	"github.com/xraph/pointledger/item"
	"github.com/xraph/pointledger/store"
	"github.com/xraph/pointledger/types"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// versioned wraps a stored document with its modification counter. Units
// record the version of every document they read; commit fails when any
// recorded version has advanced since the read.
type versioned[T any] struct {
	version uint64
	doc     T
}

type storedEntry struct {
	seq uint64
	doc entry.Entry
}

// Store is an in-memory document store with optimistic,
// conflict-checked work units.
type Store struct {
	mu sync.RWMutex

	accounts map[string]*versioned[account.Account]
	items    map[string]*versioned[item.Item]
	entries  map[string]*storedEntry
	entrySeq uint64

	closed bool
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		accounts: make(map[string]*versioned[account.Account]),
		items:    make(map[string]*versioned[item.Item]),
		entries:  make(map[string]*storedEntry),
	}
}

// ==================== Core methods ====================

// Migrate is a no-op for the in-memory backend.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping reports whether the store is open.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return store.ErrClosed
	}
	return nil
}

// Close marks the store closed. Further units cannot be started.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// ==================== Direct account methods ====================

func (s *Store) CreateAccount(_ context.Context, a *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := a.ID.String()
	if _, exists := s.accounts[key]; exists {
		return fmt.Errorf("%w: account %s", store.ErrDuplicate, key)
	}
	s.accounts[key] = &versioned[account.Account]{version: 1, doc: *a}
	return nil
}

func (s *Store) GetAccount(_ context.Context, accountID id.AccountID) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.accounts[accountID.String()]
	if !ok {
		return nil, fmt.Errorf("%w: account %s", store.ErrNotFound, accountID)
	}
	doc := v.doc
	return &doc, nil
}

// ==================== Direct item methods ====================

func (s *Store) CreateItem(_ context.Context, it *item.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := it.ID.String()
	if _, exists := s.items[key]; exists {
		return fmt.Errorf("%w: item %s", store.ErrDuplicate, key)
	}
	s.items[key] = &versioned[item.Item]{version: 1, doc: *it}
	return nil
}

func (s *Store) GetItem(_ context.Context, itemID id.ItemID) (*item.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.items[itemID.String()]
	if !ok {
		return nil, fmt.Errorf("%w: item %s", store.ErrNotFound, itemID)
	}
	doc := v.doc
	return &doc, nil
}

func (s *Store) ListItems(_ context.Context, opts item.ListOpts) ([]*item.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*item.Item
	for _, v := range s.items {
		doc := v.doc
		if !opts.OwnerID.IsNil() && doc.OwnerID.String() != opts.OwnerID.String() {
			continue
		}
		if opts.State != "" && doc.State != opts.State {
			continue
		}
		result = append(result, &doc)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return paginate(result, opts.Limit, opts.Offset), nil
}

// ==================== Direct entry methods ====================

func (s *Store) GetEntry(_ context.Context, entryID id.EntryID) (*entry.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	se, ok := s.entries[entryID.String()]
	if !ok {
		return nil, fmt.Errorf("%w: entry %s", store.ErrNotFound, entryID)
	}
	doc := se.doc
	return &doc, nil
}

func (s *Store) ListEntries(_ context.Context, accountID id.AccountID, opts entry.ListOpts) ([]*entry.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stored []*storedEntry
	for _, se := range s.entries {
		if se.doc.AccountID.String() != accountID.String() {
			continue
		}
		if opts.Kind != "" && se.doc.Kind != opts.Kind {
			continue
		}
		stored = append(stored, se)
	}

	// Newest first; the insertion sequence breaks CreatedAt ties.
	sort.Slice(stored, func(i, j int) bool {
		return stored[i].seq > stored[j].seq
	})

	result := make([]*entry.Entry, len(stored))
	for i, se := range stored {
		doc := se.doc
		result[i] = &doc
	}

	return paginate(result, opts.Limit, opts.Offset), nil
}

// ==================== Work units ====================

// Begin opens an optimistic work unit against the store.
func (s *Store) Begin(_ context.Context) (store.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, store.ErrClosed
	}
	return &unit{
		store:        s,
		accountReads: make(map[string]accountRead),
		itemReads:    make(map[string]itemRead),
	}, nil
}

type accountRead struct {
	version uint64
	found   bool
	doc     account.Account
}

type itemRead struct {
	version uint64
	found   bool
	doc     item.Item
}

// write is one buffered mutation, applied in order at commit.
type write struct {
	accountID *id.AccountID
	balance   types.Points

	itemID    *id.ItemID
	itemState item.State

	entry *entry.Entry
}

// unit implements store.Unit with snapshot reads and commit-time version
// validation. Not safe for concurrent use.
type unit struct {
	store *Store

	accountReads map[string]accountRead
	itemReads    map[string]itemRead
	writes       []write

	done bool
}

func (u *unit) GetAccount(_ context.Context, accountID id.AccountID) (*account.Account, error) {
	if u.done {
		return nil, store.ErrUnitDone
	}

	key := accountID.String()

	// Repeated reads return the snapshot captured by the first read, with
	// the unit's own buffered writes overlaid.
	r, ok := u.accountReads[key]
	if !ok {
		u.store.mu.RLock()
		if v, exists := u.store.accounts[key]; exists {
			r = accountRead{version: v.version, found: true, doc: v.doc}
		}
		u.store.mu.RUnlock()
		u.accountReads[key] = r
	}

	if !r.found {
		return nil, fmt.Errorf("%w: account %s", store.ErrNotFound, accountID)
	}

	doc := r.doc
	for _, w := range u.writes {
		if w.accountID != nil && w.accountID.String() == key {
			doc.Balance = w.balance
		}
	}
	return &doc, nil
}

func (u *unit) SetBalance(_ context.Context, accountID id.AccountID, balance types.Points) error {
	if u.done {
		return store.ErrUnitDone
	}
	aid := accountID
	u.writes = append(u.writes, write{accountID: &aid, balance: balance})
	return nil
}

func (u *unit) GetItem(_ context.Context, itemID id.ItemID) (*item.Item, error) {
	if u.done {
		return nil, store.ErrUnitDone
	}

	key := itemID.String()

	r, ok := u.itemReads[key]
	if !ok {
		u.store.mu.RLock()
		if v, exists := u.store.items[key]; exists {
			r = itemRead{version: v.version, found: true, doc: v.doc}
		}
		u.store.mu.RUnlock()
		u.itemReads[key] = r
	}

	if !r.found {
		return nil, fmt.Errorf("%w: item %s", store.ErrNotFound, itemID)
	}

	doc := r.doc
	for _, w := range u.writes {
		if w.itemID != nil && w.itemID.String() == key {
			doc.State = w.itemState
		}
	}
	return &doc, nil
}

func (u *unit) SetItemState(_ context.Context, itemID id.ItemID, state item.State) error {
	if u.done {
		return store.ErrUnitDone
	}
	iid := itemID
	u.writes = append(u.writes, write{itemID: &iid, itemState: state})
	return nil
}

func (u *unit) AppendEntry(_ context.Context, e *entry.Entry) error {
	if u.done {
		return store.ErrUnitDone
	}
	doc := *e
	u.writes = append(u.writes, write{entry: &doc})
	return nil
}

// Commit validates every recorded read version under the store lock and
// applies the buffered writes atomically, or none of them.
func (u *unit) Commit(_ context.Context) error {
	if u.done {
		return store.ErrUnitDone
	}
	u.done = true

	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	// Validate: every document read in this unit must be untouched since
	// the read, including documents that were absent at read time.
	for key, r := range u.accountReads {
		cur, exists := u.store.accounts[key]
		if exists != r.found || (exists && cur.version != r.version) {
			return fmt.Errorf("%w: account %s", store.ErrConflict, key)
		}
	}
	for key, r := range u.itemReads {
		cur, exists := u.store.items[key]
		if exists != r.found || (exists && cur.version != r.version) {
			return fmt.Errorf("%w: item %s", store.ErrConflict, key)
		}
	}
	// Every write target must exist before anything is applied, so a blind
	// write to an absent document fails the whole unit instead of part of it.
	for _, w := range u.writes {
		switch {
		case w.accountID != nil:
			if _, exists := u.store.accounts[w.accountID.String()]; !exists {
				return fmt.Errorf("%w: account %s", store.ErrConflict, w.accountID)
			}
		case w.itemID != nil:
			if _, exists := u.store.items[w.itemID.String()]; !exists {
				return fmt.Errorf("%w: item %s", store.ErrConflict, w.itemID)
			}
		case w.entry != nil:
			if _, exists := u.store.entries[w.entry.ID.String()]; exists {
				return fmt.Errorf("%w: entry %s", store.ErrDuplicate, w.entry.ID)
			}
		}
	}

	// Apply. Validation cleared every write, so nothing below can fail.
	now := time.Now().UTC()
	for _, w := range u.writes {
		switch {
		case w.accountID != nil:
			v := u.store.accounts[w.accountID.String()]
			v.doc.Balance = w.balance
			v.doc.UpdatedAt = now
			v.version++

		case w.itemID != nil:
			v := u.store.items[w.itemID.String()]
			v.doc.State = w.itemState
			v.doc.UpdatedAt = now
			v.version++

		case w.entry != nil:
			doc := *w.entry
			doc.CreatedAt = now
			u.store.entrySeq++
			u.store.entries[doc.ID.String()] = &storedEntry{seq: u.store.entrySeq, doc: doc}
		}
	}

	return nil
}

// Abort discards the unit's buffered state.
func (u *unit) Abort(_ context.Context) error {
	u.done = true
	u.writes = nil
	return nil
}

// paginate applies limit/offset to an already sorted slice.
func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
