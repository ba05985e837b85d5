// Package mongo implements the transactional document store on MongoDB
// via Grove ORM. Work units run as driver sessions with multi-document
// transactions: snapshot read concern, majority write concern, writes
// buffered server-side until commit.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readconcern"
	"go.mongodb.org/mongo-driver/v2/mongo/writeconcern"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/pointledger/account"
	"github.com/xraph/pointledger/entry"
	"github.com/xraph/pointledger/id"
	"github.com/xraph/pointledger/item"
	ledgerstore "github.com/xraph/pointledger/store"
	"github.com/xraph/pointledger/types"
)

// Collection name constants.
const (
	colAccounts = ledgerstore.ColAccounts
	colItems    = ledgerstore.ColItems
	colEntries  = ledgerstore.ColEntries
)

// Transaction error labels reported by the server.
const (
	labelTransient     = "TransientTransactionError"
	labelUnknownCommit = "UnknownTransactionCommitResult"
)

// compile-time interface check
var (
	_ ledgerstore.Store = (*Store)(nil)
	_ ledgerstore.Unit  = (*unit)(nil)
)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// client returns the raw driver client for session work.
func (s *Store) client() *mongo.Client {
	return s.mdb.Collection(colAccounts).Database().Client()
}

// Migrate creates indexes for all ledger collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("pointledger/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Account Store ====================

func (s *Store) CreateAccount(ctx context.Context, a *account.Account) error {
	m := toAccountModel(a)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: account %s", ledgerstore.ErrDuplicate, a.ID)
		}
		return fmt.Errorf("pointledger/mongo: create account: %w", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, accountID id.AccountID) (*account.Account, error) {
	var m accountModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": accountID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledgerstore.ErrNotFound
		}
		return nil, fmt.Errorf("pointledger/mongo: get account: %w", err)
	}
	return fromAccountModel(&m)
}

// ==================== Item Store ====================

func (s *Store) CreateItem(ctx context.Context, it *item.Item) error {
	m := toItemModel(it)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: item %s", ledgerstore.ErrDuplicate, it.ID)
		}
		return fmt.Errorf("pointledger/mongo: create item: %w", err)
	}
	return nil
}

func (s *Store) GetItem(ctx context.Context, itemID id.ItemID) (*item.Item, error) {
	var m itemModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": itemID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledgerstore.ErrNotFound
		}
		return nil, fmt.Errorf("pointledger/mongo: get item: %w", err)
	}
	return fromItemModel(&m)
}

func (s *Store) ListItems(ctx context.Context, opts item.ListOpts) ([]*item.Item, error) {
	var models []itemModel

	filter := bson.M{}
	if !opts.OwnerID.IsNil() {
		filter["owner_id"] = opts.OwnerID.String()
	}
	if opts.State != "" {
		filter["state"] = string(opts.State)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("pointledger/mongo: list items: %w", err)
	}

	result := make([]*item.Item, len(models))
	for i := range models {
		it, err := fromItemModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = it
	}
	return result, nil
}

// ==================== Entry Store ====================

func (s *Store) GetEntry(ctx context.Context, entryID id.EntryID) (*entry.Entry, error) {
	var m entryModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": entryID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledgerstore.ErrNotFound
		}
		return nil, fmt.Errorf("pointledger/mongo: get entry: %w", err)
	}
	return fromEntryModel(&m)
}

func (s *Store) ListEntries(ctx context.Context, accountID id.AccountID, opts entry.ListOpts) ([]*entry.Entry, error) {
	var models []entryModel

	filter := bson.M{"account_id": accountID.String()}
	if opts.Kind != "" {
		filter["kind"] = string(opts.Kind)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("pointledger/mongo: list entries: %w", err)
	}

	result := make([]*entry.Entry, len(models))
	for i := range models {
		e, err := fromEntryModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = e
	}
	return result, nil
}

// ==================== Work Unit ====================

// Begin opens a work unit as a driver session running a multi-document
// transaction with snapshot reads and majority-acknowledged commit.
func (s *Store) Begin(ctx context.Context) (ledgerstore.Unit, error) {
	sess, err := s.client().StartSession()
	if err != nil {
		return nil, fmt.Errorf("pointledger/mongo: start session: %w", err)
	}

	txOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	if err := sess.StartTransaction(txOpts); err != nil {
		sess.EndSession(ctx)
		return nil, fmt.Errorf("pointledger/mongo: start transaction: %w", err)
	}

	return &unit{store: s, sess: sess}, nil
}

// unit runs every operation through one session-scoped transaction. The
// server buffers writes until commit; a conflicting concurrent commit
// surfaces as a TransientTransactionError, mapped to store.ErrConflict.
type unit struct {
	store *Store
	sess  *mongo.Session
	done  bool
}

func (u *unit) collection(name string) *mongo.Collection {
	return u.store.mdb.Collection(name)
}

func (u *unit) GetAccount(ctx context.Context, accountID id.AccountID) (*account.Account, error) {
	if u.done {
		return nil, ledgerstore.ErrUnitDone
	}
	sctx := mongo.NewSessionContext(ctx, u.sess)

	var m accountModel
	err := u.collection(colAccounts).
		FindOne(sctx, bson.M{"_id": accountID.String()}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledgerstore.ErrNotFound
		}
		return nil, classifyTxError("get account", err)
	}
	return fromAccountModel(&m)
}

func (u *unit) SetBalance(ctx context.Context, accountID id.AccountID, balance types.Points) error {
	if u.done {
		return ledgerstore.ErrUnitDone
	}
	sctx := mongo.NewSessionContext(ctx, u.sess)

	res, err := u.collection(colAccounts).UpdateOne(sctx,
		bson.M{"_id": accountID.String()},
		bson.M{"$set": bson.M{
			"balance":    balance.Int64(),
			"updated_at": now(),
		}},
	)
	if err != nil {
		return classifyTxError("set balance", err)
	}
	if res.MatchedCount == 0 {
		return ledgerstore.ErrNotFound
	}
	return nil
}

func (u *unit) AppendEntry(ctx context.Context, e *entry.Entry) error {
	if u.done {
		return ledgerstore.ErrUnitDone
	}
	sctx := mongo.NewSessionContext(ctx, u.sess)

	m := toEntryModel(e)
	m.CreatedAt = now()

	_, err := u.collection(colEntries).InsertOne(sctx, m)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: entry %s", ledgerstore.ErrDuplicate, e.ID)
		}
		return classifyTxError("append entry", err)
	}

	e.CreatedAt = m.CreatedAt
	return nil
}

func (u *unit) GetItem(ctx context.Context, itemID id.ItemID) (*item.Item, error) {
	if u.done {
		return nil, ledgerstore.ErrUnitDone
	}
	sctx := mongo.NewSessionContext(ctx, u.sess)

	var m itemModel
	err := u.collection(colItems).
		FindOne(sctx, bson.M{"_id": itemID.String()}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledgerstore.ErrNotFound
		}
		return nil, classifyTxError("get item", err)
	}
	return fromItemModel(&m)
}

func (u *unit) SetItemState(ctx context.Context, itemID id.ItemID, state item.State) error {
	if u.done {
		return ledgerstore.ErrUnitDone
	}
	sctx := mongo.NewSessionContext(ctx, u.sess)

	res, err := u.collection(colItems).UpdateOne(sctx,
		bson.M{"_id": itemID.String()},
		bson.M{"$set": bson.M{
			"state":      string(state),
			"updated_at": now(),
		}},
	)
	if err != nil {
		return classifyTxError("set item state", err)
	}
	if res.MatchedCount == 0 {
		return ledgerstore.ErrNotFound
	}
	return nil
}

func (u *unit) Commit(ctx context.Context) error {
	if u.done {
		return ledgerstore.ErrUnitDone
	}
	u.done = true
	defer u.sess.EndSession(ctx)

	if err := u.sess.CommitTransaction(ctx); err != nil {
		if hasErrorLabel(err, labelUnknownCommit) {
			return fmt.Errorf("%w: %w", ledgerstore.ErrCommitUnknown, err)
		}
		if hasErrorLabel(err, labelTransient) {
			return fmt.Errorf("%w: %w", ledgerstore.ErrConflict, err)
		}
		return fmt.Errorf("pointledger/mongo: commit: %w", err)
	}
	return nil
}

func (u *unit) Abort(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	defer u.sess.EndSession(ctx)

	if err := u.sess.AbortTransaction(ctx); err != nil {
		return fmt.Errorf("pointledger/mongo: abort: %w", err)
	}
	return nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// hasErrorLabel checks if an error carries a server-side error label.
func hasErrorLabel(err error, label string) bool {
	var se mongo.ServerError
	if errors.As(err, &se) {
		return se.HasErrorLabel(label)
	}
	return false
}

// classifyTxError maps mid-transaction server errors onto the store
// sentinels the coordinator acts on.
func classifyTxError(op string, err error) error {
	if hasErrorLabel(err, labelTransient) {
		return fmt.Errorf("%w: %s: %w", ledgerstore.ErrConflict, op, err)
	}
	return fmt.Errorf("pointledger/mongo: %s: %w", op, err)
}

// migrationIndexes returns the index definitions for all ledger collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colAccounts: {
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		colItems: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "state", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		colEntries: {
			{Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "kind", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}
}
