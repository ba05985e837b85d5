package mongo

import (
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/pointledger/account"
	"github.com/xraph/pointledger/entry"
	"github.com/xraph/pointledger/id"
	"github.com/xraph/pointledger/item"
	"github.com/xraph/pointledger/types"
)

// ==================== Account models ====================

type accountModel struct {
	grove.BaseModel `grove:"table:ledger_accounts"`

	ID          string    `grove:"id,pk"        bson:"_id"`
	DisplayName string    `grove:"display_name" bson:"display_name"`
	Balance     int64     `grove:"balance"      bson:"balance"`
	CreatedAt   time.Time `grove:"created_at"   bson:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"   bson:"updated_at"`
}

func toAccountModel(a *account.Account) *accountModel {
	return &accountModel{
		ID:          a.ID.String(),
		DisplayName: a.DisplayName,
		Balance:     a.Balance.Int64(),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func fromAccountModel(m *accountModel) (*account.Account, error) {
	accountID, err := id.ParseAccountID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse account ID %q: %w", m.ID, err)
	}

	return &account.Account{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:          accountID,
		DisplayName: m.DisplayName,
		Balance:     types.Points(m.Balance),
	}, nil
}

// ==================== Item models ====================

type itemModel struct {
	grove.BaseModel `grove:"table:ledger_items"`

	ID        string    `grove:"id,pk"      bson:"_id"`
	OwnerID   string    `grove:"owner_id"   bson:"owner_id"`
	Title     string    `grove:"title"      bson:"title"`
	Price     int64     `grove:"price"      bson:"price"`
	State     string    `grove:"state"      bson:"state"`
	CreatedAt time.Time `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time `grove:"updated_at" bson:"updated_at"`
}

func toItemModel(it *item.Item) *itemModel {
	return &itemModel{
		ID:        it.ID.String(),
		OwnerID:   it.OwnerID.String(),
		Title:     it.Title,
		Price:     it.Price.Int64(),
		State:     string(it.State),
		CreatedAt: it.CreatedAt,
		UpdatedAt: it.UpdatedAt,
	}
}

func fromItemModel(m *itemModel) (*item.Item, error) {
	itemID, err := id.ParseItemID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse item ID %q: %w", m.ID, err)
	}
	ownerID, err := id.ParseAccountID(m.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse owner ID %q: %w", m.OwnerID, err)
	}

	return &item.Item{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:      itemID,
		OwnerID: ownerID,
		Title:   m.Title,
		Price:   types.Points(m.Price),
		State:   item.State(m.State),
	}, nil
}

// ==================== Entry models ====================

type entryModel struct {
	grove.BaseModel `grove:"table:ledger_entries"`

	ID               string    `grove:"id,pk"             bson:"_id"`
	AccountID        string    `grove:"account_id"        bson:"account_id"`
	Kind             string    `grove:"kind"              bson:"kind"`
	Amount           int64     `grove:"amount"            bson:"amount"`
	ResultingBalance int64     `grove:"resulting_balance" bson:"resulting_balance"`
	CounterpartyID   string    `grove:"counterparty_id"   bson:"counterparty_id,omitempty"`
	ItemID           string    `grove:"item_id"           bson:"item_id,omitempty"`
	Description      string    `grove:"description"       bson:"description"`
	CreatedAt        time.Time `grove:"created_at"        bson:"created_at"`
}

func toEntryModel(e *entry.Entry) *entryModel {
	m := &entryModel{
		ID:               e.ID.String(),
		AccountID:        e.AccountID.String(),
		Kind:             string(e.Kind),
		Amount:           e.Amount.Int64(),
		ResultingBalance: e.ResultingBalance.Int64(),
		Description:      e.Description,
		CreatedAt:        e.CreatedAt,
	}
	if !e.CounterpartyID.IsNil() {
		m.CounterpartyID = e.CounterpartyID.String()
	}
	if !e.ItemID.IsNil() {
		m.ItemID = e.ItemID.String()
	}
	return m
}

func fromEntryModel(m *entryModel) (*entry.Entry, error) {
	entryID, err := id.ParseEntryID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse entry ID %q: %w", m.ID, err)
	}
	accountID, err := id.ParseAccountID(m.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse account ID %q: %w", m.AccountID, err)
	}

	e := &entry.Entry{
		ID:               entryID,
		AccountID:        accountID,
		Kind:             entry.Kind(m.Kind),
		Amount:           types.Points(m.Amount),
		ResultingBalance: types.Points(m.ResultingBalance),
		Description:      m.Description,
		CreatedAt:        m.CreatedAt,
	}

	if m.CounterpartyID != "" {
		cID, err := id.ParseAccountID(m.CounterpartyID)
		if err != nil {
			return nil, fmt.Errorf("failed to parse counterparty ID %q: %w", m.CounterpartyID, err)
		}
		e.CounterpartyID = cID
	}
	if m.ItemID != "" {
		iID, err := id.ParseItemID(m.ItemID)
		if err != nil {
			return nil, fmt.Errorf("failed to parse item ID %q: %w", m.ItemID, err)
		}
		e.ItemID = iID
	}

	return e, nil
}
