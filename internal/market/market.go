// Package market holds the artisan marketplace: an immutable item catalogue
// and an append-only log of simulated purchases.
package market

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"example.com/johar/internal/analytics"
	"example.com/johar/internal/recordstore"
)

var (
	ErrItemNotFound  = errors.New("item not found")
	ErrNegativePrice = errors.New("price must not be negative")
)

type Item struct {
	ID     string          `json:"id"`
	Title  string          `json:"title"`
	Price  decimal.Decimal `json:"price"`
	Seller string          `json:"seller"`
}

type Transaction struct {
	Tx   string    `json:"tx"`
	Item string    `json:"item"`
	Time time.Time `json:"time"`
}

// Recorder receives analytics events.
type Recorder interface {
	Record(ctx context.Context, ev analytics.Event)
}

// DefaultItems is the catalogue written on first start.
func DefaultItems() []Item {
	return []Item{
		{ID: "prod_1", Title: "Tribal Necklace (Handmade)", Price: decimal.NewFromInt(350), Seller: "Asha Artisans"},
		{ID: "prod_2", Title: "Netarhat Homestay (2 nights)", Price: decimal.NewFromInt(2500), Seller: "Sunita Stays"},
	}
}

type Market struct {
	items    *recordstore.Collection[Item]
	txs      *recordstore.Collection[Transaction]
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

func New(store *recordstore.Store, recorder Recorder, logger *slog.Logger) *Market {
	return &Market{
		items:    recordstore.NewCollection(store, recordstore.MarketItems, func(i Item) string { return i.ID }),
		txs:      recordstore.NewCollection(store, recordstore.Transactions, func(t Transaction) string { return t.Tx }),
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// SeedDefaults writes DefaultItems when the catalogue has never been saved.
func (m *Market) SeedDefaults(ctx context.Context) error {
	seeded, err := m.items.SeedIfAbsent(ctx, DefaultItems())
	if err != nil {
		return fmt.Errorf("seed market: %w", err)
	}
	if seeded {
		m.logger.InfoContext(ctx, "market seeded", "items", len(DefaultItems()))
	}
	return nil
}

// AddItem lists a new item. Listing counts as a transaction in analytics.
func (m *Market) AddItem(ctx context.Context, title string, price decimal.Decimal, seller string) (Item, error) {
	if price.IsNegative() {
		return Item{}, ErrNegativePrice
	}
	item := Item{
		ID:     "prod_" + uuid.NewString(),
		Title:  strings.TrimSpace(title),
		Price:  price,
		Seller: strings.TrimSpace(seller),
	}
	if err := m.items.Create(ctx, item); err != nil {
		return Item{}, fmt.Errorf("add item: %w", err)
	}
	m.record(ctx)
	m.logger.InfoContext(ctx, "item listed", "item_id", item.ID, "price", item.Price.String())
	return item, nil
}

func (m *Market) List(ctx context.Context) []Item {
	return m.items.Load(ctx)
}

// Buy simulates a payment for itemID. found is false for unknown items.
func (m *Market) Buy(ctx context.Context, itemID string) (Transaction, bool, error) {
	if _, ok := m.items.Find(ctx, itemID); !ok {
		return Transaction{}, false, nil
	}
	tx := Transaction{
		Tx:   "0x" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		Item: itemID,
		Time: m.now().UTC(),
	}
	if err := m.txs.Create(ctx, tx); err != nil {
		return Transaction{}, true, fmt.Errorf("record transaction: %w", err)
	}
	m.record(ctx)
	m.logger.InfoContext(ctx, "item bought", "item_id", itemID, "tx", tx.Tx)
	return tx, true, nil
}

func (m *Market) Transactions(ctx context.Context) []Transaction {
	return m.txs.Load(ctx)
}

func (m *Market) record(ctx context.Context) {
	if m.recorder != nil {
		m.recorder.Record(ctx, analytics.Event{analytics.FieldTransactions: 1})
	}
}
