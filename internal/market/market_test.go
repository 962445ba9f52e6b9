package market

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/johar/internal/analytics"
	"example.com/johar/internal/logging"
	"example.com/johar/internal/recordstore"
)

type recorder struct{ events []analytics.Event }

func (r *recorder) Record(_ context.Context, ev analytics.Event) { r.events = append(r.events, ev) }

func newMarket(t *testing.T) (*Market, *recorder) {
	t.Helper()
	rec := &recorder{}
	store := recordstore.New(recordstore.NewMemory(), logging.Discard())
	return New(store, rec, logging.Discard()), rec
}

func TestSeedDefaultsOnce(t *testing.T) {
	ctx := context.Background()
	m, _ := newMarket(t)

	require.NoError(t, m.SeedDefaults(ctx))
	items := m.List(ctx)
	require.Len(t, items, 2)
	assert.Equal(t, "prod_1", items[0].ID)
	assert.True(t, decimal.NewFromInt(2500).Equal(items[1].Price))

	_, err := m.AddItem(ctx, "Dokra figurine", decimal.RequireFromString("799.50"), "Dhokra Collective")
	require.NoError(t, err)
	require.NoError(t, m.SeedDefaults(ctx))
	assert.Len(t, m.List(ctx), 3)
}

func TestAddItem(t *testing.T) {
	ctx := context.Background()
	m, rec := newMarket(t)

	item, err := m.AddItem(ctx, " Sohrai painting ", decimal.RequireFromString("1200.00"), "Hazaribagh Art")
	require.NoError(t, err)
	assert.Regexp(t, `^prod_`, item.ID)
	assert.Equal(t, "Sohrai painting", item.Title)

	got := m.List(ctx)
	require.Len(t, got, 1)
	assert.True(t, item.Price.Equal(got[0].Price))
	assert.Equal(t, []analytics.Event{{analytics.FieldTransactions: 1}}, rec.events)

	_, err = m.AddItem(ctx, "free lunch", decimal.NewFromInt(-1), "nobody")
	assert.ErrorIs(t, err, ErrNegativePrice)
	assert.Len(t, m.List(ctx), 1)
}

func TestBuy(t *testing.T) {
	ctx := context.Background()
	m, rec := newMarket(t)
	require.NoError(t, m.SeedDefaults(ctx))

	tx, found, err := m.Buy(ctx, "prod_1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Regexp(t, `^0x[0-9a-f]{32}$`, tx.Tx)
	assert.Equal(t, "prod_1", tx.Item)

	other, _, err := m.Buy(ctx, "prod_1")
	require.NoError(t, err)
	assert.NotEqual(t, tx.Tx, other.Tx)

	txs := m.Transactions(ctx)
	require.Len(t, txs, 2)
	assert.Equal(t, tx.Tx, txs[0].Tx)
	assert.Len(t, rec.events, 2)
}

func TestBuyUnknownItem(t *testing.T) {
	ctx := context.Background()
	m, rec := newMarket(t)
	require.NoError(t, m.SeedDefaults(ctx))

	_, found, err := m.Buy(ctx, "prod_missing")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, m.Transactions(ctx))
	assert.Empty(t, rec.events)
}

type flakyBackend struct {
	*recordstore.MemoryBackend
	failReads int
}

func (f *flakyBackend) Read(ctx context.Context, name string) ([]byte, error) {
	if f.failReads > 0 {
		f.failReads--
		return nil, errors.New("i/o timeout")
	}
	return f.MemoryBackend.Read(ctx, name)
}

func TestCatalogueSurvivesFailedRead(t *testing.T) {
	ctx := context.Background()
	backend := &flakyBackend{MemoryBackend: recordstore.NewMemory()}
	m := New(recordstore.New(backend, logging.Discard()), nil, logging.Discard())
	require.NoError(t, m.SeedDefaults(ctx))
	_, err := m.AddItem(ctx, "Dokra figurine", decimal.NewFromInt(800), "Dhokra Collective")
	require.NoError(t, err)

	backend.failReads = 1
	assert.Error(t, m.SeedDefaults(ctx))
	backend.failReads = 1
	_, err = m.AddItem(ctx, "Bamboo basket", decimal.NewFromInt(150), "Santhal Weavers")
	assert.Error(t, err)

	assert.Len(t, m.List(ctx), 3)
}
