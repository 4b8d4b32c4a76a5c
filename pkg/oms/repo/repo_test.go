package repo

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/joripage/matching-engine/pkg/oms/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "oms.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	return db
}

func event(id, orderID string, status model.OrderStatus, ts time.Time) *model.OrderEvent {
	return &model.OrderEvent{
		EventID:     id,
		OrderID:     orderID,
		Symbol:      "BTC",
		Side:        model.OrderSideBuy,
		ExecType:    model.ExecTypeNew,
		OrderStatus: status,
		Price:       decimal.RequireFromString("100.5"),
		Qty:         decimal.RequireFromString("2"),
		LeavesQty:   decimal.RequireFromString("2"),
		Timestamp:   ts,
	}
}

func TestOrderEventBulkCreateIsIdempotent(t *testing.T) {
	r := NewRepo(setupTestDB(t)).OrderEvent()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	batch := []*model.OrderEvent{
		event("e2", "O1", model.OrderStatusPartiallyFilled, base.Add(time.Second)),
		event("e1", "O1", model.OrderStatusNew, base),
		event("e3", "O2", model.OrderStatusNew, base),
	}
	_, err := r.BulkCreate(ctx, batch)
	require.NoError(t, err)

	// Redelivery of part of the batch.
	_, err = r.BulkCreate(ctx, batch[:2])
	require.NoError(t, err)

	got, err := r.ListByOrderID(ctx, "O1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "e1", got[0].EventID)
	assert.Equal(t, "e2", got[1].EventID)
	assert.True(t, got[0].Price.Equal(decimal.RequireFromString("100.5")))
	assert.Equal(t, model.OrderStatusPartiallyFilled, got[1].OrderStatus)
}

func TestOrderEventCreateAndEmptyBatch(t *testing.T) {
	r := NewOrderEventSQLRepo(setupTestDB(t))
	ctx := context.Background()

	_, err := r.BulkCreate(ctx, nil)
	require.NoError(t, err)

	_, err = r.Create(ctx, event("e1", "O9", model.OrderStatusNew, time.Now().UTC()))
	require.NoError(t, err)
	_, err = r.Create(ctx, event("e1", "O9", model.OrderStatusNew, time.Now().UTC()))
	require.NoError(t, err)

	got, err := r.ListByOrderID(ctx, "O9")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestTradeListBySymbol(t *testing.T) {
	r := NewRepo(setupTestDB(t)).Trade()
	ctx := context.Background()

	trade := func(id, symbol string, seq uint64) *model.TradeEvent {
		return &model.TradeEvent{
			TradeID:     id,
			Symbol:      symbol,
			BuyOrderID:  "B" + id,
			SellOrderID: "S" + id,
			Price:       decimal.RequireFromString("10.25"),
			Qty:         decimal.RequireFromString("0.5"),
			Seq:         seq,
			ExecutedAt:  time.Now().UTC(),
		}
	}

	_, err := r.BulkCreate(ctx, []*model.TradeEvent{
		trade("t3", "BTC", 9),
		trade("t1", "BTC", 4),
		trade("t2", "ETH", 5),
	})
	require.NoError(t, err)
	_, err = r.BulkCreate(ctx, []*model.TradeEvent{trade("t1", "BTC", 4)})
	require.NoError(t, err)

	got, err := r.ListBySymbol(ctx, "BTC", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "t1", got[0].TradeID)
	assert.Equal(t, "t3", got[1].TradeID)
	assert.True(t, got[1].Qty.Equal(decimal.RequireFromString("0.5")))

	got, err = r.ListBySymbol(ctx, "BTC", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
