package worker

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/joripage/matching-engine/pkg/oms/model"
	"github.com/joripage/matching-engine/pkg/oms/repo"
	"github.com/joripage/matching-engine/pkg/oms/stream"
	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupRepo(t *testing.T) repo.IRepo {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "audit.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, repo.AutoMigrate(db))
	return repo.NewRepo(db)
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestHandleBatchStoresEventsAndTrades(t *testing.T) {
	r := setupRepo(t)
	w := NewWorker(r, nil)
	ctx := context.Background()

	ev := model.OrderEvent{
		EventID:     "e1",
		OrderID:     "O1",
		Symbol:      "BTC",
		Side:        model.OrderSideSell,
		ExecType:    model.ExecTypeNew,
		OrderStatus: model.OrderStatusNew,
		Price:       decimal.RequireFromString("99.5"),
		Qty:         decimal.RequireFromString("3"),
		LeavesQty:   decimal.RequireFromString("3"),
		Timestamp:   time.Now().UTC(),
	}
	tr := model.TradeEvent{
		TradeID:     "T1",
		Symbol:      "BTC",
		BuyOrderID:  "O2",
		SellOrderID: "O1",
		Price:       decimal.RequireFromString("99.5"),
		Qty:         decimal.RequireFromString("1"),
		Seq:         2,
		ExecutedAt:  time.Now().UTC(),
	}

	batch := []Payload{
		{Kind: model.KindOrderEvent, Data: mustJSON(t, ev)},
		{Kind: model.KindTrade, Data: mustJSON(t, tr)},
		{Kind: "garbage", Data: []byte("not json")},
	}
	require.NoError(t, w.HandleBatch(ctx, batch))
	// Redelivery is harmless.
	require.NoError(t, w.HandleBatch(ctx, batch))

	events, err := r.OrderEvent().ListByOrderID(ctx, "O1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].Price.Equal(ev.Price))

	trades, err := r.Trade().ListBySymbol(ctx, "BTC", 0)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "O1", trades[0].SellOrderID)
}

type failingTrades struct{}

func (failingTrades) BulkCreate(ctx context.Context, records []*model.TradeEvent) ([]*model.TradeEvent, error) {
	return nil, errors.New("db down")
}

func (failingTrades) ListBySymbol(ctx context.Context, symbol string, limit int) ([]*model.TradeEvent, error) {
	return nil, nil
}

func TestHandleBatchFailsOnStorageError(t *testing.T) {
	w := NewWorker(setupRepo(t), nil)
	w.trade = failingTrades{}

	err := w.HandleBatch(context.Background(), []Payload{{Kind: model.KindTrade, Data: []byte(`{"tradeId":"T1"}`)}})
	assert.Error(t, err)
}

func TestNatsPayloadKind(t *testing.T) {
	msg := nats.NewMsg(stream.TradesSubject("ORDERS"))
	msg.Header.Set(stream.HeaderKind, model.KindTrade)
	assert.Equal(t, model.KindTrade, natsPayload(msg).Kind)

	legacy := &nats.Msg{Subject: stream.EventsSubject("ORDERS"), Data: []byte(`{}`)}
	assert.Equal(t, model.KindOrderEvent, natsPayload(legacy).Kind)

	unknown := &nats.Msg{Subject: "ORDERS.other"}
	assert.Equal(t, "", natsPayload(unknown).Kind)
}
