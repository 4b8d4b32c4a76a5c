package stream

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/joripage/matching-engine/pkg/oms"
	"github.com/joripage/matching-engine/pkg/oms/model"
	"github.com/joripage/matching-engine/pkg/orderbook"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ oms.OrderGateway = (*NatsPublisher)(nil)
	_ oms.OrderGateway = (*KafkaPublisher)(nil)
	_ oms.OrderGateway = (*RedisPublisher)(nil)
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleEvent() model.OrderEvent {
	return model.OrderEvent{
		EventID:     "ev-1",
		OrderID:     "O1",
		Symbol:      "BTC",
		Side:        model.OrderSideBuy,
		ExecType:    model.ExecTypeTrade,
		OrderStatus: model.OrderStatusFilled,
		Price:       d("100.25"),
		Qty:         d("1.5"),
		CumQty:      d("1.5"),
		LeavesQty:   decimal.Zero,
		LastQty:     d("1.5"),
		LastPx:      d("100.25"),
		AvgPx:       d("100.25"),
		Timestamp:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func sampleTrade() model.TradeEvent {
	return model.TradeEvent{
		TradeID:     "T1",
		Symbol:      "BTC",
		BuyOrderID:  "O1",
		SellOrderID: "O2",
		Price:       d("100.25"),
		Qty:         d("1.5"),
		Seq:         7,
		ExecutedAt:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestNatsMessages(t *testing.T) {
	ev := sampleEvent()
	msg, err := orderEventMsg("ORDERS", &ev)
	require.NoError(t, err)
	assert.Equal(t, "ORDERS.events", msg.Subject)
	assert.Equal(t, model.KindOrderEvent, msg.Header.Get(HeaderKind))

	decoded, err := Decode(msg.Header.Get(HeaderKind), msg.Data)
	require.NoError(t, err)
	require.NotNil(t, decoded.Event)
	assert.Nil(t, decoded.Trade)
	assert.Equal(t, "O1", decoded.Event.OrderID)
	assert.True(t, decoded.Event.Price.Equal(ev.Price))
	assert.True(t, decoded.Event.Timestamp.Equal(ev.Timestamp))

	tr := sampleTrade()
	msg, err = tradeMsg("ORDERS", &tr)
	require.NoError(t, err)
	assert.Equal(t, "ORDERS.trades", msg.Subject)

	decoded, err = Decode(msg.Header.Get(HeaderKind), msg.Data)
	require.NoError(t, err)
	require.NotNil(t, decoded.Trade)
	assert.Equal(t, uint64(7), decoded.Trade.Seq)
	assert.True(t, decoded.Trade.Qty.Equal(d("1.5")))
}

func TestDecimalsAreQuotedInPayloads(t *testing.T) {
	tr := sampleTrade()
	data, err := json.Marshal(&tr)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "100.25", raw["price"])
	assert.Equal(t, "1.5", raw["qty"])
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	_, err := Decode("order_cancel", []byte(`{}`))
	assert.Error(t, err)

	_, err = Decode(model.KindTrade, []byte(`{`))
	assert.Error(t, err)
}

type publishedKafka struct {
	topic   string
	key     []byte
	value   []byte
	headers map[string]string
}

type fakeKafka struct {
	mu     sync.Mutex
	out    []publishedKafka
	err    error
	closed bool
}

func (f *fakeKafka) Publish(ctx context.Context, topic string, key []byte, value []byte, headers map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.out = append(f.out, publishedKafka{topic, key, value, headers})
	return f.err
}

func (f *fakeKafka) Close(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func TestKafkaPublisher(t *testing.T) {
	fk := &fakeKafka{}
	p := newKafkaPublisher("", fk, nil)
	ctx := context.Background()

	p.OnOrderReport(ctx, sampleEvent())
	p.OnTrade(ctx, sampleTrade())

	require.Len(t, fk.out, 2)
	assert.Equal(t, defaultKafkaTopic, fk.out[0].topic)
	assert.Equal(t, model.KindOrderEvent, fk.out[0].headers[HeaderKind])
	assert.Equal(t, model.KindTrade, fk.out[1].headers[HeaderKind])
	assert.Equal(t, fk.out[0].key, fk.out[1].key, "same symbol, same partition key")

	decoded, err := Decode(fk.out[1].headers[HeaderKind], fk.out[1].value)
	require.NoError(t, err)
	assert.Equal(t, "T1", decoded.Trade.TradeID)
}

func TestKafkaPublisherSurvivesErrors(t *testing.T) {
	fk := &fakeKafka{err: errors.New("broker down")}
	p := newKafkaPublisher("audit", fk, nil)

	p.OnTrade(context.Background(), sampleTrade())
	assert.Len(t, fk.out, 1)
}

func TestKafkaPublisherClosesOnShutdown(t *testing.T) {
	fk := &fakeKafka{}
	p := newKafkaPublisher("audit", fk, nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, p.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool {
		fk.mu.Lock()
		defer fk.mu.Unlock()
		return fk.closed
	}, time.Second, 5*time.Millisecond)
}

type fakeRedis struct {
	mu        sync.Mutex
	sets      map[string]string
	published map[string][]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{sets: map[string]string{}, published: map[string][]string{}}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published[channel] = append(f.published[channel], string(message.([]byte)))
	return redis.NewIntResult(1, nil)
}

func (f *fakeRedis) snapshot(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.sets[key]
	return v, ok
}

func (f *fakeRedis) messages(channel string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.published[channel]...)
}

func TestRedisPublisherCachesBookAndPublishesTrades(t *testing.T) {
	engine := orderbook.NewEngine(nil)
	fr := newFakeRedis()

	// Wired the way the server wires it: as a gateway of a real OMS.
	p := newRedisPublisher(RedisConfig{}, fr, nil, nil)
	o, err := oms.NewOMS(engine, nil, nil, p)
	require.NoError(t, err)
	p.books = o

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, o.Start(ctx))

	_, err = o.AddOrder(ctx, &model.AddOrder{Account: "s", Symbol: "btc", Side: model.OrderSideSell, Price: d("101"), Quantity: d("2")})
	require.NoError(t, err)
	_, err = o.AddOrder(ctx, &model.AddOrder{Account: "b", Symbol: "btc", Side: model.OrderSideBuy, Price: d("101"), Quantity: d("0.5")})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(fr.messages(TradeChannel("BTC"))) == 1
	}, time.Second, 5*time.Millisecond)

	var trade model.TradeEvent
	require.NoError(t, json.Unmarshal([]byte(fr.messages(TradeChannel("BTC"))[0]), &trade))
	assert.True(t, trade.Qty.Equal(d("0.5")))
	assert.Equal(t, "b", trade.BuyAccount)

	require.Eventually(t, func() bool {
		raw, ok := fr.snapshot(SnapshotKey("BTC"))
		if !ok {
			return false
		}
		var book BookMessage
		if err := json.Unmarshal([]byte(raw), &book); err != nil {
			return false
		}
		return len(book.Asks) == 1 && book.Asks[0].Qty.Equal(d("1.5"))
	}, time.Second, 5*time.Millisecond)
}

func TestRedisPublisherCoalescesRefreshes(t *testing.T) {
	fr := newFakeRedis()
	p := newRedisPublisher(RedisConfig{QueueSize: 1}, fr, nil, nil)

	ev := sampleEvent()
	p.OnOrderReport(context.Background(), ev)
	p.OnOrderReport(context.Background(), ev)
	assert.Len(t, p.jobs, 1, "second report for a dirty symbol is coalesced")

	// Queue full: the trade is dropped and counted.
	p.OnTrade(context.Background(), sampleTrade())
	assert.Equal(t, int64(1), p.Dropped())
}

func TestRedisPublisherIgnoresRejects(t *testing.T) {
	p := newRedisPublisher(RedisConfig{}, newFakeRedis(), nil, nil)
	ev := sampleEvent()
	ev.OrderStatus = model.OrderStatusRejected
	p.OnOrderReport(context.Background(), ev)
	assert.Len(t, p.jobs, 0)
}
