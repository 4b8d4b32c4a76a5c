package stream

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joripage/matching-engine/pkg/logging"
	"github.com/joripage/matching-engine/pkg/oms/model"
	"github.com/joripage/matching-engine/pkg/orderbook"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RedisConfig struct {
	Enabled            bool `yaml:"enabled"`
	SnapshotTTLSeconds int  `yaml:"snapshot_ttl_seconds"`
	QueueSize          int  `yaml:"queue_size"`
}

// BookSource serves the aggregated book a snapshot is built from.
type BookSource interface {
	GetOrderBook(symbol string) orderbook.BookSnapshot
}

type redisClient interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

func SnapshotKey(symbol string) string {
	return "orderbook:" + symbol
}

func TradeChannel(symbol string) string {
	return "trades:" + symbol
}

// BookMessage is the cached snapshot value.
type BookMessage struct {
	orderbook.BookSnapshot
	Timestamp time.Time `json:"timestamp"`
}

type redisJob struct {
	symbol string
	trade  *model.TradeEvent
}

// RedisPublisher keeps a cached book snapshot per symbol and publishes
// trades on a per-symbol channel. Reports only enqueue work: the book is
// read later by the publisher's own goroutine, never under the symbol lock.
type RedisPublisher struct {
	client redisClient
	books  BookSource
	ttl    time.Duration
	jobs   chan redisJob
	// dirty holds symbols with a snapshot refresh already queued.
	dirty   sync.Map
	dropped atomic.Int64
	logger  *logging.Logger
}

func NewRedisPublisher(cfg RedisConfig, client redis.Cmdable, books BookSource, logger *logging.Logger) *RedisPublisher {
	return newRedisPublisher(cfg, client, books, logger)
}

func newRedisPublisher(cfg RedisConfig, client redisClient, books BookSource, logger *logging.Logger) *RedisPublisher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 10_000
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &RedisPublisher{
		client: client,
		books:  books,
		ttl:    time.Duration(cfg.SnapshotTTLSeconds) * time.Second,
		jobs:   make(chan redisJob, cfg.QueueSize),
		logger: logger.With(zap.String("component", "redis_publisher")),
	}
}

func (p *RedisPublisher) Start(ctx context.Context) error {
	go p.run(ctx)
	return nil
}

func (p *RedisPublisher) OnOrderReport(ctx context.Context, ev model.OrderEvent) {
	if ev.OrderStatus == model.OrderStatusRejected {
		return
	}
	if _, queued := p.dirty.LoadOrStore(ev.Symbol, struct{}{}); queued {
		return
	}
	if !p.enqueue(redisJob{symbol: ev.Symbol}) {
		p.dirty.Delete(ev.Symbol)
	}
}

func (p *RedisPublisher) OnTrade(ctx context.Context, trade model.TradeEvent) {
	p.enqueue(redisJob{symbol: trade.Symbol, trade: &trade})
}

// Dropped counts jobs lost to a full queue.
func (p *RedisPublisher) Dropped() int64 {
	return p.dropped.Load()
}

func (p *RedisPublisher) enqueue(job redisJob) bool {
	select {
	case p.jobs <- job:
		return true
	default:
		if p.dropped.Add(1)%1000 == 1 {
			p.logger.Warn(context.Background(), "redis publish queue full", zap.String("symbol", job.symbol), zap.Int64("dropped", p.dropped.Load()))
		}
		return false
	}
}

func (p *RedisPublisher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-p.jobs:
			p.handle(ctx, job)
		}
	}
}

func (p *RedisPublisher) handle(ctx context.Context, job redisJob) {
	if job.trade != nil {
		data, err := json.Marshal(job.trade)
		if err == nil {
			err = p.client.Publish(ctx, TradeChannel(job.symbol), data).Err()
		}
		if err != nil {
			p.logger.Error(ctx, "publish trade failed", zap.String("trade_id", job.trade.TradeID), zap.Error(err))
		}
		return
	}

	// Cleared first so a report arriving during the refresh queues another one.
	p.dirty.Delete(job.symbol)
	data, err := json.Marshal(BookMessage{
		BookSnapshot: p.books.GetOrderBook(job.symbol),
		Timestamp:    time.Now().UTC(),
	})
	if err == nil {
		err = p.client.Set(ctx, SnapshotKey(job.symbol), data, p.ttl).Err()
	}
	if err != nil {
		p.logger.Error(ctx, "cache book snapshot failed", zap.String("symbol", job.symbol), zap.Error(err))
	}
}
