package oms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/joripage/matching-engine/pkg/logging"
	eventstore "github.com/joripage/matching-engine/pkg/oms/event_store"
	"github.com/joripage/matching-engine/pkg/oms/model"
	"github.com/joripage/matching-engine/pkg/oms/position"
	riskrule "github.com/joripage/matching-engine/pkg/oms/risk_rule"
	"github.com/joripage/matching-engine/pkg/orderbook"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Config struct {
	// EnforcePositions makes sells spend the seller's holding up front and
	// credits buyers on every fill.
	EnforcePositions       bool                          `yaml:"enforce_positions"`
	LimitPrices            map[string]riskrule.PriceBand `yaml:"limit_prices"`
	TickSizeFile           string                        `yaml:"tick_size_file"`
	InitialPositions       []position.Seed               `yaml:"initial_positions"`
	CleanupIntervalSeconds int                           `yaml:"cleanup_interval_seconds"`
}

type Stats struct {
	Orders  int64 `json:"orders"`
	Trades  int64 `json:"trades"`
	Rejects int64 `json:"rejects"`
	// LastSeq is the engine's latest arrival sequence number.
	LastSeq uint64 `json:"lastSeq"`
}

// OMS sits in front of the matching engine: it validates and risk checks
// orders, keeps positions and per-order execution history, and fans reports
// out to the registered gateways.
type OMS struct {
	engine     *orderbook.Engine
	positions  *position.Manager
	eventstore eventstore.EventStore
	rules      riskrule.Chain

	enforcePositions bool
	cleanupInterval  time.Duration

	gwMu          sync.RWMutex
	orderGateways []OrderGateway

	orderIDMapping sync.Map // OrderID -> *model.Order
	stopCh         chan struct{}
	stopOnce       sync.Once

	totalOrders  atomic.Int64
	totalMatches atomic.Int64
	totalRejects atomic.Int64

	logger *logging.Logger
	now    func() time.Time
}

func NewOMS(engine *orderbook.Engine, cfg *Config, logger *logging.Logger, orderGateways ...OrderGateway) (*OMS, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	rules := riskrule.Chain{riskrule.NewOrderFieldsRule()}
	if len(cfg.LimitPrices) > 0 {
		rules = append(rules, riskrule.NewLimitPriceRule(upperKeys(cfg.LimitPrices)))
	}
	if cfg.TickSizeFile != "" {
		tickSize, err := riskrule.NewTickSizeRuleFromFile(cfg.TickSizeFile)
		if err != nil {
			return nil, fmt.Errorf("load tick size rule: %w", err)
		}
		rules = append(rules, tickSize)
	}

	seeds := make([]position.Seed, len(cfg.InitialPositions))
	for i, seed := range cfg.InitialPositions {
		seed.Symbol = normalizeSymbol(seed.Symbol)
		seeds[i] = seed
	}

	s := &OMS{
		engine:           engine,
		positions:        position.NewManager(seeds...),
		eventstore:       eventstore.NewInMemoryEventStore(),
		rules:            rules,
		enforcePositions: cfg.EnforcePositions,
		cleanupInterval:  time.Duration(cfg.CleanupIntervalSeconds) * time.Second,
		orderGateways:    orderGateways,
		stopCh:           make(chan struct{}),
		logger:           logger.With(zap.String("component", "oms")),
		now:              time.Now,
	}
	engine.RegisterTradeCallback(s.onTrades)

	return s, nil
}

// AddOrderGateway registers a gateway after construction, for gateways that
// need the OMS themselves.
func (s *OMS) AddOrderGateway(gw OrderGateway) {
	s.gwMu.Lock()
	defer s.gwMu.Unlock()

	s.orderGateways = append(s.orderGateways, gw)
}

func (s *OMS) Start(ctx context.Context) error {
	for _, gw := range s.gateways() {
		if err := gw.Start(ctx); err != nil {
			return err
		}
	}
	if s.cleanupInterval > 0 {
		go s.startCleaner(s.cleanupInterval)
	}
	return nil
}

func (s *OMS) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// AddOrder checks and submits a new order. Rejections are reported to the
// gateways and returned as errors.
func (s *OMS) AddOrder(ctx context.Context, addOrder *model.AddOrder) (orderbook.SubmitResult, error) {
	addOrder.Symbol = normalizeSymbol(addOrder.Symbol)
	addOrder.Side = model.OrderSide(strings.ToUpper(string(addOrder.Side)))
	if addOrder.TransactTime.IsZero() {
		addOrder.TransactTime = s.now()
	}

	orderID := addOrder.OrderID
	if orderID == "" {
		orderID = uuid.NewString()
	}

	if err := s.rules.Check(addOrder); err != nil {
		return s.reject(ctx, addOrder, orderID, err)
	}

	// cleanup forgets terminal orders, the engine never does.
	if _, exists := s.engine.Order(orderID); exists {
		return s.reject(ctx, addOrder, orderID, ErrDuplicateOrder)
	}

	order := &model.Order{
		OrderID:        orderID,
		GatewayID:      addOrder.GatewayID,
		Account:        addOrder.Account,
		Symbol:         addOrder.Symbol,
		Side:           addOrder.Side,
		Price:          addOrder.Price,
		Quantity:       addOrder.Quantity,
		TransactTime:   addOrder.TransactTime,
		Status:         model.OrderStatusNew,
		ExecType:       model.ExecTypeNew,
		ExecID:         uuid.NewString(),
		CumQuantity:    decimal.Zero,
		LeavesQuantity: addOrder.Quantity,
	}
	if !s.AddOrderToMap(order) {
		return s.reject(ctx, addOrder, orderID, ErrDuplicateOrder)
	}
	if addOrder.GatewayID != "" && !s.eventstore.ClaimGatewayID(orderID, addOrder.GatewayID) {
		s.DeleteOrderByOrderID(orderID)
		return s.reject(ctx, addOrder, orderID, ErrDuplicateOrder)
	}

	// Sells spend the whole quantity now; nothing is given back on cancel.
	debited := false
	if s.enforcePositions && addOrder.Side == model.OrderSideSell {
		if err := s.positions.Debit(addOrder.Account, addOrder.Symbol, addOrder.Quantity); err != nil {
			s.forget(orderID)
			return s.reject(ctx, addOrder, orderID, fmt.Errorf("%w: %s holds %s %s, order needs %s",
				err, addOrder.Account, s.positions.Position(addOrder.Account, addOrder.Symbol), addOrder.Symbol, addOrder.Quantity))
		}
		debited = true
	}

	// The New report has to precede the fills the engine reports through onTrades.
	s.publishOrder(ctx, *order)

	result, err := s.engine.Submit(orderbook.NewOrder{
		ID:     orderID,
		Symbol: addOrder.Symbol,
		Side:   orderbook.Side(addOrder.Side),
		Price:  addOrder.Price,
		Qty:    addOrder.Quantity,
		Owner:  addOrder.Account,
	})
	if err != nil {
		// The engine already knows this id from outside the OMS.
		if debited {
			s.positions.Credit(addOrder.Account, addOrder.Symbol, addOrder.Quantity)
		}
		s.forget(orderID)
		if errors.Is(err, orderbook.ErrDuplicateOrderID) {
			err = ErrDuplicateOrder
		}
		return s.reject(ctx, addOrder, orderID, err)
	}
	s.totalOrders.Add(1)

	s.logger.Debug(ctx, "order added",
		zap.String("order_id", orderID),
		zap.String("gateway_id", addOrder.GatewayID),
		zap.String("symbol", addOrder.Symbol),
		zap.String("side", string(addOrder.Side)),
		zap.String("price", addOrder.Price.String()),
		zap.String("qty", addOrder.Quantity.String()),
		zap.Int("trades", len(result.Trades)),
		zap.String("status", string(result.Order.Status)),
	)

	return result, nil
}

// CancelOrder cancels by OrderID, or by the gateway id the order was placed with.
func (s *OMS) CancelOrder(ctx context.Context, cancelOrder *model.CancelOrder) (orderbook.Order, error) {
	orderID := cancelOrder.OrderID
	if orderID == "" {
		orderID = s.eventstore.GetOrderID(cancelOrder.OrigGatewayID)
	}
	if orderID == "" {
		return orderbook.Order{}, ErrOrderNotFound
	}
	if _, ok := s.engine.Order(orderID); !ok {
		return orderbook.Order{}, ErrOrderNotFound
	}

	if !s.engine.Cancel(orderID) {
		s.logger.Info(ctx, "cancel rejected", zap.String("order_id", orderID))
		snap, _ := s.engine.Order(orderID)
		return snap, ErrCancelRejected
	}
	snap, _ := s.engine.Order(orderID)

	// No fill can reach a cancelled order, so the OMS copy is ours to update.
	order, err := s.GetOrderByOrderID(orderID)
	if err != nil {
		order = orderFromBook(snap)
	}
	if cancelOrder.GatewayID != "" {
		order.OrigGatewayID = order.GatewayID
		order.GatewayID = cancelOrder.GatewayID
	}
	order.Status = model.OrderStatusCanceled
	order.ExecType = model.ExecTypeCanceled
	order.ExecID = uuid.NewString()
	order.LeavesQuantity = decimal.Zero
	order.LastQuantity = decimal.Zero
	order.LastPrice = decimal.Zero

	s.publishOrder(ctx, *order)
	s.logger.Debug(ctx, "order cancelled", zap.String("order_id", orderID), zap.String("filled", snap.FilledQty.String()))

	return snap, nil
}

func (s *OMS) GetOrder(orderID string) (orderbook.Order, bool) {
	return s.engine.Order(orderID)
}

func (s *OMS) ListOrders() []orderbook.Order {
	return s.engine.Orders()
}

func (s *OMS) GetOrderBook(symbol string) orderbook.BookSnapshot {
	return s.engine.OrderBook(normalizeSymbol(symbol))
}

// ListTrades returns the trades of symbol, or every trade when symbol is empty.
func (s *OMS) ListTrades(symbol string) []orderbook.Trade {
	if symbol == "" {
		return s.engine.Trades()
	}
	return s.engine.TradesBySymbol(normalizeSymbol(symbol))
}

func (s *OMS) Positions(owner string) []position.Position {
	return s.positions.Positions(owner)
}

func (s *OMS) SetPosition(owner, symbol string, qty decimal.Decimal) error {
	return s.positions.SetPosition(owner, normalizeSymbol(symbol), qty)
}

// Events returns the execution history of an order, oldest first.
func (s *OMS) Events(orderID string) []model.OrderEvent {
	return s.eventstore.Events(orderID)
}

// GatewayChain lists the client ids an order has gone by, newest first.
func (s *OMS) GatewayChain(orderID string) []string {
	latest := s.eventstore.GetLatestGatewayID(orderID)
	if latest == "" {
		return nil
	}
	return s.eventstore.ReconstructChain(latest)
}

func (s *OMS) Stats() Stats {
	return Stats{
		Orders:  s.totalOrders.Load(),
		Trades:  s.totalMatches.Load(),
		Rejects: s.totalRejects.Load(),
		LastSeq: s.engine.LastSeq(),
	}
}

// onTrades runs under the symbol lock of the engine, once per submission
// that traded.
func (s *OMS) onTrades(trades []orderbook.Trade) {
	ctx := context.Background()
	for _, t := range trades {
		count := s.totalMatches.Add(1)
		if count%10000 == 0 {
			s.logger.Info(ctx, "match progress", zap.Int64("total_match_count", count))
		}

		tradeEvent := model.TradeEvent{
			TradeID:     t.ID,
			Symbol:      t.Symbol,
			BuyOrderID:  t.BuyOrderID,
			SellOrderID: t.SellOrderID,
			Price:       t.Price,
			Qty:         t.Qty,
			Seq:         t.Seq,
			ExecutedAt:  t.ExecutedAt,
		}

		if buy, err := s.GetOrderByOrderID(t.BuyOrderID); err == nil {
			tradeEvent.BuyAccount = buy.Account
			buy.ApplyFill(t.ID, t.Price, t.Qty)
			s.publishOrder(ctx, *buy)
			if s.enforcePositions {
				s.positions.Credit(buy.Account, buy.Symbol, t.Qty)
			}
		} else {
			s.logger.Warn(ctx, "match order not found", zap.String("order_id", t.BuyOrderID))
		}

		if sell, err := s.GetOrderByOrderID(t.SellOrderID); err == nil {
			tradeEvent.SellAccount = sell.Account
			sell.ApplyFill(t.ID, t.Price, t.Qty)
			s.publishOrder(ctx, *sell)
		} else {
			s.logger.Warn(ctx, "match order not found", zap.String("order_id", t.SellOrderID))
		}

		for _, gw := range s.gateways() {
			gw.OnTrade(ctx, tradeEvent)
		}
	}
}

func (s *OMS) publishOrder(ctx context.Context, order model.Order) {
	ev := model.NewOrderEvent(order, s.now())
	s.eventstore.AddEvent(ev)
	for _, gw := range s.gateways() {
		gw.OnOrderReport(ctx, *ev)
	}
}

func (s *OMS) reject(ctx context.Context, addOrder *model.AddOrder, orderID string, err error) (orderbook.SubmitResult, error) {
	s.totalRejects.Add(1)
	s.logger.Info(ctx, "order rejected",
		zap.String("order_id", orderID),
		zap.String("gateway_id", addOrder.GatewayID),
		zap.String("symbol", addOrder.Symbol),
		zap.Error(err),
	)

	// Rejects are not kept in the event store; the id may belong to another order.
	ev := model.NewRejectEvent(addOrder, orderID, err.Error(), s.now())
	for _, gw := range s.gateways() {
		gw.OnOrderReport(ctx, *ev)
	}
	return orderbook.SubmitResult{}, err
}

// forget undoes the bookkeeping of an order that never reached the engine.
func (s *OMS) forget(orderID string) {
	s.DeleteOrderByOrderID(orderID)
	s.eventstore.DeleteChainByOrderID(orderID)
}

func (s *OMS) gateways() []OrderGateway {
	s.gwMu.RLock()
	defer s.gwMu.RUnlock()

	return s.orderGateways
}

func orderFromBook(o orderbook.Order) *model.Order {
	return &model.Order{
		OrderID:        o.ID,
		Account:        o.Owner,
		Symbol:         o.Symbol,
		Side:           model.OrderSide(o.Side),
		Price:          o.Price,
		Quantity:       o.Qty,
		TransactTime:   o.CreatedAt,
		CumQuantity:    o.FilledQty,
		LeavesQuantity: o.Remaining(),
	}
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func upperKeys[V any](in map[string]V) map[string]V {
	out := make(map[string]V, len(in))
	for k, v := range in {
		out[normalizeSymbol(k)] = v
	}
	return out
}
