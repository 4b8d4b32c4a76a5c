package orderbook

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EngineConfig struct {
	// IDGenerator assigns ids to orders submitted without one and to trades.
	IDGenerator func() string
	// Now stamps CreatedAt/ExecutedAt. It never takes part in ordering.
	Now func() time.Time
}

// Engine owns the books, the order registry and the trade ledger. Each
// symbol is serialized by its own lock; different symbols never coordinate.
type Engine struct {
	books    sync.Map // symbol -> *orderBook
	registry *registry
	ledger   *ledger
	seq      sequencer

	cbMu      sync.Mutex
	callbacks []func([]Trade)

	newID func() string
	now   func() time.Time
}

type SubmitResult struct {
	Order  Order
	Trades []Trade
}

func NewEngine(cfg *EngineConfig) *Engine {
	e := &Engine{
		registry: newRegistry(),
		ledger:   newLedger(),
		newID:    uuid.NewString,
		now:      time.Now,
	}
	if cfg != nil {
		if cfg.IDGenerator != nil {
			e.newID = cfg.IDGenerator
		}
		if cfg.Now != nil {
			e.now = cfg.Now
		}
	}
	return e
}

// Submit registers the order, matches it and rests the remainder. The
// returned trades are the ones produced by this call, in execution order.
//
// Price must carry at most PriceScale decimals and Qty must be positive;
// callers validate first. A finer price is truncated onto the lower level.
func (e *Engine) Submit(req NewOrder) (SubmitResult, error) {
	id := req.ID
	if id == "" {
		id = e.newID()
	}

	book := e.getOrCreateBook(req.Symbol)
	book.mu.Lock()
	defer book.mu.Unlock()

	order := &Order{
		ID:        id,
		Symbol:    req.Symbol,
		Side:      req.Side,
		Price:     req.Price,
		Qty:       req.Qty,
		FilledQty: decimal.Zero,
		Status:    PENDING,
		Seq:       e.seq.next(),
		Owner:     req.Owner,
		CreatedAt: e.now(),
	}
	if !e.registry.add(order, book) {
		return SubmitResult{}, ErrDuplicateOrderID
	}

	trades := book.addOrder(order)
	e.ledger.append(trades...)

	return SubmitResult{Order: *order, Trades: trades}, nil
}

// Cancel retires a pending or partially filled order. It reports false for
// unknown ids and for orders that are already filled or cancelled.
func (e *Engine) Cancel(orderID string) bool {
	entry, ok := e.registry.get(orderID)
	if !ok {
		return false
	}

	entry.book.mu.Lock()
	defer entry.book.mu.Unlock()
	return entry.book.cancelOrder(entry.order)
}

// Order returns a snapshot of the order.
func (e *Engine) Order(orderID string) (Order, bool) {
	entry, ok := e.registry.get(orderID)
	if !ok {
		return Order{}, false
	}

	entry.book.mu.RLock()
	defer entry.book.mu.RUnlock()
	return *entry.order, true
}

// Orders returns every order ever submitted, by arrival sequence.
func (e *Engine) Orders() []Order {
	entries := e.registry.list()
	out := make([]Order, 0, len(entries))
	for _, entry := range entries {
		entry.book.mu.RLock()
		out = append(out, *entry.order)
		entry.book.mu.RUnlock()
	}
	slices.SortFunc(out, func(a, b Order) int { return cmp.Compare(a.Seq, b.Seq) })
	return out
}

func (e *Engine) Trades() []Trade {
	return e.ledger.all()
}

func (e *Engine) TradesBySymbol(symbol string) []Trade {
	return e.ledger.bySymbol(symbol)
}

// OrderBook aggregates the resting orders of symbol into price levels.
// An unknown symbol yields an empty snapshot.
func (e *Engine) OrderBook(symbol string) BookSnapshot {
	book, ok := e.loadBook(symbol)
	if !ok {
		return BookSnapshot{Symbol: symbol, Bids: []Level{}, Asks: []Level{}}
	}
	return book.snapshot()
}

// RestingOrders lists the resting orders of one side in priority order.
func (e *Engine) RestingOrders(symbol string, side Side) []Order {
	book, ok := e.loadBook(symbol)
	if !ok {
		return nil
	}
	return book.resting(side)
}

func (e *Engine) Symbols() []string {
	var out []string
	e.books.Range(func(k, _ any) bool {
		out = append(out, k.(string))
		return true
	})
	slices.Sort(out)
	return out
}

// LastSeq returns the last sequence number handed out.
func (e *Engine) LastSeq() uint64 {
	return e.seq.current()
}

// RegisterTradeCallback adds fn to every current and future book. Callbacks run
// under the symbol lock, in execution order, and must not call back into the
// engine for the same symbol.
func (e *Engine) RegisterTradeCallback(fn func([]Trade)) {
	e.cbMu.Lock()
	defer e.cbMu.Unlock()

	e.callbacks = append(e.callbacks, fn)

	e.books.Range(func(_, v any) bool {
		book := v.(*orderBook)
		book.mu.Lock()
		book.registerTradeCallback(fn)
		book.mu.Unlock()
		return true
	})
}

func (e *Engine) loadBook(symbol string) (*orderBook, bool) {
	if val, ok := e.books.Load(symbol); ok {
		return val.(*orderBook), true
	}
	return nil, false
}

func (e *Engine) getOrCreateBook(symbol string) *orderBook {
	if book, ok := e.loadBook(symbol); ok {
		return book
	}

	e.cbMu.Lock()
	defer e.cbMu.Unlock()

	book := newOrderBook(symbol, e.mintTrade)
	for _, cb := range e.callbacks {
		book.registerTradeCallback(cb)
	}

	actual, _ := e.books.LoadOrStore(symbol, book)
	return actual.(*orderBook)
}

func (e *Engine) mintTrade(buy, sell *Order, price, qty decimal.Decimal) Trade {
	return Trade{
		ID:          e.newID(),
		Symbol:      buy.Symbol,
		BuyOrderID:  buy.ID,
		SellOrderID: sell.ID,
		Price:       price,
		Qty:         qty,
		Seq:         e.seq.next(),
		ExecutedAt:  e.now(),
	}
}
