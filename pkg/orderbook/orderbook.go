package orderbook

import (
	"sync"

	"github.com/shopspring/decimal"
)

// tradeMinter builds the ledger record of one execution between buy and sell.
type tradeMinter func(buy, sell *Order, price, qty decimal.Decimal) Trade

type orderBook struct {
	symbol string

	bids *bookSide
	asks *bookSide

	mint      tradeMinter
	callbacks []func([]Trade)

	mu sync.RWMutex
}

func newOrderBook(symbol string, mint tradeMinter) *orderBook {
	return &orderBook{
		symbol: symbol,
		bids:   newBookSide(BUY),
		asks:   newBookSide(SELL),
		mint:   mint,
	}
}

func (ob *orderBook) side(s Side) *bookSide {
	if s == BUY {
		return ob.bids
	}
	return ob.asks
}

// registerTradeCallback must be called with ob.mu held.
func (ob *orderBook) registerTradeCallback(fn func([]Trade)) {
	ob.callbacks = append(ob.callbacks, fn)
}

// addOrder matches order against the opposite side and rests any remainder.
// Caller holds ob.mu.
func (ob *orderBook) addOrder(order *Order) []Trade {
	trades := ob.match(order)

	if order.Remaining().IsPositive() {
		ob.side(order.Side).insert(order)
	}

	if len(trades) > 0 {
		for _, cb := range ob.callbacks {
			cb(trades)
		}
	}
	return trades
}

// cancelOrder retires an open order. Caller holds ob.mu.
func (ob *orderBook) cancelOrder(order *Order) bool {
	if !order.IsOpen() {
		return false
	}
	ob.side(order.Side).remove(order)
	order.cancel()
	return true
}

// resting returns copies of the resting orders of one side in priority order.
func (ob *orderBook) resting(s Side) []Order {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	var out []Order
	ob.side(s).walk(func(o *Order) bool {
		out = append(out, *o)
		return true
	})
	return out
}
