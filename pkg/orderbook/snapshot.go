package orderbook

import "github.com/shopspring/decimal"

// Level aggregates the resting orders at one price.
type Level struct {
	Price  decimal.Decimal `json:"price"`
	Qty    decimal.Decimal `json:"quantity"`
	Orders int             `json:"orders"`
}

type BookSnapshot struct {
	Symbol string  `json:"symbol"`
	Bids   []Level `json:"bids"` // price descending
	Asks   []Level `json:"asks"` // price ascending
}

func (ob *orderBook) snapshot() BookSnapshot {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	return BookSnapshot{
		Symbol: ob.symbol,
		Bids:   ob.bids.depth(),
		Asks:   ob.asks.depth(),
	}
}

// BestBid returns the top bid level, if any.
func (s BookSnapshot) BestBid() (Level, bool) {
	if len(s.Bids) == 0 {
		return Level{}, false
	}
	return s.Bids[0], true
}

// BestAsk returns the top ask level, if any.
func (s BookSnapshot) BestAsk() (Level, bool) {
	if len(s.Asks) == 0 {
		return Level{}, false
	}
	return s.Asks[0], true
}

// Spread is best ask minus best bid; ok is false when either side is empty.
func (s BookSnapshot) Spread() (decimal.Decimal, bool) {
	bid, ok := s.BestBid()
	if !ok {
		return decimal.Zero, false
	}
	ask, ok := s.BestAsk()
	if !ok {
		return decimal.Zero, false
	}
	return ask.Price.Sub(bid.Price), true
}
