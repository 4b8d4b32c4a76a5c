package orderbook

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type Trade struct {
	ID          string          `json:"id"`
	Symbol      string          `json:"symbol"`
	BuyOrderID  string          `json:"buyOrderId"`
	SellOrderID string          `json:"sellOrderId"`
	Price       decimal.Decimal `json:"price"`
	Qty         decimal.Decimal `json:"quantity"`
	Seq         uint64          `json:"seq"`
	ExecutedAt  time.Time       `json:"executedAt"`
}

// ledger is the append-only trade history of an engine.
type ledger struct {
	mu     sync.RWMutex
	trades []Trade
}

func newLedger() *ledger {
	return &ledger{}
}

func (l *ledger) append(trades ...Trade) {
	if len(trades) == 0 {
		return
	}
	l.mu.Lock()
	l.trades = append(l.trades, trades...)
	l.mu.Unlock()
}

func (l *ledger) all() []Trade {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

func (l *ledger) bySymbol(symbol string) []Trade {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Trade
	for _, t := range l.trades {
		if t.Symbol == symbol {
			out = append(out, t)
		}
	}
	return out
}

func (l *ledger) len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.trades)
}
