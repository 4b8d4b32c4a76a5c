package orderbook

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

func TestProperty_BookInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		e := NewEngine(nil)
		var ids []string

		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			if len(ids) > 0 && rapid.IntRange(0, 4).Draw(t, "op") == 0 {
				id := rapid.SampledFrom(ids).Draw(t, "cancelID")
				before, _ := e.Order(id)
				ok := e.Cancel(id)
				if ok != before.IsOpen() {
					t.Fatalf("cancel(%s) = %v for status %s", id, ok, before.Status)
				}
			} else {
				side := rapid.SampledFrom([]Side{BUY, SELL}).Draw(t, "side")
				ticks := rapid.Int64Range(9500, 10500).Draw(t, "ticks")
				lots := rapid.Int64Range(1, 1000).Draw(t, "lots")
				id := fmt.Sprintf("O%d", i)
				_, err := e.Submit(NewOrder{
					ID:     id,
					Symbol: "TEST",
					Side:   side,
					Price:  decimal.New(ticks, -PriceScale),
					Qty:    decimal.New(lots, -2),
				})
				if err != nil {
					t.Fatalf("submit: %v", err)
				}
				ids = append(ids, id)
			}
			checkInvariants(t, e, "TEST")
		}
	})
}

func checkInvariants(t *rapid.T, e *Engine, symbol string) {
	orders := map[string]Order{}
	for _, o := range e.Orders() {
		orders[o.ID] = o

		if o.FilledQty.IsNegative() || o.FilledQty.GreaterThan(o.Qty) {
			t.Fatalf("filled out of range: %+v", o)
		}
		if o.Status == CANCELLED {
			if o.FilledQty.GreaterThanOrEqual(o.Qty) {
				t.Fatalf("fully filled order marked cancelled: %+v", o)
			}
		} else if want := statusFor(o.FilledQty, o.Qty); o.Status != want {
			t.Fatalf("status %s, want %s: %+v", o.Status, want, o)
		}
	}

	resting := map[string]bool{}
	for _, side := range []Side{BUY, SELL} {
		list := e.RestingOrders(symbol, side)
		for i, o := range list {
			if resting[o.ID] {
				t.Fatalf("order %s rests twice", o.ID)
			}
			resting[o.ID] = true
			if o.Side != side || !o.IsOpen() {
				t.Fatalf("bad resting order on %s: %+v", side, o)
			}
			if i == 0 {
				continue
			}
			prev := list[i-1]
			c := prev.Price.Cmp(o.Price)
			if side == BUY {
				c = -c
			}
			if c > 0 || (c == 0 && prev.Seq >= o.Seq) {
				t.Fatalf("%s side out of order: %+v before %+v", side, prev, o)
			}
		}
	}
	for id, o := range orders {
		if o.IsOpen() != resting[id] {
			t.Fatalf("membership mismatch for %+v (resting=%v)", o, resting[id])
		}
	}

	book := e.OrderBook(symbol)
	if bid, ok := book.BestBid(); ok {
		if ask, ok := book.BestAsk(); ok && bid.Price.GreaterThanOrEqual(ask.Price) {
			t.Fatalf("crossed book: bid %s ask %s", bid.Price, ask.Price)
		}
	}

	filled := map[string]decimal.Decimal{}
	for _, tr := range e.Trades() {
		buy, sell := orders[tr.BuyOrderID], orders[tr.SellOrderID]
		if buy.Side != BUY || sell.Side != SELL {
			t.Fatalf("trade sides wrong: %+v", tr)
		}
		if buy.Price.LessThan(sell.Price) {
			t.Fatalf("trade between non crossing orders: %+v", tr)
		}
		want := sell.Price
		if buy.Seq < sell.Seq {
			want = buy.Price
		}
		if !tr.Price.Equal(want) {
			t.Fatalf("trade price %s, want %s", tr.Price, want)
		}
		filled[tr.BuyOrderID] = filled[tr.BuyOrderID].Add(tr.Qty)
		filled[tr.SellOrderID] = filled[tr.SellOrderID].Add(tr.Qty)
	}
	for id, o := range orders {
		if !filled[id].Equal(o.FilledQty) {
			t.Fatalf("order %s filled %s but trades sum to %s", id, o.FilledQty, filled[id])
		}
	}
}
