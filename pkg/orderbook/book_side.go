package orderbook

import (
	"cmp"
	"container/heap"
	"slices"

	"github.com/gammazero/deque"
	"github.com/shopspring/decimal"
)

// bookSide holds the resting orders of one side of a symbol. Every price in
// levels is present in prices and no level is ever left empty.
type bookSide struct {
	side   Side
	levels map[int64]*deque.Deque[*Order]
	prices *PriceHeap
	count  int
}

func newBookSide(side Side) *bookSide {
	less := func(i, j int64) bool { return i < j } // min-heap for asks
	if side == BUY {
		less = func(i, j int64) bool { return i > j } // max-heap for bids
	}
	return &bookSide{
		side:   side,
		levels: make(map[int64]*deque.Deque[*Order]),
		prices: NewPriceHeap(less),
	}
}

func (s *bookSide) len() int {
	return s.count
}

// insert appends order at the back of its price level. Orders are inserted in
// sequence order, so FIFO within a level is sequence ascending.
func (s *bookSide) insert(order *Order) {
	ticks := priceTicks(order.Price)
	q := s.levels[ticks]
	if q == nil {
		q = &deque.Deque[*Order]{}
		s.levels[ticks] = q
		heap.Push(s.prices, ticks)
	}
	q.PushBack(order)
	s.count++
}

// best returns the highest priority resting order or nil.
func (s *bookSide) best() *Order {
	ticks, ok := s.prices.Peek()
	if !ok {
		return nil
	}
	return s.levels[ticks].Front()
}

// popBest removes the order returned by best.
func (s *bookSide) popBest() {
	ticks, ok := s.prices.Peek()
	if !ok {
		return
	}
	q := s.levels[ticks]
	q.PopFront()
	s.count--
	if q.Len() == 0 {
		heap.Pop(s.prices)
		delete(s.levels, ticks)
	}
}

// remove takes order out of its level. It reports false when the order is not resting here.
func (s *bookSide) remove(order *Order) bool {
	ticks := priceTicks(order.Price)
	q := s.levels[ticks]
	if q == nil {
		return false
	}
	i := q.Index(func(o *Order) bool { return o.ID == order.ID })
	if i < 0 {
		return false
	}
	q.Remove(i)
	s.count--
	if q.Len() == 0 {
		s.prices.Remove(ticks)
		delete(s.levels, ticks)
	}
	return true
}

// sortedTicks returns level prices in priority order.
func (s *bookSide) sortedTicks() []int64 {
	ticks := s.prices.Prices()
	if s.side == BUY {
		slices.SortFunc(ticks, func(a, b int64) int { return cmp.Compare(b, a) })
	} else {
		slices.Sort(ticks)
	}
	return ticks
}

// walk visits resting orders in priority order until fn returns false.
func (s *bookSide) walk(fn func(*Order) bool) {
	for _, ticks := range s.sortedTicks() {
		q := s.levels[ticks]
		for i := 0; i < q.Len(); i++ {
			if !fn(q.At(i)) {
				return
			}
		}
	}
}

// depth folds resting orders into aggregate levels in priority order.
func (s *bookSide) depth() []Level {
	ticks := s.sortedTicks()
	levels := make([]Level, 0, len(ticks))
	for _, t := range ticks {
		q := s.levels[t]
		qty := decimal.Zero
		for i := 0; i < q.Len(); i++ {
			qty = qty.Add(q.At(i).Remaining())
		}
		levels = append(levels, Level{
			Price:  ticksPrice(t),
			Qty:    qty,
			Orders: q.Len(),
		})
	}
	return levels
}
