package orderbook

import "sync/atomic"

// sequencer hands out strictly increasing arrival numbers. Within a symbol
// it is only advanced under the book lock, so book order equals sequence order.
type sequencer struct {
	last atomic.Uint64
}

func (s *sequencer) next() uint64 {
	return s.last.Add(1)
}

func (s *sequencer) current() uint64 {
	return s.last.Load()
}
