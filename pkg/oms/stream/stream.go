// Package stream fans OMS reports out to message brokers. Every publisher is
// an oms.OrderGateway and never blocks the caller on network I/O.
package stream

import (
	"encoding/json"
	"fmt"

	"github.com/joripage/matching-engine/pkg/oms/model"
)

const (
	// HeaderKind tells consumers which model a payload decodes into.
	HeaderKind = "type"

	DefaultStream = "ORDERS"
)

func EventsSubject(stream string) string {
	return stream + ".events"
}

func TradesSubject(stream string) string {
	return stream + ".trades"
}

// Decoded is one stream payload after Decode; exactly one field is set.
type Decoded struct {
	Event *model.OrderEvent
	Trade *model.TradeEvent
}

// Decode parses a payload published under kind.
func Decode(kind string, data []byte) (Decoded, error) {
	switch kind {
	case model.KindOrderEvent:
		var ev model.OrderEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return Decoded{}, fmt.Errorf("decode order event: %w", err)
		}
		return Decoded{Event: &ev}, nil
	case model.KindTrade:
		var tr model.TradeEvent
		if err := json.Unmarshal(data, &tr); err != nil {
			return Decoded{}, fmt.Errorf("decode trade: %w", err)
		}
		return Decoded{Trade: &tr}, nil
	}
	return Decoded{}, fmt.Errorf("unknown payload kind %q", kind)
}
