package orderbook

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	BUY  Side = "BUY"
	SELL Side = "SELL"
)

func (s Side) Opposite() Side {
	if s == BUY {
		return SELL
	}
	return BUY
}

func (s Side) Valid() bool {
	return s == BUY || s == SELL
}

type OrderStatus string

const (
	PENDING          OrderStatus = "PENDING"
	PARTIALLY_FILLED OrderStatus = "PARTIALLY_FILLED"
	FILLED           OrderStatus = "FILLED"
	CANCELLED        OrderStatus = "CANCELLED"
)

// Fixed-point precision of prices and quantities.
const (
	PriceScale int32 = 2
	QtyScale   int32 = 8
)

// NewOrder is the input of Engine.Submit. An empty ID is replaced by a generated one.
type NewOrder struct {
	ID     string
	Symbol string
	Side   Side
	Price  decimal.Decimal
	Qty    decimal.Decimal
	Owner  string
}

type Order struct {
	ID        string          `json:"id"`
	Symbol    string          `json:"symbol"`
	Side      Side            `json:"side"`
	Price     decimal.Decimal `json:"price"`
	Qty       decimal.Decimal `json:"quantity"`
	FilledQty decimal.Decimal `json:"filledQuantity"`
	Status    OrderStatus     `json:"status"`
	Seq       uint64          `json:"seq"`
	Owner     string          `json:"owner,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

func (o *Order) Remaining() decimal.Decimal {
	return o.Qty.Sub(o.FilledQty)
}

// IsOpen reports whether the order may still rest on a book.
func (o *Order) IsOpen() bool {
	return o.Status == PENDING || o.Status == PARTIALLY_FILLED
}

func (o *Order) IsTerminal() bool {
	return o.Status == FILLED || o.Status == CANCELLED
}

// fill adds qty to the filled amount and recomputes the status.
func (o *Order) fill(qty decimal.Decimal) {
	o.FilledQty = o.FilledQty.Add(qty)
	o.Status = statusFor(o.FilledQty, o.Qty)
}

func (o *Order) cancel() {
	o.Status = CANCELLED
}

func statusFor(filled, qty decimal.Decimal) OrderStatus {
	switch {
	case filled.IsZero():
		return PENDING
	case filled.GreaterThanOrEqual(qty):
		return FILLED
	default:
		return PARTIALLY_FILLED
	}
}

// priceTicks converts a price with at most PriceScale decimals into integer ticks.
func priceTicks(price decimal.Decimal) int64 {
	return price.Shift(PriceScale).IntPart()
}

func ticksPrice(ticks int64) decimal.Decimal {
	return decimal.New(ticks, -PriceScale)
}
