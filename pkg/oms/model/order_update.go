package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AddOrder is a new limit order as received from a gateway.
type AddOrder struct {
	// OrderID is optional; the engine assigns one when empty.
	OrderID      string          `json:"orderId,omitempty"`
	GatewayID    string          `json:"gatewayId,omitempty"`
	Account      string          `json:"account,omitempty"`
	Symbol       string          `json:"symbol" validate:"required"`
	Side         OrderSide       `json:"side" validate:"required,oneof=BUY SELL"`
	Price        decimal.Decimal `json:"price"`
	Quantity     decimal.Decimal `json:"quantity"`
	TransactTime time.Time       `json:"transactTime"`
}

// CancelOrder addresses the order either directly by OrderID or through the
// gateway id it was placed with.
type CancelOrder struct {
	GatewayID     string
	OrigGatewayID string
	OrderID       string
}
