package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusNew             OrderStatus = "New"
	OrderStatusPartiallyFilled OrderStatus = "PartiallyFilled"
	OrderStatusFilled          OrderStatus = "Filled"
	OrderStatusCanceled        OrderStatus = "Canceled"
	OrderStatusRejected        OrderStatus = "Rejected"
)

type OrderExecType string

const (
	ExecTypeNew      OrderExecType = "New"
	ExecTypeTrade    OrderExecType = "Trade"
	ExecTypeCanceled OrderExecType = "Canceled"
	ExecTypeRejected OrderExecType = "Rejected"
)

type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// Order is the OMS view of an order: what a gateway needs to build an
// execution report.
type Order struct {
	OrderID       string
	GatewayID     string
	OrigGatewayID string

	Account      string
	Symbol       string
	Side         OrderSide
	Price        decimal.Decimal
	Quantity     decimal.Decimal
	TransactTime time.Time

	Status         OrderStatus
	ExecType       OrderExecType
	ExecID         string
	CumQuantity    decimal.Decimal
	LeavesQuantity decimal.Decimal
	LastQuantity   decimal.Decimal
	LastPrice      decimal.Decimal
	notional       decimal.Decimal
}

// ApplyFill records an execution of qty at price.
func (o *Order) ApplyFill(execID string, price, qty decimal.Decimal) {
	o.ExecID = execID
	o.ExecType = ExecTypeTrade
	o.LastPrice = price
	o.LastQuantity = qty
	o.CumQuantity = o.CumQuantity.Add(qty)
	o.LeavesQuantity = o.Quantity.Sub(o.CumQuantity)
	o.notional = o.notional.Add(price.Mul(qty))

	if o.LeavesQuantity.IsPositive() {
		o.Status = OrderStatusPartiallyFilled
	} else {
		o.Status = OrderStatusFilled
	}
}

// AvgPrice is the quantity weighted price of all fills so far.
func (o *Order) AvgPrice() decimal.Decimal {
	if o.CumQuantity.IsZero() {
		return decimal.Zero
	}
	return o.notional.DivRound(o.CumQuantity, 8)
}

