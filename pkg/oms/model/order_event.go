package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kinds tag stream payloads so consumers know which table they belong to.
const (
	KindOrderEvent = "order_event"
	KindTrade      = "trade"
)

// OrderEvent is one execution report in the life of an order. Events are
// append-only; the worker persists them to order_events.
type OrderEvent struct {
	EventID       string          `json:"eventId" gorm:"primaryKey;column:event_id"`
	OrderID       string          `json:"orderId" gorm:"column:order_id;index"`
	GatewayID     string          `json:"gatewayId" gorm:"column:gateway_id"`
	OrigGatewayID string          `json:"origGatewayId,omitempty" gorm:"column:orig_gateway_id"`
	Account       string          `json:"account,omitempty" gorm:"column:account"`
	Symbol        string          `json:"symbol" gorm:"column:symbol"`
	Side          OrderSide       `json:"side" gorm:"column:side"`
	ExecType      OrderExecType   `json:"execType" gorm:"column:exec_type"`
	OrderStatus   OrderStatus     `json:"orderStatus" gorm:"column:order_status"`
	Price         decimal.Decimal `json:"price" gorm:"column:price;type:numeric"`
	Qty           decimal.Decimal `json:"qty" gorm:"column:qty;type:numeric"`
	CumQty        decimal.Decimal `json:"cumQty" gorm:"column:cum_qty;type:numeric"`
	LeavesQty     decimal.Decimal `json:"leavesQty" gorm:"column:leaves_qty;type:numeric"`
	LastQty       decimal.Decimal `json:"lastQty" gorm:"column:last_qty;type:numeric"`
	LastPx        decimal.Decimal `json:"lastPx" gorm:"column:last_px;type:numeric"`
	AvgPx         decimal.Decimal `json:"avgPx" gorm:"column:avg_px;type:numeric"`
	ExecID        string          `json:"execId,omitempty" gorm:"column:exec_id"`
	Text          string          `json:"text,omitempty" gorm:"column:text"`
	Timestamp     time.Time       `json:"timestamp" gorm:"column:ts"`
}

func (OrderEvent) TableName() string {
	return "order_events"
}

// NewOrderEvent snapshots order into an event.
func NewOrderEvent(order Order, ts time.Time) *OrderEvent {
	return &OrderEvent{
		EventID:       uuid.NewString(),
		OrderID:       order.OrderID,
		GatewayID:     order.GatewayID,
		OrigGatewayID: order.OrigGatewayID,
		Account:       order.Account,
		Symbol:        order.Symbol,
		Side:          order.Side,
		ExecType:      order.ExecType,
		OrderStatus:   order.Status,
		Price:         order.Price,
		Qty:           order.Quantity,
		CumQty:        order.CumQuantity,
		LeavesQty:     order.LeavesQuantity,
		LastQty:       order.LastQuantity,
		LastPx:        order.LastPrice,
		AvgPx:         order.AvgPrice(),
		ExecID:        order.ExecID,
		Timestamp:     ts,
	}
}

// NewRejectEvent reports an order that never reached the book.
func NewRejectEvent(add *AddOrder, orderID, reason string, ts time.Time) *OrderEvent {
	return &OrderEvent{
		EventID:     uuid.NewString(),
		OrderID:     orderID,
		GatewayID:   add.GatewayID,
		Account:     add.Account,
		Symbol:      add.Symbol,
		Side:        add.Side,
		ExecType:    ExecTypeRejected,
		OrderStatus: OrderStatusRejected,
		Price:       add.Price,
		Qty:         add.Quantity,
		LeavesQty:   decimal.Zero,
		Text:        reason,
		Timestamp:   ts,
	}
}
