package fixgateway

import (
	"errors"
	"fmt"

	"github.com/joripage/matching-engine/pkg/oms"
	"github.com/joripage/matching-engine/pkg/oms/model"
	"github.com/joripage/matching-engine/pkg/orderbook"
	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/field"
	"github.com/quickfixgo/fix44/executionreport"
	"github.com/quickfixgo/fix44/newordersingle"
	"github.com/quickfixgo/fix44/ordercancelreject"
	"github.com/quickfixgo/fix44/ordercancelrequest"
	"github.com/quickfixgo/quickfix"
)

const (
	priceScale int32 = 2
	qtyScale   int32 = 8
	avgPxScale int32 = 8

	noOrderID = "NONE"
)

var (
	OrderStatusMapping = map[model.OrderStatus]enum.OrdStatus{
		model.OrderStatusNew:             enum.OrdStatus_NEW,
		model.OrderStatusPartiallyFilled: enum.OrdStatus_PARTIALLY_FILLED,
		model.OrderStatusFilled:          enum.OrdStatus_FILLED,
		model.OrderStatusCanceled:        enum.OrdStatus_CANCELED,
		model.OrderStatusRejected:        enum.OrdStatus_REJECTED,
	}

	ExecTypeMapping = map[model.OrderExecType]enum.ExecType{
		model.ExecTypeNew:      enum.ExecType_NEW,
		model.ExecTypeTrade:    enum.ExecType_TRADE,
		model.ExecTypeCanceled: enum.ExecType_CANCELED,
		model.ExecTypeRejected: enum.ExecType_REJECTED,
	}

	SideMapping = map[model.OrderSide]enum.Side{
		model.OrderSideBuy:  enum.Side_BUY,
		model.OrderSideSell: enum.Side_SELL,
	}

	bookStatusMapping = map[orderbook.OrderStatus]enum.OrdStatus{
		orderbook.PENDING:          enum.OrdStatus_NEW,
		orderbook.PARTIALLY_FILLED: enum.OrdStatus_PARTIALLY_FILLED,
		orderbook.FILLED:           enum.OrdStatus_FILLED,
		orderbook.CANCELLED:        enum.OrdStatus_CANCELED,
	}
)

func sideFromFix(side enum.Side) (model.OrderSide, bool) {
	switch side {
	case enum.Side_BUY:
		return model.OrderSideBuy, true
	case enum.Side_SELL:
		return model.OrderSideSell, true
	}
	return "", false
}

func newOrderSingleFromMessage(msg newordersingle.NewOrderSingle, sessionID quickfix.SessionID) (*NewOrderSingle, quickfix.MessageRejectError) {
	clOrdID, err := msg.GetClOrdID()
	if err != nil {
		return nil, err
	}
	symbol, err := msg.GetSymbol()
	if err != nil {
		return nil, err
	}
	side, err := msg.GetSide()
	if err != nil {
		return nil, err
	}
	ordType, err := msg.GetOrdType()
	if err != nil {
		return nil, err
	}
	orderQty, err := msg.GetOrderQty()
	if err != nil {
		return nil, err
	}
	// Price is conditionally required; a missing price is reported by the OMS.
	price, _ := msg.GetPrice()
	account, _ := msg.GetAccount()
	transactTime, _ := msg.GetTransactTime()

	return &NewOrderSingle{
		SessionID:    sessionID,
		Account:      account,
		ClOrdID:      clOrdID,
		Symbol:       symbol,
		OrdType:      ordType,
		Price:        price,
		Side:         side,
		TransactTime: transactTime,
		OrderQty:     orderQty,
	}, nil
}

func orderCancelRequestFromMessage(msg ordercancelrequest.OrderCancelRequest, sessionID quickfix.SessionID) (*OrderCancelRequest, quickfix.MessageRejectError) {
	origClOrdID, err := msg.GetOrigClOrdID()
	if err != nil {
		return nil, err
	}
	clOrdID, err := msg.GetClOrdID()
	if err != nil {
		return nil, err
	}
	orderID, _ := msg.GetOrderID()
	symbol, _ := msg.GetSymbol()
	side, _ := msg.GetSide()
	transactTime, _ := msg.GetTransactTime()

	return &OrderCancelRequest{
		SessionID:    sessionID,
		OrigClOrdID:  origClOrdID,
		ClOrdID:      clOrdID,
		OrderID:      orderID,
		Symbol:       symbol,
		Side:         side,
		TransactTime: transactTime,
	}, nil
}

// orderEventToExecutionReport renders one OMS event as an ExecutionReport.
func orderEventToExecutionReport(ev *model.OrderEvent) executionreport.ExecutionReport {
	orderID := ev.OrderID
	if orderID == "" {
		orderID = noOrderID
	}
	execID := ev.ExecID
	if execID == "" {
		execID = ev.EventID
	}

	msg := executionreport.New(
		field.NewOrderID(orderID),
		field.NewExecID(execID),
		field.NewExecType(ExecTypeMapping[ev.ExecType]),
		field.NewOrdStatus(OrderStatusMapping[ev.OrderStatus]),
		field.NewSide(SideMapping[ev.Side]),
		field.NewLeavesQty(ev.LeavesQty, qtyScale),
		field.NewCumQty(ev.CumQty, qtyScale),
		field.NewAvgPx(ev.AvgPx, avgPxScale),
	)

	msg.SetClOrdID(ev.GatewayID)
	if ev.OrigGatewayID != "" {
		msg.SetOrigClOrdID(ev.OrigGatewayID)
	}
	if ev.Account != "" {
		msg.SetAccount(ev.Account)
	}
	msg.SetSymbol(ev.Symbol)
	msg.SetOrdType(enum.OrdType_LIMIT)
	msg.SetOrderQty(ev.Qty, qtyScale)
	msg.SetPrice(ev.Price, priceScale)
	msg.SetTransactTime(ev.Timestamp)

	if ev.ExecType == model.ExecTypeTrade {
		msg.SetLastQty(ev.LastQty, qtyScale)
		msg.SetLastPx(ev.LastPx, priceScale)
	}
	if ev.Text != "" {
		msg.SetText(ev.Text)
	}

	return msg
}

// orderCancelRejectMessage answers a cancel request the OMS refused.
func orderCancelRejectMessage(req *OrderCancelRequest, order orderbook.Order, reason error) ordercancelreject.OrderCancelReject {
	orderID := order.ID
	if orderID == "" {
		orderID = noOrderID
	}
	status, ok := bookStatusMapping[order.Status]
	if !ok {
		status = enum.OrdStatus_REJECTED
	}

	msg := ordercancelreject.New(
		field.NewOrderID(orderID),
		field.NewClOrdID(req.ClOrdID),
		field.NewOrigClOrdID(req.OrigClOrdID),
		field.NewOrdStatus(status),
		field.NewCxlRejResponseTo(enum.CxlRejResponseTo_ORDER_CANCEL_REQUEST),
	)

	switch {
	case errors.Is(reason, oms.ErrOrderNotFound):
		msg.SetCxlRejReason(enum.CxlRejReason_UNKNOWN_ORDER)
	case errors.Is(reason, oms.ErrDuplicateOrder):
		msg.SetCxlRejReason(enum.CxlRejReason_DUPLICATE_CLORDID)
	default:
		msg.SetCxlRejReason(enum.CxlRejReason_TOO_LATE_TO_CANCEL)
	}
	msg.SetText(reason.Error())

	return msg
}

func unsupportedOrdType(ordType enum.OrdType) error {
	return fmt.Errorf("unsupported order type %q, only limit orders are accepted", string(ordType))
}
