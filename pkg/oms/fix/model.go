package fixgateway

import (
	"time"

	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/quickfix"
	"github.com/shopspring/decimal"
)

type NewOrderSingle struct {
	SessionID quickfix.SessionID

	Account      string
	ClOrdID      string
	Symbol       string
	OrdType      enum.OrdType
	Price        decimal.Decimal
	Side         enum.Side
	TransactTime time.Time
	OrderQty     decimal.Decimal
}

type OrderCancelRequest struct {
	SessionID quickfix.SessionID

	OrigClOrdID  string
	ClOrdID      string
	OrderID      string
	Symbol       string
	Side         enum.Side
	TransactTime time.Time
}
