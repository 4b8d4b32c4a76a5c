package model

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrder_ApplyFill(t *testing.T) {
	o := &Order{
		OrderID:        "O1",
		Quantity:       decimal.RequireFromString("10"),
		LeavesQuantity: decimal.RequireFromString("10"),
		Status:         OrderStatusNew,
	}
	assert.True(t, o.AvgPrice().IsZero())

	o.ApplyFill("T1", decimal.RequireFromString("100"), decimal.RequireFromString("4"))
	assert.Equal(t, OrderStatusPartiallyFilled, o.Status)
	assert.Equal(t, ExecTypeTrade, o.ExecType)
	assert.True(t, o.LeavesQuantity.Equal(decimal.RequireFromString("6")))

	o.ApplyFill("T2", decimal.RequireFromString("101"), decimal.RequireFromString("6"))
	assert.Equal(t, OrderStatusFilled, o.Status)
	assert.True(t, o.LeavesQuantity.IsZero())
	assert.True(t, o.CumQuantity.Equal(decimal.RequireFromString("10")))
	assert.Equal(t, "T2", o.ExecID)
	// (400 + 606) / 10
	assert.True(t, o.AvgPrice().Equal(decimal.RequireFromString("100.6")), o.AvgPrice().String())
}

func TestNewOrderEvent(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	o := Order{
		OrderID:        "O1",
		GatewayID:      "C1",
		Symbol:         "AAPL",
		Side:           OrderSideBuy,
		Price:          decimal.RequireFromString("150"),
		Quantity:       decimal.RequireFromString("2"),
		LeavesQuantity: decimal.RequireFromString("2"),
		Status:         OrderStatusNew,
		ExecType:       ExecTypeNew,
	}

	ev := NewOrderEvent(o, ts)
	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, "O1", ev.OrderID)
	assert.Equal(t, "C1", ev.GatewayID)
	assert.Equal(t, ExecTypeNew, ev.ExecType)
	assert.Equal(t, OrderStatusNew, ev.OrderStatus)
	assert.Equal(t, ts, ev.Timestamp)

	again := NewOrderEvent(o, ts)
	assert.NotEqual(t, ev.EventID, again.EventID)
}

func TestNewRejectEvent(t *testing.T) {
	add := &AddOrder{GatewayID: "C9", Symbol: "AAPL", Side: OrderSideSell, Quantity: decimal.RequireFromString("1")}
	ev := NewRejectEvent(add, "O9", "insufficient position", time.Now())
	assert.Equal(t, ExecTypeRejected, ev.ExecType)
	assert.Equal(t, OrderStatusRejected, ev.OrderStatus)
	assert.Equal(t, "insufficient position", ev.Text)
	assert.Equal(t, "C9", ev.GatewayID)
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("price", "Price can have maximum %d decimal places", 2)
	require.Error(t, err)
	assert.Equal(t, "Price can have maximum 2 decimal places", err.Error())
	assert.True(t, errors.Is(err, ErrValidation))

	var ve *ValidationError
	assert.True(t, errors.As(error(err), &ve))
	assert.Equal(t, "price", ve.Field)
}
