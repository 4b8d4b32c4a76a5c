package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/joripage/matching-engine/pkg/oms"
	"github.com/joripage/matching-engine/pkg/oms/model"
	"github.com/joripage/matching-engine/pkg/oms/position"
	"github.com/joripage/matching-engine/pkg/orderbook"
	"github.com/shopspring/decimal"
)

// Service is the part of the OMS the API serves.
type Service interface {
	AddOrder(ctx context.Context, addOrder *model.AddOrder) (orderbook.SubmitResult, error)
	CancelOrder(ctx context.Context, cancelOrder *model.CancelOrder) (orderbook.Order, error)
	GetOrder(orderID string) (orderbook.Order, bool)
	ListOrders() []orderbook.Order
	GetOrderBook(symbol string) orderbook.BookSnapshot
	ListTrades(symbol string) []orderbook.Trade
	Positions(owner string) []position.Position
	SetPosition(owner, symbol string, qty decimal.Decimal) error
	Events(orderID string) []model.OrderEvent
	GatewayChain(orderID string) []string
	Stats() oms.Stats
}

var _ Service = (*oms.OMS)(nil)

// PlaceOrderRequest accepts price and quantity as JSON numbers or strings.
type PlaceOrderRequest struct {
	Symbol        string           `json:"symbol" validate:"required"`
	Side          string           `json:"side" validate:"required"`
	Price         *decimal.Decimal `json:"price" validate:"required"`
	Quantity      *decimal.Decimal `json:"quantity" validate:"required"`
	UserID        string           `json:"userId"`
	ClientOrderID string           `json:"clientOrderId"`
}

type SetPositionRequest struct {
	Quantity *decimal.Decimal `json:"quantity" validate:"required"`
}

type PlaceOrderResponse struct {
	Order  orderbook.Order   `json:"order"`
	Trades []orderbook.Trade `json:"trades"`
}

type OrderBookResponse struct {
	orderbook.BookSnapshot
	Timestamp int64 `json:"timestamp"`
}

type OrderHandler struct {
	Service   Service
	Validator *validator.Validate
	now       func() time.Time
}

func NewOrderHandler(s Service) *OrderHandler {
	return &OrderHandler{
		Service:   s,
		Validator: validator.New(),
		now:       time.Now,
	}
}

var (
	errMissingFields = newAPIError(http.StatusBadRequest, CodeMissingFields, "Missing required fields: symbol, side, price, quantity")
	errInvalidSide   = newAPIError(http.StatusBadRequest, CodeInvalidSide, "Invalid order side. Must be BUY or SELL")
	errInvalidBody   = newAPIError(http.StatusBadRequest, CodeInvalidRequest, "Invalid request body")
	errOrderNotFound = newAPIError(http.StatusNotFound, CodeOrderNotFound, "Order not found")
	errCancelFailed  = newAPIError(http.StatusBadRequest, CodeCancelFailed, "Order cannot be cancelled or not found")
)

// POST /orders
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errInvalidBody)
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		respondError(c, errMissingFields)
		return
	}
	side := model.OrderSide(req.Side)
	if side != model.OrderSideBuy && side != model.OrderSideSell {
		respondError(c, errInvalidSide)
		return
	}

	result, err := h.Service.AddOrder(c.Request.Context(), &model.AddOrder{
		GatewayID: req.ClientOrderID,
		Account:   req.UserID,
		Symbol:    req.Symbol,
		Side:      side,
		Price:     *req.Price,
		Quantity:  *req.Quantity,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	trades := result.Trades
	if trades == nil {
		trades = []orderbook.Trade{}
	}
	respondOK(c, http.StatusCreated, PlaceOrderResponse{Order: result.Order, Trades: trades})
}

// GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, ok := h.Service.GetOrder(c.Param("id"))
	if !ok {
		respondError(c, errOrderNotFound)
		return
	}
	respondOK(c, http.StatusOK, order)
}

// GET /orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders := h.Service.ListOrders()
	if orders == nil {
		orders = []orderbook.Order{}
	}
	respondOK(c, http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

// DELETE /orders/:id
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	id := c.Param("id")
	_, err := h.Service.CancelOrder(c.Request.Context(), &model.CancelOrder{OrderID: id})
	if err != nil {
		if errors.Is(err, oms.ErrOrderNotFound) || errors.Is(err, oms.ErrCancelRejected) {
			respondError(c, errCancelFailed)
			return
		}
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"message": "Order cancelled successfully", "orderId": id})
}

// GET /orders/:id/events
func (h *OrderHandler) OrderEvents(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.Service.GetOrder(id); !ok {
		respondError(c, errOrderNotFound)
		return
	}
	events := h.Service.Events(id)
	if events == nil {
		events = []model.OrderEvent{}
	}
	chain := h.Service.GatewayChain(id)
	if chain == nil {
		chain = []string{}
	}
	respondOK(c, http.StatusOK, gin.H{"events": events, "count": len(events), "clientOrderIds": chain})
}

// GET /orderbook/:symbol
func (h *OrderHandler) GetOrderBook(c *gin.Context) {
	respondOK(c, http.StatusOK, OrderBookResponse{
		BookSnapshot: h.Service.GetOrderBook(c.Param("symbol")),
		Timestamp:    h.now().UnixMilli(),
	})
}

// GET /trades?symbol=XYZ
func (h *OrderHandler) ListTrades(c *gin.Context) {
	trades := h.Service.ListTrades(c.Query("symbol"))
	if trades == nil {
		trades = []orderbook.Trade{}
	}
	respondOK(c, http.StatusOK, gin.H{"trades": trades, "count": len(trades)})
}

// GET /positions/:owner
func (h *OrderHandler) GetPositions(c *gin.Context) {
	owner := c.Param("owner")
	respondOK(c, http.StatusOK, gin.H{"owner": owner, "positions": h.Service.Positions(owner)})
}

// PUT /positions/:owner/:symbol
func (h *OrderHandler) SetPosition(c *gin.Context) {
	var req SetPositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errInvalidBody)
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		respondError(c, newAPIError(http.StatusBadRequest, CodeMissingFields, "Missing required field: quantity"))
		return
	}

	owner, symbol := c.Param("owner"), c.Param("symbol")
	if err := h.Service.SetPosition(owner, symbol, *req.Quantity); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"owner": owner, "positions": h.Service.Positions(owner)})
}

// GET /stats
func (h *OrderHandler) Stats(c *gin.Context) {
	respondOK(c, http.StatusOK, h.Service.Stats())
}

// GET /health
func (h *OrderHandler) Health(c *gin.Context) {
	respondOK(c, http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": h.now().UTC().Format(time.RFC3339Nano),
	})
}
