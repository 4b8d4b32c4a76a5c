package fixgateway

import (
	"context"
	"sync"
	"time"

	"github.com/joripage/matching-engine/pkg/logging"
	"github.com/joripage/matching-engine/pkg/oms"
	"github.com/joripage/matching-engine/pkg/oms/model"
	"github.com/joripage/matching-engine/pkg/orderbook"
	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/quickfix"
	"go.uber.org/zap"
)

type FixGatewayConfig struct {
	Enabled          bool   `yaml:"enabled"`
	SettingsFile     string `yaml:"settings_file"`
	EnableShardQueue bool   `yaml:"enable_shard_queue"`
	NumShards        int    `yaml:"num_shards"`
	QueueSize        int    `yaml:"queue_size"`
}

// FixGateway accepts FIX 4.4 order entry and answers with execution reports.
type FixGateway struct {
	cfg         *FixGatewayConfig
	app         *Application
	omsInstance oms.IOMS

	sessionMapping sync.Map // ClOrdID -> quickfix.SessionID

	send   func(m quickfix.Messagable, sessionID quickfix.SessionID) error
	logger *logging.Logger
}

func NewFixGateway(cfg *FixGatewayConfig, logger *logging.Logger) *FixGateway {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &FixGateway{
		cfg:    cfg,
		send:   quickfix.SendToTarget,
		logger: logger.With(zap.String("component", "fix_gateway")),
	}
}

func (s *FixGateway) AddOmsInstance(o oms.IOMS) {
	s.omsInstance = o
}

func (s *FixGateway) Start(ctx context.Context) error {
	app, err := startApp(s.cfg, s)
	if err != nil {
		s.logger.Error(ctx, "start fix acceptor failed", zap.Error(err))
		return err
	}
	s.app = app

	go func() {
		<-ctx.Done()
		stopApp(app)
	}()
	return nil
}

func (s *FixGateway) AddOrder(ctx context.Context, newOrderSingle *NewOrderSingle) {
	side, _ := sideFromFix(newOrderSingle.Side)
	addOrder := &model.AddOrder{
		GatewayID:    newOrderSingle.ClOrdID,
		Account:      newOrderSingle.Account,
		Symbol:       newOrderSingle.Symbol,
		Side:         side,
		Price:        newOrderSingle.Price,
		Quantity:     newOrderSingle.OrderQty,
		TransactTime: newOrderSingle.TransactTime,
	}

	if newOrderSingle.OrdType != enum.OrdType_LIMIT {
		s.rejectToSession(ctx, addOrder, newOrderSingle.SessionID, unsupportedOrdType(newOrderSingle.OrdType))
		return
	}
	// A live ClOrdID keeps routing to its owner; the newcomer only gets a reject.
	if !s.AddRequestToMap(newOrderSingle.ClOrdID, newOrderSingle.SessionID) {
		s.rejectToSession(ctx, addOrder, newOrderSingle.SessionID, oms.ErrDuplicateOrder)
		return
	}

	// Rejections come back through OnOrderReport.
	_, _ = s.omsInstance.AddOrder(ctx, addOrder)
}

func (s *FixGateway) CancelOrder(ctx context.Context, req *OrderCancelRequest) {
	if !s.AddRequestToMap(req.ClOrdID, req.SessionID) {
		s.sendCancelReject(ctx, req, orderbook.Order{}, oms.ErrDuplicateOrder)
		return
	}

	order, err := s.omsInstance.CancelOrder(ctx, &model.CancelOrder{
		GatewayID:     req.ClOrdID,
		OrigGatewayID: req.OrigClOrdID,
		OrderID:       req.OrderID,
	})
	if err == nil {
		return
	}

	s.DeleteRequest(req.ClOrdID)
	s.sendCancelReject(ctx, req, order, err)
}

func (s *FixGateway) sendCancelReject(ctx context.Context, req *OrderCancelRequest, order orderbook.Order, reason error) {
	if err := s.send(orderCancelRejectMessage(req, order, reason), req.SessionID); err != nil {
		s.logger.Error(ctx, "send cancel reject failed", zap.String("cl_ord_id", req.ClOrdID), zap.Error(err))
	}
}

// rejectToSession answers an order that never reached the OMS.
func (s *FixGateway) rejectToSession(ctx context.Context, addOrder *model.AddOrder, sessionID quickfix.SessionID, reason error) {
	ev := model.NewRejectEvent(addOrder, "", reason.Error(), time.Now())
	if err := s.send(orderEventToExecutionReport(ev), sessionID); err != nil {
		s.logger.Error(ctx, "send reject failed", zap.String("cl_ord_id", addOrder.GatewayID), zap.Error(err))
	}
}

// OnOrderReport sends the report inline so a session sees reports in execution order.
func (s *FixGateway) OnOrderReport(ctx context.Context, ev model.OrderEvent) {
	if ev.GatewayID == "" {
		return
	}

	sessionID, err := s.GetSessionByClOrdID(ev.GatewayID)
	if err != nil {
		// Not a FIX order.
		return
	}

	if err := s.send(orderEventToExecutionReport(&ev), sessionID); err != nil {
		s.logger.Error(ctx, "send execution report failed",
			zap.String("order_id", ev.OrderID),
			zap.String("cl_ord_id", ev.GatewayID),
			zap.Error(err),
		)
	}

	switch ev.OrderStatus {
	case model.OrderStatusFilled, model.OrderStatusCanceled:
		s.DeleteRequest(ev.GatewayID, ev.OrigGatewayID)
	case model.OrderStatusRejected:
		s.DeleteRequest(ev.GatewayID)
	}
}

// OnTrade is a no-op: fills already reach the session as execution reports.
func (s *FixGateway) OnTrade(ctx context.Context, trade model.TradeEvent) {}
