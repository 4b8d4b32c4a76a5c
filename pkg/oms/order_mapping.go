package oms

import (
	"context"
	"time"

	"github.com/joripage/matching-engine/pkg/oms/model"
	"go.uber.org/zap"
)

func (s *OMS) AddOrderToMap(order *model.Order) bool {
	_, loaded := s.orderIDMapping.LoadOrStore(order.OrderID, order)
	return !loaded
}

func (s *OMS) GetOrderByOrderID(orderID string) (*model.Order, error) {
	order, ok := s.orderIDMapping.Load(orderID)
	if !ok {
		return nil, ErrOrderNotFound
	}

	return order.(*model.Order), nil
}

func (s *OMS) DeleteOrderByOrderID(orderID string) {
	s.orderIDMapping.Delete(orderID)
}

func (s *OMS) startCleaner(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// cleanup drops the OMS state and event history of filled and cancelled
// orders. The engine keeps its own record of them.
func (s *OMS) cleanup() int {
	removed := 0
	s.orderIDMapping.Range(func(k, _ any) bool {
		orderID := k.(string)
		if o, ok := s.engine.Order(orderID); ok && o.IsTerminal() {
			s.DeleteOrderByOrderID(orderID)
			s.eventstore.DeleteChainByOrderID(orderID)
			removed++
		}
		return true
	})
	if removed > 0 {
		s.logger.Debug(context.Background(), "cleaned up terminal orders", zap.Int("count", removed))
	}
	return removed
}
