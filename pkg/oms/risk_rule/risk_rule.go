package riskrule

import "github.com/joripage/matching-engine/pkg/oms/model"

// RiskRule inspects an order before it reaches the book. A non-nil error
// rejects the order.
type RiskRule interface {
	Check(order *model.AddOrder) error
}

// Chain runs rules in order and stops at the first failure.
type Chain []RiskRule

func (c Chain) Check(order *model.AddOrder) error {
	for _, r := range c {
		if err := r.Check(order); err != nil {
			return err
		}
	}
	return nil
}
