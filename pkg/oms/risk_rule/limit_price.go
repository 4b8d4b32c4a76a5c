package riskrule

import (
	"github.com/joripage/matching-engine/pkg/oms/model"
	"github.com/shopspring/decimal"
)

// PriceBand bounds the accepted limit price of a symbol. A zero bound is open.
type PriceBand struct {
	Floor decimal.Decimal `yaml:"floor" json:"floor"`
	Ceil  decimal.Decimal `yaml:"ceil" json:"ceil"`
}

type LimitPriceRule struct {
	prices map[string]PriceBand
}

func NewLimitPriceRule(prices map[string]PriceBand) *LimitPriceRule {
	return &LimitPriceRule{prices: prices}
}

func (r *LimitPriceRule) Check(order *model.AddOrder) error {
	band, ok := r.prices[order.Symbol]
	if !ok {
		return nil
	}
	if !band.Ceil.IsZero() && order.Price.GreaterThan(band.Ceil) {
		return model.NewValidationError("price", "Invalid price. %s is above the limit %s", order.Price, band.Ceil)
	}
	if !band.Floor.IsZero() && order.Price.LessThan(band.Floor) {
		return model.NewValidationError("price", "Invalid price. %s is below the limit %s", order.Price, band.Floor)
	}
	return nil
}
