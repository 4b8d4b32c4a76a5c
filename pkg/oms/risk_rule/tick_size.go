package riskrule

import (
	"encoding/json"
	"os"

	"github.com/joripage/matching-engine/pkg/oms/model"
	"github.com/shopspring/decimal"
)

// TickSizeBand applies Step to prices up to MaxPrice. A zero MaxPrice has no
// upper bound.
type TickSizeBand struct {
	MaxPrice decimal.Decimal `json:"maxPrice"`
	Step     decimal.Decimal `json:"step"`
}

// TickSizeRule holds the bands of every configured symbol, ascending by MaxPrice.
type TickSizeRule struct {
	Config map[string][]TickSizeBand
}

func NewTickSizeRule(cfg map[string][]TickSizeBand) *TickSizeRule {
	return &TickSizeRule{Config: cfg}
}

// NewTickSizeRuleFromFile loads the bands from a JSON file keyed by symbol.
func NewTickSizeRuleFromFile(path string) (*TickSizeRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg map[string][]TickSizeBand
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return NewTickSizeRule(cfg), nil
}

func (r *TickSizeRule) Check(order *model.AddOrder) error {
	bands, ok := r.Config[order.Symbol]
	if !ok {
		return nil
	}

	for _, band := range bands {
		if band.MaxPrice.IsZero() || order.Price.LessThanOrEqual(band.MaxPrice) {
			if band.Step.IsPositive() && !order.Price.Mod(band.Step).IsZero() {
				return model.NewValidationError("price", "Invalid price. %s is not a multiple of tick size %s", order.Price, band.Step)
			}
			return nil
		}
	}

	return nil
}
