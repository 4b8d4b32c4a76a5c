package riskrule

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/joripage/matching-engine/pkg/oms/model"
	"github.com/shopspring/decimal"
)

const (
	priceDecimals    int32 = 2
	quantityDecimals int32 = 8
)

// OrderFieldsRule enforces the shape of an order: a symbol, a known side and
// positive price and quantity within the book's precision.
type OrderFieldsRule struct {
	validate *validator.Validate
}

func NewOrderFieldsRule() *OrderFieldsRule {
	return &OrderFieldsRule{validate: validator.New()}
}

func (r *OrderFieldsRule) Check(order *model.AddOrder) error {
	if err := r.validate.Struct(order); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) || len(verrs) == 0 {
			return err
		}
		switch verrs[0].Field() {
		case "Symbol":
			return model.NewValidationError("symbol", "Invalid symbol")
		case "Side":
			return model.NewValidationError("side", "Invalid order side. Must be BUY or SELL")
		}
		return model.NewValidationError(verrs[0].Field(), "failed on tag '%s'", verrs[0].Tag())
	}

	if !order.Price.IsPositive() {
		return model.NewValidationError("price", "Invalid price. Must be a positive number")
	}
	if !order.Quantity.IsPositive() {
		return model.NewValidationError("quantity", "Invalid quantity. Must be a positive number")
	}
	if !fits(order.Price, priceDecimals) {
		return model.NewValidationError("price", "Price can have maximum %d decimal places", priceDecimals)
	}
	if !fits(order.Quantity, quantityDecimals) {
		return model.NewValidationError("quantity", "Quantity can have maximum %d decimal places", quantityDecimals)
	}
	return nil
}

func fits(v decimal.Decimal, places int32) bool {
	return v.Equal(v.Truncate(places))
}
