package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeEvent is an executed trade enriched with the accounts on both sides.
type TradeEvent struct {
	TradeID     string          `json:"tradeId" gorm:"primaryKey;column:trade_id"`
	Symbol      string          `json:"symbol" gorm:"column:symbol;index"`
	BuyOrderID  string          `json:"buyOrderId" gorm:"column:buy_order_id"`
	SellOrderID string          `json:"sellOrderId" gorm:"column:sell_order_id"`
	BuyAccount  string          `json:"buyAccount,omitempty" gorm:"column:buy_account"`
	SellAccount string          `json:"sellAccount,omitempty" gorm:"column:sell_account"`
	Price       decimal.Decimal `json:"price" gorm:"column:price;type:numeric"`
	Qty         decimal.Decimal `json:"qty" gorm:"column:qty;type:numeric"`
	Seq         uint64          `json:"seq" gorm:"column:seq"`
	ExecutedAt  time.Time       `json:"executedAt" gorm:"column:executed_at"`
}

func (TradeEvent) TableName() string {
	return "trades"
}
