package orderbook

import "github.com/shopspring/decimal"

// match crosses order against the opposite side while prices cross. Both
// sides are kept in monotonic price order, so the first best order that does
// not cross ends the scan.
func (ob *orderBook) match(order *Order) []Trade {
	var trades []Trade
	counter := ob.side(order.Side.Opposite())

	for order.Remaining().IsPositive() {
		best := counter.best()
		if best == nil || !crosses(order, best) {
			break
		}

		qty := decimal.Min(order.Remaining(), best.Remaining())
		price := tradePrice(order, best)

		order.fill(qty)
		best.fill(qty)

		buy, sell := order, best
		if order.Side == SELL {
			buy, sell = best, order
		}
		trades = append(trades, ob.mint(buy, sell, price, qty))

		if best.Status == FILLED {
			counter.popBest()
		}
	}

	return trades
}

func crosses(a, b *Order) bool {
	buy, sell := a, b
	if a.Side == SELL {
		buy, sell = b, a
	}
	return buy.Price.GreaterThanOrEqual(sell.Price)
}

// tradePrice is the price of whichever order arrived first.
func tradePrice(a, b *Order) decimal.Decimal {
	if a.Seq < b.Seq {
		return a.Price
	}
	return b.Price
}
