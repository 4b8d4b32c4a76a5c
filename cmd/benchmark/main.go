package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/joripage/matching-engine/pkg/oms"
	"github.com/joripage/matching-engine/pkg/oms/model"
	"github.com/joripage/matching-engine/pkg/orderbook"
	"github.com/shopspring/decimal"
)

const (
	minPriceTicks = 10_000 // 100.00
	maxPriceTicks = 20_000 // 200.00
	minQty        = 1
	maxQty        = 100
)

var symbols = []string{"ABC", "XYZ", "BTC", "ETH"}

func randomOrder(r *rand.Rand, id int) orderbook.NewOrder {
	side := orderbook.BUY
	if r.Intn(2) == 0 {
		side = orderbook.SELL
	}
	ticks := int64(minPriceTicks + r.Intn(maxPriceTicks-minPriceTicks+1))

	return orderbook.NewOrder{
		ID:     fmt.Sprintf("ORD-%07d", id),
		Symbol: symbols[r.Intn(len(symbols))],
		Side:   side,
		Price:  decimal.New(ticks, -2),
		Qty:    decimal.NewFromInt(int64(r.Intn(maxQty-minQty+1) + minQty)),
	}
}

func main() {
	var (
		numOrders  int
		seed       int64
		throughOMS bool
	)
	flag.IntVar(&numOrders, "orders", 1_000_000, "number of random limit orders")
	flag.Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	flag.BoolVar(&throughOMS, "oms", false, "submit through the OMS (risk checks, reports) instead of the bare engine")
	flag.Parse()

	r := rand.New(rand.NewSource(seed))
	engine := orderbook.NewEngine(nil)

	totalMatched := 0
	totalQty := decimal.Zero
	engine.RegisterTradeCallback(func(trades []orderbook.Trade) {
		for _, t := range trades {
			totalMatched++
			totalQty = totalQty.Add(t.Qty)
			if totalMatched <= 5 {
				fmt.Printf("match: BUY[%s] <=> SELL[%s] %s @ %s qty %s\n",
					t.BuyOrderID, t.SellOrderID, t.Symbol, t.Price, t.Qty)
			}
		}
	})

	submit := func(o orderbook.NewOrder) {
		_, _ = engine.Submit(o)
	}
	if throughOMS {
		omsInstance, err := oms.NewOMS(engine, nil, nil)
		if err != nil {
			panic(err)
		}
		ctx := context.Background()
		submit = func(o orderbook.NewOrder) {
			_, _ = omsInstance.AddOrder(ctx, &model.AddOrder{
				OrderID:  o.ID,
				Symbol:   o.Symbol,
				Side:     model.OrderSide(o.Side),
				Price:    o.Price,
				Quantity: o.Qty,
			})
		}
	}

	orders := make([]orderbook.NewOrder, numOrders)
	for i := range orders {
		orders[i] = randomOrder(r, i+1)
	}

	start := time.Now()
	for _, o := range orders {
		submit(o)
	}
	elapsed := time.Since(start)

	resting := 0
	for _, s := range engine.Symbols() {
		book := engine.OrderBook(s)
		for _, l := range book.Bids {
			resting += l.Orders
		}
		for _, l := range book.Asks {
			resting += l.Orders
		}
	}

	fmt.Println("--------")
	fmt.Printf("Total Orders     : %d\n", numOrders)
	fmt.Printf("Total Matches    : %d\n", totalMatched)
	fmt.Printf("Total Matched Qty: %s\n", totalQty)
	fmt.Printf("Resting Orders   : %d\n", resting)
	fmt.Printf("Time Taken       : %s (%.0f orders/s)\n", elapsed, float64(numOrders)/elapsed.Seconds())
}
