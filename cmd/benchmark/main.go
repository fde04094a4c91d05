package main

import (
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/joripage/lightengine/pkg/orderbook"
	"github.com/shopspring/decimal"
)

const (
	minPrice = 100.0
	maxPrice = 200.0
	minQty   = 1
	maxQty   = 100
)

func main() {
	var (
		numOrders  int
		cancelRate float64
		seed       int64
	)
	flag.IntVar(&numOrders, "orders", 1_000_000, "number of limit orders to submit")
	flag.Float64Var(&cancelRate, "cancel-rate", 0.1, "probability of cancelling a resting order after each add")
	flag.Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	rng := rand.New(rand.NewSource(seed))
	book, err := orderbook.New("ABC", decimal.RequireFromString("0.01"))
	if err != nil {
		panic(err)
	}

	var (
		trades    int
		tradedQty = decimal.Zero
		resting   []uint64
		cancels   int
	)

	start := time.Now()
	for i := 0; i < numOrders; i++ {
		side := orderbook.BUY
		if rng.Intn(2) == 0 {
			side = orderbook.SELL
		}
		price := minPrice + rng.Float64()*(maxPrice-minPrice)
		qty := float64(rng.Intn(maxQty-minQty+1) + minQty)

		reports, err := book.AddOrder(price, qty, side)
		if err != nil {
			continue
		}
		for _, r := range reports {
			if r.IsTrade() && r.TradeInfo.Aggressor {
				trades++
				tradedQty = tradedQty.Add(r.TradeInfo.TradeQty)
			}
		}
		if last := reports[len(reports)-1]; !last.OrderInfo.LeavesQty.IsZero() {
			resting = append(resting, last.OrderInfo.OrderID)
		}

		if len(resting) > 0 && rng.Float64() < cancelRate {
			j := rng.Intn(len(resting))
			if _, err := book.CancelOrder(resting[j]); err == nil {
				cancels++
			}
			resting[j] = resting[len(resting)-1]
			resting = resting[:len(resting)-1]
		}
	}
	elapsed := time.Since(start)

	fmt.Println("--------")
	fmt.Printf("Total Orders     : %d\n", numOrders)
	fmt.Printf("Cancels          : %d\n", cancels)
	fmt.Printf("Aggressor Trades : %d\n", trades)
	fmt.Printf("Total Traded Qty : %s\n", tradedQty)
	fmt.Printf("Resting Orders   : %d\n", book.Len())
	fmt.Printf("Time Taken       : %s\n", elapsed)
	fmt.Printf("Orders/sec       : %.0f\n", float64(numOrders)/elapsed.Seconds())
}
