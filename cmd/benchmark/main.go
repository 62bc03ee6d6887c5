// Command benchmark load-tests one Exchange ticker directly against
// its ingress/egress SPSC queues, bypassing the TCP gateway. Adapted
// from the teacher's cmd/benchmark (same producer/consumer goroutine
// shape) but retargeted from domain.Order/matching.MatchingEngine
// submission to domain.ClientRequest submission through
// matching.Exchange.
package main

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"voltex/domain"
	"voltex/matching"
	"voltex/orderbook"
	"voltex/queue"
)

const benchmarkTicker = domain.TickerId(0)

func main() {
	fmt.Println("=== matching engine throughput benchmark ===")

	const queueCap = 1 << 18
	ingress := queue.New[domain.ClientRequest](queueCap)
	outResponses := queue.New[domain.ClientResponse](queueCap)
	outUpdates := queue.New[domain.MarketUpdate](queueCap)

	exchange := matching.NewExchange(ingress, outResponses, outUpdates)
	exchange.RegisterTicker(benchmarkTicker, orderbook.HashMapListBackend)
	exchange.Start()
	defer exchange.Stop()

	testDuration := 5 * time.Second
	numCPU := runtime.NumCPU()
	numWorkers := numCPU - 2
	if numWorkers < 1 {
		numWorkers = 1
	}

	var orderCount atomic.Int64
	var tradeCount atomic.Int64

	go func() {
		for {
			resp, ok := outResponses.PeekRead()
			if !ok {
				runtime.Gosched()
				continue
			}
			if resp.Type == domain.ClientResponseFilled {
				tradeCount.Add(1)
			}
			outResponses.CommitRead()
		}
	}()
	go func() {
		for {
			if _, ok := outUpdates.PeekRead(); ok {
				outUpdates.CommitRead()
			} else {
				runtime.Gosched()
			}
		}
	}()

	fmt.Printf("starting...\n")
	fmt.Printf("cpus: %d\n", numCPU)
	fmt.Printf("producers: %d (numCPU - 2)\n", numWorkers)
	fmt.Printf("duration: %v\n\n", testDuration)

	startTime := time.Now()
	stopChan := make(chan struct{})

	for w := 0; w < numWorkers; w++ {
		go func(workerID int) {
			orderId := 0
			for {
				select {
				case <-stopChan:
					return
				default:
					var side domain.Side
					var price domain.Price
					if orderId%2 == 0 {
						side = domain.SideBuy
						price = domain.Price(50000 + orderId%200)
					} else {
						side = domain.SideSell
						price = domain.Price(50000 + orderId%200)
					}

					*ingress.ReserveWrite() = domain.ClientRequest{
						Type:          domain.ClientRequestNew,
						ClientId:      domain.ClientId(workerID),
						TickerId:      benchmarkTicker,
						ClientOrderId: domain.OrderId(orderId + 1),
						Side:          side,
						Price:         price,
						Qty:           1,
					}
					ingress.CommitWrite()
					orderCount.Add(1)
					orderId++
				}
			}
		}(w)
	}

	ticker := time.NewTicker(time.Second)
	go func() {
		for range ticker.C {
			elapsed := time.Since(startTime)
			orders := orderCount.Load()
			trades := tradeCount.Load()
			qps := float64(orders) / elapsed.Seconds()
			tps := float64(trades) / elapsed.Seconds()
			fmt.Printf("[%.0fs] orders: %d (%.0f/s) | trades: %d (%.0f/s)\n",
				elapsed.Seconds(), orders, qps, trades, tps)
		}
	}()

	time.Sleep(testDuration)
	close(stopChan)
	ticker.Stop()
	time.Sleep(500 * time.Millisecond)

	elapsed := time.Since(startTime)
	totalOrders := orderCount.Load()
	totalTrades := tradeCount.Load()

	qps := float64(totalOrders) / elapsed.Seconds()
	tps := float64(totalTrades) / elapsed.Seconds()
	matchRate := float64(totalTrades) / float64(totalOrders) * 100

	fmt.Println("\n=== results ===")
	fmt.Printf("duration:       %v\n", elapsed)
	fmt.Printf("total orders:   %d\n", totalOrders)
	fmt.Printf("total trades:   %d\n", totalTrades)
	fmt.Printf("order rate:     %.0f orders/sec\n", qps)
	fmt.Printf("trade rate:     %.0f trades/sec\n", tps)
	fmt.Printf("match rate:     %.2f%%\n", matchRate)

	book := exchange.Engine(benchmarkTicker).Book()
	bbo := book.BBO()
	fmt.Println("\n=== book state ===")
	fmt.Printf("best bid: %s @ %s\n", bbo.BidQty, bbo.BidPrice)
	fmt.Printf("best ask: %s @ %s\n", bbo.AskQty, bbo.AskPrice)
}
