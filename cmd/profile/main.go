// Command profile runs the same load pattern as cmd/benchmark under
// pprof's CPU profiler. Adapted from the teacher's cmd/profile,
// retargeted from domain.Order/matching.MatchingEngine submission to
// domain.ClientRequest submission through matching.Exchange.
package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"sync/atomic"
	"time"

	"voltex/domain"
	"voltex/matching"
	"voltex/orderbook"
	"voltex/queue"
)

const profileTicker = domain.TickerId(0)

func main() {
	cpuFile, err := os.Create("cpu.prof")
	if err != nil {
		panic(err)
	}
	defer cpuFile.Close()

	pprof.StartCPUProfile(cpuFile)
	defer pprof.StopCPUProfile()

	fmt.Println("=== profiling matching engine ===")
	fmt.Println("writing CPU profile to cpu.prof")

	const queueCap = 1 << 18
	ingress := queue.New[domain.ClientRequest](queueCap)
	outResponses := queue.New[domain.ClientResponse](queueCap)
	outUpdates := queue.New[domain.MarketUpdate](queueCap)

	exchange := matching.NewExchange(ingress, outResponses, outUpdates)
	exchange.RegisterTicker(profileTicker, orderbook.HashMapListBackend)
	exchange.Start()
	defer exchange.Stop()

	duration := 10 * time.Second
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

	fmt.Printf("cpus: %d\n", numCPU)
	fmt.Printf("producers: %d\n", numWorkers)
	fmt.Printf("duration: %v\n\n", duration)

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
					if orderId%2 == 0 {
						side = domain.SideBuy
					} else {
						side = domain.SideSell
					}
					price := domain.Price(50000 + orderId%200)

					*ingress.ReserveWrite() = domain.ClientRequest{
						Type:          domain.ClientRequestNew,
						ClientId:      domain.ClientId(workerID),
						TickerId:      profileTicker,
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

	time.Sleep(duration)
	close(stopChan)
	time.Sleep(500 * time.Millisecond)

	elapsed := time.Since(startTime)
	totalOrders := orderCount.Load()
	totalTrades := tradeCount.Load()

	fmt.Println("\n=== results ===")
	fmt.Printf("total orders: %d\n", totalOrders)
	fmt.Printf("total trades: %d\n", totalTrades)
	fmt.Printf("order rate: %.0f orders/sec\n", float64(totalOrders)/elapsed.Seconds())
	fmt.Printf("trade rate: %.0f trades/sec\n", float64(totalTrades)/elapsed.Seconds())

	fmt.Println("\nanalyze with:")
	fmt.Println("  go tool pprof -http=:8080 cpu.prof")
	fmt.Println("  or: go tool pprof cpu.prof, then: top10 / list <func>")
}
