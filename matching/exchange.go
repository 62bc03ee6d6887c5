package matching

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"voltex/domain"
	"voltex/orderbook"
	"voltex/queue"
	"voltex/telemetry"
)

// Exchange is the single matching-engine thread of an exchange
// process (spec.md §5 names exactly one): it owns the shared ingress
// SPSC queue the order gateway's FIFO sequencer publishes into and
// the two shared egress queues (responses back to the gateway, market
// updates to the publisher), and dispatches each request to the
// per-ticker Engine addressed by its ticker_id.
//
// The ticker space is a compile-time bound (spec.md §3's MAX_TICKERS),
// unlike the teacher's dynamically discovered symbol set, so a fixed
// array of engines replaces the teacher's atomic.Value copy-on-write
// map — there is no slow path left to optimize away, since every
// engine exists from startup. The single OS-thread-pinned run loop is
// grounded on the teacher's MatchingEngine.Start
// (runtime.LockOSThread) and
// original_source/exchange/matcher/matching_engine.h's run().
type Exchange struct {
	engines [domain.MaxTickers]*Engine

	ingress      *queue.SPSC[domain.ClientRequest]
	outResponses *queue.SPSC[domain.ClientResponse]
	outUpdates   *queue.SPSC[domain.MarketUpdate]

	metrics *telemetry.Metrics

	run atomic.Bool
}

// SetMetrics wires Prometheus counters into the exchange. Every
// response and update already flows through sendResponse/sendUpdate,
// so this is the one place order-flow and matching-latency counters
// need to hook in regardless of which ticker produced them.
func (x *Exchange) SetMetrics(m *telemetry.Metrics) { x.metrics = m }

// NewExchange creates an Exchange wired to the given shared queues.
// No engines are registered yet; call RegisterTicker for each
// instrument before Start.
func NewExchange(ingress *queue.SPSC[domain.ClientRequest], outResponses *queue.SPSC[domain.ClientResponse], outUpdates *queue.SPSC[domain.MarketUpdate]) *Exchange {
	return &Exchange{
		ingress:      ingress,
		outResponses: outResponses,
		outUpdates:   outUpdates,
	}
}

// RegisterTicker creates and installs an Engine for tickerId using
// backend for its book. Panics if the ticker is already registered or
// out of range — both are startup configuration errors.
func (x *Exchange) RegisterTicker(tickerId domain.TickerId, backend orderbook.Backend) *Engine {
	if int(tickerId) >= domain.MaxTickers {
		panic("matching: ticker id out of range")
	}
	if x.engines[tickerId] != nil {
		panic("matching: duplicate engine registration for ticker")
	}
	engine := newEngine(tickerId, backend, x.sendResponse, x.sendUpdate)
	x.engines[tickerId] = engine
	return engine
}

// Engine returns the registered engine for tickerId, or nil.
func (x *Exchange) Engine(tickerId domain.TickerId) *Engine {
	if int(tickerId) >= domain.MaxTickers {
		return nil
	}
	return x.engines[tickerId]
}

// Start launches the matching thread and returns immediately.
func (x *Exchange) Start() {
	x.run.Store(true)
	go x.runLoop()
}

// Stop signals the matching thread to exit after its current request.
func (x *Exchange) Stop() { x.run.Store(false) }

func (x *Exchange) runLoop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for x.run.Load() {
		req, ok := x.ingress.PeekRead()
		if !ok {
			continue
		}
		x.dispatch(req)
		x.ingress.CommitRead()
	}
}

// dispatch is also called directly by in-package tests that want to
// drive the exchange synchronously instead of through Start's goroutine.
func (x *Exchange) dispatch(req *domain.ClientRequest) {
	engine := x.Engine(req.TickerId)
	if engine == nil {
		panic(fmt.Sprintf("matching: unknown ticker %s", req.TickerId))
	}
	if x.metrics == nil {
		engine.dispatch(req)
		return
	}
	start := time.Now()
	engine.dispatch(req)
	x.metrics.MatchingLatency.Observe(float64(time.Since(start).Nanoseconds()))
}

func (x *Exchange) sendResponse(resp domain.ClientResponse) {
	if x.metrics != nil {
		switch resp.Type {
		case domain.ClientResponseAccepted:
			x.metrics.OrdersAccepted.Inc()
		case domain.ClientResponseCanceled:
			x.metrics.OrdersCanceled.Inc()
		case domain.ClientResponseCancelRejected:
			x.metrics.OrdersRejected.Inc()
		}
	}
	*x.outResponses.ReserveWrite() = resp
	x.outResponses.CommitWrite()
}

func (x *Exchange) sendUpdate(upd domain.MarketUpdate) {
	if x.metrics != nil && upd.Type == domain.MarketUpdateTrade {
		x.metrics.TradesExecuted.Inc()
	}
	*x.outUpdates.ReserveWrite() = upd
	x.outUpdates.CommitWrite()
}
