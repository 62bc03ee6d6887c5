package matching

import (
	"fmt"

	"voltex/domain"
	"voltex/orderbook"
)

// Engine holds one instrument's book and id counters and knows how to
// apply a single NEW or CANCEL request to it (spec.md §4.2). It has no
// queues or thread of its own: Exchange owns the single matching-
// engine thread and looks up the right Engine by ticker_id for every
// request it dispatches, mirroring
// original_source/exchange/matcher/matching_engine.h's single
// MatchingEngine indexing a `ticker_order_book_` array rather than the
// teacher's one-goroutine-per-symbol MatchingEngine — spec.md §5 names
// exactly one matching-engine thread per exchange process.
//
// The NEW-order match loop (aggressor/resting FILLED pair, CANCEL
// market-update on a resting full fill, residual ADD with fresh
// priority) is grounded on spec.md §4.2's numbered algorithm, closer
// to original_source's intent than the teacher's matchBuyOrder/
// matchSellOrder (which never emitted the maker-side FILLED response
// or the resting-side CANCEL market update — both are added here).
type Engine struct {
	tickerId domain.TickerId
	book     *orderbook.Book
	ids      *IDGenerator

	sendResponse func(domain.ClientResponse)
	sendUpdate   func(domain.MarketUpdate)
}

// newEngine creates an engine for tickerId that publishes through the
// given callbacks — Exchange supplies callbacks that write into its
// shared egress queues.
func newEngine(tickerId domain.TickerId, backend orderbook.Backend, sendResponse func(domain.ClientResponse), sendUpdate func(domain.MarketUpdate)) *Engine {
	return &Engine{
		tickerId:     tickerId,
		book:         orderbook.NewBook(tickerId, backend),
		ids:          NewIDGenerator(),
		sendResponse: sendResponse,
		sendUpdate:   sendUpdate,
	}
}

// Book exposes the engine's resident order book, for tests and
// diagnostic tooling. The snapshot synthesizer does not read it; it
// rebuilds its own view from the incremental stream.
func (e *Engine) Book() *orderbook.Book { return e.book }

// dispatch applies req to this ticker's book. Panics on an unknown
// request type (spec.md §4.2's fatal-assertion failure model) or a
// ticker_id mismatch (a routing bug in the caller, not this engine).
func (e *Engine) dispatch(req *domain.ClientRequest) {
	if req.TickerId != e.tickerId {
		panic(fmt.Sprintf("matching: request for ticker %s routed to engine for ticker %s", req.TickerId, e.tickerId))
	}

	switch req.Type {
	case domain.ClientRequestNew:
		e.processNew(req)
	case domain.ClientRequestCancel:
		e.processCancel(req)
	default:
		panic(fmt.Sprintf("matching: invalid client request type %s", req.Type))
	}
}

func (e *Engine) processNew(req *domain.ClientRequest) {
	moid := e.ids.NextMarketOrderId()

	e.sendResponse(domain.ClientResponse{
		Type:          domain.ClientResponseAccepted,
		ClientId:      req.ClientId,
		TickerId:      req.TickerId,
		ClientOrderId: req.ClientOrderId,
		MarketOrderId: moid,
		Side:          req.Side,
		Price:         req.Price,
		LeavesQty:     req.Qty,
	})

	leaves := req.Qty
	opposite := e.book.Side(oppositeSide(req.Side))

	for leaves > 0 {
		best := opposite.Best()
		if best == nil || !crosses(req.Side, req.Price, best.Price) {
			break
		}

		resting := best.FirstOrder
		tradeQty := min(leaves, resting.Qty)
		leaves -= tradeQty
		resting.Qty -= tradeQty

		e.sendResponse(domain.ClientResponse{
			Type:          domain.ClientResponseFilled,
			ClientId:      req.ClientId,
			TickerId:      req.TickerId,
			ClientOrderId: req.ClientOrderId,
			MarketOrderId: moid,
			Side:          req.Side,
			Price:         best.Price,
			ExecQty:       tradeQty,
			LeavesQty:     leaves,
		})
		e.sendResponse(domain.ClientResponse{
			Type:          domain.ClientResponseFilled,
			ClientId:      resting.ClientId,
			TickerId:      req.TickerId,
			ClientOrderId: resting.ClientOrderId,
			MarketOrderId: resting.MarketOrderId,
			Side:          resting.Side,
			Price:         best.Price,
			ExecQty:       tradeQty,
			LeavesQty:     resting.Qty,
		})
		e.sendUpdate(domain.MarketUpdate{
			Type:     domain.MarketUpdateTrade,
			TickerId: req.TickerId,
			Side:     req.Side,
			Price:    best.Price,
			Qty:      tradeQty,
		})

		if resting.Qty == 0 {
			e.book.RemoveByMarketId(resting.MarketOrderId)
			e.sendUpdate(domain.MarketUpdate{
				Type:     domain.MarketUpdateCancel,
				OrderId:  resting.MarketOrderId,
				TickerId: req.TickerId,
				Side:     resting.Side,
				Price:    best.Price,
			})
			resting.Release()
		}
	}

	if leaves == 0 {
		// The incoming order fully filled without ever resting: it
		// was never ADDed, so tell market data it's closed anyway.
		e.sendUpdate(domain.MarketUpdate{
			Type:     domain.MarketUpdateCancel,
			OrderId:  moid,
			TickerId: req.TickerId,
			Side:     req.Side,
		})
		return
	}

	priority := e.ids.NextPriority(req.Price)
	order := domain.NewOrder(req.ClientId, req.TickerId, req.ClientOrderId, moid, req.Side, req.Price, leaves, priority)
	e.book.Add(order)
	e.sendUpdate(domain.MarketUpdate{
		Type:     domain.MarketUpdateAdd,
		OrderId:  moid,
		TickerId: req.TickerId,
		Side:     req.Side,
		Price:    req.Price,
		Qty:      leaves,
		Priority: priority,
	})
}

func (e *Engine) processCancel(req *domain.ClientRequest) {
	order := e.book.FindByClientOrder(req.ClientId, req.ClientOrderId)
	if order == nil || order.ClientId != req.ClientId {
		e.sendResponse(domain.ClientResponse{
			Type:          domain.ClientResponseCancelRejected,
			ClientId:      req.ClientId,
			TickerId:      req.TickerId,
			ClientOrderId: req.ClientOrderId,
		})
		return
	}

	e.book.RemoveByMarketId(order.MarketOrderId)
	e.sendResponse(domain.ClientResponse{
		Type:          domain.ClientResponseCanceled,
		ClientId:      order.ClientId,
		TickerId:      req.TickerId,
		ClientOrderId: order.ClientOrderId,
		MarketOrderId: order.MarketOrderId,
		Side:          order.Side,
		Price:         order.Price,
	})
	e.sendUpdate(domain.MarketUpdate{
		Type:     domain.MarketUpdateCancel,
		OrderId:  order.MarketOrderId,
		TickerId: req.TickerId,
		Side:     order.Side,
		Price:    order.Price,
	})
	order.Release()
}

func oppositeSide(side domain.Side) domain.Side {
	if side == domain.SideBuy {
		return domain.SideSell
	}
	return domain.SideBuy
}

// crosses reports whether an order of side at price crosses the
// opposite side's best resting price (spec.md §4.2: "bid ≥ ask or
// ask ≤ bid").
func crosses(side domain.Side, price, bestOpposite domain.Price) bool {
	if side == domain.SideBuy {
		return price >= bestOpposite
	}
	return price <= bestOpposite
}
