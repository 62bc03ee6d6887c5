package domain

import "sync"

// Order is the exchange-side resting order (ME_ORDER, spec.md §3).
// Prev/Next weave an intrusive circular doubly linked list threading
// every order resting at one price level, in FIFO priority order.
//
// Field grouping keeps the identifying fields needed for responses and
// cancel lookups together, followed by the fields touched on every match
// pass (Side, Price, Qty, Priority), and the list links last.
type Order struct {
	ClientId      ClientId
	TickerId      TickerId
	ClientOrderId OrderId
	MarketOrderId OrderId
	Side          Side
	Price         Price
	Qty           Qty
	Priority      Priority

	Prev *Order
	Next *Order
}

var orderPool = sync.Pool{
	New: func() any { return &Order{} },
}

// NewOrder takes an Order from a sync.Pool, so steady-state matching
// reuses released orders instead of allocating a fresh one each time;
// the pool is not pre-sized and allocates when it has none to hand out.
func NewOrder(clientId ClientId, tickerId TickerId, clientOrderId, marketOrderId OrderId, side Side, price Price, qty Qty, priority Priority) *Order {
	o := orderPool.Get().(*Order)
	o.ClientId = clientId
	o.TickerId = tickerId
	o.ClientOrderId = clientOrderId
	o.MarketOrderId = marketOrderId
	o.Side = side
	o.Price = price
	o.Qty = qty
	o.Priority = priority
	o.Prev = nil
	o.Next = nil
	return o
}

// Release returns the order to the pool. Callers must have already
// unlinked it from its price level; touching Prev/Next afterwards is
// undefined.
func (o *Order) Release() {
	*o = Order{}
	orderPool.Put(o)
}

// ParticipantOrder mirrors Order on the participant side: keyed by
// MarketOrderId only, since a reconstructed participant book has no
// notion of which client owns a resting order (spec.md §3).
type ParticipantOrder struct {
	MarketOrderId OrderId
	TickerId      TickerId
	Side          Side
	Price         Price
	Qty           Qty
	Priority      Priority

	Prev *ParticipantOrder
	Next *ParticipantOrder
}

var participantOrderPool = sync.Pool{
	New: func() any { return &ParticipantOrder{} },
}

func NewParticipantOrder(marketOrderId OrderId, tickerId TickerId, side Side, price Price, qty Qty, priority Priority) *ParticipantOrder {
	o := participantOrderPool.Get().(*ParticipantOrder)
	o.MarketOrderId = marketOrderId
	o.TickerId = tickerId
	o.Side = side
	o.Price = price
	o.Qty = qty
	o.Priority = priority
	o.Prev = nil
	o.Next = nil
	return o
}

func (o *ParticipantOrder) Release() {
	*o = ParticipantOrder{}
	participantOrderPool.Put(o)
}
