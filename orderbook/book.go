package orderbook

import "voltex/domain"

// Book is one instrument's limit order book: two PriceTree sides plus
// the lookup structures the matching engine needs to resolve a CANCEL
// request into the order it should unlink (spec.md §3, §4.2).
//
// Grounded on the teacher's OrderBook, retargeted from a string-keyed
// order map to the fixed-array MarketOrderId/client-order-id indices
// spec.md's MAX_ORDER_IDS/MAX_CLIENTS budgets describe, and split so
// Book owns matching decisions while PriceTree owns level bookkeeping.
type Book struct {
	TickerId domain.TickerId

	Bids PriceTree
	Asks PriceTree

	byMarketId    [domain.MaxOrderIds]*domain.Order
	byClientOrder [domain.MaxClients][]clientOrderEntry
}

type clientOrderEntry struct {
	clientOrderId domain.OrderId
	order         *domain.Order
}

// NewBook creates an empty book for ticker using backend for both
// sides.
func NewBook(tickerId domain.TickerId, backend Backend) *Book {
	return &Book{
		TickerId: tickerId,
		Bids:     NewSide(backend, true),
		Asks:     NewSide(backend, false),
	}
}

// Side returns the PriceTree for the given side.
func (b *Book) Side(side domain.Side) PriceTree {
	if side == domain.SideBuy {
		return b.Bids
	}
	return b.Asks
}

// Add inserts order into the appropriate side and both lookup
// indices. The order's MarketOrderId must not already be resident.
func (b *Book) Add(order *domain.Order) {
	b.Side(order.Side).Insert(order)
	b.byMarketId[uint64(order.MarketOrderId)%domain.MaxOrderIds] = order
	b.indexClientOrder(order)
}

// RemoveByMarketId unlinks and returns the order resident under
// marketOrderId, or nil if none is resident.
func (b *Book) RemoveByMarketId(marketOrderId domain.OrderId) *domain.Order {
	order := b.byMarketId[uint64(marketOrderId)%domain.MaxOrderIds]
	if order == nil || order.MarketOrderId != marketOrderId {
		return nil
	}
	b.Side(order.Side).Remove(order)
	b.byMarketId[uint64(marketOrderId)%domain.MaxOrderIds] = nil
	b.unindexClientOrder(order)
	return order
}

// FindByClientOrder resolves a client's own order-id namespace to the
// resident order, for CANCEL requests (spec.md §4.2's CANCEL path).
func (b *Book) FindByClientOrder(clientId domain.ClientId, clientOrderId domain.OrderId) *domain.Order {
	entries := b.byClientOrder[uint32(clientId)%domain.MaxClients]
	for _, e := range entries {
		if e.clientOrderId == clientOrderId {
			return e.order
		}
	}
	return nil
}

func (b *Book) indexClientOrder(order *domain.Order) {
	slot := uint32(order.ClientId) % domain.MaxClients
	b.byClientOrder[slot] = append(b.byClientOrder[slot], clientOrderEntry{order.ClientOrderId, order})
}

func (b *Book) unindexClientOrder(order *domain.Order) {
	slot := uint32(order.ClientId) % domain.MaxClients
	entries := b.byClientOrder[slot]
	for i, e := range entries {
		if e.order == order {
			entries[i] = entries[len(entries)-1]
			b.byClientOrder[slot] = entries[:len(entries)-1]
			return
		}
	}
}

// BBO derives the current best bid/offer, zero on either side that is
// empty.
func (b *Book) BBO() domain.BBO {
	var bbo domain.BBO
	if bid := b.Bids.Best(); bid != nil {
		bbo.BidPrice = bid.Price
		bbo.BidQty = levelQty(bid)
	}
	if ask := b.Asks.Best(); ask != nil {
		bbo.AskPrice = ask.Price
		bbo.AskQty = levelQty(ask)
	}
	return bbo
}

func levelQty(level *domain.PriceLevel) domain.Qty {
	var qty domain.Qty
	if level.FirstOrder == nil {
		return 0
	}
	cur := level.FirstOrder
	for {
		qty += cur.Qty
		cur = cur.Next
		if cur == level.FirstOrder {
			break
		}
	}
	return qty
}
