package orderbook

import "voltex/domain"

// ParticipantSide is one side of a participant-maintained book,
// mirroring PriceTree's shape but over domain.ParticipantOrder /
// domain.ParticipantLevel, since a consumer only ever learns of an
// order's existence from market data and has no client-order-id
// namespace to index by (spec.md §3's "identical list-and-map
// structure" requirement for the participant side).
type ParticipantSide struct {
	slots      [domain.MaxPriceLevels]*domain.ParticipantLevel
	best       *domain.ParticipantLevel
	descending bool
}

// NewParticipantSide creates an empty side.
func NewParticipantSide(descending bool) *ParticipantSide {
	return &ParticipantSide{descending: descending}
}

func (t *ParticipantSide) Insert(order *domain.ParticipantOrder) {
	level := t.slots[slot(order.Price)]
	if level == nil || level.Price != order.Price {
		level = domain.NewParticipantLevel(order.Side, order.Price)
		t.slots[slot(order.Price)] = level
		t.insertLevel(level)
	}
	appendParticipantOrder(level, order)
}

func (t *ParticipantSide) Remove(order *domain.ParticipantOrder) {
	level := t.slots[slot(order.Price)]
	if level == nil || level.Price != order.Price {
		return
	}
	unlinkParticipantOrder(level, order)
	if level.FirstOrder == nil {
		t.removeLevel(level)
	}
}

func (t *ParticipantSide) Best() *domain.ParticipantLevel { return t.best }

func (t *ParticipantSide) Level(price domain.Price) *domain.ParticipantLevel {
	level := t.slots[slot(price)]
	if level == nil || level.Price != price {
		return nil
	}
	return level
}

func (t *ParticipantSide) IsEmpty() bool { return t.best == nil }

func (t *ParticipantSide) isBetter(price1, price2 domain.Price) bool {
	if t.descending {
		return price1 > price2
	}
	return price1 < price2
}

func (t *ParticipantSide) insertLevel(newLevel *domain.ParticipantLevel) {
	if t.best == nil {
		newLevel.Next = newLevel
		newLevel.Prev = newLevel
		t.best = newLevel
		return
	}
	if t.isBetter(newLevel.Price, t.best.Price) {
		t.linkBefore(t.best, newLevel)
		t.best = newLevel
		return
	}
	cur := t.best
	for {
		if cur.Next == t.best || t.isBetter(newLevel.Price, cur.Next.Price) {
			t.linkBefore(cur.Next, newLevel)
			return
		}
		cur = cur.Next
	}
}

func (t *ParticipantSide) linkBefore(at, newLevel *domain.ParticipantLevel) {
	prev := at.Prev
	newLevel.Prev = prev
	newLevel.Next = at
	prev.Next = newLevel
	at.Prev = newLevel
}

func (t *ParticipantSide) removeLevel(level *domain.ParticipantLevel) {
	if t.slots[slot(level.Price)] == level {
		t.slots[slot(level.Price)] = nil
	}
	if level.Next == level {
		t.best = nil
	} else {
		level.Prev.Next = level.Next
		level.Next.Prev = level.Prev
		if t.best == level {
			t.best = level.Next
		}
	}
	level.Release()
}

func appendParticipantOrder(level *domain.ParticipantLevel, order *domain.ParticipantOrder) {
	if level.FirstOrder == nil {
		order.Next = order
		order.Prev = order
		level.FirstOrder = order
		return
	}
	tail := level.FirstOrder.Prev
	order.Prev = tail
	order.Next = level.FirstOrder
	tail.Next = order
	level.FirstOrder.Prev = order
}

func unlinkParticipantOrder(level *domain.ParticipantLevel, order *domain.ParticipantOrder) {
	if order.Next == order {
		level.FirstOrder = nil
	} else {
		order.Prev.Next = order.Next
		order.Next.Prev = order.Prev
		if level.FirstOrder == order {
			level.FirstOrder = order.Next
		}
	}
	order.Next = nil
	order.Prev = nil
}

// ParticipantBook mirrors Book for the participant side: keyed only
// by MarketOrderId, since the participant never sees client-order-ids
// for orders other than its own.
type ParticipantBook struct {
	TickerId domain.TickerId
	Bids     *ParticipantSide
	Asks     *ParticipantSide

	byMarketId map[domain.OrderId]*domain.ParticipantOrder
}

// NewParticipantBook creates an empty participant book for ticker.
func NewParticipantBook(tickerId domain.TickerId) *ParticipantBook {
	return &ParticipantBook{
		TickerId:   tickerId,
		Bids:       NewParticipantSide(true),
		Asks:       NewParticipantSide(false),
		byMarketId: make(map[domain.OrderId]*domain.ParticipantOrder),
	}
}

func (b *ParticipantBook) side(side domain.Side) *ParticipantSide {
	if side == domain.SideBuy {
		return b.Bids
	}
	return b.Asks
}

// Add inserts a newly learned order (from an ADD market update).
func (b *ParticipantBook) Add(order *domain.ParticipantOrder) {
	b.side(order.Side).Insert(order)
	b.byMarketId[order.MarketOrderId] = order
}

// Remove unlinks the order for marketOrderId (from a CANCEL market
// update, which the engine also emits for a fully filled resting order),
// returning it or nil if unknown.
func (b *ParticipantBook) Remove(marketOrderId domain.OrderId) *domain.ParticipantOrder {
	order, ok := b.byMarketId[marketOrderId]
	if !ok {
		return nil
	}
	b.side(order.Side).Remove(order)
	delete(b.byMarketId, marketOrderId)
	return order
}

// Get returns the resident order for marketOrderId without removing
// it, for MODIFY (quantity-reducing partial-fill) updates.
func (b *ParticipantBook) Get(marketOrderId domain.OrderId) *domain.ParticipantOrder {
	return b.byMarketId[marketOrderId]
}

// Clear discards every resident order, for CLEAR market updates and
// for resetting state before a snapshot round replaces it.
func (b *ParticipantBook) Clear() {
	b.Bids = NewParticipantSide(true)
	b.Asks = NewParticipantSide(false)
	b.byMarketId = make(map[domain.OrderId]*domain.ParticipantOrder)
}

// BBO derives the current best bid/offer.
func (b *ParticipantBook) BBO() domain.BBO {
	var bbo domain.BBO
	if bid := b.Bids.Best(); bid != nil {
		bbo.BidPrice = bid.Price
		bbo.BidQty = participantLevelQty(bid)
	}
	if ask := b.Asks.Best(); ask != nil {
		bbo.AskPrice = ask.Price
		bbo.AskQty = participantLevelQty(ask)
	}
	return bbo
}

func participantLevelQty(level *domain.ParticipantLevel) domain.Qty {
	if level.FirstOrder == nil {
		return 0
	}
	var qty domain.Qty
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
