package orderbook

import "voltex/domain"

// HashMapList is the default PriceTree implementation: a literal
// rendering of spec.md §3's "hash map price→level, indexed by price
// mod MAX_PRICE_LEVELS, collision-free when prices fit the slot
// space" plus the intrusive circular doubly linked list of levels the
// same section requires for aggression ordering.
//
// Grounded on the teacher's HashMapListPriceTree, generalized from a
// Go map[int64]*PriceLevel_ to the literal mod-indexed slot array
// spec.md describes, and from a container/list FIFO per level to
// domain.Order's own intrusive Prev/Next links.
type HashMapList struct {
	slots      [domain.MaxPriceLevels]*domain.PriceLevel
	best       *domain.PriceLevel
	descending bool // true for bids (higher price first), false for asks
}

var _ PriceTree = (*HashMapList)(nil)

// NewHashMapList creates an empty side. descending selects bid
// (highest-price-first) or ask (lowest-price-first) aggression order.
func NewHashMapList(descending bool) *HashMapList {
	return &HashMapList{descending: descending}
}

func slot(price domain.Price) int {
	m := int64(price) % int64(domain.MaxPriceLevels)
	if m < 0 {
		m += int64(domain.MaxPriceLevels)
	}
	return int(m)
}

// Insert implements PriceTree.
func (t *HashMapList) Insert(order *domain.Order) {
	level := t.slots[slot(order.Price)]
	if level == nil || level.Price != order.Price {
		level = domain.NewPriceLevel(order.Side, order.Price)
		t.slots[slot(order.Price)] = level
		t.insertLevel(level)
	}
	appendOrder(level, order)
}

// Remove implements PriceTree.
func (t *HashMapList) Remove(order *domain.Order) {
	level := t.slots[slot(order.Price)]
	if level == nil || level.Price != order.Price {
		return
	}
	unlinkOrder(level, order)
	if level.FirstOrder == nil {
		t.removeLevel(level)
	}
}

// Best implements PriceTree.
func (t *HashMapList) Best() *domain.PriceLevel { return t.best }

// Level implements PriceTree.
func (t *HashMapList) Level(price domain.Price) *domain.PriceLevel {
	level := t.slots[slot(price)]
	if level == nil || level.Price != price {
		return nil
	}
	return level
}

// IsEmpty implements PriceTree.
func (t *HashMapList) IsEmpty() bool { return t.best == nil }

// isBetter reports whether price1 is more aggressive than price2 on
// this side: higher for bids, lower for asks (spec.md §4.2's
// tie-breaking rule, "strictly price-first" across levels).
func (t *HashMapList) isBetter(price1, price2 domain.Price) bool {
	if t.descending {
		return price1 > price2
	}
	return price1 < price2
}

// insertLevel splices a freshly created, order-less level into the
// side's intrusive circular list, promoting it to best if it is now
// the most aggressive level (spec.md §4.2's price-level maintenance
// rules). Worst case O(n) in the number of resident levels — rare,
// since MAX_PRICE_LEVELS bounds that count and new orders cluster near
// the best price.
func (t *HashMapList) insertLevel(newLevel *domain.PriceLevel) {
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

// linkBefore inserts newLevel into the circular list immediately
// before at.
func (t *HashMapList) linkBefore(at, newLevel *domain.PriceLevel) {
	prev := at.Prev
	newLevel.Prev = prev
	newLevel.Next = at
	prev.Next = newLevel
	at.Prev = newLevel
}

// removeLevel unlinks an emptied level from the circular list and
// clears its slot, promoting the next level to best if needed.
func (t *HashMapList) removeLevel(level *domain.PriceLevel) {
	delete_ := t.slots[slot(level.Price)]
	if delete_ == level {
		t.slots[slot(level.Price)] = nil
	}

	if level.Next == level {
		// last remaining level on this side
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

// appendOrder pushes order onto the tail of level's FIFO queue,
// assigning it as FirstOrder if the level was empty.
func appendOrder(level *domain.PriceLevel, order *domain.Order) {
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

// unlinkOrder removes order from level's FIFO queue.
func unlinkOrder(level *domain.PriceLevel, order *domain.Order) {
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
