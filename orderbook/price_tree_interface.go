// Package orderbook implements the per-instrument price-time-priority
// limit order book (spec.md §3, §4.2): two intrusive doubly linked
// side structures plus the market-order-id and client-order-id lookup
// maps a book needs to service NEW and CANCEL requests.
package orderbook

import "voltex/domain"

// PriceTree is one side (bids or asks) of one instrument's book: price
// levels ordered by aggression, with access to the best (most
// aggressive) level. HashMapList links all of a side's levels into one
// intrusive circular doubly linked list; Sharded keeps a separate
// nil-terminated level list per price bucket under a tree of buckets.
//
// Two implementations are provided: HashMapList (the default, a
// literal rendering of spec.md §3's "hash map indexed by price mod
// MAX_PRICE_LEVELS") and Sharded (an alternate backend for price
// ranges that don't fit comfortably in MAX_PRICE_LEVELS slots).
type PriceTree interface {
	// Insert adds order to the tree, creating its price level if
	// necessary. The order must not already be linked into any tree.
	Insert(order *domain.Order)

	// Remove unlinks order from the tree. If it was the last order at
	// its level, the level itself is removed and, if it was best,
	// the next level is promoted.
	Remove(order *domain.Order)

	// Best returns the most aggressive price level, or nil if the
	// side is empty.
	Best() *domain.PriceLevel

	// Level returns the price level at price, or nil.
	Level(price domain.Price) *domain.PriceLevel

	// IsEmpty reports whether the side has no resting orders.
	IsEmpty() bool
}
