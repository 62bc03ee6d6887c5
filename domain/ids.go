// Package domain holds the core value types and message shapes shared
// by the exchange and participant processes: instrument/client/order
// identifiers, the intrusive order-book node types, and the wire-level
// request/response/market-update DTOs.
package domain

import (
	"math"
	"strconv"
)

// TickerId identifies a trading instrument. TickerIdInvalid is the
// reserved sentinel (max of the integer width), never a live ticker.
type TickerId uint32

const TickerIdInvalid TickerId = math.MaxUint32

func (t TickerId) String() string {
	if t == TickerIdInvalid {
		return "INVALID"
	}
	return strconv.FormatUint(uint64(t), 10)
}

// ClientId identifies a market participant.
type ClientId uint32

const ClientIdInvalid ClientId = math.MaxUint32

func (c ClientId) String() string {
	if c == ClientIdInvalid {
		return "INVALID"
	}
	return strconv.FormatUint(uint64(c), 10)
}

// OrderId is used both for client-supplied order ids and for the
// exchange-assigned market order id; both share the same wire width.
type OrderId uint64

const OrderIdInvalid OrderId = math.MaxUint64

func (o OrderId) String() string {
	if o == OrderIdInvalid {
		return "INVALID"
	}
	return strconv.FormatUint(uint64(o), 10)
}

// Price is signed, in ticks; negative prices are permitted (spec.md §3).
type Price int64

const PriceInvalid Price = math.MaxInt64

func (p Price) String() string {
	if p == PriceInvalid {
		return "INVALID"
	}
	return strconv.FormatInt(int64(p), 10)
}

// Qty is an unsigned order/trade quantity.
type Qty uint32

const QtyInvalid Qty = math.MaxUint32

func (q Qty) String() string {
	if q == QtyInvalid {
		return "INVALID"
	}
	return strconv.FormatUint(uint64(q), 10)
}

// Priority is the FIFO position of a resting order within its price
// level, monotonically assigned on insertion.
type Priority uint64

const PriorityInvalid Priority = math.MaxUint64

func (p Priority) String() string {
	if p == PriorityInvalid {
		return "INVALID"
	}
	return strconv.FormatUint(uint64(p), 10)
}

// Nanos is a 64-bit signed nanosecond timestamp.
type Nanos int64

// Side is the order side.
type Side int8

const (
	SideInvalid Side = 0
	SideBuy     Side = 1
	SideSell    Side = -1
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	case SideInvalid:
		return "INVALID"
	}
	return "UNKNOWN"
}

// Capacity constants, spec.md §3.
const (
	MaxTickers       = 8
	MaxClients       = 256
	MaxOrderIds      = 1 << 20
	MaxPriceLevels   = 256
	MaxClientUpdates = 1 << 18
	MaxMarketUpdates = 1 << 18
)
