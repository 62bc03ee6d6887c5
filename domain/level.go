package domain

import "sync"

// PriceLevel is ORDERS_AT_PRICE (spec.md §3): all orders resting at one
// price on one side of one instrument's book. Prev/Next weave levels on
// one side into an intrusive circular doubly linked list ordered by
// price aggression (bids descending, asks ascending).
type PriceLevel struct {
	Side       Side
	Price      Price
	FirstOrder *Order

	Prev *PriceLevel
	Next *PriceLevel
}

var priceLevelPool = sync.Pool{
	New: func() any { return &PriceLevel{} },
}

func NewPriceLevel(side Side, price Price) *PriceLevel {
	l := priceLevelPool.Get().(*PriceLevel)
	l.Side = side
	l.Price = price
	l.FirstOrder = nil
	l.Prev = nil
	l.Next = nil
	return l
}

func (l *PriceLevel) Release() {
	*l = PriceLevel{}
	priceLevelPool.Put(l)
}

// ParticipantLevel mirrors PriceLevel for the participant-side book.
type ParticipantLevel struct {
	Side       Side
	Price      Price
	FirstOrder *ParticipantOrder

	Prev *ParticipantLevel
	Next *ParticipantLevel
}

var participantLevelPool = sync.Pool{
	New: func() any { return &ParticipantLevel{} },
}

func NewParticipantLevel(side Side, price Price) *ParticipantLevel {
	l := participantLevelPool.Get().(*ParticipantLevel)
	l.Side = side
	l.Price = price
	l.FirstOrder = nil
	l.Prev = nil
	l.Next = nil
	return l
}

func (l *ParticipantLevel) Release() {
	*l = ParticipantLevel{}
	participantLevelPool.Put(l)
}
