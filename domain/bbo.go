package domain

// BBO is the best-bid-and-offer summary derived from the top of an
// instrument's book (spec.md §3), refreshed on every book mutation
// that touches the best level on either side.
type BBO struct {
	BidPrice Price
	BidQty   Qty
	AskPrice Price
	AskQty   Qty
}

// Crossed reports whether the book is (incorrectly) crossed: when both
// sides are populated, BidPrice must be below AskPrice. A side with zero
// quantity is empty (the books leave an empty side's fields at zero).
func (b BBO) Crossed() bool {
	if b.BidPrice == PriceInvalid || b.AskPrice == PriceInvalid || b.BidQty == 0 || b.AskQty == 0 {
		return false
	}
	return b.BidPrice >= b.AskPrice
}
