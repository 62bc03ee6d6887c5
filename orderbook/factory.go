package orderbook

// Backend selects which PriceTree implementation a Book's two sides
// use. Grounded on the teacher's PriceTreeType/NewPriceTreeWithType
// selector, trimmed to the two backends this repo actually carries.
type Backend int

const (
	// HashMapListBackend is the default: the mod-indexed slot array
	// spec.md §3 describes directly.
	HashMapListBackend Backend = iota

	// ShardedBackend trades a small per-operation log(m) cost for
	// tolerance of price ranges wider than MAX_PRICE_LEVELS.
	ShardedBackend
)

// shardBucketSize is the bucket width Sharded uses when selected
// through NewSide. Must stay a power of two no greater than 128 —
// see bucket.mask in sharded.go.
const shardBucketSize = 128

// NewSide builds one side (bids or asks) of a book using the
// requested backend. descending selects bid (highest-price-first) or
// ask (lowest-price-first) aggression order.
func NewSide(backend Backend, descending bool) PriceTree {
	switch backend {
	case ShardedBackend:
		return NewSharded(descending, shardBucketSize)
	case HashMapListBackend:
		fallthrough
	default:
		return NewHashMapList(descending)
	}
}
