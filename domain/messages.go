package domain

import "fmt"

// ClientRequestType distinguishes a new order from a cancel.
type ClientRequestType uint8

const (
	ClientRequestInvalid ClientRequestType = 0
	ClientRequestNew     ClientRequestType = 1
	ClientRequestCancel  ClientRequestType = 2
)

func (t ClientRequestType) String() string {
	switch t {
	case ClientRequestNew:
		return "NEW"
	case ClientRequestCancel:
		return "CANCEL"
	case ClientRequestInvalid:
		return "INVALID"
	}
	return "UNKNOWN"
}

// ClientRequest is the internal representation the matching engine
// consumes (MEClientRequest, spec.md §3). It is not necessarily the
// exact wire layout the client sent; package wire handles that framing.
type ClientRequest struct {
	Type          ClientRequestType
	ClientId      ClientId
	TickerId      TickerId
	ClientOrderId OrderId
	Side          Side
	Price         Price
	Qty           Qty
}

func (r ClientRequest) String() string {
	return fmt.Sprintf("ClientRequest[type:%s client:%s ticker:%s coid:%s side:%s price:%s qty:%s]",
		r.Type, r.ClientId, r.TickerId, r.ClientOrderId, r.Side, r.Price, r.Qty)
}

// ClientResponseType enumerates the outcomes the matching engine can
// report back to a submitting client.
type ClientResponseType uint8

const (
	ClientResponseInvalid        ClientResponseType = 0
	ClientResponseAccepted       ClientResponseType = 1
	ClientResponseCanceled       ClientResponseType = 2
	ClientResponseFilled         ClientResponseType = 3
	ClientResponseCancelRejected ClientResponseType = 4
)

func (t ClientResponseType) String() string {
	switch t {
	case ClientResponseAccepted:
		return "ACCEPTED"
	case ClientResponseCanceled:
		return "CANCELED"
	case ClientResponseFilled:
		return "FILLED"
	case ClientResponseCancelRejected:
		return "CANCEL_REJECTED"
	case ClientResponseInvalid:
		return "INVALID"
	}
	return "UNKNOWN"
}

// ClientResponse is the matching engine's reply to the submitter of a
// request (spec.md §3, MEClientResponse).
type ClientResponse struct {
	Type          ClientResponseType
	ClientId      ClientId
	TickerId      TickerId
	ClientOrderId OrderId
	MarketOrderId OrderId
	Side          Side
	Price         Price
	ExecQty       Qty
	LeavesQty     Qty
}

func (r ClientResponse) String() string {
	return fmt.Sprintf("ClientResponse[type:%s client:%s ticker:%s coid:%s moid:%s side:%s exec:%s leaves:%s price:%s]",
		r.Type, r.ClientId, r.TickerId, r.ClientOrderId, r.MarketOrderId, r.Side, r.ExecQty, r.LeavesQty, r.Price)
}

// MarketUpdateType enumerates the book-mutation and snapshot-framing
// events the matching engine and snapshot synthesizer publish.
type MarketUpdateType uint8

const (
	MarketUpdateInvalid       MarketUpdateType = 0
	MarketUpdateAdd           MarketUpdateType = 1
	MarketUpdateModify        MarketUpdateType = 2
	MarketUpdateCancel        MarketUpdateType = 3
	MarketUpdateTrade         MarketUpdateType = 4
	MarketUpdateClear         MarketUpdateType = 5
	MarketUpdateSnapshotStart MarketUpdateType = 6
	MarketUpdateSnapshotEnd   MarketUpdateType = 7
)

func (t MarketUpdateType) String() string {
	switch t {
	case MarketUpdateAdd:
		return "ADD"
	case MarketUpdateModify:
		return "MODIFY"
	case MarketUpdateCancel:
		return "CANCEL"
	case MarketUpdateTrade:
		return "TRADE"
	case MarketUpdateClear:
		return "CLEAR"
	case MarketUpdateSnapshotStart:
		return "SNAPSHOT_START"
	case MarketUpdateSnapshotEnd:
		return "SNAPSHOT_END"
	case MarketUpdateInvalid:
		return "INVALID"
	}
	return "UNKNOWN"
}

// MarketUpdate is the matching engine's public book-mutation event
// (spec.md §3, MEMarketUpdate). On SNAPSHOT_START/SNAPSHOT_END,
// OrderId is overloaded to carry the incremental sequence number the
// snapshot round aligns with (spec.md §9's "overloaded field" note) —
// callers must not read it as an order identifier in that case.
type MarketUpdate struct {
	Type     MarketUpdateType
	OrderId  OrderId
	TickerId TickerId
	Side     Side
	Price    Price
	Qty      Qty
	Priority Priority
}

func (u MarketUpdate) String() string {
	return fmt.Sprintf("MarketUpdate[type:%s ticker:%s oid:%s side:%s price:%s qty:%s priority:%s]",
		u.Type, u.TickerId, u.OrderId, u.Side, u.Price, u.Qty, u.Priority)
}

// SeqNum is the 64-bit wire sequence number that prefixes every
// framed record (spec.md §6): per-client on the order-gateway wire,
// global on the incremental market-data wire, per-round on snapshot.
type SeqNum uint64
