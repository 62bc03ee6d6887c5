package matching

import (
	"testing"

	"github.com/stretchr/testify/require"

	"voltex/domain"
	"voltex/orderbook"
	"voltex/queue"
)

type exchangeHarness struct {
	exchange     *Exchange
	ingress      *queue.SPSC[domain.ClientRequest]
	outResponses *queue.SPSC[domain.ClientResponse]
	outUpdates   *queue.SPSC[domain.MarketUpdate]
}

func newHarness() *exchangeHarness {
	ingress := queue.New[domain.ClientRequest](64)
	outResponses := queue.New[domain.ClientResponse](64)
	outUpdates := queue.New[domain.MarketUpdate](64)
	exchange := NewExchange(ingress, outResponses, outUpdates)
	exchange.RegisterTicker(0, orderbook.HashMapListBackend)
	return &exchangeHarness{
		exchange:     exchange,
		ingress:      ingress,
		outResponses: outResponses,
		outUpdates:   outUpdates,
	}
}

func (h *exchangeHarness) submit(req domain.ClientRequest) {
	*h.ingress.ReserveWrite() = req
	h.ingress.CommitWrite()

	next, ok := h.ingress.PeekRead()
	if !ok {
		panic("submit: nothing to dispatch")
	}
	h.exchange.dispatch(next)
	h.ingress.CommitRead()
}

func (h *exchangeHarness) drainResponses() []domain.ClientResponse {
	var out []domain.ClientResponse
	for {
		r, ok := h.outResponses.PeekRead()
		if !ok {
			return out
		}
		out = append(out, *r)
		h.outResponses.CommitRead()
	}
}

func (h *exchangeHarness) drainUpdates() []domain.MarketUpdate {
	var out []domain.MarketUpdate
	for {
		u, ok := h.outUpdates.PeekRead()
		if !ok {
			return out
		}
		out = append(out, *u)
		h.outUpdates.CommitRead()
	}
}

func TestNewOrderRestsWhenBookEmpty(t *testing.T) {
	h := newHarness()
	h.submit(domain.ClientRequest{Type: domain.ClientRequestNew, ClientId: 1, TickerId: 0, ClientOrderId: 1, Side: domain.SideBuy, Price: 100, Qty: 10})

	responses := h.drainResponses()
	require.Len(t, responses, 1)
	require.Equal(t, domain.ClientResponseAccepted, responses[0].Type)
	require.Equal(t, domain.OrderId(1), responses[0].MarketOrderId)

	updates := h.drainUpdates()
	require.Len(t, updates, 1)
	require.Equal(t, domain.MarketUpdateAdd, updates[0].Type)
	require.Equal(t, domain.Qty(10), updates[0].Qty)
	require.Equal(t, domain.Priority(1), updates[0].Priority)
}

// TestCrossingOrderMatchesAndLeavesResidual reproduces spec.md's
// worked single-instrument-match example: A rests a buy, B's smaller
// sell crosses it, and both a maker and taker FILLED response fire.
func TestCrossingOrderMatchesAndLeavesResidual(t *testing.T) {
	h := newHarness()
	h.submit(domain.ClientRequest{Type: domain.ClientRequestNew, ClientId: 1, TickerId: 0, ClientOrderId: 1, Side: domain.SideBuy, Price: 100, Qty: 10})
	h.drainResponses()
	h.drainUpdates()

	h.submit(domain.ClientRequest{Type: domain.ClientRequestNew, ClientId: 2, TickerId: 0, ClientOrderId: 1, Side: domain.SideSell, Price: 99, Qty: 4})

	responses := h.drainResponses()
	require.Len(t, responses, 3)
	require.Equal(t, domain.ClientResponseAccepted, responses[0].Type)
	require.Equal(t, domain.OrderId(2), responses[0].MarketOrderId)

	require.Equal(t, domain.ClientResponseFilled, responses[1].Type)
	require.Equal(t, domain.ClientId(2), responses[1].ClientId)
	require.Equal(t, domain.Qty(4), responses[1].ExecQty)
	require.Equal(t, domain.Qty(0), responses[1].LeavesQty)

	require.Equal(t, domain.ClientResponseFilled, responses[2].Type)
	require.Equal(t, domain.ClientId(1), responses[2].ClientId)
	require.Equal(t, domain.Qty(4), responses[2].ExecQty)
	require.Equal(t, domain.Qty(6), responses[2].LeavesQty)

	updates := h.drainUpdates()
	require.Len(t, updates, 2)
	require.Equal(t, domain.MarketUpdateTrade, updates[0].Type)
	require.Equal(t, domain.Price(100), updates[0].Price)
	require.Equal(t, domain.Qty(4), updates[0].Qty)
	require.Equal(t, domain.MarketUpdateCancel, updates[1].Type)
	require.Equal(t, domain.OrderId(2), updates[1].OrderId)

	bbo := h.exchange.Engine(0).Book().BBO()
	require.Equal(t, domain.Price(100), bbo.BidPrice)
	require.Equal(t, domain.Qty(6), bbo.BidQty)
	require.Equal(t, domain.Price(0), bbo.AskPrice)
}

func TestCancelUnknownOrderIsRejected(t *testing.T) {
	h := newHarness()
	h.submit(domain.ClientRequest{Type: domain.ClientRequestCancel, ClientId: 1, TickerId: 0, ClientOrderId: 99})

	responses := h.drainResponses()
	require.Len(t, responses, 1)
	require.Equal(t, domain.ClientResponseCancelRejected, responses[0].Type)
}

func TestCancelOwnedOrderRemovesFromBook(t *testing.T) {
	h := newHarness()
	h.submit(domain.ClientRequest{Type: domain.ClientRequestNew, ClientId: 1, TickerId: 0, ClientOrderId: 5, Side: domain.SideBuy, Price: 100, Qty: 10})
	h.drainResponses()
	h.drainUpdates()

	h.submit(domain.ClientRequest{Type: domain.ClientRequestCancel, ClientId: 1, TickerId: 0, ClientOrderId: 5})

	responses := h.drainResponses()
	require.Len(t, responses, 1)
	require.Equal(t, domain.ClientResponseCanceled, responses[0].Type)

	updates := h.drainUpdates()
	require.Len(t, updates, 1)
	require.Equal(t, domain.MarketUpdateCancel, updates[0].Type)

	require.True(t, h.exchange.Engine(0).Book().Bids.IsEmpty())
}

func TestCancelByDifferentClientIsRejected(t *testing.T) {
	h := newHarness()
	h.submit(domain.ClientRequest{Type: domain.ClientRequestNew, ClientId: 1, TickerId: 0, ClientOrderId: 5, Side: domain.SideBuy, Price: 100, Qty: 10})
	h.drainResponses()
	h.drainUpdates()

	h.submit(domain.ClientRequest{Type: domain.ClientRequestCancel, ClientId: 2, TickerId: 0, ClientOrderId: 5})

	responses := h.drainResponses()
	require.Len(t, responses, 1)
	require.Equal(t, domain.ClientResponseCancelRejected, responses[0].Type)
}

func TestUnknownRequestTypePanics(t *testing.T) {
	h := newHarness()
	require.Panics(t, func() {
		h.submit(domain.ClientRequest{Type: domain.ClientRequestInvalid, TickerId: 0})
	})
}

func TestExchangeRegistersEnginePerTicker(t *testing.T) {
	ingress := queue.New[domain.ClientRequest](8)
	respOut := queue.New[domain.ClientResponse](8)
	updOut := queue.New[domain.MarketUpdate](8)

	exchange := NewExchange(ingress, respOut, updOut)
	exchange.RegisterTicker(0, orderbook.HashMapListBackend)
	exchange.RegisterTicker(1, orderbook.HashMapListBackend)

	require.NotNil(t, exchange.Engine(0))
	require.NotNil(t, exchange.Engine(1))
	require.Nil(t, exchange.Engine(2))
}

func TestDispatchUnknownTickerPanics(t *testing.T) {
	h := newHarness()
	require.Panics(t, func() {
		h.submit(domain.ClientRequest{Type: domain.ClientRequestNew, TickerId: 7})
	})
}
