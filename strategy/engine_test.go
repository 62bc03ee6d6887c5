package strategy

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"voltex/domain"
	"voltex/queue"
)

func newTestEngine() (*TradeEngine, *queue.SPSC[domain.ClientResponse], *queue.SPSC[domain.MarketUpdate], *queue.SPSC[domain.ClientRequest]) {
	responses := queue.New[domain.ClientResponse](16)
	updates := queue.New[domain.MarketUpdate](16)
	outgoing := queue.New[domain.ClientRequest](16)
	e := NewTradeEngine(1, responses, updates, outgoing, zap.NewNop().Sugar())
	return e, responses, updates, outgoing
}

func TestOnMarketUpdateAddInsertsIntoParticipantBook(t *testing.T) {
	e, _, _, _ := newTestEngine()
	e.onMarketUpdate(domain.MarketUpdate{Type: domain.MarketUpdateAdd, TickerId: 0, OrderId: 1, Side: domain.SideBuy, Price: 100, Qty: 10})

	bbo := e.books[0].BBO()
	require.Equal(t, domain.Price(100), bbo.BidPrice)
	require.Equal(t, domain.Qty(10), bbo.BidQty)
}

func TestOnMarketUpdateCancelRemovesFromParticipantBook(t *testing.T) {
	e, _, _, _ := newTestEngine()
	e.onMarketUpdate(domain.MarketUpdate{Type: domain.MarketUpdateAdd, TickerId: 0, OrderId: 1, Side: domain.SideBuy, Price: 100, Qty: 10})
	e.onMarketUpdate(domain.MarketUpdate{Type: domain.MarketUpdateCancel, TickerId: 0, OrderId: 1, Side: domain.SideBuy})

	require.Nil(t, e.books[0].Get(1))
}

func TestOnMarketUpdateClearEmptiesBook(t *testing.T) {
	e, _, _, _ := newTestEngine()
	e.onMarketUpdate(domain.MarketUpdate{Type: domain.MarketUpdateAdd, TickerId: 0, OrderId: 1, Side: domain.SideBuy, Price: 100, Qty: 10})
	e.onMarketUpdate(domain.MarketUpdate{Type: domain.MarketUpdateClear, TickerId: 0})

	bbo := e.books[0].BBO()
	require.Equal(t, domain.Price(0), bbo.BidPrice)
}

func TestSendNewOrderStampsIncrementingClientOrderIds(t *testing.T) {
	e, _, _, outgoing := newTestEngine()

	first := e.SendNewOrder(0, domain.SideBuy, 100, 10)
	second := e.SendNewOrder(0, domain.SideSell, 101, 5)
	require.NotEqual(t, first, second)
	require.Equal(t, first+1, second)

	req, ok := outgoing.PeekRead()
	require.True(t, ok)
	require.Equal(t, domain.ClientRequestNew, req.Type)
	require.Equal(t, domain.ClientId(1), req.ClientId)
	require.Equal(t, first, req.ClientOrderId)
}

func TestSendCancelPublishesCancelRequest(t *testing.T) {
	e, _, _, outgoing := newTestEngine()
	e.SendCancel(0, 42)

	req, ok := outgoing.PeekRead()
	require.True(t, ok)
	require.Equal(t, domain.ClientRequestCancel, req.Type)
	require.Equal(t, domain.OrderId(42), req.ClientOrderId)
}

func TestOnOrderUpdateForwardsToStrategyWithoutPanicking(t *testing.T) {
	e, _, _, _ := newTestEngine()
	var configs [domain.MaxTickers]TickerConfig
	configs[0] = TickerConfig{Clip: 10, MaxOrderSize: 10}
	random := NewRandomStrategy(e, configs, 1, zap.NewNop().Sugar())
	e.SetStrategy(random)

	e.onOrderUpdate(domain.ClientResponse{Type: domain.ClientResponseFilled, ClientId: 1})
}

func TestOnMarketUpdateAddDrivesRandomStrategyWithoutPanicking(t *testing.T) {
	e, _, _, _ := newTestEngine()
	var configs [domain.MaxTickers]TickerConfig
	configs[0] = TickerConfig{Clip: 10, MaxOrderSize: 10}
	e.SetStrategy(NewRandomStrategy(e, configs, 1, zap.NewNop().Sugar()))

	e.onMarketUpdate(domain.MarketUpdate{Type: domain.MarketUpdateAdd, TickerId: 0, OrderId: 1, Side: domain.SideBuy, Price: 100, Qty: 10})
	e.onMarketUpdate(domain.MarketUpdate{Type: domain.MarketUpdateAdd, TickerId: 0, OrderId: 2, Side: domain.SideSell, Price: 101, Qty: 10})
}
