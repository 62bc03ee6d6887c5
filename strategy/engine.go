package strategy

import (
	"runtime"
	"sync/atomic"

	"go.uber.org/zap"

	"voltex/domain"
	"voltex/orderbook"
	"voltex/queue"
)

// TradeEngine is the participant process's own single-threaded
// run loop: it drains the order-gateway's response queue and the
// market-data consumer's update queue, maintains one ParticipantBook
// per ticker, and drives the configured Strategy off both streams.
// Grounded on
// original_source/trading/strategy/trading_engine.h/.cpp's TradeEngine
// class — run()'s two drain loops, onOrderBookUpdate/onTradeUpdate/
// onOrderUpdate dispatch, and ticker_order_book_ array are carried
// over near verbatim; position_keeper_/risk_manager_/feature_engine_
// are dropped since position/PnL bookkeeping and risk-check numeric
// policies are named out of scope (spec.md §1).
type TradeEngine struct {
	clientId domain.ClientId
	strategy Strategy

	responses         *queue.SPSC[domain.ClientResponse]
	marketUpdates     *queue.SPSC[domain.MarketUpdate]
	outgoing          *queue.SPSC[domain.ClientRequest]
	books             [domain.MaxTickers]*orderbook.ParticipantBook
	nextClientOrderId atomic.Uint64

	logger *zap.SugaredLogger
	run    atomic.Bool
}

// NewTradeEngine wires a strategy to the three queues connecting it to
// the order gateway (outgoing/responses) and the market-data consumer
// (marketUpdates).
func NewTradeEngine(clientId domain.ClientId, responses *queue.SPSC[domain.ClientResponse], marketUpdates *queue.SPSC[domain.MarketUpdate], outgoing *queue.SPSC[domain.ClientRequest], logger *zap.SugaredLogger) *TradeEngine {
	e := &TradeEngine{
		clientId:      clientId,
		responses:     responses,
		marketUpdates: marketUpdates,
		outgoing:      outgoing,
		logger:        logger,
	}
	for i := range e.books {
		e.books[i] = orderbook.NewParticipantBook(domain.TickerId(i))
	}
	e.nextClientOrderId.Store(1)
	return e
}

// SetStrategy binds the trading algorithm this engine drives. Done
// as a separate step from construction because most Strategy
// implementations need an OrderSender (this engine) to build
// themselves against — mirroring the original's two-phase
// construct-then-bind-callbacks sequence in TradeEngine's constructor.
func (e *TradeEngine) SetStrategy(s Strategy) { e.strategy = s }

// SendNewOrder implements OrderSender: it stamps a fresh client-order
// id and publishes a NEW request to the order gateway.
func (e *TradeEngine) SendNewOrder(tickerId domain.TickerId, side domain.Side, price domain.Price, qty domain.Qty) domain.OrderId {
	clientOrderId := domain.OrderId(e.nextClientOrderId.Add(1) - 1)
	req := domain.ClientRequest{
		Type:          domain.ClientRequestNew,
		ClientId:      e.clientId,
		TickerId:      tickerId,
		ClientOrderId: clientOrderId,
		Side:          side,
		Price:         price,
		Qty:           qty,
	}
	*e.outgoing.ReserveWrite() = req
	e.outgoing.CommitWrite()
	return clientOrderId
}

// SendCancel implements OrderSender.
func (e *TradeEngine) SendCancel(tickerId domain.TickerId, clientOrderId domain.OrderId) {
	req := domain.ClientRequest{
		Type:          domain.ClientRequestCancel,
		ClientId:      e.clientId,
		TickerId:      tickerId,
		ClientOrderId: clientOrderId,
	}
	*e.outgoing.ReserveWrite() = req
	e.outgoing.CommitWrite()
}

// Start launches the run loop on its own OS thread.
func (e *TradeEngine) Start() {
	e.run.Store(true)
	go e.runLoop()
}

// Stop signals the run loop to exit after its current pass.
func (e *TradeEngine) Stop() { e.run.Store(false) }

func (e *TradeEngine) runLoop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for e.run.Load() {
		for {
			response, ok := e.responses.PeekRead()
			if !ok {
				break
			}
			e.onOrderUpdate(*response)
			e.responses.CommitRead()
		}
		for {
			update, ok := e.marketUpdates.PeekRead()
			if !ok {
				break
			}
			e.onMarketUpdate(*update)
			e.marketUpdates.CommitRead()
		}
	}
}

func (e *TradeEngine) onMarketUpdate(update domain.MarketUpdate) {
	if int(update.TickerId) >= domain.MaxTickers {
		e.logger.Errorw("strategy: market update for unknown ticker", "update", update)
		return
	}
	book := e.books[update.TickerId]

	switch update.Type {
	case domain.MarketUpdateAdd:
		order := domain.NewParticipantOrder(update.OrderId, update.TickerId, update.Side, update.Price, update.Qty, update.Priority)
		book.Add(order)
		e.onOrderBookUpdate(update.TickerId, update.Price, update.Side, book)
	case domain.MarketUpdateModify:
		if order := book.Get(update.OrderId); order != nil {
			order.Qty = update.Qty
			order.Price = update.Price
		}
		e.onOrderBookUpdate(update.TickerId, update.Price, update.Side, book)
	case domain.MarketUpdateCancel:
		if order := book.Remove(update.OrderId); order != nil {
			order.Release()
		}
		e.onOrderBookUpdate(update.TickerId, update.Price, update.Side, book)
	case domain.MarketUpdateTrade:
		e.strategy.OnTradeUpdate(update, book)
	case domain.MarketUpdateClear:
		book.Clear()
	case domain.MarketUpdateSnapshotStart, domain.MarketUpdateSnapshotEnd:
		// Framing markers only; the consumer package already stripped
		// these out of the replay it hands to this queue in the normal
		// case, but a defensive no-op costs nothing if one leaks through.
	}
}

func (e *TradeEngine) onOrderBookUpdate(tickerId domain.TickerId, price domain.Price, side domain.Side, book *orderbook.ParticipantBook) {
	if e.strategy != nil {
		e.strategy.OnOrderBookUpdate(tickerId, price, side, book)
	}
}

func (e *TradeEngine) onOrderUpdate(response domain.ClientResponse) {
	if e.strategy != nil {
		e.strategy.OnOrderUpdate(response)
	}
}
