package strategy

import (
	"math/rand"

	"go.uber.org/zap"

	"voltex/domain"
	"voltex/orderbook"
)

// OrderSender is the subset of TradeEngine a Strategy needs to act on
// the market: sending new orders and cancels. Grounded on
// original_source/trading/strategy/market_maker.h's dependency on
// OrderManager rather than TradeEngine directly — this module folds
// OrderManager's newOrder/cancelOrder responsibility into the engine
// itself, since order_manager.cpp's only other job (tracking one
// resting OMOrder per side per ticker to avoid duplicate quoting) is
// specific to the MAKER/TAKER algorithms this module doesn't
// implement.
type OrderSender interface {
	SendNewOrder(tickerId domain.TickerId, side domain.Side, price domain.Price, qty domain.Qty) domain.OrderId
	SendCancel(tickerId domain.TickerId, clientOrderId domain.OrderId)
}

// Strategy is the trading-algorithm contract TradeEngine drives.
// Grounded on original_source/trading/strategy/trading_engine.h's
// algoOnOrderBookUpdate_/algoOnTradeUpdate_/algoOnOrderUpdate_
// std::function callback triple — expressed here as interface methods
// instead of rebindable closures, the idiomatic Go substitute for a
// C++ std::function member reassigned once at construction time.
type Strategy interface {
	OnOrderBookUpdate(tickerId domain.TickerId, price domain.Price, side domain.Side, book *orderbook.ParticipantBook)
	OnTradeUpdate(update domain.MarketUpdate, book *orderbook.ParticipantBook)
	OnOrderUpdate(response domain.ClientResponse)
}

// RandomStrategy is spec.md §1's one real trading-strategy
// implementation: on every order book change it flips a coin and, if
// heads, sends a clip-sized order at the current best price on a
// random side, capped by TickerConfig.MaxOrderSize. It never manages
// a resting quote across updates and never touches its own
// cancel-tracking (op-manager-style order retention is the
// MAKER/TAKER algorithms' job, out of scope per spec.md §1). Grounded
// on original_source/trading/strategy/liquidity_taker.h's shape
// (react to a book update, decide, fire an order) with the actual
// aggression heuristic simplified to randomness rather than the
// feature-engine threshold the original computes.
type RandomStrategy struct {
	sender  OrderSender
	configs [domain.MaxTickers]TickerConfig
	logger  *zap.SugaredLogger
	rng     *rand.Rand
}

// NewRandomStrategy returns a strategy driven by seed for reproducible
// runs; cmd/participant seeds it with the participant's client id.
func NewRandomStrategy(sender OrderSender, configs [domain.MaxTickers]TickerConfig, seed int64, logger *zap.SugaredLogger) *RandomStrategy {
	return &RandomStrategy{sender: sender, configs: configs, logger: logger, rng: rand.New(rand.NewSource(seed))}
}

func (s *RandomStrategy) OnOrderBookUpdate(tickerId domain.TickerId, price domain.Price, side domain.Side, book *orderbook.ParticipantBook) {
	if s.rng.Intn(2) == 0 {
		return
	}
	cfg := s.configs[tickerId]
	if cfg.Clip == 0 {
		return
	}
	qty := cfg.Clip
	if cfg.MaxOrderSize != 0 && qty > cfg.MaxOrderSize {
		qty = cfg.MaxOrderSize
	}

	bbo := book.BBO()
	orderSide := domain.SideBuy
	orderPrice := bbo.BidPrice
	if s.rng.Intn(2) == 1 {
		orderSide = domain.SideSell
		orderPrice = bbo.AskPrice
	}
	if orderPrice == domain.PriceInvalid || orderPrice == 0 {
		return
	}

	s.logger.Debugw("strategy: sending random order", "ticker", tickerId, "side", orderSide, "price", orderPrice, "qty", qty)
	s.sender.SendNewOrder(tickerId, orderSide, orderPrice, qty)
}

func (s *RandomStrategy) OnTradeUpdate(update domain.MarketUpdate, book *orderbook.ParticipantBook) {
	// The random strategy never reacts to trade prints directly, only
	// to the resulting order book update.
}

func (s *RandomStrategy) OnOrderUpdate(response domain.ClientResponse) {
	s.logger.Debugw("strategy: order update", "response", response)
}

// MakerStrategy and TakerStrategy are named external collaborators
// (spec.md §1: "trading-strategy heuristics (market-maker,
// liquidity-taker)" are out of scope). These stubs satisfy Strategy
// so `cmd/participant`'s algo_type switch stays exhaustive, but they
// never place an order — a real implementation would live in its own
// module following original_source/trading/strategy/market_maker.cpp
// and liquidity_taker.cpp.
type MakerStrategy struct{ logger *zap.SugaredLogger }

func NewMakerStrategy(logger *zap.SugaredLogger) *MakerStrategy { return &MakerStrategy{logger: logger} }

func (s *MakerStrategy) OnOrderBookUpdate(domain.TickerId, domain.Price, domain.Side, *orderbook.ParticipantBook) {
}
func (s *MakerStrategy) OnTradeUpdate(domain.MarketUpdate, *orderbook.ParticipantBook) {}
func (s *MakerStrategy) OnOrderUpdate(domain.ClientResponse)                           {}

type TakerStrategy struct{ logger *zap.SugaredLogger }

func NewTakerStrategy(logger *zap.SugaredLogger) *TakerStrategy { return &TakerStrategy{logger: logger} }

func (s *TakerStrategy) OnOrderBookUpdate(domain.TickerId, domain.Price, domain.Side, *orderbook.ParticipantBook) {
}
func (s *TakerStrategy) OnTradeUpdate(domain.MarketUpdate, *orderbook.ParticipantBook) {}
func (s *TakerStrategy) OnOrderUpdate(domain.ClientResponse)                           {}
