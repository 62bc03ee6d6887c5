package strategy

import (
	"fmt"
	"strconv"

	"voltex/domain"
)

// AlgoType selects which Strategy implementation a participant process
// runs, per spec.md §6's `algo_type ∈ {RANDOM, MAKER, TAKER}`.
type AlgoType uint8

const (
	AlgoRandom AlgoType = iota
	AlgoMaker
	AlgoTaker
)

func (t AlgoType) String() string {
	switch t {
	case AlgoRandom:
		return "RANDOM"
	case AlgoMaker:
		return "MAKER"
	case AlgoTaker:
		return "TAKER"
	}
	return "UNKNOWN"
}

// ParseAlgoType parses the CLI algo_type token.
func ParseAlgoType(s string) (AlgoType, error) {
	switch s {
	case "RANDOM":
		return AlgoRandom, nil
	case "MAKER":
		return AlgoMaker, nil
	case "TAKER":
		return AlgoTaker, nil
	}
	return 0, fmt.Errorf("strategy: unknown algo_type %q", s)
}

// TickerConfig is one instrument's five numeric parameters from the
// participant CLI (spec.md §6), TradeEngineCfgHashMap's per-ticker
// entry in the original. RiskManager itself — the component that
// would enforce MaxPosition/MaxLoss against live P&L — is named out
// of scope in spec.md §1 ("risk-check numeric policies,
// position/PnL bookkeeping ... external collaborators"); these
// fields are still threaded through so a real risk manager could be
// wired in later, and RandomStrategy applies MaxOrderSize itself as
// the one bound it can enforce without a position keeper.
type TickerConfig struct {
	Clip         domain.Qty
	Threshold    float64
	MaxOrderSize domain.Qty
	MaxPosition  domain.Qty
	MaxLoss      float64
}

// ParseTickerConfigs consumes the CLI's repeated 5-tuple of
// `<clip> <thresh> <max_order_size> <max_pos> <max_loss>` groups,
// one per ticker in ascending TickerId order, per spec.md §6.
func ParseTickerConfigs(args []string) ([domain.MaxTickers]TickerConfig, error) {
	var configs [domain.MaxTickers]TickerConfig
	if len(args)%5 != 0 {
		return configs, fmt.Errorf("strategy: expected a multiple of 5 ticker config arguments, got %d", len(args))
	}
	tickerId := 0
	for i := 0; i+5 <= len(args); i += 5 {
		if tickerId >= domain.MaxTickers {
			return configs, fmt.Errorf("strategy: too many ticker configs, max is %d", domain.MaxTickers)
		}
		clip, err := strconv.ParseUint(args[i], 10, 32)
		if err != nil {
			return configs, fmt.Errorf("strategy: invalid clip %q: %w", args[i], err)
		}
		thresh, err := strconv.ParseFloat(args[i+1], 64)
		if err != nil {
			return configs, fmt.Errorf("strategy: invalid thresh %q: %w", args[i+1], err)
		}
		maxOrderSize, err := strconv.ParseUint(args[i+2], 10, 32)
		if err != nil {
			return configs, fmt.Errorf("strategy: invalid max_order_size %q: %w", args[i+2], err)
		}
		maxPos, err := strconv.ParseUint(args[i+3], 10, 32)
		if err != nil {
			return configs, fmt.Errorf("strategy: invalid max_pos %q: %w", args[i+3], err)
		}
		maxLoss, err := strconv.ParseFloat(args[i+4], 64)
		if err != nil {
			return configs, fmt.Errorf("strategy: invalid max_loss %q: %w", args[i+4], err)
		}
		configs[tickerId] = TickerConfig{
			Clip:         domain.Qty(clip),
			Threshold:    thresh,
			MaxOrderSize: domain.Qty(maxOrderSize),
			MaxPosition:  domain.Qty(maxPos),
			MaxLoss:      maxLoss,
		}
		tickerId++
	}
	return configs, nil
}
