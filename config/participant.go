package config

// ParticipantConfig is every hard-coded knob cmd/participant needs
// beyond what arrives on the CLI (client_id, algo_type, ticker
// configs — parsed by strategy.ParseTickerConfigs). Grounded on
// original_source/trading/trading_main.cpp's local variables for the
// gateway/market-data addresses it dials.
type ParticipantConfig struct {
	ExchangeGatewayAddr string

	IncrementalMulticastAddr string
	SnapshotMulticastAddr    string

	ResponseQueueCapacity     int
	MarketUpdateQueueCapacity int
	OutgoingQueueCapacity     int
}

// DefaultParticipantConfig points at the same addresses
// DefaultExchangeConfig listens on, matching a single-host dev setup
// the way original_source/trading/trading_main.cpp dials "127.0.0.1"
// and the exchange's hard-coded multicast groups directly.
func DefaultParticipantConfig() ParticipantConfig {
	return ParticipantConfig{
		ExchangeGatewayAddr:       "127.0.0.1:12345",
		IncrementalMulticastAddr:  "233.252.14.3:20001",
		SnapshotMulticastAddr:     "233.252.14.1:20000",
		ResponseQueueCapacity:     1 << 12,
		MarketUpdateQueueCapacity: 1 << 12,
		OutgoingQueueCapacity:     1 << 12,
	}
}
