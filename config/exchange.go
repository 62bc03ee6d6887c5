// Package config holds the exchange and participant processes'
// hard-coded startup defaults (spec.md §9's "Global mutable state in
// main" note: no config file or env var surface, one struct built
// once at process start).
package config

import "voltex/domain"

// ExchangeConfig is every hard-coded knob cmd/exchange needs. Grounded
// on original_source/exchange/exchange_main.cpp's local variables
// (order_gw_iface/order_gw_port, mkt_pub_iface, snap_pub_ip/port,
// inc_pub_ip/port) collected into one struct instead of function-local
// constants, matching the teacher's config-struct convention.
type ExchangeConfig struct {
	OrderGatewayAddr string

	IncrementalMulticastAddr string
	SnapshotMulticastAddr    string

	MetricsAddr   string
	DashboardAddr string

	IngressQueueCapacity int
	EgressQueueCapacity  int

	AuditKafkaBrokers []string
	AuditKafkaTopic   string

	TickerBackends [domain.MaxTickers]TickerBackend
}

// TickerBackend selects the resident price-tree implementation for one
// ticker's order book, mirroring orderbook.Backend without this
// package needing to import orderbook just to name a constant.
type TickerBackend int

const (
	BackendHashMapList TickerBackend = iota
	BackendSharded
)

// DefaultExchangeConfig returns the values spec.md §6/§193 and
// original_source/exchange/exchange_main.cpp hard-code: order-gateway
// on loopback:12345, incremental multicast at 233.252.14.3:20001,
// snapshot multicast at 233.252.14.1:20000.
func DefaultExchangeConfig() ExchangeConfig {
	return ExchangeConfig{
		OrderGatewayAddr:         "127.0.0.1:12345",
		IncrementalMulticastAddr: "233.252.14.3:20001",
		SnapshotMulticastAddr:    "233.252.14.1:20000",
		MetricsAddr:              ":9090",
		DashboardAddr:            ":8080",
		IngressQueueCapacity:     1 << 18,
		EgressQueueCapacity:      1 << 18,
		AuditKafkaBrokers:        []string{"localhost:9092"},
		AuditKafkaTopic:          "voltex.trades",
	}
}
