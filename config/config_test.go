package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultExchangeConfigMatchesPublishedDefaults(t *testing.T) {
	cfg := DefaultExchangeConfig()
	require.Equal(t, "233.252.14.3:20001", cfg.IncrementalMulticastAddr)
	require.Equal(t, "233.252.14.1:20000", cfg.SnapshotMulticastAddr)
	require.Equal(t, "127.0.0.1:12345", cfg.OrderGatewayAddr)
	require.True(t, cfg.IngressQueueCapacity&(cfg.IngressQueueCapacity-1) == 0, "queue capacity must be a power of two")
}

func TestDefaultParticipantConfigDialsExchangeDefaults(t *testing.T) {
	exchange := DefaultExchangeConfig()
	participant := DefaultParticipantConfig()
	require.Equal(t, exchange.OrderGatewayAddr, participant.ExchangeGatewayAddr)
	require.Equal(t, exchange.IncrementalMulticastAddr, participant.IncrementalMulticastAddr)
	require.Equal(t, exchange.SnapshotMulticastAddr, participant.SnapshotMulticastAddr)
}
