package strategy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"voltex/domain"
)

func TestParseAlgoType(t *testing.T) {
	algo, err := ParseAlgoType("RANDOM")
	require.NoError(t, err)
	require.Equal(t, AlgoRandom, algo)

	_, err = ParseAlgoType("BOGUS")
	require.Error(t, err)
}

func TestParseTickerConfigsSingleTicker(t *testing.T) {
	configs, err := ParseTickerConfigs([]string{"100", "0.5", "1000", "5000", "250.0"})
	require.NoError(t, err)
	require.Equal(t, domain.Qty(100), configs[0].Clip)
	require.Equal(t, 0.5, configs[0].Threshold)
	require.Equal(t, domain.Qty(1000), configs[0].MaxOrderSize)
	require.Equal(t, domain.Qty(5000), configs[0].MaxPosition)
	require.Equal(t, 250.0, configs[0].MaxLoss)
	require.Equal(t, domain.Qty(0), configs[1].Clip)
}

func TestParseTickerConfigsRejectsPartialGroup(t *testing.T) {
	_, err := ParseTickerConfigs([]string{"100", "0.5", "1000", "5000"})
	require.Error(t, err)
}

func TestParseTickerConfigsRejectsTooManyTickers(t *testing.T) {
	args := make([]string, 0, (domain.MaxTickers+1)*5)
	for i := 0; i < domain.MaxTickers+1; i++ {
		args = append(args, "1", "0.1", "10", "100", "5.0")
	}
	_, err := ParseTickerConfigs(args)
	require.Error(t, err)
}
