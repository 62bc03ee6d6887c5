package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"voltex/domain"
)

func TestClientRequestRoundTrip(t *testing.T) {
	msg := ClientRequest{
		Seq: 7,
		Request: domain.ClientRequest{
			Type:          domain.ClientRequestNew,
			ClientId:      3,
			TickerId:      1,
			ClientOrderId: 42,
			Side:          domain.SideBuy,
			Price:         10050,
			Qty:           25,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeClientRequest(&buf, msg))
	require.Equal(t, ClientRequestSize, buf.Len())

	got, err := DecodeClientRequest(&buf)
	require.NoError(t, err)
	require.Equal(t, msg, got)
}

func TestClientResponseRoundTrip(t *testing.T) {
	msg := ClientResponse{
		Seq: 1,
		Response: domain.ClientResponse{
			Type:          domain.ClientResponseFilled,
			ClientId:      3,
			TickerId:      1,
			ClientOrderId: 42,
			MarketOrderId: 99,
			Side:          domain.SideBuy,
			Price:         10050,
			ExecQty:       10,
			LeavesQty:     15,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeClientResponse(&buf, msg))

	got, err := DecodeClientResponse(&buf)
	require.NoError(t, err)
	require.Equal(t, msg, got)
}

func TestMarketUpdateRoundTrip(t *testing.T) {
	msg := MarketUpdate{
		Seq: 100,
		Update: domain.MarketUpdate{
			Type:     domain.MarketUpdateAdd,
			OrderId:  99,
			TickerId: 1,
			Side:     domain.SideSell,
			Price:    10100,
			Qty:      5,
			Priority: 3,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeMarketUpdate(&buf, msg))

	got, err := DecodeMarketUpdate(&buf)
	require.NoError(t, err)
	require.Equal(t, msg, got)
}

func TestDecodeShortBufferErrors(t *testing.T) {
	_, err := DecodeClientRequest(bytes.NewReader([]byte{1, 2, 3}))
	require.Error(t, err)
}
