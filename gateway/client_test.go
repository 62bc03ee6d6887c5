package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"voltex/domain"
	"voltex/queue"
)

func TestClientSendsRequestAndReceivesResponse(t *testing.T) {
	srv, ingress, outResponses := newTestServer(t)

	outgoing := queue.New[domain.ClientRequest](64)
	responses := queue.New[domain.ClientResponse](64)
	client, err := Dial(srv.listener.Addr().String(), domain.ClientId(3), outgoing, responses, zap.NewNop().Sugar())
	require.NoError(t, err)
	client.Start()
	t.Cleanup(client.Stop)

	*outgoing.ReserveWrite() = domain.ClientRequest{
		Type: domain.ClientRequestNew, ClientId: 3, TickerId: 0,
		ClientOrderId: 1, Side: domain.SideBuy, Price: 100, Qty: 10,
	}
	outgoing.CommitWrite()

	require.Eventually(t, func() bool {
		_, ok := ingress.PeekRead()
		return ok
	}, time.Second, time.Millisecond, "server should have received and sequenced the client's request")
	ingress.CommitRead()

	*outResponses.ReserveWrite() = domain.ClientResponse{
		Type: domain.ClientResponseAccepted, ClientId: 3, TickerId: 0,
		ClientOrderId: 1, MarketOrderId: 55, Side: domain.SideBuy, Price: 100, LeavesQty: 10,
	}
	outResponses.CommitWrite()

	require.Eventually(t, func() bool {
		resp, ok := responses.PeekRead()
		if !ok {
			return false
		}
		defer responses.CommitRead()
		return resp.MarketOrderId == 55
	}, time.Second, time.Millisecond, "client should decode the server's response off the wire")
}

func TestClientAssignsIncrementingSequenceNumbers(t *testing.T) {
	srv, ingress, _ := newTestServer(t)

	outgoing := queue.New[domain.ClientRequest](64)
	responses := queue.New[domain.ClientResponse](64)
	client, err := Dial(srv.listener.Addr().String(), domain.ClientId(4), outgoing, responses, zap.NewNop().Sugar())
	require.NoError(t, err)
	client.Start()
	t.Cleanup(client.Stop)

	for i := 0; i < 3; i++ {
		*outgoing.ReserveWrite() = domain.ClientRequest{
			Type: domain.ClientRequestNew, ClientId: 4, TickerId: 0,
			ClientOrderId: domain.OrderId(i + 1), Side: domain.SideBuy, Price: 100, Qty: 10,
		}
		outgoing.CommitWrite()
	}

	require.Eventually(t, func() bool {
		return client.nextOutgoingSeq.Load() == 4
	}, time.Second, time.Millisecond)

	seen := 0
	for i := 0; i < 3; i++ {
		require.Eventually(t, func() bool {
			_, ok := ingress.PeekRead()
			return ok
		}, time.Second, time.Millisecond)
		ingress.CommitRead()
		seen++
	}
	require.Equal(t, 3, seen)
}
