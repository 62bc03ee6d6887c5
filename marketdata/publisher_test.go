package marketdata

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"voltex/domain"
	"voltex/queue"
	"voltex/wire"
)

func listenUDP(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestPublisherAssignsIncrementingSeqAndForwards(t *testing.T) {
	listener := listenUDP(t)
	engineUpdates := queue.New[domain.MarketUpdate](16)
	toSnapshot := queue.New[wire.MarketUpdate](16)
	logger := zap.NewNop().Sugar()

	pub, err := NewPublisher(engineUpdates, toSnapshot, listener.LocalAddr().String(), logger)
	require.NoError(t, err)
	pub.Start()
	t.Cleanup(pub.Stop)

	for i := 0; i < 2; i++ {
		*engineUpdates.ReserveWrite() = domain.MarketUpdate{Type: domain.MarketUpdateAdd, TickerId: 0, OrderId: domain.OrderId(i + 1)}
		engineUpdates.CommitWrite()
	}

	listener.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, wire.MarketUpdateSize)
	n, _, err := listener.ReadFromUDP(buf)
	require.NoError(t, err)
	require.Equal(t, wire.MarketUpdateSize, n)

	require.Eventually(t, func() bool {
		_, ok := toSnapshot.PeekRead()
		return ok
	}, time.Second, time.Millisecond)
	forwarded, ok := toSnapshot.PeekRead()
	require.True(t, ok)
	require.Equal(t, domain.SeqNum(1), forwarded.Seq)
	toSnapshot.CommitRead()

	require.Eventually(t, func() bool {
		_, ok := toSnapshot.PeekRead()
		return ok
	}, time.Second, time.Millisecond)
	forwarded, ok = toSnapshot.PeekRead()
	require.True(t, ok)
	require.Equal(t, domain.SeqNum(2), forwarded.Seq)
}

type recordingTradeSink struct {
	mu    sync.Mutex
	calls []domain.TickerId
}

func (s *recordingTradeSink) Publish(tickerId domain.TickerId, price domain.Price, qty domain.Qty, side domain.Side, atNanos domain.Nanos) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, tickerId)
}

func (s *recordingTradeSink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func TestPublisherForwardsTradesToTradeSink(t *testing.T) {
	listener := listenUDP(t)
	engineUpdates := queue.New[domain.MarketUpdate](16)
	toSnapshot := queue.New[wire.MarketUpdate](16)

	pub, err := NewPublisher(engineUpdates, toSnapshot, listener.LocalAddr().String(), zap.NewNop().Sugar())
	require.NoError(t, err)
	sink := &recordingTradeSink{}
	pub.SetTradeSink(sink)
	pub.Start()
	t.Cleanup(pub.Stop)

	*engineUpdates.ReserveWrite() = domain.MarketUpdate{Type: domain.MarketUpdateAdd, TickerId: 2, OrderId: 1}
	engineUpdates.CommitWrite()
	*engineUpdates.ReserveWrite() = domain.MarketUpdate{Type: domain.MarketUpdateTrade, TickerId: 2, Qty: 5, Price: 100}
	engineUpdates.CommitWrite()

	require.Eventually(t, func() bool { return sink.len() == 1 }, time.Second, time.Millisecond)
	sink.mu.Lock()
	require.Equal(t, domain.TickerId(2), sink.calls[0])
	sink.mu.Unlock()
}
