package consumer

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"voltex/domain"
	"voltex/queue"
	"voltex/wire"
)

func newTestConsumer() (*Consumer, *queue.SPSC[domain.MarketUpdate]) {
	toBook := queue.New[domain.MarketUpdate](64)
	// The snapshot address is deliberately not a multicast address: it
	// only needs to exist so enterRecoveryLocked's dial attempt fails
	// safely (logged, not fatal) without opening a real socket the
	// test would then have to police the lifetime of.
	c := NewConsumer("233.252.14.3:20001", "127.0.0.1:0", toBook, zap.NewNop().Sugar())
	c.run.Store(true)
	return c, toBook
}

func TestHandleIncrementalForwardsInOrderUpdates(t *testing.T) {
	c, toBook := newTestConsumer()

	c.handleIncremental(wire.MarketUpdate{Seq: 1, Update: domain.MarketUpdate{Type: domain.MarketUpdateAdd, OrderId: 1}})
	c.handleIncremental(wire.MarketUpdate{Seq: 2, Update: domain.MarketUpdate{Type: domain.MarketUpdateAdd, OrderId: 2}})

	require.False(t, c.inRecovery)
	require.Equal(t, domain.SeqNum(3), c.nextExpectedSeq)

	first, ok := toBook.PeekRead()
	require.True(t, ok)
	require.Equal(t, domain.OrderId(1), first.OrderId)
	toBook.CommitRead()
	second, ok := toBook.PeekRead()
	require.True(t, ok)
	require.Equal(t, domain.OrderId(2), second.OrderId)
}

func TestHandleIncrementalEntersRecoveryOnGap(t *testing.T) {
	c, toBook := newTestConsumer()

	c.handleIncremental(wire.MarketUpdate{Seq: 1, Update: domain.MarketUpdate{Type: domain.MarketUpdateAdd, OrderId: 1}})
	toBook.CommitRead()

	// seq 2 never arrives; seq 3 shows up next.
	c.handleIncremental(wire.MarketUpdate{Seq: 3, Update: domain.MarketUpdate{Type: domain.MarketUpdateAdd, OrderId: 3}})

	require.True(t, c.inRecovery)
	// nextExpectedSeq is untouched until recovery completes.
	require.Equal(t, domain.SeqNum(2), c.nextExpectedSeq)

	_, buffered := c.buffers.inc.get(3)
	require.True(t, buffered)
}

func TestHandleIncrementalWhileInRecoveryKeepsBuffering(t *testing.T) {
	c, _ := newTestConsumer()
	c.inRecovery = true

	c.handleIncremental(wire.MarketUpdate{Seq: 1, Update: domain.MarketUpdate{Type: domain.MarketUpdateAdd, OrderId: 1}})
	c.handleIncremental(wire.MarketUpdate{Seq: 2, Update: domain.MarketUpdate{Type: domain.MarketUpdateAdd, OrderId: 2}})

	require.True(t, c.inRecovery)
	_, ok := c.buffers.inc.get(1)
	require.True(t, ok)
	_, ok = c.buffers.inc.get(2)
	require.True(t, ok)
}

func TestCheckRecoveryLockedSplicesReplayAndExitsRecovery(t *testing.T) {
	c, toBook := newTestConsumer()
	c.inRecovery = true

	c.buffers.AddIncremental(wire.MarketUpdate{Seq: 6, Update: domain.MarketUpdate{Type: domain.MarketUpdateAdd, OrderId: 9}})
	c.buffers.AddSnapshot(wire.MarketUpdate{Seq: 0, Update: domain.MarketUpdate{Type: domain.MarketUpdateSnapshotStart}})
	c.buffers.AddSnapshot(wire.MarketUpdate{Seq: 1, Update: domain.MarketUpdate{Type: domain.MarketUpdateAdd, OrderId: 1}})
	c.buffers.AddSnapshot(wire.MarketUpdate{Seq: 2, Update: domain.MarketUpdate{Type: domain.MarketUpdateSnapshotEnd, OrderId: 5}})

	c.checkRecoveryLocked()

	require.False(t, c.inRecovery)
	require.Equal(t, domain.SeqNum(7), c.nextExpectedSeq)

	first, ok := toBook.PeekRead()
	require.True(t, ok)
	require.Equal(t, domain.OrderId(1), first.OrderId)
	toBook.CommitRead()
	second, ok := toBook.PeekRead()
	require.True(t, ok)
	require.Equal(t, domain.OrderId(9), second.OrderId)
}
