package consumer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"voltex/domain"
	"voltex/wire"
)

func snapStart(seq domain.SeqNum) wire.MarketUpdate {
	return wire.MarketUpdate{Seq: seq, Update: domain.MarketUpdate{Type: domain.MarketUpdateSnapshotStart}}
}

func snapEnd(seq domain.SeqNum, alignedTo domain.SeqNum) wire.MarketUpdate {
	return wire.MarketUpdate{Seq: seq, Update: domain.MarketUpdate{Type: domain.MarketUpdateSnapshotEnd, OrderId: domain.OrderId(alignedTo)}}
}

func snapAdd(seq domain.SeqNum, orderId domain.OrderId) wire.MarketUpdate {
	return wire.MarketUpdate{Seq: seq, Update: domain.MarketUpdate{Type: domain.MarketUpdateAdd, OrderId: orderId, Qty: 10}}
}

func incAdd(seq domain.SeqNum, orderId domain.OrderId) wire.MarketUpdate {
	return wire.MarketUpdate{Seq: seq, Update: domain.MarketUpdate{Type: domain.MarketUpdateAdd, OrderId: orderId, Qty: 10}}
}

func TestRecoveryCheckIncompleteWithoutSnapshotStart(t *testing.T) {
	r := NewRecoveryBuffers()
	_, ok := r.Check()
	require.False(t, ok)
}

func TestRecoveryCheckWaitsForContiguousSnapBody(t *testing.T) {
	r := NewRecoveryBuffers()
	r.AddSnapshot(snapStart(0))
	r.AddSnapshot(snapAdd(1, 1))
	// seq 2 (SNAPSHOT_END) missing so far.
	_, ok := r.Check()
	require.False(t, ok)
}

func TestRecoveryCheckSucceedsWithNoTrailingIncrementals(t *testing.T) {
	r := NewRecoveryBuffers()
	r.AddSnapshot(snapStart(0))
	r.AddSnapshot(snapAdd(1, 1))
	r.AddSnapshot(snapEnd(2, 5))

	result, ok := r.Check()
	require.True(t, ok)
	require.Len(t, result.Updates, 1)
	require.Equal(t, domain.MarketUpdateAdd, result.Updates[0].Type)
	require.Equal(t, domain.SeqNum(6), result.NextExpectedSeq)
}

func TestRecoveryCheckSplicesTrailingIncrementals(t *testing.T) {
	r := NewRecoveryBuffers()
	r.AddIncremental(incAdd(6, 2))
	r.AddIncremental(incAdd(7, 3))

	r.AddSnapshot(snapStart(0))
	r.AddSnapshot(snapAdd(1, 1))
	r.AddSnapshot(snapEnd(2, 5))

	result, ok := r.Check()
	require.True(t, ok)
	require.Len(t, result.Updates, 3)
	require.Equal(t, domain.OrderId(1), result.Updates[0].OrderId)
	require.Equal(t, domain.OrderId(2), result.Updates[1].OrderId)
	require.Equal(t, domain.OrderId(3), result.Updates[2].OrderId)
	require.Equal(t, domain.SeqNum(8), result.NextExpectedSeq)
}

func TestRecoveryCheckAbortsOnGapInTrailingIncrementals(t *testing.T) {
	r := NewRecoveryBuffers()
	r.AddIncremental(incAdd(6, 2))
	// seq 7 missing.
	r.AddIncremental(incAdd(8, 3))

	r.AddSnapshot(snapStart(0))
	r.AddSnapshot(snapAdd(1, 1))
	r.AddSnapshot(snapEnd(2, 5))

	_, ok := r.Check()
	require.False(t, ok)
}

func TestRecoveryCheckDiscardsOnDuplicateSnapshotStart(t *testing.T) {
	r := NewRecoveryBuffers()
	r.AddSnapshot(snapStart(0))
	r.AddSnapshot(snapAdd(1, 1))
	// A fresh round starts before the first ever completed.
	r.AddSnapshot(snapStart(0))

	_, exists := r.snap.get(1)
	require.False(t, exists, "stale body entry from the discarded round must be gone")
	_, exists = r.snap.get(0)
	require.True(t, exists)
}

func TestOrderedBufferEvictsOldestPastCap(t *testing.T) {
	b := newOrderedBuffer()
	for seq := domain.SeqNum(0); seq < RecoveryBufferCap+10; seq++ {
		b.put(seq, domain.MarketUpdate{OrderId: domain.OrderId(seq)})
	}
	require.Len(t, b.order, RecoveryBufferCap)
	_, ok := b.get(0)
	require.False(t, ok, "oldest entries must have been evicted")
	_, ok = b.get(RecoveryBufferCap + 9)
	require.True(t, ok)
}

func TestRecoveryBuffersClearResetsHighestIncTracking(t *testing.T) {
	r := NewRecoveryBuffers()
	r.AddIncremental(incAdd(6, 2))
	r.Clear()

	r.AddSnapshot(snapStart(0))
	r.AddSnapshot(snapEnd(1, 0))

	result, ok := r.Check()
	require.True(t, ok)
	require.Empty(t, result.Updates)
	require.Equal(t, domain.SeqNum(1), result.NextExpectedSeq)
}
