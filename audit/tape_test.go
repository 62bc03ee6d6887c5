package audit

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"voltex/domain"
)

// newUnstartedTape builds a Tape with no writer goroutine draining
// records, so Publish's overflow behavior can be tested deterministically.
func newUnstartedTape(capacity int) *Tape {
	return &Tape{
		logger:  zap.NewNop().Sugar(),
		records: make(chan tradeRecord, capacity),
		done:    make(chan struct{}),
	}
}

func TestPublishBuffersUnderCapacity(t *testing.T) {
	tape := newUnstartedTape(4)
	tape.Publish(0, 100, 10, domain.SideBuy, 1)
	tape.Publish(0, 101, 5, domain.SideSell, 2)

	require.Len(t, tape.records, 2)
}

func TestPublishDropsOldestWhenFull(t *testing.T) {
	tape := newUnstartedTape(2)
	tape.Publish(0, 100, 10, domain.SideBuy, 1)
	tape.Publish(0, 101, 5, domain.SideBuy, 2)
	tape.Publish(0, 102, 7, domain.SideSell, 3)

	require.Len(t, tape.records, 2)

	first := <-tape.records
	require.Equal(t, domain.Nanos(2), first.AtNanos, "oldest record (at_nanos=1) should have been dropped")
	second := <-tape.records
	require.Equal(t, domain.Nanos(3), second.AtNanos)
}
