package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistersAllCollectors(t *testing.T) {
	m := NewMetrics("voltex_test")
	m.OrdersAccepted.Inc()
	m.TradesExecuted.Add(3)
	m.EgressQueueDepth.WithLabelValues("responses").Set(5)

	require.Equal(t, float64(1), testutil.ToFloat64(m.OrdersAccepted))
	require.Equal(t, float64(3), testutil.ToFloat64(m.TradesExecuted))
	require.Equal(t, float64(5), testutil.ToFloat64(m.EgressQueueDepth.WithLabelValues("responses")))
}

func TestPollQueueDepthsUpdatesGauges(t *testing.T) {
	m := NewMetrics("voltex_test_poll")
	stop := make(chan struct{})

	ingressLen := func() int { return 7 }
	egress := map[string]func() int{"responses": func() int { return 2 }}

	done := make(chan struct{})
	go func() {
		m.PollQueueDepths(ingressLen, egress, 1, stop)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.IngressQueueDepth) == 7
	}, time.Second, time.Millisecond)

	close(stop)
	<-done
}
