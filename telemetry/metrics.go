package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the Prometheus surface for one exchange or participant
// process — a purely observational supplement (SPEC_FULL.md §4) that
// never influences matching or trading decisions. Grounded on
// luxfi-dex/pkg/metrics/lux_metrics.go's registry-plus-typed-fields
// shape and its promhttp.HandlerFor-backed StartServer, generalized
// from that repo's blockchain/consensus counters to this module's
// order-flow and queue-depth counters.
type Metrics struct {
	registry *prometheus.Registry

	OrdersAccepted    prometheus.Counter
	OrdersRejected    prometheus.Counter
	OrdersCanceled    prometheus.Counter
	TradesExecuted    prometheus.Counter
	MatchingLatency   prometheus.Histogram
	IngressQueueDepth prometheus.Gauge
	EgressQueueDepth  prometheus.GaugeVec
	MarketUpdatesSent prometheus.Counter
	SnapshotRounds    prometheus.Counter
	RecoveryEvents    prometheus.Counter
}

// NewMetrics registers namespace-prefixed collectors on a fresh
// registry, isolated from the default global one so multiple
// processes in the same test binary never collide.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		OrdersAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "orders_accepted_total", Help: "Total NEW orders accepted by the matching engine.",
		}),
		OrdersRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "orders_rejected_total", Help: "Total CANCEL requests rejected (unknown or wrong-owner order id).",
		}),
		OrdersCanceled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "orders_canceled_total", Help: "Total orders canceled by client request.",
		}),
		TradesExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "trades_executed_total", Help: "Total trade fills produced by the matching engine.",
		}),
		MatchingLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "matching_latency_nanoseconds", Help: "Time from client-request dispatch to response/update emission.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 25000, 50000},
		}),
		IngressQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "ingress_queue_depth", Help: "Current occupancy of the shared client-request ingress queue.",
		}),
		EgressQueueDepth: *prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "egress_queue_depth", Help: "Current occupancy of an egress queue.",
		}, []string{"queue"}),
		MarketUpdatesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "market_updates_sent_total", Help: "Total incremental market-update datagrams published.",
		}),
		SnapshotRounds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "snapshot_rounds_total", Help: "Total full snapshot rounds broadcast by the synthesizer.",
		}),
		RecoveryEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "recovery_events_total", Help: "Total times a market-data consumer entered gap recovery.",
		}),
	}

	registry.MustRegister(
		m.OrdersAccepted, m.OrdersRejected, m.OrdersCanceled, m.TradesExecuted,
		m.MatchingLatency, m.IngressQueueDepth, m.EgressQueueDepth,
		m.MarketUpdatesSent, m.SnapshotRounds, m.RecoveryEvents,
	)
	return m
}

// StartServer exposes /metrics on addr, returning a shutdown func the
// caller invokes during graceful teardown.
func (m *Metrics) StartServer(addr string) (shutdown func(context.Context) error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		_ = server.ListenAndServe()
	}()

	return server.Shutdown
}

// PollQueueDepths is a small helper cmd/exchange and cmd/participant run on a ticker to
// keep IngressQueueDepth/EgressQueueDepth current without the queue
// package itself depending on Prometheus.
func (m *Metrics) PollQueueDepths(ingressLen func() int, egressLens map[string]func() int, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.IngressQueueDepth.Set(float64(ingressLen()))
			for name, lenFn := range egressLens {
				m.EgressQueueDepth.WithLabelValues(name).Set(float64(lenFn()))
			}
		}
	}
}
