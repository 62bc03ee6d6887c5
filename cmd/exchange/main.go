// Command exchange runs the matching engine, order gateway, and
// market-data publisher as one process, matching
// original_source/exchange/exchange_main.cpp's single-binary shape.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"voltex/audit"
	"voltex/config"
	"voltex/domain"
	"voltex/gateway"
	"voltex/marketdata"
	"voltex/matching"
	"voltex/orderbook"
	"voltex/queue"
	"voltex/telemetry"
	"voltex/wire"
	"voltex/wsbridge"
)

// exchangeProcess is the root owner struct spec.md §9 calls for in
// place of package-level globals: every long-lived component the
// process starts hangs off one value main constructs and tears down.
type exchangeProcess struct {
	cfg config.ExchangeConfig

	ingress      *queue.SPSC[domain.ClientRequest]
	outResponses *queue.SPSC[domain.ClientResponse]
	outUpdates   *queue.SPSC[domain.MarketUpdate]
	toSnapshot   *queue.SPSC[wire.MarketUpdate]

	exchange   *matching.Exchange
	gatewaySrv *gateway.Server
	publisher  *marketdata.Publisher
	snapshot   *marketdata.SnapshotSynthesizer
	tape       *audit.Tape
	bridge     *wsbridge.Bridge

	metricsShutdown    func(context.Context) error
	dashboardShutdown  func(context.Context) error
	metrics            *telemetry.Metrics
	stopMetricsPolling chan struct{}
}

func main() {
	logger, err := telemetry.NewLogger("exchange", "matching", 0)
	if err != nil {
		fmt.Fprintln(os.Stderr, "exchange: failed to open log file:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg := config.DefaultExchangeConfig()
	p := &exchangeProcess{
		cfg:          cfg,
		ingress:      queue.New[domain.ClientRequest](cfg.IngressQueueCapacity),
		outResponses: queue.New[domain.ClientResponse](cfg.EgressQueueCapacity),
		outUpdates:   queue.New[domain.MarketUpdate](cfg.EgressQueueCapacity),
		toSnapshot:   queue.New[wire.MarketUpdate](cfg.EgressQueueCapacity),
	}

	p.metrics = telemetry.NewMetrics("voltex_exchange")

	p.exchange = matching.NewExchange(p.ingress, p.outResponses, p.outUpdates)
	p.exchange.SetMetrics(p.metrics)
	for tickerId := domain.TickerId(0); int(tickerId) < domain.MaxTickers; tickerId++ {
		backend := orderbook.HashMapListBackend
		if cfg.TickerBackends[tickerId] == config.BackendSharded {
			backend = orderbook.ShardedBackend
		}
		p.exchange.RegisterTicker(tickerId, backend)
	}

	p.gatewaySrv, err = gateway.NewServer(cfg.OrderGatewayAddr, p.ingress, p.outResponses, logger)
	if err != nil {
		logger.Fatalw("exchange: failed to start order gateway", "error", err)
	}

	p.publisher, err = marketdata.NewPublisher(p.outUpdates, p.toSnapshot, cfg.IncrementalMulticastAddr, logger)
	if err != nil {
		logger.Fatalw("exchange: failed to start market-data publisher", "error", err)
	}
	p.publisher.SetMetrics(p.metrics)

	p.snapshot, err = marketdata.NewSnapshotSynthesizer(p.toSnapshot, cfg.SnapshotMulticastAddr, logger)
	if err != nil {
		logger.Fatalw("exchange: failed to start snapshot synthesizer", "error", err)
	}
	p.snapshot.SetMetrics(p.metrics)

	p.tape = audit.NewTape(cfg.AuditKafkaBrokers, cfg.AuditKafkaTopic, logger)
	p.publisher.SetTradeSink(p.tape)

	p.bridge = wsbridge.NewBridge(logger)
	p.publisher.SetMarketUpdateSink(p.bridge)

	p.metricsShutdown = p.metrics.StartServer(cfg.MetricsAddr)
	p.stopMetricsPolling = make(chan struct{})
	go p.metrics.PollQueueDepths(
		p.ingress.Len,
		map[string]func() int{
			"responses": p.outResponses.Len,
			"updates":   p.outUpdates.Len,
			"snapshot":  p.toSnapshot.Len,
		},
		time.Second, p.stopMetricsPolling,
	)

	p.bridge.Start()
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", p.bridge.HandleUpgrade)
	dashboardServer := &http.Server{Addr: cfg.DashboardAddr, Handler: mux}
	go func() {
		if err := dashboardServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warnw("exchange: dashboard server exited", "error", err)
		}
	}()
	p.dashboardShutdown = dashboardServer.Shutdown

	p.exchange.Start()
	p.gatewaySrv.Start()
	p.publisher.Start()
	p.snapshot.Start()

	logger.Infow("exchange: started",
		"order_gateway", cfg.OrderGatewayAddr,
		"incremental_addr", cfg.IncrementalMulticastAddr,
		"snapshot_addr", cfg.SnapshotMulticastAddr,
		"metrics_addr", cfg.MetricsAddr,
		"dashboard_addr", cfg.DashboardAddr,
	)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Infow("exchange: shutting down")
	p.shutdown(logger)
}

// shutdown tears components down in the reverse order they were
// started, mirroring exchange_main.cpp's signal_handler deletion
// order (logger last).
func (p *exchangeProcess) shutdown(logger *zap.SugaredLogger) {
	p.snapshot.Stop()
	p.publisher.Stop()
	p.gatewaySrv.Stop()
	p.exchange.Stop()
	p.bridge.Stop()
	p.tape.Close()
	close(p.stopMetricsPolling)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p.dashboardShutdown(ctx)
	p.metricsShutdown(ctx)

	time.Sleep(2 * time.Second)
}
