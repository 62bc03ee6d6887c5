// Command participant runs one trading client: it dials the exchange's
// order gateway, joins its market-data multicast groups, and drives a
// configured Strategy off both streams. CLI shape mirrors
// original_source/trading/trading_main.cpp:
//
//	participant CLIENT_ID ALGO_TYPE [CLIP THRESH MAX_ORDER_SIZE MAX_POS MAX_LOSS]...
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"voltex/config"
	"voltex/consumer"
	"voltex/domain"
	"voltex/gateway"
	"voltex/queue"
	"voltex/strategy"
	"voltex/telemetry"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: participant CLIENT_ID ALGO_TYPE [CLIP THRESH MAX_ORDER_SIZE MAX_POS MAX_LOSS]...")
		os.Exit(1)
	}

	clientIdVal, err := strconv.ParseUint(os.Args[1], 10, 32)
	if err != nil {
		fmt.Fprintln(os.Stderr, "participant: invalid client id:", err)
		os.Exit(1)
	}
	clientId := domain.ClientId(clientIdVal)

	algoType, err := strategy.ParseAlgoType(os.Args[2])
	if err != nil {
		fmt.Fprintln(os.Stderr, "participant:", err)
		os.Exit(1)
	}

	tickerConfigs, err := strategy.ParseTickerConfigs(os.Args[3:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "participant:", err)
		os.Exit(1)
	}

	logger, err := telemetry.NewLogger("participant", algoType.String(), int(clientId))
	if err != nil {
		fmt.Fprintln(os.Stderr, "participant: failed to open log file:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg := config.DefaultParticipantConfig()

	outgoing := queue.New[domain.ClientRequest](cfg.OutgoingQueueCapacity)
	responses := queue.New[domain.ClientResponse](cfg.ResponseQueueCapacity)
	marketUpdates := queue.New[domain.MarketUpdate](cfg.MarketUpdateQueueCapacity)

	gatewayClient, err := gateway.Dial(cfg.ExchangeGatewayAddr, clientId, outgoing, responses, logger)
	if err != nil {
		logger.Fatalw("participant: failed to dial order gateway", "error", err)
	}

	metrics := telemetry.NewMetrics(fmt.Sprintf("voltex_participant_%d", clientId))

	mdConsumer := consumer.NewConsumer(cfg.IncrementalMulticastAddr, cfg.SnapshotMulticastAddr, marketUpdates, logger)
	mdConsumer.SetMetrics(metrics)
	if err := mdConsumer.Start(); err != nil {
		logger.Fatalw("participant: failed to start market-data consumer", "error", err)
	}

	engine := strategy.NewTradeEngine(clientId, responses, marketUpdates, outgoing, logger)

	var algo strategy.Strategy
	switch algoType {
	case strategy.AlgoRandom:
		algo = strategy.NewRandomStrategy(engine, tickerConfigs, int64(clientId), logger)
	case strategy.AlgoMaker:
		algo = strategy.NewMakerStrategy(logger)
	case strategy.AlgoTaker:
		algo = strategy.NewTakerStrategy(logger)
	}
	engine.SetStrategy(algo)

	metricsShutdown := metrics.StartServer(fmt.Sprintf(":%d", 9100+clientId))
	stopPolling := make(chan struct{})
	go metrics.PollQueueDepths(
		responses.Len,
		map[string]func() int{"outgoing": outgoing.Len, "market_updates": marketUpdates.Len},
		time.Second, stopPolling,
	)

	gatewayClient.Start()
	engine.Start()

	logger.Infow("participant: started",
		"client_id", clientId, "algo", algoType.String(),
		"gateway_addr", cfg.ExchangeGatewayAddr,
	)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Infow("participant: shutting down")
	engine.Stop()
	gatewayClient.Stop()
	mdConsumer.Stop()
	close(stopPolling)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	metricsShutdown(ctx)
}
