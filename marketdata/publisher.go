// Package marketdata implements the exchange-side market-data
// publisher and snapshot synthesizer (spec.md §4.4): the publisher
// assigns the global incremental sequence and multicasts every
// engine market update, then hands a copy to the snapshot
// synthesizer, which periodically emits a full book image on a
// second multicast group.
package marketdata

import (
	"bytes"
	"net"
	"runtime"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"voltex/domain"
	"voltex/queue"
	"voltex/telemetry"
	"voltex/wire"
)

// TradeSink receives a copy of every trade fill the publisher
// forwards, satisfied by *audit.Tape. Kept as a narrow interface
// rather than an *audit.Tape field so this package doesn't need to
// import audit just to accept nil in tests.
type TradeSink interface {
	Publish(tickerId domain.TickerId, price domain.Price, qty domain.Qty, side domain.Side, atNanos domain.Nanos)
}

// MarketUpdateSink receives a copy of every sequenced update the
// publisher sends, satisfied by *wsbridge.Bridge. Like TradeSink,
// this is a narrow interface so the browser-facing fan-out doesn't
// have to compete with the snapshot synthesizer for the one seat on
// engineUpdates — it rides along on the publisher's already-sequenced
// output instead.
type MarketUpdateSink interface {
	Broadcast(msg wire.MarketUpdate)
}

// DefaultIncrementalAddr and DefaultSnapshotAddr are spec.md §6's
// hard-coded multicast groups.
const (
	DefaultIncrementalAddr = "233.252.14.3:20001"
	DefaultSnapshotAddr    = "233.252.14.1:20000"
)

// Publisher is the market-data-publisher thread of an exchange
// process. It owns the global incremental sequence counter and is
// the sole writer of the incremental multicast socket, mirroring
// original_source/exchange/market_data/market_data_publisher.h's
// next_inc_seq_num_/incremental_socket_.
type Publisher struct {
	engineUpdates *queue.SPSC[domain.MarketUpdate]
	toSnapshot    *queue.SPSC[wire.MarketUpdate]

	conn *net.UDPConn
	buf  bytes.Buffer

	nextSeq domain.SeqNum
	logger  *zap.SugaredLogger
	tape    TradeSink
	browser MarketUpdateSink
	metrics *telemetry.Metrics

	run atomic.Bool
}

// SetTradeSink wires an audit trade tape into the publisher; every
// TRADE-typed update forwarded from here on is also handed to sink.
func (p *Publisher) SetTradeSink(sink TradeSink) { p.tape = sink }

// SetMarketUpdateSink wires a browser-facing fan-out into the
// publisher; every sequenced update forwarded from here on is also
// handed to sink.
func (p *Publisher) SetMarketUpdateSink(sink MarketUpdateSink) { p.browser = sink }

// SetMetrics wires Prometheus counters into the publisher.
func (p *Publisher) SetMetrics(m *telemetry.Metrics) { p.metrics = m }

// NewPublisher dials incrementalAddr (a UDP multicast group:port) and
// returns a Publisher that reads from engineUpdates and forwards a
// copy of every sequenced update into toSnapshot.
func NewPublisher(engineUpdates *queue.SPSC[domain.MarketUpdate], toSnapshot *queue.SPSC[wire.MarketUpdate], incrementalAddr string, logger *zap.SugaredLogger) (*Publisher, error) {
	addr, err := net.ResolveUDPAddr("udp", incrementalAddr)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, err
	}
	return &Publisher{
		engineUpdates: engineUpdates,
		toSnapshot:    toSnapshot,
		conn:          conn,
		nextSeq:       1,
		logger:        logger,
	}, nil
}

// Start launches the publisher's run loop on its own goroutine,
// pinned to an OS thread the way every core-path loop in this system
// is (spec.md §5's dedicated-thread scheduling model).
func (p *Publisher) Start() {
	p.run.Store(true)
	go p.runLoop()
}

// Stop signals the run loop to exit after its current iteration.
func (p *Publisher) Stop() { p.run.Store(false) }

func (p *Publisher) runLoop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for p.run.Load() {
		update, ok := p.engineUpdates.PeekRead()
		if !ok {
			continue
		}
		p.publish(*update)
		p.engineUpdates.CommitRead()
	}
}

func (p *Publisher) publish(update domain.MarketUpdate) {
	seq := p.nextSeq
	p.nextSeq++

	msg := wire.MarketUpdate{Seq: seq, Update: update}

	p.buf.Reset()
	if err := wire.EncodeMarketUpdate(&p.buf, msg); err != nil {
		p.logger.Errorw("marketdata: failed to encode incremental update", "error", err)
		return
	}
	if _, err := p.conn.Write(p.buf.Bytes()); err != nil {
		p.logger.Warnw("marketdata: failed to send incremental datagram", "error", err)
	} else if p.metrics != nil {
		p.metrics.MarketUpdatesSent.Inc()
	}

	*p.toSnapshot.ReserveWrite() = msg
	p.toSnapshot.CommitWrite()

	if update.Type == domain.MarketUpdateTrade && p.tape != nil {
		p.tape.Publish(update.TickerId, update.Price, update.Qty, update.Side, domain.Nanos(time.Now().UnixNano()))
	}
	if p.browser != nil {
		p.browser.Broadcast(msg)
	}
}
