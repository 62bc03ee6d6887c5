package marketdata

import (
	"bytes"
	"cmp"
	"fmt"
	"net"
	"runtime"
	"sync/atomic"
	"time"

	rbt "github.com/emirpasic/gods/v2/trees/redblacktree"
	"go.uber.org/zap"

	"voltex/domain"
	"voltex/queue"
	"voltex/telemetry"
	"voltex/wire"
)

// snapshotInterval is spec.md §4.4.1's fixed 60-second period between
// full snapshot rounds.
const snapshotInterval = 60 * time.Second

// SnapshotSynthesizer runs on its own thread, separate from the
// latency-critical publisher path (spec.md §4.4.1), maintaining a
// compact per-instrument order_id -> market-update map and
// periodically re-broadcasting it on the snapshot multicast group.
// Grounded on
// original_source/exchange/market_data/snapshot_synthesizer.h's
// ticker_orders_ hash-map-of-hash-maps, last_inc_seq_num_ and
// last_snapshot_time_ fields — replacing its ME_MAX_ORDER_IDS-sized
// fixed arrays with a red-black tree per ticker (the same
// github.com/emirpasic/gods/v2/trees/redblacktree orderbook/sharded.go
// already depends on) rather than a plain Go map: spec.md §4.4.1
// leaves snapshot order "arbitrary", but an ordered tree makes that
// order deterministic run-to-run, which matters for tests exercising
// the round-trip property in spec.md §8.
type SnapshotSynthesizer struct {
	input *queue.SPSC[wire.MarketUpdate]
	conn  *net.UDPConn
	buf   bytes.Buffer

	orders [domain.MaxTickers]*rbt.Tree[domain.OrderId, domain.MarketUpdate]

	lastIncSeq   domain.SeqNum
	lastSnapshot time.Time

	logger  *zap.SugaredLogger
	metrics *telemetry.Metrics
	run     atomic.Bool
}

// SetMetrics wires Prometheus counters into the synthesizer.
func (s *SnapshotSynthesizer) SetMetrics(m *telemetry.Metrics) { s.metrics = m }

// NewSnapshotSynthesizer dials snapshotAddr and returns a synthesizer
// fed by input, the publisher's forwarding queue.
func NewSnapshotSynthesizer(input *queue.SPSC[wire.MarketUpdate], snapshotAddr string, logger *zap.SugaredLogger) (*SnapshotSynthesizer, error) {
	addr, err := net.ResolveUDPAddr("udp", snapshotAddr)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, err
	}

	s := &SnapshotSynthesizer{input: input, conn: conn, logger: logger}
	for i := range s.orders {
		s.orders[i] = rbt.NewWith[domain.OrderId, domain.MarketUpdate](cmp.Compare[domain.OrderId])
	}
	return s, nil
}

// Start launches the synthesizer's run loop.
func (s *SnapshotSynthesizer) Start() {
	s.run.Store(true)
	s.lastSnapshot = time.Now()
	go s.runLoop()
}

// Stop signals the run loop to exit after its current iteration.
func (s *SnapshotSynthesizer) Stop() { s.run.Store(false) }

func (s *SnapshotSynthesizer) runLoop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for s.run.Load() {
		if update, ok := s.input.PeekRead(); ok {
			s.absorb(*update)
			s.input.CommitRead()
		}
		if time.Since(s.lastSnapshot) >= snapshotInterval {
			s.publishSnapshot()
			s.lastSnapshot = time.Now()
		}
	}
}

// absorb applies one sequenced incremental update to the resident
// order map. Every publisher output increments the global sequence
// exactly once, so a gap on this in-process queue can only be a
// publisher bug (spec.md §4.4.1, §9's PROTOCOL_BUG note) — fatal.
func (s *SnapshotSynthesizer) absorb(msg wire.MarketUpdate) {
	if s.lastIncSeq != 0 && msg.Seq != s.lastIncSeq+1 {
		panic(fmt.Sprintf("marketdata: sequence gap on synthesizer input, expected %d got %d", s.lastIncSeq+1, msg.Seq))
	}
	s.lastIncSeq = msg.Seq

	update := msg.Update
	book := s.orders[update.TickerId]

	switch update.Type {
	case domain.MarketUpdateAdd:
		if _, exists := book.Get(update.OrderId); exists {
			panic(fmt.Sprintf("marketdata: ADD for existing order id %d on ticker %d", update.OrderId, update.TickerId))
		}
		book.Put(update.OrderId, update)
	case domain.MarketUpdateModify:
		entry, exists := book.Get(update.OrderId)
		if !exists {
			panic(fmt.Sprintf("marketdata: MODIFY for unknown order id %d on ticker %d", update.OrderId, update.TickerId))
		}
		entry.Qty = update.Qty
		entry.Price = update.Price
		book.Put(update.OrderId, entry)
	case domain.MarketUpdateCancel:
		book.Remove(update.OrderId)
	case domain.MarketUpdateTrade, domain.MarketUpdateClear, domain.MarketUpdateSnapshotStart, domain.MarketUpdateSnapshotEnd:
		// TRADEs never change book state, and SNAPSHOT_* never appear
		// on the incremental stream.
	default:
		panic(fmt.Sprintf("marketdata: unknown market update type %v", update.Type))
	}
}

// publishSnapshot emits one full snapshot round: SNAPSHOT_START,
// then a CLEAR + one ADD-style entry per live order for every
// ticker, then SNAPSHOT_END. CLEAR is unconditional for every ticker,
// including ones with no resident orders — a participant resyncing
// after missing the incrementals that emptied a ticker still needs
// that CLEAR to drop its stale entries. The round is sequenced from 0
// independently of the incremental stream; SNAPSHOT_START/END
// overload OrderId to carry the incremental sequence this round
// aligns with (spec.md §4.4.1, §9's overloaded-field note).
func (s *SnapshotSynthesizer) publishSnapshot() {
	var seq domain.SeqNum

	s.send(wire.MarketUpdate{Seq: seq, Update: domain.MarketUpdate{
		Type:    domain.MarketUpdateSnapshotStart,
		OrderId: domain.OrderId(s.lastIncSeq),
	}})
	seq++

	for tickerId, book := range s.orders {
		s.send(wire.MarketUpdate{Seq: seq, Update: domain.MarketUpdate{
			Type:     domain.MarketUpdateClear,
			TickerId: domain.TickerId(tickerId),
		}})
		seq++

		for _, entry := range book.Values() {
			s.send(wire.MarketUpdate{Seq: seq, Update: entry})
			seq++
		}
	}

	s.send(wire.MarketUpdate{Seq: seq, Update: domain.MarketUpdate{
		Type:    domain.MarketUpdateSnapshotEnd,
		OrderId: domain.OrderId(s.lastIncSeq),
	}})

	if s.metrics != nil {
		s.metrics.SnapshotRounds.Inc()
	}
}

func (s *SnapshotSynthesizer) send(msg wire.MarketUpdate) {
	s.buf.Reset()
	if err := wire.EncodeMarketUpdate(&s.buf, msg); err != nil {
		s.logger.Errorw("marketdata: failed to encode snapshot record", "error", err)
		return
	}
	if _, err := s.conn.Write(s.buf.Bytes()); err != nil {
		s.logger.Warnw("marketdata: failed to send snapshot datagram", "error", err)
	}
}
