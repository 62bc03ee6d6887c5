// Package audit publishes a best-effort trade tape over Kafka. It is
// a supplemented feature (SPEC_FULL.md §4) with no counterpart in
// spec.md: the matching engine never blocks on it, and a slow or down
// broker only ever costs tape entries, never matching throughput.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"voltex/domain"
)

// tapeChannelCapacity bounds the in-process buffer between the
// matching thread's Publish calls and the Kafka writer goroutine.
const tapeChannelCapacity = 4096

// tradeRecord is the JSON shape written to the trade-tape topic, one
// per MarketUpdateTrade market update.
type tradeRecord struct {
	TickerId domain.TickerId `json:"ticker_id"`
	Price    domain.Price    `json:"price"`
	Qty      domain.Qty      `json:"qty"`
	Side     domain.Side     `json:"aggressor_side"`
	AtNanos  domain.Nanos    `json:"at_nanos"`
}

// Tape is a non-blocking async publisher: Publish never blocks the
// caller, and a full internal channel drops the oldest queued record
// (logged as a warning) rather than apply backpressure to the
// matching thread. Grounded on
// UmarFarooq-MP-Loki/infra/kafka/producer.go's kafka.Writer wrapper;
// the drop-oldest buffering in front of it is this package's own
// addition, since the original producer is a direct synchronous
// wrapper with no notion of a slow consumer.
type Tape struct {
	writer *kafka.Writer
	logger *zap.SugaredLogger

	records chan tradeRecord
	done    chan struct{}
}

// NewTape dials brokers and starts the background writer goroutine.
func NewTape(brokers []string, topic string, logger *zap.SugaredLogger) *Tape {
	t := &Tape{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireOne,
			Async:        true,
			BatchTimeout: 10 * time.Millisecond,
		},
		logger:  logger,
		records: make(chan tradeRecord, tapeChannelCapacity),
		done:    make(chan struct{}),
	}
	go t.run()
	return t
}

// Publish records one trade fill. Never blocks: if the channel is
// full, the oldest buffered record is dropped to make room, and the
// drop is logged rather than silently swallowed.
func (t *Tape) Publish(tickerId domain.TickerId, price domain.Price, qty domain.Qty, side domain.Side, atNanos domain.Nanos) {
	record := tradeRecord{TickerId: tickerId, Price: price, Qty: qty, Side: side, AtNanos: atNanos}
	select {
	case t.records <- record:
	default:
		select {
		case dropped := <-t.records:
			t.logger.Warnw("audit: trade tape buffer full, dropping oldest record", "dropped_ticker", dropped.TickerId, "dropped_at", dropped.AtNanos)
		default:
		}
		select {
		case t.records <- record:
		default:
			t.logger.Warnw("audit: trade tape buffer full, dropping record", "ticker", tickerId)
		}
	}
}

func (t *Tape) run() {
	for {
		select {
		case record := <-t.records:
			t.write(record)
		case <-t.done:
			return
		}
	}
}

func (t *Tape) write(record tradeRecord) {
	data, err := json.Marshal(record)
	if err != nil {
		t.logger.Errorw("audit: failed to marshal trade record", "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := t.writer.WriteMessages(ctx, kafka.Message{Value: data}); err != nil {
		t.logger.Warnw("audit: failed to publish trade record", "error", err)
	}
}

// Close stops the writer goroutine and closes the underlying Kafka
// writer. Buffered records not yet written are dropped.
func (t *Tape) Close() error {
	close(t.done)
	return t.writer.Close()
}
