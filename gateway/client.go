package gateway

import (
	"errors"
	"io"
	"net"
	"sync/atomic"

	"go.uber.org/zap"

	"voltex/domain"
	"voltex/queue"
	"voltex/wire"
)

// Client is the participant process's counterpart to Server: it dials
// the exchange's order gateway, writes every outgoing request with an
// incrementing per-client sequence number, and forwards decoded
// responses into the queue TradeEngine drains. Grounded on
// original_source/trading/order_gw/order_gateway.h/.cpp's OrderGateway
// — next_outgoing_seq_num_/next_exp_seq_num_ become the two atomics
// here, and the single sendAndRecv() loop splits into a writer
// goroutine draining the outgoing SPSC and a reader goroutine decoding
// framed responses, matching how gateway.Server itself is split.
type Client struct {
	conn   net.Conn
	logger *zap.SugaredLogger

	clientId domain.ClientId

	outgoing  *queue.SPSC[domain.ClientRequest]
	responses *queue.SPSC[domain.ClientResponse]

	nextOutgoingSeq atomic.Uint64
	nextExpectedSeq atomic.Uint64

	run  atomic.Bool
	stop chan struct{}
}

// Dial connects to the exchange order gateway at addr and returns a
// Client ready for Start. clientId is the participant's identity;
// outgoing is drained for requests to send, responses is fed with
// decoded replies.
func Dial(addr string, clientId domain.ClientId, outgoing *queue.SPSC[domain.ClientRequest], responses *queue.SPSC[domain.ClientResponse], logger *zap.SugaredLogger) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	c := &Client{
		conn:      conn,
		logger:    logger,
		clientId:  clientId,
		outgoing:  outgoing,
		responses: responses,
		stop:      make(chan struct{}),
	}
	c.nextOutgoingSeq.Store(1)
	c.nextExpectedSeq.Store(1)
	return c, nil
}

// Start launches the send and receive goroutines.
func (c *Client) Start() {
	c.run.Store(true)
	go c.sendLoop()
	go c.recvLoop()
}

// Stop closes the connection, unblocking both goroutines.
func (c *Client) Stop() {
	c.run.Store(false)
	close(c.stop)
	c.conn.Close()
}

func (c *Client) sendLoop() {
	for c.run.Load() {
		req, ok := c.outgoing.PeekRead()
		if !ok {
			continue
		}
		seq := domain.SeqNum(c.nextOutgoingSeq.Add(1) - 1)
		msg := wire.ClientRequest{Seq: seq, Request: *req}
		if err := wire.EncodeClientRequest(c.conn, msg); err != nil {
			c.logger.Warnw("gateway client: send failed", "error", err)
			c.outgoing.CommitRead()
			return
		}
		c.outgoing.CommitRead()
	}
}

func (c *Client) recvLoop() {
	for {
		msg, err := wire.DecodeClientResponse(c.conn)
		if err != nil {
			select {
			case <-c.stop:
				return
			default:
			}
			if !errors.Is(err, io.EOF) {
				c.logger.Warnw("gateway client: recv failed", "error", err)
			}
			return
		}
		if msg.Response.ClientId != c.clientId {
			continue
		}
		expected := domain.SeqNum(c.nextExpectedSeq.Load())
		if msg.Seq != expected {
			c.logger.Warnw("gateway client: response sequence gap", "expected", expected, "got", msg.Seq)
			continue
		}
		c.nextExpectedSeq.Add(1)

		*c.responses.ReserveWrite() = msg.Response
		c.responses.CommitWrite()
	}
}
