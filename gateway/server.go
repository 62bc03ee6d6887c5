package gateway

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"voltex/domain"
	"voltex/queue"
	"voltex/wire"
)

// flushInterval mimics the poll-cycle boundary order_server.h's run()
// draws between recvFinishedCallback calls: everything the readers
// buffered since the last tick gets ordered by receive time and
// published together.
const flushInterval = 200 * time.Microsecond

// clientBinding tracks the one TCP connection a client_id is allowed
// to speak on and the sequence numbers expected/owed on it.
type clientBinding struct {
	conn       net.Conn
	nextExpSeq domain.SeqNum
	nextOutSeq domain.SeqNum
}

// Server is the order-gateway ingress/egress thread of an exchange
// process (spec.md §5): it accepts client TCP connections, decodes
// framed requests, rejects a client_id that migrates sockets or sends
// out of sequence, hands well-formed requests to a FIFOSequencer, and
// drains the matching engine's response queue back out to whichever
// socket each client is bound to.
//
// Grounded on original_source/exchange/order_server/order_server.h's
// OrderServer: cid_tcp_socket_/cid_next_exp_seq_num_/
// cid_next_outgoing_seq_num_ become clientBinding entries here, and
// recvCallback/recvFinishedCallback's split (per-socket decode vs.
// end-of-cycle sequence-and-publish) becomes per-connection reader
// goroutines feeding a mutex-guarded FIFOSequencer that a ticker
// flushes — the goroutine-per-connection shape itself follows
// ejyy-femto_go/server.go's Server.Start/handleClient rather than
// order_server.h's single epoll thread, since net.Listener plus
// blocking reads is how this corpus writes TCP servers in Go.
type Server struct {
	listener net.Listener
	logger   *zap.SugaredLogger

	mu        sync.Mutex
	bindings  [domain.MaxClients]*clientBinding
	sequencer *FIFOSequencer

	outResponses *queue.SPSC[domain.ClientResponse]

	stop chan struct{}
}

// NewServer creates a gateway bound to addr (host:port) that publishes
// sequenced requests into ingress and drains responses from
// outResponses back to their owning clients.
func NewServer(addr string, ingress *queue.SPSC[domain.ClientRequest], outResponses *queue.SPSC[domain.ClientResponse], logger *zap.SugaredLogger) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener:     listener,
		logger:       logger,
		sequencer:    NewFIFOSequencer(ingress),
		outResponses: outResponses,
		stop:         make(chan struct{}),
	}, nil
}

// Start launches the accept loop, the periodic sequencer flush, and
// the response-drain loop, all in their own goroutines.
func (s *Server) Start() {
	go s.acceptLoop()
	go s.flushLoop()
	go s.responseLoop()
}

// Stop closes the listener; connections already accepted drain on
// their own once their peer disconnects.
func (s *Server) Stop() {
	close(s.stop)
	s.listener.Close()
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stop:
				return
			default:
				s.logger.Warnw("gateway: accept failed", "error", err)
				continue
			}
		}
		go s.readLoop(conn)
	}
}

func (s *Server) flushLoop() {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.sequencer.Flush()
			s.mu.Unlock()
		}
	}
}

// readLoop decodes one client's framed requests off conn until it
// disconnects or sends something the codec rejects. Each accepted
// request binds conn to its client_id on first sight and checks the
// per-client sequence expectation before handing off to the
// sequencer buffer.
func (s *Server) readLoop(conn net.Conn) {
	defer conn.Close()

	for {
		msg, err := wire.DecodeClientRequest(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.logger.Debugw("gateway: read failed, dropping connection", "error", err)
			}
			return
		}
		rxTime := domain.Nanos(time.Now().UnixNano())
		s.handleRequest(conn, rxTime, msg)
	}
}

func (s *Server) handleRequest(conn net.Conn, rxTime domain.Nanos, msg wire.ClientRequest) {
	clientId := msg.Request.ClientId
	if int(clientId) >= domain.MaxClients {
		s.logger.Warnw("gateway: client id out of range, dropping", "client", clientId)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	binding := s.bindings[clientId]
	if binding == nil {
		// Per-client sequence numbering starts at 1 on both directions
		// of the wire (spec.md §6).
		binding = &clientBinding{conn: conn, nextExpSeq: 1, nextOutSeq: 1}
		s.bindings[clientId] = binding
	}
	if binding.conn != conn {
		// A client_id may only ever speak on the socket it first
		// appeared on (order_server.h's recvCallback, same check).
		s.logger.Warnw("gateway: client request on unbound socket, dropping", "client", clientId)
		return
	}
	if msg.Seq != binding.nextExpSeq {
		// No NAK: silently drop and let the client's own timeout
		// or disconnect drive recovery.
		s.logger.Warnw("gateway: sequence gap, dropping",
			"client", clientId, "expected", binding.nextExpSeq, "got", msg.Seq)
		return
	}
	binding.nextExpSeq++

	s.sequencer.Add(rxTime, msg.Request)
}

// responseLoop is the queue's single consumer: it drains
// outResponses and writes each response, framed with the owning
// client's next outgoing sequence number, back to that client's
// bound socket.
func (s *Server) responseLoop() {
	for {
		select {
		case <-s.stop:
			return
		default:
		}

		resp, ok := s.outResponses.PeekRead()
		if !ok {
			continue
		}
		s.sendResponse(*resp)
		s.outResponses.CommitRead()
	}
}

func (s *Server) sendResponse(resp domain.ClientResponse) {
	s.mu.Lock()
	binding := s.bindings[resp.ClientId]
	s.mu.Unlock()
	if binding == nil {
		s.logger.Errorw("gateway: response for client with no bound socket", "client", resp.ClientId)
		return
	}

	s.mu.Lock()
	seq := binding.nextOutSeq
	binding.nextOutSeq++
	s.mu.Unlock()

	if err := wire.EncodeClientResponse(binding.conn, wire.ClientResponse{Seq: seq, Response: resp}); err != nil {
		s.logger.Warnw("gateway: failed to write response", "client", resp.ClientId, "error", err)
	}
}
