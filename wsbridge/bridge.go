// Package wsbridge fans the exchange's market-data stream out to
// browser dashboards as JSON over WebSocket. It is a supplemented
// feature (SPEC_FULL.md §4/§5): purely observational, never mutates
// engine state, and its clients never place orders.
package wsbridge

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"voltex/domain"
	"voltex/wire"
)

const (
	clientSendBuffer = 256
	writeTimeout     = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// outboundUpdate is the JSON shape sent to every connected browser,
// a flattened view of wire.MarketUpdate/domain.MarketUpdate.
type outboundUpdate struct {
	Seq      domain.SeqNum           `json:"seq"`
	Type     domain.MarketUpdateType `json:"type"`
	TickerId domain.TickerId         `json:"ticker_id"`
	OrderId  domain.OrderId          `json:"order_id"`
	Side     domain.Side             `json:"side"`
	Price    domain.Price            `json:"price"`
	Qty      domain.Qty              `json:"qty"`
}

func toOutbound(msg wire.MarketUpdate) outboundUpdate {
	u := msg.Update
	return outboundUpdate{
		Seq: msg.Seq, Type: u.Type, TickerId: u.TickerId,
		OrderId: u.OrderId, Side: u.Side, Price: u.Price, Qty: u.Qty,
	}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Bridge is a hub of connected browser clients, fed by the market-data
// publisher's MarketUpdateSink hook. Grounded on
// luxfi-dex/pkg/websocket/server.go's Server/Client hub shape
// (register/unregister/broadcast channels, one writePump goroutine
// per client), narrowed to this module's single message type instead
// of luxfi-dex's subscription-channel system, since there is exactly
// one stream to fan out here.
type Bridge struct {
	logger *zap.SugaredLogger

	mu      sync.Mutex
	clients map[*client]struct{}

	register   chan *client
	unregister chan *client
	broadcast  chan []byte

	stop chan struct{}
}

// NewBridge returns an unstarted hub.
func NewBridge(logger *zap.SugaredLogger) *Bridge {
	return &Bridge{
		logger:     logger,
		clients:    make(map[*client]struct{}),
		register:   make(chan *client, 64),
		unregister: make(chan *client, 64),
		broadcast:  make(chan []byte, 1024),
		stop:       make(chan struct{}),
	}
}

// Start launches the hub goroutine that owns client bookkeeping.
func (b *Bridge) Start() { go b.run() }

// Stop closes every connected client and exits the hub goroutine.
func (b *Bridge) Stop() { close(b.stop) }

func (b *Bridge) run() {
	for {
		select {
		case <-b.stop:
			b.mu.Lock()
			for c := range b.clients {
				close(c.send)
			}
			b.mu.Unlock()
			return
		case c := <-b.register:
			b.mu.Lock()
			b.clients[c] = struct{}{}
			b.mu.Unlock()
		case c := <-b.unregister:
			b.mu.Lock()
			if _, ok := b.clients[c]; ok {
				delete(b.clients, c)
				close(c.send)
			}
			b.mu.Unlock()
		case data := <-b.broadcast:
			b.mu.Lock()
			for c := range b.clients {
				select {
				case c.send <- data:
				default:
					// Slow client: drop this message rather than block
					// the hub or the publisher upstream of it.
				}
			}
			b.mu.Unlock()
		}
	}
}

// Broadcast implements marketdata.MarketUpdateSink.
func (b *Bridge) Broadcast(msg wire.MarketUpdate) {
	data, err := json.Marshal(toOutbound(msg))
	if err != nil {
		b.logger.Errorw("wsbridge: failed to marshal update", "error", err)
		return
	}
	select {
	case b.broadcast <- data:
	default:
		b.logger.Warnw("wsbridge: broadcast channel full, dropping update")
	}
}

// HandleUpgrade upgrades an HTTP request to a WebSocket connection and
// registers the resulting client. Mount at "/ws" on the exchange's
// dashboard HTTP mux (separate from the /metrics listener).
func (b *Bridge) HandleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warnw("wsbridge: upgrade failed", "error", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, clientSendBuffer)}
	b.register <- c
	go b.writePump(c)
	go b.readPump(c)
}

func (b *Bridge) writePump(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

// readPump only exists to notice disconnects and drive the
// unregister path; the dashboard never sends this bridge anything.
func (b *Bridge) readPump(c *client) {
	defer func() { b.unregister <- c }()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
