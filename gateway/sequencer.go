// Package gateway implements the TCP order-entry ingress/egress
// server: per-client socket binding, per-client sequence checking,
// the FIFO sequencer that establishes cross-socket arrival ordering,
// and the drain loop that writes sequenced responses back out
// (spec.md §4.3).
package gateway

import (
	"sort"

	"voltex/domain"
	"voltex/queue"
)

// pending pairs a request with the nanosecond timestamp it was
// received at, buffered until the sequencer flushes.
type pending struct {
	rxTime  domain.Nanos
	request domain.ClientRequest
}

// FIFOSequencer buffers every request received across all client
// sockets within one poll cycle and publishes them, ordered by
// receive timestamp, into the matching engine's ingress queue.
//
// Grounded on original_source/exchange/order_server/order_server.h's
// header-comment description of FIFOSequencer (addClientRequest /
// sequenceAndPublish) — the C++ FIFOSequencer's own body wasn't in
// the retrieved source, so the buffer-sort-publish shape here follows
// spec.md §4.3.1's algorithm directly. sort.SliceStable is stdlib and
// deliberately so: a stable sort by timestamp, breaking ties by
// insertion order, is exactly what it's for, and no pack library
// offers anything closer to this than a general-purpose sort.
type FIFOSequencer struct {
	buffered []pending
	egress   *queue.SPSC[domain.ClientRequest]
}

// NewFIFOSequencer creates a sequencer that publishes into egress.
func NewFIFOSequencer(egress *queue.SPSC[domain.ClientRequest]) *FIFOSequencer {
	return &FIFOSequencer{egress: egress}
}

// Add buffers a request received at rxTime. Called once per message
// read off any client socket during the current poll cycle.
func (s *FIFOSequencer) Add(rxTime domain.Nanos, request domain.ClientRequest) {
	s.buffered = append(s.buffered, pending{rxTime, request})
}

// Flush stable-sorts the buffer ascending by receive timestamp,
// publishes every request into the egress queue in that order, and
// clears the buffer. Called once at the end of each poll cycle, after
// every socket has been drained.
func (s *FIFOSequencer) Flush() {
	if len(s.buffered) == 0 {
		return
	}

	sort.SliceStable(s.buffered, func(i, j int) bool {
		return s.buffered[i].rxTime < s.buffered[j].rxTime
	})

	for _, p := range s.buffered {
		*s.egress.ReserveWrite() = p.request
		s.egress.CommitWrite()
	}
	s.buffered = s.buffered[:0]
}
