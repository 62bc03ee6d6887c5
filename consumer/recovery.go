// Package consumer implements the participant-side market-data
// consumer (spec.md §4.5): normal-path forwarding of the incremental
// multicast stream into the participant's book, and the
// snapshot/incremental splicing recovery protocol that engages on
// the first detected sequence gap.
package consumer

import (
	"voltex/domain"
	"voltex/wire"
)

// RecoveryBufferCap bounds each of the snap/inc buffers. spec.md §9's
// open question flags that an unbounded buffer lets a pathological
// gap (recovery never converging while updates keep arriving) grow
// memory without limit; resolved by capping and dropping the oldest
// buffered record, sized comfortably above one snapshot round's
// worth of records without approaching MAX_MARKET_UPDATES.
const RecoveryBufferCap = 4096

// orderedBuffer is a seq-keyed map with insertion-order eviction: a
// plain map alone doesn't remember which entry is oldest.
type orderedBuffer struct {
	entries map[domain.SeqNum]domain.MarketUpdate
	order   []domain.SeqNum
}

func newOrderedBuffer() *orderedBuffer {
	return &orderedBuffer{entries: make(map[domain.SeqNum]domain.MarketUpdate)}
}

func (b *orderedBuffer) put(seq domain.SeqNum, update domain.MarketUpdate) {
	if _, exists := b.entries[seq]; !exists {
		b.order = append(b.order, seq)
	}
	b.entries[seq] = update
	for len(b.order) > RecoveryBufferCap {
		oldest := b.order[0]
		b.order = b.order[1:]
		delete(b.entries, oldest)
	}
}

func (b *orderedBuffer) get(seq domain.SeqNum) (domain.MarketUpdate, bool) {
	u, ok := b.entries[seq]
	return u, ok
}

func (b *orderedBuffer) clear() {
	b.entries = make(map[domain.SeqNum]domain.MarketUpdate)
	b.order = b.order[:0]
}

// RecoveryBuffers holds the two keyed buffers spec.md §4.5 accumulates
// into once a gap is detected, and runs the recovery check spec.md
// §4.5 describes as five numbered steps.
type RecoveryBuffers struct {
	snap *orderedBuffer
	inc  *orderedBuffer

	highestInc  domain.SeqNum
	haveHighest bool
}

// NewRecoveryBuffers returns empty snap/inc buffers.
func NewRecoveryBuffers() *RecoveryBuffers {
	return &RecoveryBuffers{snap: newOrderedBuffer(), inc: newOrderedBuffer()}
}

// AddSnapshot buffers a snapshot-stream record keyed by its
// round-local sequence number. If seq==0 and a prior SNAPSHOT_START
// is already buffered, the previous round was incomplete: discard it
// and start fresh on the new round (spec.md §4.5's "duplicate
// SNAPSHOT_START" rule).
func (r *RecoveryBuffers) AddSnapshot(msg wire.MarketUpdate) {
	if msg.Seq == 0 {
		if _, exists := r.snap.get(0); exists {
			r.snap.clear()
		}
	}
	r.snap.put(msg.Seq, msg.Update)
}

// AddIncremental buffers an incremental-stream record keyed by its
// global sequence number.
func (r *RecoveryBuffers) AddIncremental(msg wire.MarketUpdate) {
	r.inc.put(msg.Seq, msg.Update)
	if !r.haveHighest || msg.Seq > r.highestInc {
		r.highestInc = msg.Seq
		r.haveHighest = true
	}
}

// Clear discards both buffers, called when entering recovery afresh
// or when a recovery attempt completes.
func (r *RecoveryBuffers) Clear() {
	r.snap.clear()
	r.inc.clear()
	r.haveHighest = false
}

// recoveryResult is what Check returns when a full splice succeeded.
type recoveryResult struct {
	// Updates is the ordered replay to hand to the participant's book:
	// every buffered snap entry except SNAPSHOT_START/END, followed by
	// the incrementals from align+1 onward.
	Updates         []domain.MarketUpdate
	NextExpectedSeq domain.SeqNum
}

// Check runs spec.md §4.5's five-step recovery check. It returns
// (result, true) once a complete, gap-free snapshot round plus a
// gap-free incremental run from its alignment point are both
// buffered; otherwise (zero, false) and the caller keeps buffering.
func (r *RecoveryBuffers) Check() (recoveryResult, bool) {
	start, ok := r.snap.get(0)
	if !ok || start.Type != domain.MarketUpdateSnapshotStart {
		return recoveryResult{}, false
	}

	// Walk snap ascending from 0; any gap means another round hasn't
	// finished landing yet.
	var ordered []domain.MarketUpdate
	var end domain.MarketUpdate
	foundEnd := false
	for seq := domain.SeqNum(0); ; seq++ {
		entry, ok := r.snap.get(seq)
		if !ok {
			r.snap.clear()
			return recoveryResult{}, false
		}
		if entry.Type == domain.MarketUpdateSnapshotEnd {
			end = entry
			foundEnd = true
			break
		}
		ordered = append(ordered, entry)
	}
	if !foundEnd {
		return recoveryResult{}, false
	}

	align := domain.SeqNum(end.OrderId)

	// Walk inc from align+1 up to the highest seq buffered so far. A
	// hole anywhere in that range is a genuine gap and aborts this
	// attempt; running out of buffered entries before reaching
	// highestInc never happens since highestInc is itself the top of
	// what's buffered — the walk always terminates exactly there.
	lastSeen := align
	var incrementals []domain.MarketUpdate
	if r.haveHighest && r.highestInc > align {
		for seq := align + 1; seq <= r.highestInc; seq++ {
			entry, ok := r.inc.get(seq)
			if !ok {
				return recoveryResult{}, false
			}
			incrementals = append(incrementals, entry)
			lastSeen = seq
		}
	}

	// ordered[0] is SNAPSHOT_START itself; drop it, keeping only the
	// CLEAR/ADD body.
	body := ordered[1:]
	replay := make([]domain.MarketUpdate, 0, len(body)+len(incrementals))
	replay = append(replay, body...)
	replay = append(replay, incrementals...)

	result := recoveryResult{Updates: replay, NextExpectedSeq: lastSeen + 1}
	r.Clear()
	return result, true
}
