// Package wire implements the fixed-width, sequence-number-prefixed
// binary framing spec.md §6 puts on the wire between gateway and
// client, and between the market-data publisher and its consumers.
package wire

import (
	"encoding/binary"
	"io"

	"voltex/domain"
)

// ClientRequest is the sequenced wire form of domain.ClientRequest —
// OMClientRequest in spec.md §6 — a per-client monotonically
// increasing sequence number prefixing the request payload.
type ClientRequest struct {
	Seq     domain.SeqNum
	Request domain.ClientRequest
}

// ClientResponse is the sequenced wire form of domain.ClientResponse.
type ClientResponse struct {
	Seq      domain.SeqNum
	Response domain.ClientResponse
}

// MarketUpdate is the sequenced wire form of domain.MarketUpdate,
// multicast on the incremental and snapshot market-data streams.
type MarketUpdate struct {
	Seq    domain.SeqNum
	Update domain.MarketUpdate
}

// Every field of ClientRequest/ClientResponse/MarketUpdate and the
// domain DTOs they embed is a fixed-width integer type, so
// encoding/binary can (de)serialize them directly via reflection
// without any hand-rolled byte-offset bookkeeping — the wire layout
// this package produces is these structs' fields in declaration order,
// packed with no alignment padding, little-endian. Grounded on
// original_source/exchange/order_server/client_request.h and
// client_response.h's packed-struct wire records, adapted from C++'s
// natural struct packing (unavailable in Go without unsafe, which the
// corpus never reaches for) to encoding/binary's structured
// (de)serialization — the idiomatic Go substitute the pack uses
// wherever it frames fixed binary records.
var byteOrder = binary.LittleEndian

// ClientRequestSize is the on-wire byte size of a framed ClientRequest.
var ClientRequestSize = binary.Size(ClientRequest{})

// ClientResponseSize is the on-wire byte size of a framed ClientResponse.
var ClientResponseSize = binary.Size(ClientResponse{})

// MarketUpdateSize is the on-wire byte size of a framed MarketUpdate.
var MarketUpdateSize = binary.Size(MarketUpdate{})

// EncodeClientRequest writes a framed request to w.
func EncodeClientRequest(w io.Writer, msg ClientRequest) error {
	return binary.Write(w, byteOrder, msg)
}

// DecodeClientRequest reads one framed request from r.
func DecodeClientRequest(r io.Reader) (ClientRequest, error) {
	var msg ClientRequest
	err := binary.Read(r, byteOrder, &msg)
	return msg, err
}

// EncodeClientResponse writes a framed response to w.
func EncodeClientResponse(w io.Writer, msg ClientResponse) error {
	return binary.Write(w, byteOrder, msg)
}

// DecodeClientResponse reads one framed response from r.
func DecodeClientResponse(r io.Reader) (ClientResponse, error) {
	var msg ClientResponse
	err := binary.Read(r, byteOrder, &msg)
	return msg, err
}

// EncodeMarketUpdate writes a framed market update to w.
func EncodeMarketUpdate(w io.Writer, msg MarketUpdate) error {
	return binary.Write(w, byteOrder, msg)
}

// DecodeMarketUpdate reads one framed market update from r.
func DecodeMarketUpdate(r io.Reader) (MarketUpdate, error) {
	var msg MarketUpdate
	err := binary.Read(r, byteOrder, &msg)
	return msg, err
}
