package wire

import (
	"encoding/binary"

	"github.com/Pianissimo-3115/2501-col334-assignment4/internal/seqnum"
)

const (
	seqField      = 0
	cumAckField   = 0
	reservedField = 4
	sackField     = 4
)

const (
	// HeaderSize is the fixed size, in bytes, of both a segment header
	// and an ACK.
	HeaderSize = 20

	// MSS is the maximum payload a single data segment may carry.
	MSS = 1180

	// MaxDatagramSize is HeaderSize + MSS, the largest datagram this
	// engine ever sends.
	MaxDatagramSize = HeaderSize + MSS
)

// eofPayload is the literal three-byte payload that marks the terminal
// segment. It is a wire-format marker, not a content marker: the
// receiver must never compare file bytes against it, only the dedicated
// Kind recorded out of band by the caller that parsed the segment.
var eofPayload = []byte("EOF")

// SegmentHeader is a 20-byte DATA/EOF segment header.
type SegmentHeader []byte

// SequenceNumber returns the segment's sequence number.
func (h SegmentHeader) SequenceNumber() seqnum.Value {
	return seqnum.Value(binary.BigEndian.Uint32(h[seqField:]))
}

// AckHeader is a 20-byte ACK header.
type AckHeader []byte

// CumulativeAck returns the next sequence number the receiver expects.
func (h AckHeader) CumulativeAck() seqnum.Value {
	return seqnum.Value(binary.BigEndian.Uint32(h[cumAckField:]))
}

// SelectiveAck decodes the selective-ack bitmap carried after cum_ack.
func (h AckHeader) SelectiveAck() Bitmap {
	return DecodeBitmap(h[sackField : sackField+sackBytes])
}

// EncodeSegment packs a DATA or EOF segment into a wire datagram.
// payload must already be EOF-literal for an EOF segment and at most MSS
// bytes for a DATA segment.
func EncodeSegment(seq seqnum.Value, payload []byte) []byte {
	p := NewPrependable(HeaderSize + len(payload))
	copy(p.Prepend(len(payload)), payload)
	h := p.Prepend(HeaderSize)
	binary.BigEndian.PutUint32(h[seqField:], uint32(seq))
	// h[reservedField:] is left zero-filled, as NewView zero-initializes.
	return p.UsedBytes()
}

// EncodeAck packs a cumulative-ack + selective-ack report into a 20-byte
// wire datagram.
func EncodeAck(cumAck seqnum.Value, sack Bitmap) []byte {
	buf := NewView(HeaderSize)
	binary.BigEndian.PutUint32(buf[cumAckField:], uint32(cumAck))
	encoded := sack.Encode()
	copy(buf[sackField:], encoded[:])
	return buf
}

// IsEOFPayload reports whether payload is the literal EOF marker.
func IsEOFPayload(payload []byte) bool {
	return len(payload) == len(eofPayload) && string(payload) == string(eofPayload)
}

// EOFPayload returns the literal three-byte EOF marker payload.
func EOFPayload() []byte {
	out := make([]byte, len(eofPayload))
	copy(out, eofPayload)
	return out
}
