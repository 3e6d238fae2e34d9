package wire

import (
	"github.com/Pianissimo-3115/2501-col334-assignment4/internal/seqnum"
	"github.com/Pianissimo-3115/2501-col334-assignment4/internal/xerrors"
)

// Kind distinguishes a DATA segment from the terminal EOF segment.
type Kind uint8

const (
	// KindData is a regular data segment carrying up to MSS bytes of
	// file payload.
	KindData Kind = iota
	// KindEOF is the terminal segment; its payload is always the
	// literal three bytes "EOF" and carries no file data.
	KindEOF
)

// Segment is a parsed DATA or EOF segment.
type Segment struct {
	Seq     seqnum.Value
	Kind    Kind
	Payload []byte
}

// ParseSegment parses a received datagram as a DATA/EOF segment. It
// returns ErrMalformedDatagram for any datagram too short to contain a
// header or with a zero-length payload; callers must drop such datagrams
// without crashing, per the error-handling policy.
func ParseSegment(datagram []byte) (Segment, error) {
	if len(datagram) <= HeaderSize {
		return Segment{}, xerrors.ErrMalformedDatagram
	}

	h := SegmentHeader(datagram[:HeaderSize])
	payload := datagram[HeaderSize:]

	seg := Segment{
		Seq:     h.SequenceNumber(),
		Payload: payload,
	}
	if IsEOFPayload(payload) {
		seg.Kind = KindEOF
		seg.Payload = nil
	}
	return seg, nil
}

// ParseAck parses a received datagram as an ACK. It returns
// ErrMalformedDatagram for any datagram shorter than HeaderSize.
func ParseAck(datagram []byte) (cumAck seqnum.Value, sack Bitmap, err error) {
	if len(datagram) < HeaderSize {
		return 0, Bitmap{}, xerrors.ErrMalformedDatagram
	}
	h := AckHeader(datagram[:HeaderSize])
	return h.CumulativeAck(), h.SelectiveAck(), nil
}

// IsRequest reports whether datagram is the one-byte handshake request
// (payload value 0x01).
func IsRequest(datagram []byte) bool {
	return len(datagram) == 1 && datagram[0] == 0x01
}

// RequestPayload is the one-byte handshake request datagram payload.
func RequestPayload() []byte {
	return []byte{0x01}
}
