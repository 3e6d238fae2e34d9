package wire_test

import (
	"testing"

	"github.com/Pianissimo-3115/2501-col334-assignment4/internal/seqnum"
	"github.com/Pianissimo-3115/2501-col334-assignment4/internal/wire"
	"github.com/Pianissimo-3115/2501-col334-assignment4/internal/wirecheck"
)

func TestCheckerAgainstEncodedSegment(t *testing.T) {
	payload := []byte("abc123")
	datagram := wire.EncodeSegment(seqnum.Value(9), payload)

	wirecheck.Segment(t, datagram,
		wirecheck.Seq(seqnum.Value(9)),
		wirecheck.SegKind(wire.KindData),
		wirecheck.Payload(payload),
	)
}

func TestCheckerAgainstEncodedEOF(t *testing.T) {
	datagram := wire.EncodeSegment(seqnum.Value(3), wire.EOFPayload())

	wirecheck.Segment(t, datagram,
		wirecheck.Seq(seqnum.Value(3)),
		wirecheck.SegKind(wire.KindEOF),
	)
}

func TestCheckerAgainstEncodedAck(t *testing.T) {
	var sack wire.Bitmap
	sack.Set(2)
	sack.Set(9)
	datagram := wire.EncodeAck(seqnum.Value(50), sack)

	wirecheck.Ack(t, datagram,
		wirecheck.CumAck(seqnum.Value(50)),
		wirecheck.Sacked(2, 9),
	)
}
