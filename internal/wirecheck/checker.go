// Package wirecheck provides composable assertions over parsed segments
// and acks, for use from tests only. It is the domain analog of the
// teacher's checker package, which composes NetworkChecker/
// TransportChecker functions over parsed IPv4/TCP headers; this package
// composes the same way over this protocol's segment and ack headers
// instead.
package wirecheck

import (
	"testing"

	"github.com/Pianissimo-3115/2501-col334-assignment4/internal/seqnum"
	"github.com/Pianissimo-3115/2501-col334-assignment4/internal/wire"
)

// SegmentChecker checks a property of a parsed segment. Used in
// conjunction with other checkers, for example:
//
//	wirecheck.Segment(t, datagram, wirecheck.Seq(5), wirecheck.SegKind(wire.KindData))
type SegmentChecker func(*testing.T, wire.Segment)

// Segment parses datagram as a segment and applies every checker to it,
// failing t on the first mismatch or parse error.
func Segment(t *testing.T, datagram []byte, checkers ...SegmentChecker) {
	t.Helper()

	seg, err := wire.ParseSegment(datagram)
	if err != nil {
		t.Fatalf("not a valid segment: %v", err)
	}
	for _, c := range checkers {
		c(t, seg)
	}
}

// Seq creates a checker that checks the segment's sequence number.
func Seq(want seqnum.Value) SegmentChecker {
	return func(t *testing.T, s wire.Segment) {
		t.Helper()
		if s.Seq != want {
			t.Fatalf("bad sequence number, got %v, want %v", s.Seq, want)
		}
	}
}

// SegKind creates a checker that checks the segment's kind.
func SegKind(want wire.Kind) SegmentChecker {
	return func(t *testing.T, s wire.Segment) {
		t.Helper()
		if s.Kind != want {
			t.Fatalf("bad segment kind, got %v, want %v", s.Kind, want)
		}
	}
}

// Payload creates a checker that checks the segment's payload bytes.
func Payload(want []byte) SegmentChecker {
	return func(t *testing.T, s wire.Segment) {
		t.Helper()
		if len(s.Payload) != len(want) {
			t.Fatalf("bad payload length, got %v, want %v", len(s.Payload), len(want))
		}
		for i := range want {
			if s.Payload[i] != want[i] {
				t.Fatalf("payload mismatch at byte %d, got %x, want %x", i, s.Payload[i], want[i])
			}
		}
	}
}

// AckChecker checks a property of a parsed ack.
type AckChecker func(*testing.T, seqnum.Value, wire.Bitmap)

// Ack parses datagram as an ack and applies every checker to it.
func Ack(t *testing.T, datagram []byte, checkers ...AckChecker) {
	t.Helper()

	cumAck, sack, err := wire.ParseAck(datagram)
	if err != nil {
		t.Fatalf("not a valid ack: %v", err)
	}
	for _, c := range checkers {
		c(t, cumAck, sack)
	}
}

// CumAck creates a checker that checks the ack's cumulative sequence
// number.
func CumAck(want seqnum.Value) AckChecker {
	return func(t *testing.T, got seqnum.Value, _ wire.Bitmap) {
		t.Helper()
		if got != want {
			t.Fatalf("bad cumulative ack, got %v, want %v", got, want)
		}
	}
}

// Sacked creates a checker that checks that every offset in offsets is
// marked received in the ack's selective report.
func Sacked(offsets ...int) AckChecker {
	return func(t *testing.T, _ seqnum.Value, sack wire.Bitmap) {
		t.Helper()
		for _, i := range offsets {
			if !sack.Test(i) {
				t.Fatalf("expected offset %d to be sacked", i)
			}
		}
	}
}
