package wire

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Pianissimo-3115/2501-col334-assignment4/internal/seqnum"
)

func TestEncodeParseSegmentRoundTrip(t *testing.T) {
	payload := []byte("hello, world")
	datagram := EncodeSegment(seqnum.Value(42), payload)

	seg, err := ParseSegment(datagram)
	require.NoError(t, err)
	require.Equal(t, seqnum.Value(42), seg.Seq)
	require.Equal(t, KindData, seg.Kind)
	require.Equal(t, payload, seg.Payload)
}

func TestEncodeParseEOFSegment(t *testing.T) {
	datagram := EncodeSegment(seqnum.Value(7), EOFPayload())

	seg, err := ParseSegment(datagram)
	require.NoError(t, err)
	require.Equal(t, seqnum.Value(7), seg.Seq)
	require.Equal(t, KindEOF, seg.Kind)
	require.Nil(t, seg.Payload)
}

func TestParseSegmentRejectsShortDatagram(t *testing.T) {
	_, err := ParseSegment(make([]byte, HeaderSize))
	require.Error(t, err)

	_, err = ParseSegment(make([]byte, 3))
	require.Error(t, err)
}

func TestEncodeParseAckRoundTrip(t *testing.T) {
	var sack Bitmap
	sack.Set(0)
	sack.Set(5)
	sack.Set(127)

	datagram := EncodeAck(seqnum.Value(1000), sack)
	cumAck, decoded, err := ParseAck(datagram)
	require.NoError(t, err)
	require.Equal(t, seqnum.Value(1000), cumAck)

	require.True(t, decoded.Test(0))
	require.True(t, decoded.Test(5))
	require.True(t, decoded.Test(127))
	require.False(t, decoded.Test(1))
	require.False(t, decoded.Test(64))
}

func TestParseAckRejectsShortDatagram(t *testing.T) {
	_, _, err := ParseAck(make([]byte, HeaderSize-1))
	require.Error(t, err)
}

func TestBitmapOutOfRangeIsNoop(t *testing.T) {
	var b Bitmap
	b.Set(-1)
	b.Set(SackBits)
	require.False(t, b.Test(-1))
	require.False(t, b.Test(SackBits))
}

func TestIsRequest(t *testing.T) {
	require.True(t, IsRequest(RequestPayload()))
	require.False(t, IsRequest([]byte{0x02}))
	require.False(t, IsRequest([]byte{0x01, 0x01}))
}

func TestIsEOFPayload(t *testing.T) {
	require.True(t, IsEOFPayload(EOFPayload()))
	require.False(t, IsEOFPayload([]byte("EOX")))
	require.False(t, IsEOFPayload([]byte("EO")))
}

func TestBitmapEncodeDecodeRoundTrip(t *testing.T) {
	var b Bitmap
	for i := 0; i < SackBits; i += 3 {
		b.Set(i)
	}
	encoded := b.Encode()
	decoded := DecodeBitmap(encoded[:])
	require.Equal(t, b, decoded)
}
