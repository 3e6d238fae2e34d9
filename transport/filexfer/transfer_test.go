package filexfer

import (
	"bytes"
	"io"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/Pianissimo-3115/2501-col334-assignment4/internal/metrics"
	"github.com/Pianissimo-3115/2501-col334-assignment4/internal/wire"
)

func discardEntry() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log.WithField("harness", "test")
}

// runTransfer drives one sender against one receiver over m, returning
// the receiver's reconstructed bytes and its Result once both sides have
// terminated. It fails the test if either side returns an error.
func runTransfer(t *testing.T, m *medium, file []byte, swsBytes int) ([]byte, Result) {
	t.Helper()

	serverAddr := fakeAddr("server")
	clientAddr := fakeAddr("client")

	serverConn := m.newConn(serverAddr)
	clientConn := m.newConn(clientAddr)

	sender := NewSender(serverConn, file, swsBytes, discardEntry(), metrics.NewStats())
	defer sender.Close()

	var out bytes.Buffer
	receiver := NewReceiver(clientConn, serverAddr, &out, discardEntry(), metrics.NewStats())
	defer receiver.Close()

	senderErr := make(chan error, 1)
	go func() { senderErr <- sender.Run() }()

	result, err := receiver.Run()
	require.NoError(t, err)

	select {
	case err := <-senderErr:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("sender did not terminate after receiver completed")
	}

	return out.Bytes(), result
}

func randomFile(size int) []byte {
	b := make([]byte, size)
	rand.Read(b)
	return b
}

func TestTransferCleanChannel(t *testing.T) {
	m := newMedium()
	file := randomFile(5 * wire.MSS)

	got, result := runTransfer(t, m, file, 4*wire.MSS)
	require.True(t, result.Complete)
	require.Equal(t, file, got)
}

func TestTransferZeroByteFile(t *testing.T) {
	m := newMedium()

	got, result := runTransfer(t, m, nil, 4*wire.MSS)
	require.True(t, result.Complete)
	require.Empty(t, got)
}

func TestTransferExactlyMSS(t *testing.T) {
	m := newMedium()
	file := randomFile(wire.MSS)

	got, result := runTransfer(t, m, file, 4*wire.MSS)
	require.True(t, result.Complete)
	require.Equal(t, file, got)
}

func TestTransferMSSMinusOne(t *testing.T) {
	m := newMedium()
	file := randomFile(wire.MSS - 1)

	got, result := runTransfer(t, m, file, 4*wire.MSS)
	require.True(t, result.Complete)
	require.Equal(t, file, got)
}

func TestTransferUniformLoss(t *testing.T) {
	m := newMedium()
	m.drop = uniformLoss(0.15)
	file := randomFile(10 * wire.MSS)

	got, result := runTransfer(t, m, file, 6*wire.MSS)
	require.True(t, result.Complete)
	require.Equal(t, file, got)
}

func TestTransferReorderingAndJitter(t *testing.T) {
	m := newMedium()
	m.delay = jitter(20 * time.Millisecond)
	file := randomFile(8 * wire.MSS)

	got, result := runTransfer(t, m, file, 6*wire.MSS)
	require.True(t, result.Complete)
	require.Equal(t, file, got)
}

func TestTransferDuplication(t *testing.T) {
	m := newMedium()
	m.duplicates = func() int { return 2 }
	file := randomFile(6 * wire.MSS)

	got, result := runTransfer(t, m, file, 4*wire.MSS)
	require.True(t, result.Complete)
	require.Equal(t, file, got)
}

func TestTransferAckStorm(t *testing.T) {
	m := newMedium()
	// About 30% of datagrams in either direction, ACKs included, are
	// amplified into a burst of five extra copies, exercising the
	// sender's duplicate-ack and fast-retransmit handling without any
	// datagram being lost.
	m.duplicates = func() int {
		if rand.Float64() < 0.3 {
			return 5
		}
		return 0
	}
	file := randomFile(6 * wire.MSS)

	got, result := runTransfer(t, m, file, 4*wire.MSS)
	require.True(t, result.Complete)
	require.Equal(t, file, got)
}

func TestTransferRepeatedEOFLoss(t *testing.T) {
	m := newMedium()

	var mu sync.Mutex
	eofDropsLeft := 4
	m.dropData = func(data []byte) bool {
		seg, err := wire.ParseSegment(data)
		if err != nil || seg.Kind != wire.KindEOF {
			return false
		}
		mu.Lock()
		defer mu.Unlock()
		if eofDropsLeft > 0 {
			eofDropsLeft--
			return true
		}
		return false
	}

	file := randomFile(4 * wire.MSS)
	got, result := runTransfer(t, m, file, 4*wire.MSS)
	require.True(t, result.Complete)
	require.Equal(t, file, got)
}

func TestTransferLossAndDuplicationCombined(t *testing.T) {
	m := newMedium()
	m.drop = uniformLoss(0.1)
	m.duplicates = func() int {
		if rand.Float64() < 0.2 {
			return 1
		}
		return 0
	}
	m.delay = jitter(10 * time.Millisecond)
	file := randomFile(12 * wire.MSS)

	got, result := runTransfer(t, m, file, 8*wire.MSS)
	require.True(t, result.Complete)
	require.Equal(t, file, got)
}
