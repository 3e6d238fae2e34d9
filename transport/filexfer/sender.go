package filexfer

import (
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Pianissimo-3115/2501-col334-assignment4/internal/metrics"
	"github.com/Pianissimo-3115/2501-col334-assignment4/internal/seqnum"
	"github.com/Pianissimo-3115/2501-col334-assignment4/internal/wire"
	"github.com/Pianissimo-3115/2501-col334-assignment4/internal/xerrors"
)

const (
	idleDeadline    = 15 * time.Second
	ackDrainSlice   = 10 * time.Millisecond
	quantumSleep    = 10 * time.Millisecond
	drainWait       = 500 * time.Millisecond
	holeFillMinimum = 100 * time.Millisecond
)

// Sender drives the sliding-window transmission of one file to one peer.
// It owns its retransmission buffer and RTT estimator and holds no state
// shared with any other Sender or Receiver.
type Sender struct {
	sock *socket
	peer net.Addr

	log   *logrus.Entry
	stats *metrics.Stats

	payloads [][]byte
	total    seqnum.Value
	mss      int
	swsBytes int

	base    seqnum.Value
	nextSeq seqnum.Value
	wnd     *window

	rtt            rttEstimator
	dupAckCount    int
	lastCumAck     seqnum.Value
	haveLastCumAck bool
}

// NewSender builds a Sender that will transmit fileBytes to whatever
// peer first sends the one-byte handshake request on conn, bounded by a
// sws_bytes byte budget.
func NewSender(conn net.PacketConn, fileBytes []byte, swsBytes int, log *logrus.Entry, stats *metrics.Stats) *Sender {
	payloads := buildPayloads(fileBytes)
	return &Sender{
		sock:     newSocket(conn),
		log:      log,
		stats:    stats,
		payloads: payloads,
		total:    seqnum.Value(len(payloads)),
		mss:      wire.MSS,
		swsBytes: swsBytes,
		wnd:      newWindow(),
		rtt:      newRTTEstimator(),
	}
}

// buildPayloads splits file into MSS-sized chunks and appends the
// terminal EOF payload. A zero-length file yields a single EOF segment
// at seq 0.
func buildPayloads(file []byte) [][]byte {
	var out [][]byte
	for i := 0; i < len(file); i += wire.MSS {
		end := i + wire.MSS
		if end > len(file) {
			end = len(file)
		}
		out = append(out, file[i:end])
	}
	out = append(out, wire.EOFPayload())
	return out
}

// Close releases the underlying socket.
func (s *Sender) Close() error {
	return s.sock.close()
}

// Run blocks until the file has been fully delivered (the receiver has
// cumulatively acked EOF) or a terminal local error occurs.
func (s *Sender) Run() error {
	if err := s.waitForRequest(); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"total_segments": int(s.total),
		"sws_bytes":      s.swsBytes,
	}).Info("request received, starting transfer")

	for s.base < s.total {
		s.sock.mu.Lock()
		closed := s.sock.closed
		s.sock.mu.Unlock()
		if closed {
			return net.ErrClosed
		}

		sentAdmit := s.admit()
		sentRetransmit := s.retransmitOnTimeout()
		processedAck := s.readAcks()

		s.stats.SetRTT(s.rtt.srtt, s.rtt.rto)
		s.stats.SetWindowOccupancy(s.wnd.len())

		if !sentAdmit && !sentRetransmit && !processedAck {
			time.Sleep(quantumSleep)
		}
	}

	s.log.Info("all segments acked including EOF, draining")
	time.Sleep(drainWait)
	return nil
}

// waitForRequest implements the IDLE state: wait up to idleDeadline for
// the one-byte handshake request.
func (s *Sender) waitForRequest() error {
	deadline := time.Now().Add(idleDeadline)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return xerrors.ErrNoClient
		}

		d, ok := s.sock.tryRecv()
		if !ok {
			s.sock.waitReadable(remaining)
			continue
		}
		if wire.IsRequest(d.data) {
			s.peer = d.addr
			return nil
		}
		s.stats.IncMalformedDatagrams()
	}
}

// admit fills the window with newly-sent segments up to the byte budget.
// It returns true if it sent anything.
func (s *Sender) admit() bool {
	sent := false
	for s.nextSeq < s.total {
		occupied := int(s.base.Size(s.nextSeq))
		if occupied*s.mss >= s.swsBytes {
			break
		}

		seq := s.nextSeq
		wireBytes := wire.EncodeSegment(seq, s.payloads[seq])
		if err := s.sock.sendTo(wireBytes, s.peer); err != nil {
			s.log.WithError(err).Debug("send failed, will be retried on timeout")
		}

		s.wnd.push(&windowEntry{seq: seq, wire: wireBytes, lastSendTime: time.Now()})
		s.nextSeq++
		s.stats.IncSegmentsSent()
		sent = true
	}
	return sent
}

// retransmitOnTimeout resends any unsacked segment whose RTO has
// elapsed. It returns true if it sent anything.
func (s *Sender) retransmitOnTimeout() bool {
	sent := false
	now := time.Now()
	s.wnd.forEach(func(e *windowEntry) {
		if e.sacked {
			return
		}
		if now.Sub(e.lastSendTime) > s.rtt.rto {
			s.resend(e, now)
			sent = true
		}
	})
	return sent
}

func (s *Sender) resend(e *windowEntry, now time.Time) {
	if err := s.sock.sendTo(e.wire, s.peer); err != nil {
		s.log.WithError(err).WithField("seq", uint32(e.seq)).Debug("retransmit send failed")
	}
	e.lastSendTime = now
	e.retransmitted = true
	s.stats.IncSegmentsSent()
	s.stats.IncRetransmitted()
}

// readAcks drains whatever ACKs are available within a bounded slice of
// wall-clock time, processing each one. It returns true if it processed
// at least one ACK.
func (s *Sender) readAcks() bool {
	deadline := time.Now().Add(ackDrainSlice)
	processed := false

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return processed
		}

		d, ok := s.sock.tryRecv()
		if !ok {
			if !s.sock.waitReadable(remaining) {
				return processed
			}
			continue
		}

		cumAck, sack, err := wire.ParseAck(d.data)
		if err != nil {
			s.stats.IncMalformedDatagrams()
			continue
		}
		s.processAck(cumAck, sack)
		processed = true
	}
}

// processAck applies one ACK's cumulative and selective reports to the
// window.
func (s *Sender) processAck(c seqnum.Value, sack wire.Bitmap) {
	if s.base.LessThan(c) {
		now := time.Now()
		for seq := s.base; seq.LessThan(c); seq = seq.Add(1) {
			if e, ok := s.wnd.get(seq); ok {
				if !e.retransmitted {
					s.rtt.addSample(now.Sub(e.lastSendTime))
				}
				s.wnd.remove(seq)
			}
		}
		s.base = c
	}

	if s.haveLastCumAck && c == s.lastCumAck {
		s.dupAckCount++
		s.stats.IncDuplicateAcks()
		if s.dupAckCount == 3 {
			if e, ok := s.wnd.get(s.base); ok {
				s.resend(e, time.Now())
				s.stats.IncFastRetransmitted()
			}
			s.dupAckCount = 0
		}
	} else {
		s.dupAckCount = 0
		s.lastCumAck = c
		s.haveLastCumAck = true
	}

	for i := 0; i < wire.SackBits; i++ {
		if !sack.Test(i) {
			continue
		}
		seq := c.Add(seqnum.Size(i))
		if e, ok := s.wnd.get(seq); ok && !e.sacked {
			e.sacked = true
			s.stats.IncSacked()
		}
	}

	threshold := s.rtt.rto / 4
	if threshold < holeFillMinimum {
		threshold = holeFillMinimum
	}
	now := time.Now()
	s.wnd.forEach(func(e *windowEntry) {
		if e.sacked {
			return
		}
		if now.Sub(e.lastSendTime) > threshold {
			s.resend(e, now)
		}
	})
}

