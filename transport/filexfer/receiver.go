package filexfer

import (
	"io"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Pianissimo-3115/2501-col334-assignment4/internal/metrics"
	"github.com/Pianissimo-3115/2501-col334-assignment4/internal/seqnum"
	"github.com/Pianissimo-3115/2501-col334-assignment4/internal/wire"
	"github.com/Pianissimo-3115/2501-col334-assignment4/internal/xerrors"
)

const (
	requestRetries  = 5
	requestTimeout  = 2 * time.Second
	segmentTimeout  = 300 * time.Millisecond
	ackInterval     = 50 * time.Millisecond
	postEOFIdle     = 3 * time.Second
	hardCapTimeouts = 100
	finalAckCount   = 5
	finalAckSpacing = 20 * time.Millisecond
)

// Result reports the outcome of a Receiver run.
type Result struct {
	// Complete is true iff every segment in [0, eof_seq) was delivered
	// in order before the run ended.
	Complete bool
	// Delivered is the number of in-order segments written to the sink
	// (equivalently, the final value of "expected").
	Delivered seqnum.Value
	// Missing lists the gap set when Complete is false and EOF had been
	// observed.
	Missing []seqnum.Value
}

// Receiver solicits a transfer from peer, reassembles the segments it
// receives in order, and writes the reconstructed stream to sink.
type Receiver struct {
	sock *socket
	peer net.Addr
	sink io.Writer

	log   *logrus.Entry
	stats *metrics.Stats

	expected seqnum.Value
	buffer   map[seqnum.Value][]byte

	haveEOF       bool
	eofSeq        seqnum.Value
	eofObservedAt time.Time

	lastAckTime time.Time
}

// NewReceiver builds a Receiver that will solicit a transfer from peer
// over conn and write the reconstructed stream to sink.
func NewReceiver(conn net.PacketConn, peer net.Addr, sink io.Writer, log *logrus.Entry, stats *metrics.Stats) *Receiver {
	return &Receiver{
		sock:   newSocket(conn),
		peer:   peer,
		sink:   sink,
		log:    log,
		stats:  stats,
		buffer: make(map[seqnum.Value][]byte),
	}
}

// Close releases the underlying socket.
func (r *Receiver) Close() error {
	return r.sock.close()
}

// Run blocks until the transfer completes or a terminal condition is
// reached.
func (r *Receiver) Run() (Result, error) {
	if err := r.solicit(); err != nil {
		return Result{}, err
	}

	consecutiveTimeouts := 0
	var lastRecvAt time.Time
	for {
		r.sock.mu.Lock()
		closed := r.sock.closed
		r.sock.mu.Unlock()
		if closed {
			return r.result(false), net.ErrClosed
		}

		if r.sock.waitReadable(segmentTimeout) {
			drained := r.drainSegments()
			if drained > 0 {
				consecutiveTimeouts = 0
				lastRecvAt = time.Now()
			}
		} else {
			consecutiveTimeouts++
			r.onTimeout()
			if consecutiveTimeouts >= hardCapTimeouts {
				return r.result(false), xerrors.ErrPeerSilent
			}
		}

		if r.haveEOF {
			if r.expected == r.eofSeq {
				r.log.Info("transfer complete")
				r.sendFinalAcks()
				return r.result(true), nil
			}
			idleSince := r.eofObservedAt
			if lastRecvAt.After(idleSince) {
				idleSince = lastRecvAt
			}
			if time.Since(idleSince) >= postEOFIdle {
				r.log.Warn("post-eof idle deadline elapsed with gaps outstanding")
				return r.result(false), xerrors.ErrIncompleteTransfer
			}
		}
	}
}

// solicit sends the one-byte handshake request, retrying on a timeout,
// per the handshake's retry contract.
func (r *Receiver) solicit() error {
	for attempt := 0; attempt < requestRetries; attempt++ {
		if err := r.sock.sendTo(wire.RequestPayload(), r.peer); err != nil {
			r.log.WithError(err).Debug("request send failed")
		}
		if r.sock.waitReadable(requestTimeout) {
			return nil
		}
		r.log.WithField("attempt", attempt+1).Warn("request timed out, retrying")
	}
	return xerrors.ErrNoClient
}

// drainSegments processes every datagram currently queued and returns
// how many it handled.
func (r *Receiver) drainSegments() int {
	n := 0
	for {
		d, ok := r.sock.tryRecv()
		if !ok {
			return n
		}
		r.handleDatagram(d)
		n++
	}
}

func (r *Receiver) handleDatagram(d inboundDatagram) {
	seg, err := wire.ParseSegment(d.data)
	if err != nil {
		r.stats.IncMalformedDatagrams()
		return
	}

	if seg.Kind == wire.KindEOF {
		if !r.haveEOF {
			r.haveEOF = true
			r.eofSeq = seg.Seq
			r.eofObservedAt = time.Now()
			r.log.WithField("eof_seq", uint32(seg.Seq)).Info("eof segment observed")
		}
		r.emitAck()
		return
	}

	if seg.Seq.LessThan(r.expected) {
		// Duplicate or straggler: dropped, but still acked to help the
		// sender make progress under pure ACK loss.
		r.emitAck()
		return
	}

	if _, buffered := r.buffer[seg.Seq]; !buffered {
		payload := make([]byte, len(seg.Payload))
		copy(payload, seg.Payload)
		r.buffer[seg.Seq] = payload
	}

	for {
		payload, ok := r.buffer[r.expected]
		if !ok {
			break
		}
		n, err := r.sink.Write(payload)
		if err != nil {
			r.log.WithError(err).Error("sink write failed")
			break
		}
		r.stats.AddBytesDelivered(n)
		delete(r.buffer, r.expected)
		r.expected++
	}

	r.emitAck()
}

// onTimeout re-emits the current ACK if ack_interval has elapsed since
// the last one was sent.
func (r *Receiver) onTimeout() {
	if time.Since(r.lastAckTime) >= ackInterval {
		r.emitAck()
	}
}

// cumAck reports the cumulative ack value: expected, or eofSeq+1 once
// every data segment has been delivered and the EOF segment itself has
// been observed, so the EOF segment gets acked in turn instead of being
// retransmitted by the sender forever.
func (r *Receiver) cumAck() seqnum.Value {
	if r.haveEOF && r.expected == r.eofSeq {
		return r.eofSeq.Add(1)
	}
	return r.expected
}

func (r *Receiver) emitAck() {
	ack := wire.EncodeAck(r.cumAck(), r.buildSack())
	if err := r.sock.sendTo(ack, r.peer); err != nil {
		r.log.WithError(err).Debug("ack send failed")
	}
	r.lastAckTime = time.Now()
}

func (r *Receiver) sendFinalAcks() {
	ack := wire.EncodeAck(r.cumAck(), r.buildSack())
	for i := 0; i < finalAckCount; i++ {
		if err := r.sock.sendTo(ack, r.peer); err != nil {
			r.log.WithError(err).Debug("final ack send failed")
		}
		if i != finalAckCount-1 {
			time.Sleep(finalAckSpacing)
		}
	}
}

// buildSack reports, relative to expected, which out-of-order segments
// are currently buffered. It never describes a segment already
// delivered, since the bitmap is indexed from expected itself.
func (r *Receiver) buildSack() wire.Bitmap {
	var b wire.Bitmap
	for i := 0; i < wire.SackBits; i++ {
		if _, ok := r.buffer[r.expected.Add(seqnum.Size(i))]; ok {
			b.Set(i)
		}
	}
	return b
}

func (r *Receiver) result(complete bool) Result {
	res := Result{Complete: complete, Delivered: r.expected}
	if !complete && r.haveEOF {
		for seq := r.expected; seq.LessThan(r.eofSeq); seq = seq.Add(1) {
			if _, ok := r.buffer[seq]; !ok {
				res.Missing = append(res.Missing, seq)
			}
		}
	}
	return res
}
