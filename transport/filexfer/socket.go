package filexfer

import (
	"net"
	"sync"
	"time"

	"github.com/Pianissimo-3115/2501-col334-assignment4/internal/sleep"
	"github.com/Pianissimo-3115/2501-col334-assignment4/internal/wire"
)

const (
	wakerReadable = iota
	wakerTimeout
)

// inboundDatagram is a single received, already-copied datagram.
type inboundDatagram struct {
	data []byte
	addr net.Addr
}

// socket adapts a net.PacketConn into the single-consumer, waker-driven
// shape the engine's main loop expects. A background goroutine does the
// only blocking read; everything it hands off is read by the engine's
// one goroutine, so the engine's own state is never touched by more than
// one goroutine at a time. Readable is asserted once per datagram queued.
type socket struct {
	conn net.PacketConn

	Readable sleep.Waker

	mu     sync.Mutex
	queue  []inboundDatagram
	closed bool
}

func newSocket(conn net.PacketConn) *socket {
	s := &socket{conn: conn}
	go s.readLoop()
	return s
}

func (s *socket) readLoop() {
	buf := make([]byte, wire.MaxDatagramSize)
	for {
		n, addr, err := s.conn.ReadFrom(buf)
		if err != nil {
			// Conn was closed (or is otherwise dead); nothing more to
			// deliver.
			return
		}
		cp := make([]byte, n)
		copy(cp, buf[:n])

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		s.queue = append(s.queue, inboundDatagram{data: cp, addr: addr})
		s.mu.Unlock()

		s.Readable.Assert()
	}
}

// tryRecv returns the oldest queued datagram, if any, without blocking.
func (s *socket) tryRecv() (inboundDatagram, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return inboundDatagram{}, false
	}
	d := s.queue[0]
	s.queue = s.queue[1:]
	return d, true
}

func (s *socket) sendTo(b []byte, addr net.Addr) error {
	_, err := s.conn.WriteTo(b, addr)
	return err
}

func (s *socket) close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.conn.Close()
}

// waitReadable blocks until a datagram is queued or d elapses, whichever
// comes first, returning false on timeout. It is the one place the
// engine's single goroutine suspends waiting on the reader goroutine.
func (s *socket) waitReadable(d time.Duration) bool {
	var sleeper sleep.Sleeper
	var timeoutWaker sleep.Waker
	sleeper.AddWaker(&s.Readable, wakerReadable)
	sleeper.AddWaker(&timeoutWaker, wakerTimeout)

	timer := time.AfterFunc(d, timeoutWaker.Assert)
	id, _ := sleeper.Fetch(true)
	timer.Stop()

	return id == wakerReadable
}
