// Package sleep allows a goroutine to block on multiple notification
// sources ("wakers") at once and be told which one fired, instead of
// dedicating a goroutine per source and fanning the results into a
// channel by hand. It is used by the sender and receiver main loops to
// wait, with a bound, on "socket became readable" and "timer expired"
// simultaneously.
package sleep

import "sync"

// Waker is a notification source. Multiple wakers can be registered with
// the same Sleeper, each with its own id, so that Fetch can report which
// one was asserted.
//
// The zero value for Waker is usable, but must not be copied after first
// use.
type Waker struct {
	mu       sync.Mutex
	s        *Sleeper
	id       int
	asserted bool
}

// Assert marks the waker as ready and, if it is registered with a
// Sleeper, wakes up anyone blocked on that Sleeper's Fetch. Calling
// Assert on an already-asserted waker is a no-op beyond re-delivering the
// notification.
func (w *Waker) Assert() {
	w.mu.Lock()
	w.asserted = true
	s := w.s
	w.mu.Unlock()

	if s != nil {
		s.notify(w)
	}
}

// Clear removes the asserted state from the waker, if any. A Fetch that
// is already in flight for this waker's stale notification will discard
// it and keep looking.
func (w *Waker) Clear() {
	w.mu.Lock()
	w.asserted = false
	w.mu.Unlock()
}

// IsAsserted reports whether the waker is currently asserted.
func (w *Waker) IsAsserted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.asserted
}

// Sleeper waits on a set of wakers. The zero value is an empty Sleeper
// ready to use.
type Sleeper struct {
	mu     sync.Mutex
	once   sync.Once
	ch     chan *Waker
	wakers []*Waker
}

func (s *Sleeper) init() {
	s.once.Do(func() {
		s.ch = make(chan *Waker, 8)
	})
}

// AddWaker registers w with s under the given id. If w is already
// asserted at the time of registration, Fetch will observe it
// immediately.
func (s *Sleeper) AddWaker(w *Waker, id int) {
	s.init()

	w.mu.Lock()
	w.s = s
	w.id = id
	already := w.asserted
	w.mu.Unlock()

	s.mu.Lock()
	s.wakers = append(s.wakers, w)
	s.mu.Unlock()

	if already {
		s.notify(w)
	}
}

// Done disassociates every waker registered with s, so that a Waker whose
// lifetime outlives the Sleeper's current use doesn't keep writing
// notifications nobody will ever Fetch.
func (s *Sleeper) Done() {
	s.mu.Lock()
	wakers := s.wakers
	s.wakers = nil
	s.mu.Unlock()

	for _, w := range wakers {
		w.mu.Lock()
		if w.s == s {
			w.s = nil
		}
		w.mu.Unlock()
	}
}

func (s *Sleeper) notify(w *Waker) {
	s.init()
	select {
	case s.ch <- w:
	default:
		// The channel is saturated with pending notifications; this one
		// is dropped, and Fetch finds w through its asserted flag once
		// the queued notifications have been consumed.
	}
}

// Fetch returns the id of an asserted waker, clearing its asserted state
// in the process. If block is true, Fetch waits until a waker is
// asserted; otherwise it returns immediately with ok set to false if none
// is currently asserted.
func (s *Sleeper) Fetch(block bool) (id int, ok bool) {
	s.init()

	for {
		if len(s.ch) == 0 {
			// A notification dropped by notify leaves its waker asserted
			// with nothing queued for it; look for such a waker directly.
			s.mu.Lock()
			wakers := s.wakers
			s.mu.Unlock()
			for _, sw := range wakers {
				sw.mu.Lock()
				if sw.asserted && sw.s == s {
					sw.asserted = false
					wid := sw.id
					sw.mu.Unlock()
					return wid, true
				}
				sw.mu.Unlock()
			}
		}

		var w *Waker
		if block {
			w = <-s.ch
		} else {
			select {
			case w = <-s.ch:
			default:
				return 0, false
			}
		}

		w.mu.Lock()
		wasAsserted := w.asserted
		if wasAsserted {
			w.asserted = false
		}
		wid := w.id
		w.mu.Unlock()

		if wasAsserted {
			return wid, true
		}
		// Stale notification left over from a since-cleared Assert; keep
		// looking without surfacing it to the caller.
	}
}
