package filexfer

import (
	"time"

	"github.com/Pianissimo-3115/2501-col334-assignment4/internal/ilist"
	"github.com/Pianissimo-3115/2501-col334-assignment4/internal/seqnum"
)

// windowEntry is a sender window entry: a segment that has been sent at
// least once and is retained until it falls below base.
type windowEntry struct {
	ilist.Entry

	seq           seqnum.Value
	wire          []byte
	lastSendTime  time.Time
	retransmitted bool
	sacked        bool
}

// window is the sender's set of outstanding segments, ordered by
// sequence number. It supports O(1) insertion, O(1) removal by sequence
// number, and O(1) front access (the segment at base).
type window struct {
	list  ilist.List
	bySeq map[seqnum.Value]*windowEntry
}

func newWindow() *window {
	return &window{bySeq: make(map[seqnum.Value]*windowEntry)}
}

func (w *window) push(e *windowEntry) {
	w.list.PushBack(e)
	w.bySeq[e.seq] = e
}

func (w *window) get(seq seqnum.Value) (*windowEntry, bool) {
	e, ok := w.bySeq[seq]
	return e, ok
}

func (w *window) remove(seq seqnum.Value) {
	e, ok := w.bySeq[seq]
	if !ok {
		return
	}
	w.list.Remove(e)
	delete(w.bySeq, seq)
}

// forEach walks the window front to back, in sequence order. f must not
// mutate the window.
func (w *window) forEach(f func(*windowEntry)) {
	for e := w.list.Front(); e != nil; e = e.Next() {
		f(e.(*windowEntry))
	}
}

func (w *window) len() int {
	return len(w.bySeq)
}
