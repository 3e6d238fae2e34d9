package wire

// View is a slice of a buffer, with convenience methods.
type View []byte

// NewView allocates a new buffer and returns an initialized view that
// covers the whole buffer.
func NewView(size int) View {
	return make(View, size)
}

// TrimFront removes the first "count" bytes from the visible section of
// the buffer.
func (v *View) TrimFront(count int) {
	*v = (*v)[count:]
}

// Prependable is a buffer that grows backwards, that is, more data can be
// prepended to it. It is used when building a wire datagram, where the
// 20-byte header is written in front of the already-assembled payload
// rather than the payload being copied after the header.
type Prependable struct {
	buf     View
	usedIdx int
}

// NewPrependable allocates a new prependable buffer with the given size.
func NewPrependable(size int) Prependable {
	return Prependable{buf: NewView(size), usedIdx: size}
}

// Prepend reserves the requested space in front of the buffer, returning
// a slice that represents the reserved space.
func (p *Prependable) Prepend(size int) []byte {
	if size > p.usedIdx {
		panic("wire: Prepend: size > usedIdx")
	}

	p.usedIdx -= size
	return p.buf[p.usedIdx:][:size:size]
}

// UsedBytes returns a slice of the backing buffer that contains all
// prepended data so far.
func (p *Prependable) UsedBytes() []byte {
	return p.buf[p.usedIdx:]
}
