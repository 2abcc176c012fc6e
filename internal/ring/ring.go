// internal/ring/ring.go
package ring

import (
	"sync"

	"github.com/tamzrod/una-at/internal/codec"
)

const (
	// DefaultDepth is the number of line slots.
	DefaultDepth = 16

	// DefaultSlotSize is the byte capacity of one slot, terminator included.
	DefaultSlotSize = 128
)

// Buffer is a fixed-depth ring of received lines.
//
// One producer appends bytes with Push (receive path).
// One consumer polls with HasPending / Pop (foreground).
// The producer only moves the write cursor, the consumer only moves the read cursor.
//
// Overrun: when the producer laps the consumer, the oldest unread line is
// overwritten without notice. Exactly the lines that were overwritten are lost.
type Buffer struct {
	mu    sync.Mutex
	slots []slot
	write uint32 // sequence number of the line being produced
	read  uint32 // sequence number of the next line to consume
}

type slot struct {
	buf      []byte
	size     int
	complete bool
	seq      uint32
}

// New allocates a buffer. Non-positive arguments select the defaults.
func New(depth, slotSize int) *Buffer {
	if depth <= 0 {
		depth = DefaultDepth
	}
	if slotSize <= 1 {
		slotSize = DefaultSlotSize
	}
	b := &Buffer{slots: make([]slot, depth)}
	for i := range b.slots {
		b.slots[i].buf = make([]byte, slotSize)
	}
	b.FlushAll()
	return b
}

// Depth returns the number of slots.
func (b *Buffer) Depth() int { return len(b.slots) }

// Push appends one received byte.
// It returns true when c terminated a line.
func (b *Buffer) Push(c byte) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.claim()
	if c == codec.LineEnd {
		s.buf[s.size] = 0
		s.complete = true
		b.write++
		return true
	}

	s.buf[s.size] = c
	// A line longer than the slot wraps and overwrites its own beginning.
	s.size = (s.size + 1) % len(s.buf)
	return false
}

// claim returns the slot of the line being produced,
// reclaiming it first if it still holds an older line.
func (b *Buffer) claim() *slot {
	s := &b.slots[b.write%uint32(len(b.slots))]
	if s.seq != b.write || s.complete {
		s.reset()
		s.seq = b.write
	}
	return s
}

// HasPending reports whether at least one line was completed and not consumed.
func (b *Buffer) HasPending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.write != b.read
}

// Available returns the number of complete lines that can still be consumed.
func (b *Buffer) Available() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for seq := b.read; seq != b.write; seq++ {
		s := &b.slots[seq%uint32(len(b.slots))]
		if s.seq == seq && s.complete {
			n++
		}
	}
	return n
}

// Pop consumes the oldest complete line, flushing its slot.
// Lines lost to overrun are skipped. The returned bytes are a copy.
func (b *Buffer) Pop() ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for b.read != b.write {
		seq := b.read
		s := &b.slots[seq%uint32(len(b.slots))]
		b.read++
		if s.seq != seq || !s.complete {
			continue
		}
		line := make([]byte, s.size)
		copy(line, s.buf[:s.size])
		s.reset()
		return line, true
	}
	return nil, false
}

// Flush resets one slot.
func (b *Buffer) Flush(index int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if index < 0 || index >= len(b.slots) {
		return
	}
	b.slots[index].reset()
}

// FlushAll resets every slot and rewinds both cursors.
// Any line in progress is dropped.
func (b *Buffer) FlushAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.slots {
		b.slots[i].reset()
		b.slots[i].seq = uint32(i)
	}
	b.write = 0
	b.read = 0
}

func (s *slot) reset() {
	s.size = 0
	s.complete = false
	s.buf[0] = 0
}
