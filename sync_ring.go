// sync_ring.go - Lock-free single-producer/single-consumer ring buffer

/*
(c) 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionSynth
License: GPLv3 or later
*/

package main

import "sync/atomic"

// SPSC is a fixed-capacity lock-free queue for exactly one producer
// goroutine and one consumer goroutine. The single-producer/single-consumer
// discipline is enforced by construction (each ring instance is wired
// between one named producer and one named consumer at engine start), not
// by runtime checks.
//
// Implementation: monotonically increasing 64-bit read and write cursors
// over a fixed slice; write-read is the occupancy, so no slot is sacrificed
// and no wrap bookkeeping is needed. The cursors sit on separate cache
// lines to stop producer and consumer from false-sharing. Go's sync/atomic
// gives sequentially consistent ordering, which subsumes the acquire/release
// edge the protocol needs: a Push's slot write happens-before the cursor
// store, and the consumer's cursor load happens-before its slot read. That
// pair is the only cross-thread synchronization edge in the engine besides
// the slab's generation cells.
//
// Neither path locks, blocks, allocates, or makes a syscall.
type SPSC[T any] struct {
	write atomic.Uint64
	_     [56]byte // pad cursor to its own cache line
	read  atomic.Uint64
	_     [56]byte

	buf  []T
	mask uint64
}

// NewSPSC returns a ring with capacity rounded up to the next power of two
// so index wrapping is a mask. minCapacity must be positive.
func NewSPSC[T any](minCapacity int) *SPSC[T] {
	if minCapacity <= 0 {
		panic("spsc: capacity must be positive")
	}
	size := 1
	for size < minCapacity {
		size <<= 1
	}
	return &SPSC[T]{
		buf:  make([]T, size),
		mask: uint64(size - 1),
	}
}

// Capacity returns the fixed number of slots.
func (q *SPSC[T]) Capacity() int { return len(q.buf) }

// Len reports the current occupancy. Advisory only: it races with the
// opposite side by design and is exact only from within the producer or
// consumer itself.
func (q *SPSC[T]) Len() int {
	return int(q.write.Load() - q.read.Load())
}

// Push enqueues item, returning false if the ring is full. Producer
// goroutine only. A full ring is an explicit rejection the producer must
// handle (drop-and-report); Push never waits for space because the control
// thread must not be able to wedge itself against a stalled consumer.
func (q *SPSC[T]) Push(item T) bool {
	w := q.write.Load()
	r := q.read.Load()
	if w-r == uint64(len(q.buf)) {
		return false
	}
	q.buf[w&q.mask] = item
	// Publishing the cursor releases the slot write above to the consumer.
	q.write.Store(w + 1)
	return true
}

// Pop dequeues the oldest item, or reports false if the ring is empty.
// Consumer goroutine only. Items come out in exact Push order.
func (q *SPSC[T]) Pop() (T, bool) {
	var zero T
	r := q.read.Load()
	w := q.write.Load()
	if r == w {
		return zero, false
	}
	item := q.buf[r&q.mask]
	// Release the slot back to the producer only after the read completes.
	q.buf[r&q.mask] = zero
	q.read.Store(r + 1)
	return item, true
}
