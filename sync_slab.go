// sync_slab.go - Concurrent slab allocator with generation-stamped handles

/*
(c) 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionSynth
License: GPLv3 or later
*/

package main

import (
	"sync"
	"sync/atomic"
)

// Handle identifies a slab slot at a particular generation. A handle is
// valid only while the generation stored at its index still matches; once
// the slot is retired the generation moves on and every lookup through the
// old handle fails. That check is what lets indices be recycled without the
// ABA hazard of a stale handle silently resolving to an unrelated node.
type Handle struct {
	index      uint32
	generation uint32
}

// NilHandle is the zero Handle. It never resolves: slot 0's generation
// starts at 1 so that the zero value is unambiguous.
var NilHandle = Handle{}

// IsNil reports whether h is the zero handle.
func (h Handle) IsNil() bool { return h == NilHandle }

// retirement records a logically dead slot awaiting physical reuse.
type retirement struct {
	index      uint32
	generation uint32 // generation after the retire bump
	seq        uint64 // command sequence at which the retire was issued
}

// slabSlot holds one node's state. gen is the validity stamp; next is the
// freelist link (idx+1 encoding, 0 = end of list) and is only touched while
// the slot is free; payload is the resident node, stored behind an atomic
// pointer so the audio thread's reads can never tear against control-side
// stores.
type slabSlot struct {
	gen     atomic.Uint32
	next    atomic.Uint32
	payload atomic.Pointer[Signal]
}

// Slab is fixed-capacity stable-index storage for signal graph node state.
//
// Thread protocol:
//   - Allocate and Retire run on the control thread only.
//   - Get runs on either thread and is wait-free.
//   - ObserveSeq runs on the audio thread once per drained command.
//   - Sweep runs on the background reclamation goroutine.
//
// The freelist head is a GenCell because two threads contend on it: the
// control thread pops (Allocate) while the sweep goroutine pushes (physical
// free). The generation stamp makes the pop's compare-and-swap immune to
// the head cycling back to the same index between load and swap.
//
// Retirement is two-phase. Retire bumps the slot generation immediately, so
// lookups through the old handle start failing at once, but the payload and
// the index stay put. Only after the audio thread's command watermark has
// advanced past the retire's issuing sequence does Sweep clear the payload
// and push the index back on the freelist. Until then the audio thread may
// still be holding the node from a Get earlier in the same block, and the
// slot must not be handed to anyone else. This is the engine's substitute
// for reference counting: the control thread gets free-like ergonomics and
// the audio thread pays nothing.
type Slab struct {
	slots    []slabSlot
	freeHead *GenCell

	// watermark is the highest command sequence number the audio thread
	// has finished applying. Written by the audio thread, read by Sweep.
	watermark atomic.Uint64

	// live counts resident (allocated, not yet retired) slots. Control
	// thread bookkeeping, exposed through Stats.
	live atomic.Int32

	// pending holds retired slots awaiting reclamation. Guarded by a
	// mutex: both sides are non-real-time threads.
	pendMu  sync.Mutex
	pending []retirement
}

// NewSlab builds a slab with the given fixed capacity. Capacity does not
// grow afterwards; growth would move the backing array under the audio
// thread's feet.
func NewSlab(capacity int) *Slab {
	if capacity <= 0 || capacity > 1<<24 {
		panic("slab: capacity out of range")
	}
	s := &Slab{
		slots: make([]slabSlot, capacity),
	}
	// Link the freelist low-to-high so early allocations stay cache-local,
	// and start every slot at generation 1 so Handle{} is never valid.
	for i := range s.slots {
		s.slots[i].gen.Store(1)
		if i+1 < capacity {
			s.slots[i].next.Store(uint32(i + 2)) // idx+1 encoding
		} else {
			s.slots[i].next.Store(0)
		}
	}
	s.freeHead = NewGenCell(1) // head = slot 0
	return s
}

// Capacity returns the fixed slot count.
func (s *Slab) Capacity() int { return len(s.slots) }

// Live returns the number of resident nodes.
func (s *Slab) Live() int { return int(s.live.Load()) }

// Allocate stores node in a free slot and returns its handle. Control
// thread only. Fails with ErrSlabExhausted at capacity; there is no dynamic
// growth on this path.
func (s *Slab) Allocate(node Signal) (Handle, error) {
	var spin SpinWait
	for {
		head := s.freeHead.Load()
		if head.Value() == 0 {
			return NilHandle, ErrSlabExhausted
		}
		idx := head.Value() - 1
		next := s.slots[idx].next.Load()
		if _, ok := s.freeHead.CompareExchange(head, next); ok {
			slot := &s.slots[idx]
			slot.payload.Store(&node)
			s.live.Add(1)
			return Handle{index: idx, generation: slot.gen.Load()}, nil
		}
		// Lost the race against a concurrent Sweep push; retry.
		spin.Spin()
	}
}

// Get resolves a handle to its node, or nil if the slot has been retired
// (and possibly reused) since the handle was issued. Callable from either
// thread; wait-free, no locks, no allocation.
func (s *Slab) Get(h Handle) Signal {
	if h.IsNil() || int(h.index) >= len(s.slots) {
		return nil
	}
	slot := &s.slots[h.index]
	if slot.gen.Load() != h.generation {
		return nil
	}
	p := slot.payload.Load()
	if p == nil {
		return nil
	}
	// Re-check after the payload read: the slot may have been retired,
	// swept, and reallocated between the two loads. The generation can
	// only have moved forward, so a match proves the payload is ours.
	if slot.gen.Load() != h.generation {
		return nil
	}
	return *p
}

// Retire marks the slot logically dead. Control thread only. Subsequent
// Gets through h fail immediately, but the payload survives until Sweep
// proves the audio thread is past seq. Idempotent: retiring an
// already-retired handle is a no-op and reports false.
func (s *Slab) Retire(h Handle, seq uint64) bool {
	if h.IsNil() || int(h.index) >= len(s.slots) {
		return false
	}
	slot := &s.slots[h.index]
	// The generation bump is the single linearization point; if another
	// retire got there first this CAS fails and we change nothing.
	if !slot.gen.CompareAndSwap(h.generation, h.generation+1) {
		return false
	}
	s.live.Add(-1)
	s.pendMu.Lock()
	s.pending = append(s.pending, retirement{
		index:      h.index,
		generation: h.generation + 1,
		seq:        seq,
	})
	s.pendMu.Unlock()
	return true
}

// ObserveSeq publishes the audio thread's progress through the command
// stream. Called during the drain phase; a plain atomic store, nothing
// more, so the render path pays one word write.
func (s *Slab) ObserveSeq(seq uint64) {
	s.watermark.Store(seq)
}

// Watermark returns the last published command sequence.
func (s *Slab) Watermark() uint64 {
	return s.watermark.Load()
}

// Sweep physically frees every pending retirement the audio thread can no
// longer be touching, returning how many slots were recycled. Runs on the
// background reclamation goroutine and tolerates running arbitrarily late:
// lateness delays reuse, never correctness, because stale handles are
// already dead at the generation check.
func (s *Slab) Sweep() int {
	w := s.watermark.Load()

	s.pendMu.Lock()
	var ready []retirement
	kept := s.pending[:0]
	for _, r := range s.pending {
		// FIFO command order means watermark >= r.seq proves the audio
		// thread has applied the retire command and dropped its edges.
		if r.seq <= w {
			ready = append(ready, r)
		} else {
			kept = append(kept, r)
		}
	}
	s.pending = kept
	s.pendMu.Unlock()

	for _, r := range ready {
		slot := &s.slots[r.index]
		slot.payload.Store(nil)
		s.pushFree(r.index)
	}
	return len(ready)
}

// pushFree returns an index to the freelist. Sweep goroutine only.
func (s *Slab) pushFree(idx uint32) {
	var spin SpinWait
	for {
		head := s.freeHead.Load()
		s.slots[idx].next.Store(head.Value())
		if _, ok := s.freeHead.CompareExchange(head, idx+1); ok {
			return
		}
		spin.Spin()
	}
}
