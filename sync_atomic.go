// sync_atomic.go - Generation-stamped atomic cell and bounded spin helper

/*
(c) 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionSynth
License: GPLv3 or later
*/

package main

import (
	"runtime"
	"sync/atomic"
)

// GenCell is an atomic 32-bit value paired with a 32-bit generation
// counter, packed into one uint64 so both halves move under a single
// compare-and-swap. The generation increments on every successful store,
// which defeats the ABA problem: a CAS can only succeed against the exact
// (generation, value) pair the caller loaded, so a slot that was freed and
// reused in between can never be confused for the original.
//
// Generation wraparound needs 2^32 successful operations against the same
// cell between a load and its CAS. At control-thread command rates that is
// not reachable in practice.
type GenCell struct {
	bits atomic.Uint64
}

// GenValue is a snapshot read from a GenCell. It carries the generation so
// that it can be handed back to CompareExchange as proof of what the caller
// observed. Construct these only via GenCell.Load.
type GenValue struct {
	gen uint32
	val uint32
}

// Value returns the 32-bit payload half of the snapshot.
func (v GenValue) Value() uint32 { return v.val }

// Generation returns the counter half. Exposed for the slab's handle
// validity checks.
func (v GenValue) Generation() uint32 { return v.gen }

func packGen(gen, val uint32) uint64 {
	return uint64(gen)<<32 | uint64(val)
}

func unpackGen(bits uint64) GenValue {
	return GenValue{gen: uint32(bits >> 32), val: uint32(bits)}
}

// NewGenCell returns a cell holding val at generation zero.
func NewGenCell(val uint32) *GenCell {
	c := &GenCell{}
	c.bits.Store(packGen(0, val))
	return c
}

// Load snapshots the cell.
func (c *GenCell) Load() GenValue {
	return unpackGen(c.bits.Load())
}

// CompareExchange installs newVal if the cell still holds exactly the
// snapshot old (same value and same generation). On success the generation
// advances by one and the returned snapshot is the newly installed pair.
// On failure the returned snapshot is the current contents, suitable for
// the next retry.
func (c *GenCell) CompareExchange(old GenValue, newVal uint32) (GenValue, bool) {
	next := GenValue{gen: old.gen + 1, val: newVal}
	if c.bits.CompareAndSwap(packGen(old.gen, old.val), packGen(next.gen, next.val)) {
		return next, true
	}
	return unpackGen(c.bits.Load()), false
}

// Store unconditionally replaces the value and bumps the generation. Slow
// path only: it loops over CAS so the generation stays monotonic even under
// contention. Never called from the audio thread.
func (c *GenCell) Store(val uint32) GenValue {
	var spin SpinWait
	for {
		cur := c.Load()
		if next, ok := c.CompareExchange(cur, val); ok {
			return next
		}
		spin.Spin()
	}
}

// SpinWait is a bounded backoff helper for control-side lock-free retry
// loops. The first SPIN_LIMIT calls are tight retries; after that each call
// yields the processor so a descheduled peer can make progress. The zero
// value is ready to use.
//
// The audio thread never spins: its structures are wait-free by
// construction and a failed operation there is a drop, not a retry.
type SpinWait struct {
	count int
}

// Spin records one failed attempt and backs off accordingly.
func (s *SpinWait) Spin() {
	s.count++
	if s.count > SPIN_LIMIT {
		runtime.Gosched()
	}
}

// Reset clears the backoff state after a successful operation.
func (s *SpinWait) Reset() {
	s.count = 0
}
