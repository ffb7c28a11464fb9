// signal_delay.go - Feedback delay node with a bounded block history

/*
(c) 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionSynth
License: GPLv3 or later
*/

package main

// DelayNode delays its input by a whole number of blocks and feeds a
// fraction of its own prior output back into the line. This is the one
// place the graph "cycles": the cycle is a bounded history ring owned by
// this node alone, never a reference between nodes, so the ownership graph
// stays strictly acyclic while still supporting feedback effects. The
// minimum loop time is one block because nodes advance a block at a time.
//
// The history ring is allocated once at construction; nothing here touches
// the allocator afterwards.
type DelayNode struct {
	src      Signal
	feedback float64

	history     []float32 // delayBlocks * BLOCK_SIZE * channels, ring of prior outputs
	delayBlocks int
	writeBlock  int // next ring block to overwrite; also the read point, since the ring is exactly the delay long
	primed      int // blocks written so far, until the ring is full
}

// NewDelayNode builds a delay of delayBlocks blocks (1..DELAY_MAX_BLOCKS)
// with the given feedback coefficient. Feedback at or above 1.0 is refused
// at construction: an unstable loop is a topology fault, not a runtime
// discovery.
func NewDelayNode(src Signal, delayBlocks int, feedback float64) (*DelayNode, error) {
	if delayBlocks < 1 || delayBlocks > DELAY_MAX_BLOCKS {
		return nil, &GraphError{Op: "delay", Want: DELAY_MAX_BLOCKS, Got: delayBlocks}
	}
	if feedback >= 1.0 || feedback < 0 {
		return nil, &GraphError{Op: "delay feedback", Want: 1, Got: int(feedback)}
	}
	return &DelayNode{
		src:         src,
		feedback:    feedback,
		delayBlocks: delayBlocks,
		history:     make([]float32, delayBlocks*BLOCK_SIZE*src.Channels()),
	}, nil
}

func (d *DelayNode) Channels() int { return d.src.Channels() }

func (d *DelayNode) SetParam(param uint32, value float64) {
	if param == PARAM_FEEDBACK && value >= 0 && value < 1.0 {
		d.feedback = value
	}
}

func (d *DelayNode) BlockAdvance(ctx *BlockContext, dst []float32) int {
	ch := d.src.Channels()
	frames := len(dst) / ch
	n := frames * ch

	produced := d.src.BlockAdvance(ctx, dst)
	// Upstream exhaustion does not end the delay: the tail must keep
	// ringing out, so the node itself is infinite and zero-fills the
	// un-produced remainder before summing history in.
	for i := produced * ch; i < n; i++ {
		dst[i] = 0
	}

	blockLen := BLOCK_SIZE * ch
	slot := d.history[d.writeBlock*blockLen : d.writeBlock*blockLen+blockLen]

	if d.primed >= d.delayBlocks {
		fb := float32(d.feedback)
		for i := 0; i < n; i++ {
			dst[i] += slot[i] * fb
		}
	}

	// Record this block's own output as the newest history entry.
	copy(slot[:n], dst[:n])
	for i := n; i < blockLen; i++ {
		slot[i] = 0
	}
	d.writeBlock++
	if d.writeBlock == d.delayBlocks {
		d.writeBlock = 0
	}
	if d.primed < d.delayBlocks {
		d.primed++
	}
	return frames
}
