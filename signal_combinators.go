// signal_combinators.go - Map, chain and join combinators over signal nodes

/*
(c) 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionSynth
License: GPLv3 or later
*/

package main

// MAX_MIX_INPUTS bounds a mixer's input table so the table lives inline in
// the node, never behind a growable slice the audio thread would have to
// reallocate.
const MAX_MIX_INPUTS = 32

// MapNode applies a per-sample transform to an upstream node's output.
// Channel count is preserved. The transform must be pure with respect to
// the real-time rules: no allocation, no locking.
type MapNode struct {
	src Signal
	fn  func(float32) float32
}

func NewMapNode(src Signal, fn func(float32) float32) *MapNode {
	return &MapNode{src: src, fn: fn}
}

func (m *MapNode) Channels() int { return m.src.Channels() }

func (m *MapNode) BlockAdvance(ctx *BlockContext, dst []float32) int {
	frames := m.src.BlockAdvance(ctx, dst)
	for i := 0; i < frames*m.src.Channels(); i++ {
		dst[i] = m.fn(dst[i])
	}
	return frames
}

// GainNode scales an upstream node's output by a mutable linear gain. A
// MapNode cannot do this because its transform is a fixed closure; gain is
// the parameter every graph ends up automating.
type GainNode struct {
	src  Signal
	gain float64
}

func NewGainNode(src Signal, gain float64) *GainNode {
	return &GainNode{src: src, gain: gain}
}

func (g *GainNode) Channels() int { return g.src.Channels() }

func (g *GainNode) BlockAdvance(ctx *BlockContext, dst []float32) int {
	frames := g.src.BlockAdvance(ctx, dst)
	k := float32(g.gain)
	for i := 0; i < frames*g.src.Channels(); i++ {
		dst[i] *= k
	}
	return frames
}

func (g *GainNode) SetParam(param uint32, value float64) {
	if param == PARAM_GAIN {
		g.gain = value
	}
}

// ChainNode sequences two finite sources: the second starts producing in
// the same block the first runs out, so playlists splice without a gap.
// Both inputs must agree on channel count; that is checked at construction
// and never again.
type ChainNode struct {
	first  Signal
	second Signal
	onTail bool
}

func NewChainNode(first, second Signal) (*ChainNode, error) {
	if first.Channels() != second.Channels() {
		return nil, &GraphError{Op: "chain", Want: first.Channels(), Got: second.Channels()}
	}
	return &ChainNode{first: first, second: second}, nil
}

func (c *ChainNode) Channels() int { return c.first.Channels() }

func (c *ChainNode) BlockAdvance(ctx *BlockContext, dst []float32) int {
	ch := c.first.Channels()
	frames := len(dst) / ch
	produced := 0
	if !c.onTail {
		produced = c.first.BlockAdvance(ctx, dst)
		if produced < frames {
			c.onTail = true
		}
	}
	if c.onTail && produced < frames {
		produced += c.second.BlockAdvance(ctx, dst[produced*ch:])
	}
	return produced
}

// MixNode is the join combinator: N slab-resident inputs summed into one
// output. Inputs are attached by handle through ConnectEdge commands, so
// the mixer owns no node references and the ownership graph stays acyclic;
// each block it resolves every handle through the slab and a stale handle
// simply contributes silence (and a telemetry report) until the control
// thread disconnects it.
//
// Channel-count agreement between an input and the mixer is enforced when
// the ConnectEdge command is validated on the control thread; by the time
// ConnectInput runs here the edge is known compatible.
type MixNode struct {
	slab     *Slab
	channels int
	inputs   [MAX_MIX_INPUTS]Handle
	n        int
	scratch  []float32 // one block of staging, sized at construction
}

func NewMixNode(slab *Slab, channels int) (*MixNode, error) {
	if channels <= 0 || channels > MAX_CHANNELS {
		return nil, &GraphError{Op: "mix", Want: MAX_CHANNELS, Got: channels}
	}
	return &MixNode{
		slab:     slab,
		channels: channels,
		scratch:  make([]float32, BLOCK_SIZE*channels),
	}, nil
}

func (m *MixNode) Channels() int { return m.channels }

// Inputs returns the number of currently attached edges.
func (m *MixNode) Inputs() int { return m.n }

func (m *MixNode) ConnectInput(src Handle) bool {
	if m.n >= MAX_MIX_INPUTS {
		return false
	}
	for i := 0; i < m.n; i++ {
		if m.inputs[i] == src {
			return true // already attached; connect is idempotent
		}
	}
	m.inputs[m.n] = src
	m.n++
	return true
}

func (m *MixNode) DisconnectInput(src Handle) bool {
	for i := 0; i < m.n; i++ {
		if m.inputs[i] == src {
			m.n--
			m.inputs[i] = m.inputs[m.n]
			m.inputs[m.n] = NilHandle
			return true
		}
	}
	return false
}

func (m *MixNode) BlockAdvance(ctx *BlockContext, dst []float32) int {
	frames := len(dst) / m.channels
	for i := range dst {
		dst[i] = 0
	}
	for i := 0; i < m.n; i++ {
		src := m.slab.Get(m.inputs[i])
		if src == nil {
			ctx.Report(TelemetryEvent{Kind: TELEMETRY_STALE_HANDLE, Seq: ctx.Seq, Node: m.inputs[i]})
			continue
		}
		produced := src.BlockAdvance(ctx, m.scratch[:frames*m.channels])
		mixInto(dst, m.scratch, produced*m.channels)
	}
	// A mixer is an infinite node: with no live inputs it produces silence,
	// not exhaustion.
	return frames
}

// mixInto accumulates n samples of src into dst.
func mixInto(dst, src []float32, n int) {
	for i := 0; i < n; i++ {
		dst[i] += src[i]
	}
}

// ConvertNode adapts channel counts at an edge. Only the two conversions
// with an obvious meaning exist: mono fans out to N identical channels and
// N channels fold down to mono by averaging. Anything else is a
// construction-time GraphError rather than a guess at render time.
type ConvertNode struct {
	src      Signal
	channels int
	scratch  []float32
}

func NewConvertNode(src Signal, channels int) (*ConvertNode, error) {
	if channels <= 0 || channels > MAX_CHANNELS {
		return nil, &GraphError{Op: "convert", Want: MAX_CHANNELS, Got: channels}
	}
	if src.Channels() != 1 && channels != 1 && src.Channels() != channels {
		return nil, &GraphError{Op: "convert", Want: channels, Got: src.Channels()}
	}
	return &ConvertNode{
		src:      src,
		channels: channels,
		scratch:  make([]float32, BLOCK_SIZE*src.Channels()),
	}, nil
}

func (c *ConvertNode) Channels() int { return c.channels }

func (c *ConvertNode) BlockAdvance(ctx *BlockContext, dst []float32) int {
	frames := len(dst) / c.channels
	in := c.src.Channels()
	if in == c.channels {
		return c.src.BlockAdvance(ctx, dst)
	}
	produced := c.src.BlockAdvance(ctx, c.scratch[:frames*in])
	switch {
	case in == 1:
		// Fan out: every output channel carries the mono sample.
		for f := 0; f < produced; f++ {
			s := c.scratch[f]
			base := f * c.channels
			for ch := 0; ch < c.channels; ch++ {
				dst[base+ch] = s
			}
		}
	default:
		// Fold down to mono by averaging.
		inv := 1.0 / float32(in)
		for f := 0; f < produced; f++ {
			var sum float32
			base := f * in
			for ch := 0; ch < in; ch++ {
				sum += c.scratch[base+ch]
			}
			dst[f] = sum * inv
		}
	}
	return produced
}
