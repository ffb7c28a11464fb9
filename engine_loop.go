// engine_loop.go - Block-driven execution loop and control-thread graph API

/*
(c) 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionSynth
License: GPLv3 or later
*/

package main

import (
	"context"
	"sync/atomic"

	"github.com/go-logr/logr"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// EngineConfig fixes everything that must not change at runtime: block
// size and channel layout are graph-construction-time decisions, and every
// capacity here bounds work the audio thread would otherwise have to do
// dynamically.
type EngineConfig struct {
	SampleRate        int
	Channels          int // output channel count of the root mix
	SlabCapacity      int
	CommandCapacity   int
	TelemetryCapacity int
	DrainCap          int // max commands applied per block
	Logger            logr.Logger
}

func (c *EngineConfig) applyDefaults() {
	if c.SampleRate == 0 {
		c.SampleRate = SAMPLE_RATE
	}
	if c.Channels == 0 {
		c.Channels = 2
	}
	if c.SlabCapacity == 0 {
		c.SlabCapacity = SLAB_CAPACITY
	}
	if c.CommandCapacity == 0 {
		c.CommandCapacity = COMMAND_RING_CAPACITY
	}
	if c.TelemetryCapacity == 0 {
		c.TelemetryCapacity = TELEMETRY_RING_CAPACITY
	}
	if c.DrainCap == 0 {
		c.DrainCap = DRAIN_CAP
	}
}

// Engine hosts the signal graph and the two lock-free queues that connect
// the control thread to the audio thread. The control API (AddNode,
// SetParam, Connect, ...) is for a single control goroutine; the render
// API (Render) is for exactly one audio thread driven by the device layer.
// Those two plus the background workers started by Start are the engine's
// entire thread model.
type Engine struct {
	cfg EngineConfig
	log logr.Logger

	slab      *Slab
	commands  *SPSC[Command]
	telemetry *SPSC[TelemetryEvent]
	root      *MixNode

	// Audio-thread state.
	blockCtx  BlockContext
	blockBuf  []float32 // one rendered block awaiting delivery
	carryPos  int       // delivery cursor into blockBuf
	carryLen  int       // undelivered samples left in blockBuf
	renderSeq atomic.Uint64
	stopped   atomic.Bool // set when CMD_STOP_ENGINE is applied

	// Control-thread state.
	cmdSeq uint64 // stamp for the next command; control goroutine only
	closed atomic.Bool

	stats EngineStats

	group  *errgroup.Group
	cancel context.CancelFunc
	output AudioOutput
}

// NewEngine builds an engine and its audio output backend. The graph
// starts empty: just the engine-owned root mixer, which is not
// slab-resident and can never be retired.
func NewEngine(cfg EngineConfig, backend int) (*Engine, error) {
	cfg.applyDefaults()
	e := &Engine{
		cfg:       cfg,
		log:       cfg.Logger.WithName("engine"),
		slab:      NewSlab(cfg.SlabCapacity),
		commands:  NewSPSC[Command](cfg.CommandCapacity),
		telemetry: NewSPSC[TelemetryEvent](cfg.TelemetryCapacity),
		blockBuf:  make([]float32, BLOCK_SIZE*cfg.Channels),
	}
	root, err := NewMixNode(e.slab, cfg.Channels)
	if err != nil {
		return nil, err
	}
	e.root = root
	e.blockCtx = BlockContext{SampleRate: cfg.SampleRate, telemetry: e.telemetry}

	output, err := NewAudioOutput(backend, cfg.SampleRate, e)
	if err != nil {
		return nil, err
	}
	e.output = output
	return e, nil
}

// Stats returns a snapshot of the engine's counters.
func (e *Engine) Stats() StatsSnapshot { return e.stats.Snapshot() }

// Slab exposes the node slab for inspection. The returned slab's mutation
// methods remain subject to the thread protocol.
func (e *Engine) Slab() *Slab { return e.slab }

// ---- Control API (single control goroutine) ----

// push stamps and enqueues a command. Overflow is drop-and-report: the
// edit is rejected, never blocked on.
func (e *Engine) push(cmd Command) (uint64, error) {
	if e.closed.Load() {
		return 0, ErrEngineStopped
	}
	e.cmdSeq++
	cmd.Seq = e.cmdSeq
	if !e.commands.Push(cmd) {
		e.cmdSeq--
		e.stats.CommandsDropped.Add(1)
		e.log.V(1).Info("command ring full, edit dropped", "op", cmd.Op.String())
		return 0, ErrCommandRingFull
	}
	return cmd.Seq, nil
}

// AddNode places node in the slab and announces it to the audio thread.
// The returned handle is how every later command names the node. If the
// announcement cannot be queued the slot is rolled back and the node was
// never visible to anyone.
func (e *Engine) AddNode(node Signal) (Handle, error) {
	h, err := e.slab.Allocate(node)
	if err != nil {
		return NilHandle, err
	}
	if _, err := e.push(Command{Op: CMD_ALLOCATE_NODE, Target: h}); err != nil {
		// The audio thread never saw the handle, so the retirement is
		// immediately reclaimable: sequence 0 is below any watermark.
		e.slab.Retire(h, 0)
		return NilHandle, err
	}
	return h, nil
}

// SetParam queues a parameter mutation for a slab-resident node.
func (e *Engine) SetParam(h Handle, param uint32, value float64) error {
	node := e.slab.Get(h)
	if node == nil {
		return ErrStaleHandle
	}
	if _, ok := node.(ParamTarget); !ok {
		return &GraphError{Op: "mutate", Want: 0, Got: 0}
	}
	_, err := e.push(Command{Op: CMD_MUTATE_PARAM, Target: h, Param: param, Value: value})
	return err
}

// Connect attaches src as an input of target. A nil target handle means
// the engine's root mix. Channel counts must agree; a mismatch is refused
// here, before anything reaches the real-time path. Channel counts are
// construction-time constants, so reading them off live nodes races with
// nothing.
func (e *Engine) Connect(target, src Handle) error {
	srcNode := e.slab.Get(src)
	if srcNode == nil {
		return ErrStaleHandle
	}
	want := e.cfg.Channels
	if !target.IsNil() {
		tNode := e.slab.Get(target)
		if tNode == nil {
			return ErrStaleHandle
		}
		if _, ok := tNode.(EdgeTarget); !ok {
			return &GraphError{Op: "connect", Want: 0, Got: 0}
		}
		want = tNode.Channels()
	}
	if srcNode.Channels() != want {
		return &GraphError{Op: "connect", Want: want, Got: srcNode.Channels()}
	}
	_, err := e.push(Command{Op: CMD_CONNECT_EDGE, Target: target, Source: src})
	return err
}

// Disconnect removes the src edge from target (nil target = root mix).
func (e *Engine) Disconnect(target, src Handle) error {
	_, err := e.push(Command{Op: CMD_DISCONNECT_EDGE, Target: target, Source: src})
	return err
}

// Retire marks a node logically dead. Lookups through h fail from this
// call on; the memory is recycled by the background sweep once the audio
// thread has provably drained past this point. Retiring twice is a no-op.
// Edges still naming the node render silence and report stale handles
// until disconnected; RemoveNode does both in order.
func (e *Engine) Retire(h Handle) error {
	seq, err := e.push(Command{Op: CMD_RETIRE_NODE, Target: h})
	if err != nil {
		return err
	}
	e.slab.Retire(h, seq)
	return nil
}

// RemoveNode detaches h from the root mix and retires it.
func (e *Engine) RemoveNode(h Handle) error {
	if err := e.Disconnect(NilHandle, h); err != nil {
		return err
	}
	return e.Retire(h)
}

// Stop queues the teardown command. Rendering continues until the audio
// thread drains it, then every block is silence; there is no abrupt
// termination path.
func (e *Engine) Stop() error {
	_, err := e.push(Command{Op: CMD_STOP_ENGINE})
	return err
}

// ---- Render path (audio thread only) ----

// Render fills dst with interleaved output, the pull contract the device
// boundary invokes once per hardware period. The period need not be a
// multiple of the block size; a partially delivered block carries over to
// the next call. Nothing below this line allocates, locks, or blocks.
func (e *Engine) Render(dst []float32) {
	for len(dst) > 0 {
		if e.carryLen == 0 {
			e.renderBlock()
		}
		n := copy(dst, e.blockBuf[e.carryPos:e.carryPos+e.carryLen])
		e.carryPos += n
		e.carryLen -= n
		dst = dst[n:]
	}
}

// renderBlock runs one pass of the per-callback state machine:
// Draining -> Stepping -> Delivered.
func (e *Engine) renderBlock() {
	// Draining: apply a bounded slice of the command stream. The cap
	// bounds both this thread's time budget and the latency before an
	// edit is audible; the excess stays queued in FIFO order.
	for i := 0; i < e.cfg.DrainCap; i++ {
		cmd, ok := e.commands.Pop()
		if !ok {
			break
		}
		e.apply(cmd)
		e.slab.ObserveSeq(cmd.Seq)
		e.stats.CommandsApplied.Add(1)
	}

	// Stepping: advance the root mix one block into the staging buffer.
	e.blockCtx.Seq = e.renderSeq.Load()
	for i := range e.blockBuf {
		e.blockBuf[i] = 0
	}
	if !e.stopped.Load() {
		e.root.BlockAdvance(&e.blockCtx, e.blockBuf)
	}

	// Delivered: advance the sequence the reclamation protocol reads and
	// hand the block to the carry cursor.
	e.renderSeq.Add(1)
	e.stats.BlocksRendered.Add(1)
	e.carryPos = 0
	e.carryLen = len(e.blockBuf)
}

// apply executes one command against its target. Faults here are absorbed
// and reported; a bad command must never take the render thread down.
func (e *Engine) apply(cmd Command) {
	switch cmd.Op {
	case CMD_ALLOCATE_NODE:
		// Hand-off acknowledgment; ordering is the payload.

	case CMD_MUTATE_PARAM:
		node := e.slab.Get(cmd.Target)
		if node == nil {
			e.report(TELEMETRY_STALE_HANDLE, cmd.Target)
			return
		}
		pt, ok := node.(ParamTarget)
		if !ok {
			e.report(TELEMETRY_COMMAND_SKIPPED, cmd.Target)
			return
		}
		pt.SetParam(cmd.Param, cmd.Value)

	case CMD_CONNECT_EDGE:
		t := e.edgeTarget(cmd.Target)
		if t == nil {
			return
		}
		if !t.ConnectInput(cmd.Source) {
			e.report(TELEMETRY_EDGE_TABLE_FULL, cmd.Target)
		}

	case CMD_DISCONNECT_EDGE:
		t := e.edgeTarget(cmd.Target)
		if t == nil {
			return
		}
		t.DisconnectInput(cmd.Source)

	case CMD_RETIRE_NODE:
		// The generation already moved control-side. Applying the command
		// is what advances the watermark past the retirement, which is
		// all the reclamation sweep waits for.

	case CMD_STOP_ENGINE:
		e.stopped.Store(true)
		e.report(TELEMETRY_ENGINE_STOPPED, NilHandle)

	default:
		e.report(TELEMETRY_COMMAND_SKIPPED, cmd.Target)
	}
}

// edgeTarget resolves a connect/disconnect target, nil handle meaning the
// root mix. Returns nil (with a report) if the target is gone or is not a
// join node.
func (e *Engine) edgeTarget(h Handle) EdgeTarget {
	if h.IsNil() {
		return e.root
	}
	node := e.slab.Get(h)
	if node == nil {
		e.report(TELEMETRY_STALE_HANDLE, h)
		return nil
	}
	t, ok := node.(EdgeTarget)
	if !ok {
		e.report(TELEMETRY_COMMAND_SKIPPED, h)
		return nil
	}
	return t
}

func (e *Engine) report(kind TelemetryKind, h Handle) {
	e.telemetry.Push(TelemetryEvent{Kind: kind, Seq: e.renderSeq.Load(), Node: h})
}

// ---- Lifecycle ----

// Start opens the device stream and launches the background workers: the
// reclamation sweep and the telemetry drain. Both live off the real-time
// path and stop when ctx is cancelled or Close is called.
func (e *Engine) Start(ctx context.Context) error {
	gctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(gctx)
	e.group = g
	e.cancel = cancel

	g.Go(func() error { return e.reclaimLoop(gctx) })
	g.Go(func() error { return e.telemetryLoop(gctx) })

	if err := e.output.Start(); err != nil {
		cancel()
		return err
	}
	e.log.Info("engine started",
		"sampleRate", e.cfg.SampleRate,
		"channels", e.cfg.Channels,
		"blockSize", BLOCK_SIZE)
	return nil
}

// Close stops playback and tears the engine down: queue the stop command,
// wind down the device stream, cancel the workers, and aggregate whatever
// failed along the way.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	var errs error

	// Best-effort: the stop command may be rejected by a full ring, in
	// which case the device teardown below still silences the output.
	e.cmdSeq++
	if !e.commands.Push(Command{Op: CMD_STOP_ENGINE, Seq: e.cmdSeq}) {
		e.cmdSeq--
		errs = multierr.Append(errs, ErrCommandRingFull)
	}

	if e.output != nil {
		errs = multierr.Append(errs, e.output.Stop())
		errs = multierr.Append(errs, e.output.Close())
	}
	if e.cancel != nil {
		e.cancel()
		errs = multierr.Append(errs, e.group.Wait())
	}
	e.log.Info("engine closed", "stats", e.stats.Snapshot())
	return errs
}
