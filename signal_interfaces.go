// signal_interfaces.go - Core signal abstraction for the synthesis graph

/*
(c) 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionSynth
License: GPLv3 or later
*/

package main

// BlockContext carries the per-block execution environment into every
// node's advance call. One instance lives in the engine and is reused for
// every block; nothing here allocates.
type BlockContext struct {
	// SampleRate is the fixed engine rate in Hz.
	SampleRate int

	// Seq is the render sequence number of the block being produced.
	Seq uint64

	// telemetry is the audio->control report ring. Nodes post faults here
	// instead of returning errors; the render path never aborts.
	telemetry *SPSC[TelemetryEvent]
}

// Report posts a telemetry event from the render path. Lossy by design: if
// the ring is full the event is dropped, because the audio thread must not
// wait on the control thread's willingness to read reports.
func (ctx *BlockContext) Report(ev TelemetryEvent) {
	if ctx.telemetry != nil {
		ctx.telemetry.Push(ev)
	}
}

// Signal is the single capability every graph node exposes: produce the
// next block of audio. Implementations own exactly the state needed to
// resume production across calls.
//
// Contract:
//   - dst is caller-provided interleaved storage for len(dst)/Channels()
//     frames. The engine always passes BLOCK_SIZE frames; combinators that
//     splice finite sources may pass a shorter tail.
//   - BlockAdvance returns the number of frames actually produced. A
//     return shorter than the requested frame count means the source is
//     finished; the unwritten tail is defined to be silence and the caller
//     must not read it as produced audio. Exhaustion is a normal terminal
//     condition, never an error.
//   - No implementation may allocate, lock, block, or perform syscalls.
//     Any buffering a node needs is owned inline and sized at
//     construction.
//   - The declared channel count never changes after construction.
//
// Samples are float32 and are not clipped or renormalized here; gain
// staging is the mixing stage's and the device layer's business.
type Signal interface {
	// Channels returns the node's fixed frame width.
	Channels() int

	// BlockAdvance produces the next frames into dst.
	BlockAdvance(ctx *BlockContext, dst []float32) int
}

// ParamTarget is implemented by nodes whose parameters can be mutated by
// MutateParameter commands. SetParam runs on the audio thread during the
// drain phase and must follow the same no-allocation rules as
// BlockAdvance. Unknown parameter IDs are ignored.
type ParamTarget interface {
	SetParam(param uint32, value float64)
}

// EdgeTarget is implemented by nodes that accept graph edges (mixers and
// other join nodes). Connect/Disconnect run on the audio thread during the
// drain phase; channel-count validation has already happened on the
// control thread before the command was admitted, so these only manage the
// input table and report capacity with their return value.
type EdgeTarget interface {
	ConnectInput(src Handle) bool
	DisconnectInput(src Handle) bool
}

// Parameter IDs shared by the built-in nodes. Register-style flat IDs keep
// the MutateParameter command a plain POD.
const (
	PARAM_FREQ      uint32 = 0x00 // oscillator frequency, Hz
	PARAM_GAIN      uint32 = 0x01 // linear gain multiplier
	PARAM_FEEDBACK  uint32 = 0x02 // delay feedback coefficient
	PARAM_AZIMUTH   uint32 = 0x10 // HRTF azimuth, degrees clockwise from 0
	PARAM_ELEVATION uint32 = 0x11 // HRTF elevation, degrees, -90..90
)
