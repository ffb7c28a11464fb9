// engine_constants.go - Fixed engine parameters for the IntuitionSynth core

/*
(c) 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionSynth
License: GPLv3 or later
*/

package main

const (
	// BLOCK_SIZE is the number of frames produced per graph step. Every
	// signal node advances by exactly this many frames per call; the device
	// backend slices its own period into BLOCK_SIZE chunks.
	BLOCK_SIZE = 128

	// SAMPLE_RATE is the fixed internal rate in Hz. Media sources at other
	// rates are resampled at load time, never on the audio thread.
	SAMPLE_RATE = 44100

	// MAX_CHANNELS bounds the per-frame channel count so combinator
	// scratch buffers can be sized inline at construction.
	MAX_CHANNELS = 16
)

const (
	// SLAB_CAPACITY is the fixed number of node slots. Allocation beyond
	// this fails with ErrSlabExhausted; the slab never grows because growth
	// would require the audio thread to chase a moving backing array.
	SLAB_CAPACITY = 1024

	// COMMAND_RING_CAPACITY bounds the control->audio command queue.
	COMMAND_RING_CAPACITY = 1024

	// TELEMETRY_RING_CAPACITY bounds the audio->control report queue.
	TELEMETRY_RING_CAPACITY = 256

	// DRAIN_CAP is the maximum number of commands applied per block. It
	// bounds both the audio thread's per-callback time budget and the
	// worst-case latency before an edit becomes audible. Excess commands
	// stay queued for the next block.
	DRAIN_CAP = 64
)

const (
	// SPIN_LIMIT is how many tight CAS retries the control-side lock-free
	// paths attempt before yielding the processor.
	SPIN_LIMIT = 64

	// RECLAIM_INTERVAL_MS is how often the background sweep wakes up. The
	// sweep tolerates running arbitrarily late; this only affects when
	// retired slots are recycled, never whether stale handles are caught.
	RECLAIM_INTERVAL_MS = 10
)

const (
	// DELAY_MAX_BLOCKS bounds the history a feedback/delay node may keep.
	// One block is the minimum loop time; feedback shorter than a block is
	// not representable because nodes advance a block at a time.
	DELAY_MAX_BLOCKS = 512
)

const Version = "0.1.0"
