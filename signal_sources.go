// signal_sources.go - Leaf signal nodes: oscillators, noise, sample buffers

/*
(c) 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionSynth
License: GPLv3 or later
*/

package main

import "math"

const (
	NOISE_LFSR_SEED = 0x7FFFFF // 23-bit LFSR seed
	NOISE_LFSR_MASK = 0x7FFFFF // 23-bit mask
)

// SineSource is an infinite mono sine oscillator. Phase accumulates in
// radians and wraps at 2*pi to keep float32 precision stable over long
// runs.
type SineSource struct {
	frequency float64
	amplitude float64
	phase     float64
}

// NewSineSource returns a mono sine at the given frequency and unit
// amplitude.
func NewSineSource(frequency float64) *SineSource {
	return &SineSource{frequency: frequency, amplitude: 1.0}
}

func (s *SineSource) Channels() int { return 1 }

func (s *SineSource) BlockAdvance(ctx *BlockContext, dst []float32) int {
	frames := len(dst)
	inc := 2 * math.Pi * s.frequency / float64(ctx.SampleRate)
	for i := 0; i < frames; i++ {
		dst[i] = float32(math.Sin(s.phase) * s.amplitude)
		s.phase += inc
		if s.phase >= 2*math.Pi {
			s.phase -= 2 * math.Pi
		}
	}
	return frames
}

func (s *SineSource) SetParam(param uint32, value float64) {
	switch param {
	case PARAM_FREQ:
		s.frequency = value
	case PARAM_GAIN:
		s.amplitude = value
	}
}

// NoiseSource is an infinite mono white-noise generator driven by a 23-bit
// maximal-length LFSR (taps 23,18), the same register the audio chips of
// the 8-bit era used. Deterministic for a given seed, which the tests rely
// on.
type NoiseSource struct {
	amplitude float64
	sr        uint32
}

func NewNoiseSource() *NoiseSource {
	return &NoiseSource{amplitude: 1.0, sr: NOISE_LFSR_SEED}
}

func (n *NoiseSource) Channels() int { return 1 }

func (n *NoiseSource) BlockAdvance(ctx *BlockContext, dst []float32) int {
	frames := len(dst)
	for i := 0; i < frames; i++ {
		newBit := ((n.sr >> 22) ^ (n.sr >> 17)) & 1
		n.sr = ((n.sr << 1) | newBit) & NOISE_LFSR_MASK
		dst[i] = (float32(n.sr&1)*2 - 1) * float32(n.amplitude)
	}
	return frames
}

func (n *NoiseSource) SetParam(param uint32, value float64) {
	if param == PARAM_GAIN {
		n.amplitude = value
	}
}

// BufferSource plays a pre-decoded interleaved sample buffer once. It is
// the finite source in the graph: when the buffer runs out mid-block it
// produces what remains and reports the shortfall through its return
// value, with the tail defined as silence. The decoded data is immutable
// and owned by the control thread's loader; the node only walks it.
type BufferSource struct {
	data     []float32
	channels int
	pos      int // frame position
	reported bool
}

// NewBufferSource wraps decoded interleaved samples. len(data) must be a
// multiple of channels.
func NewBufferSource(data []float32, channels int) (*BufferSource, error) {
	if channels <= 0 || channels > MAX_CHANNELS {
		return nil, &GraphError{Op: "buffer", Want: MAX_CHANNELS, Got: channels}
	}
	if len(data)%channels != 0 {
		return nil, &GraphError{Op: "buffer", Want: len(data) - len(data)%channels, Got: len(data)}
	}
	return &BufferSource{data: data, channels: channels}, nil
}

func (b *BufferSource) Channels() int { return b.channels }

// Frames returns the total frame count of the underlying buffer.
func (b *BufferSource) Frames() int { return len(b.data) / b.channels }

func (b *BufferSource) BlockAdvance(ctx *BlockContext, dst []float32) int {
	frames := len(dst) / b.channels
	remaining := b.Frames() - b.pos
	if remaining <= 0 {
		if !b.reported {
			b.reported = true
			ctx.Report(TelemetryEvent{Kind: TELEMETRY_SOURCE_FINISHED, Seq: ctx.Seq})
		}
		return 0
	}
	if frames > remaining {
		frames = remaining
	}
	copy(dst[:frames*b.channels], b.data[b.pos*b.channels:])
	b.pos += frames
	return frames
}

// SilenceSource produces zero frames of the declared width forever. Used
// as a placeholder input and in tests.
type SilenceSource struct {
	channels int
}

func NewSilenceSource(channels int) *SilenceSource {
	return &SilenceSource{channels: channels}
}

func (s *SilenceSource) Channels() int { return s.channels }

func (s *SilenceSource) BlockAdvance(ctx *BlockContext, dst []float32) int {
	for i := range dst {
		dst[i] = 0
	}
	return len(dst) / s.channels
}
