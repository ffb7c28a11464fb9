// signal_hrtf.go - Binaural join node convolving a mono input with HRTF impulses

/*
(c) 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionSynth
License: GPLv3 or later
*/

package main

// HrtfNode renders a mono input at a direction by direct convolution with
// the nearest measured impulse from a pre-decoded dataset. The left ear
// uses the impulse at the requested azimuth; the right ear uses the
// impulse mirrored across the median plane, which is how symmetric
// datasets (MIT KEMAR and friends) encode the second ear.
//
// Direction changes arrive as MutateParameter commands and swap which
// dataset slices the convolution reads; the dataset itself is immutable
// after load, so the swap is two pointer writes on the audio thread.
type HrtfNode struct {
	src     Signal
	dataset *HrtfDataset

	azimuth   float64
	elevation float64
	left      []float32 // current left-ear impulse, borrowed from dataset
	right     []float32

	history []float32 // input sample ring, len = dataset.Taps()
	histPos int
	scratch []float32 // one mono block of staging
}

// NewHrtfNode builds a binaural node over a validated dataset. The input
// must be mono; spatializing an already-multichannel signal has no defined
// meaning here and is rejected at construction.
func NewHrtfNode(src Signal, dataset *HrtfDataset) (*HrtfNode, error) {
	if src.Channels() != 1 {
		return nil, &GraphError{Op: "hrtf", Want: 1, Got: src.Channels()}
	}
	n := &HrtfNode{
		src:     src,
		dataset: dataset,
		history: make([]float32, dataset.Taps()),
		scratch: make([]float32, BLOCK_SIZE),
	}
	n.retarget()
	return n, nil
}

func (h *HrtfNode) Channels() int { return 2 }

func (h *HrtfNode) SetParam(param uint32, value float64) {
	switch param {
	case PARAM_AZIMUTH:
		h.azimuth = value
	case PARAM_ELEVATION:
		if value < -90 {
			value = -90
		} else if value > 90 {
			value = 90
		}
		h.elevation = value
	default:
		return
	}
	h.retarget()
}

// retarget reselects the ear impulses for the current direction.
func (h *HrtfNode) retarget() {
	h.left = h.dataset.Nearest(h.azimuth, h.elevation)
	h.right = h.dataset.Nearest(-h.azimuth, h.elevation)
}

func (h *HrtfNode) BlockAdvance(ctx *BlockContext, dst []float32) int {
	frames := len(dst) / 2
	produced := h.src.BlockAdvance(ctx, h.scratch[:frames])
	// The ringing tail of the impulse outlives a finite input, so the node
	// stays live for a full block regardless and feeds zeros in.
	for i := produced; i < frames; i++ {
		h.scratch[i] = 0
	}

	taps := len(h.history)
	for i := 0; i < frames; i++ {
		h.history[h.histPos] = h.scratch[i]

		// Walk the ring newest-to-oldest against the impulse.
		var l, r float32
		p := h.histPos
		for k := 0; k < taps; k++ {
			s := h.history[p]
			l += s * h.left[k]
			r += s * h.right[k]
			p--
			if p < 0 {
				p = taps - 1
			}
		}
		dst[2*i] = l
		dst[2*i+1] = r

		h.histPos++
		if h.histPos == taps {
			h.histPos = 0
		}
	}
	return frames
}
