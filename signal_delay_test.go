// signal_delay_test.go - Tests for the feedback delay node

package main

import (
	"math"
	"testing"
)

// impulseSource produces a single full block of 1.0 then silence, which
// makes the delay's echo train trivial to predict.
func impulseBlock() *BufferSource {
	data := make([]float32, BLOCK_SIZE)
	for i := range data {
		data[i] = 1
	}
	src, _ := NewBufferSource(data, 1)
	return src
}

func TestDelayNode_EchoAfterDelay(t *testing.T) {
	d, err := NewDelayNode(impulseBlock(), 2, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	dst := make([]float32, BLOCK_SIZE)

	// Block 0: dry impulse.
	d.BlockAdvance(testCtx(), dst)
	if dst[0] != 1 {
		t.Fatalf("block 0 sample = %f, want dry 1", dst[0])
	}
	// Block 1: source exhausted, history not yet primed.
	d.BlockAdvance(testCtx(), dst)
	if dst[0] != 0 {
		t.Fatalf("block 1 sample = %f, want silence before the delay elapses", dst[0])
	}
	// Block 2: first echo at half amplitude.
	d.BlockAdvance(testCtx(), dst)
	if dst[0] != 0.5 {
		t.Fatalf("block 2 sample = %f, want first echo 0.5", dst[0])
	}
	// Block 3: between echoes.
	d.BlockAdvance(testCtx(), dst)
	if dst[0] != 0 {
		t.Fatalf("block 3 sample = %f, want silence between echoes", dst[0])
	}
	// Block 4: second echo, half again.
	d.BlockAdvance(testCtx(), dst)
	if dst[0] != 0.25 {
		t.Fatalf("block 4 sample = %f, want second echo 0.25", dst[0])
	}
}

func TestDelayNode_DecayIsBounded(t *testing.T) {
	// With feedback below one the echo train must decay geometrically; the
	// tail after many blocks is vanishingly small, never growing.
	d, _ := NewDelayNode(impulseBlock(), 1, 0.9)
	dst := make([]float32, BLOCK_SIZE)
	var peak float64
	for i := 0; i < 200; i++ {
		d.BlockAdvance(testCtx(), dst)
		peak = math.Abs(float64(dst[0]))
	}
	if peak > 1e-5 {
		t.Errorf("echo tail after 200 blocks = %g, expected near-silence", peak)
	}
}

func TestDelayNode_InfiniteAfterSourceEnds(t *testing.T) {
	d, _ := NewDelayNode(impulseBlock(), 1, 0.5)
	dst := make([]float32, BLOCK_SIZE)
	for i := 0; i < 10; i++ {
		if n := d.BlockAdvance(testCtx(), dst); n != BLOCK_SIZE {
			t.Fatalf("block %d produced %d frames; the delay must ring out as an infinite node", i, n)
		}
	}
}

func TestDelayNode_ConstructionLimits(t *testing.T) {
	src := NewSineSource(440)
	if _, err := NewDelayNode(src, 0, 0.5); err == nil {
		t.Error("zero-block delay must be rejected")
	}
	if _, err := NewDelayNode(src, DELAY_MAX_BLOCKS+1, 0.5); err == nil {
		t.Error("delay beyond the history cap must be rejected")
	}
	if _, err := NewDelayNode(src, 4, 1.0); err == nil {
		t.Error("feedback >= 1 is an unstable loop and must be rejected")
	}
	if _, err := NewDelayNode(src, 4, -0.1); err == nil {
		t.Error("negative feedback must be rejected")
	}
}

func TestDelayNode_FeedbackParam(t *testing.T) {
	d, _ := NewDelayNode(impulseBlock(), 1, 0.5)
	d.SetParam(PARAM_FEEDBACK, 0.25)
	dst := make([]float32, BLOCK_SIZE)
	d.BlockAdvance(testCtx(), dst) // dry impulse
	d.BlockAdvance(testCtx(), dst) // first echo
	if dst[0] != 0.25 {
		t.Errorf("echo after param change = %f, want 0.25", dst[0])
	}
	// Out-of-range value is ignored, not applied.
	d.SetParam(PARAM_FEEDBACK, 1.5)
	d.BlockAdvance(testCtx(), dst)
	if dst[0] != 0.25*0.25 {
		t.Errorf("echo after rejected param = %f, want %f", dst[0], 0.25*0.25)
	}
}
