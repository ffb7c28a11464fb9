// signal_hrtf_test.go - Tests for the binaural convolution node

package main

import (
	"math"
	"testing"
)

// hrtfTestDataset has impulses chosen so each direction is identifiable in
// the output: the front impulse is a pure unit tap, the side impulses are
// delayed or scaled.
func hrtfTestDataset() *HrtfDataset {
	return &HrtfDataset{
		Elevations: []HrtfElevation{
			{Angle: 0, Azimuths: []HrtfAzimuth{
				{Angle: 0, Impulse: []float32{1, 0, 0}},
				{Angle: 90, Impulse: []float32{0.5, 0, 0}},
				{Angle: 270, Impulse: []float32{0, 0, 0.5}},
			}},
		},
	}
}

func TestHrtfNode_RejectsMultichannelInput(t *testing.T) {
	if _, err := NewHrtfNode(NewSilenceSource(2), hrtfTestDataset()); err == nil {
		t.Fatal("stereo input must be rejected")
	}
}

func TestHrtfNode_StereoOutput(t *testing.T) {
	n, err := NewHrtfNode(NewSineSource(440), hrtfTestDataset())
	if err != nil {
		t.Fatal(err)
	}
	if n.Channels() != 2 {
		t.Fatalf("Channels() = %d, want 2", n.Channels())
	}
	dst := make([]float32, BLOCK_SIZE*2)
	if got := n.BlockAdvance(testCtx(), dst); got != BLOCK_SIZE {
		t.Errorf("produced %d frames, want %d", got, BLOCK_SIZE)
	}
}

func TestHrtfNode_FrontIsIdentity(t *testing.T) {
	// At azimuth 0 both ears use the unit-tap impulse, so each ear must
	// reproduce the dry input exactly.
	src, _ := NewBufferSource([]float32{0.5, -0.25, 0.125}, 1)
	n, _ := NewHrtfNode(src, hrtfTestDataset())
	dst := make([]float32, 8)
	n.BlockAdvance(testCtx(), dst)
	want := []float32{0.5, -0.25, 0.125, 0}
	for f, w := range want {
		if dst[2*f] != w || dst[2*f+1] != w {
			t.Fatalf("frame %d = (%f, %f), want (%f, %f)", f, dst[2*f], dst[2*f+1], w, w)
		}
	}
}

func TestHrtfNode_EarsMirror(t *testing.T) {
	// At azimuth 90 the left ear uses the 90-degree impulse (scale 0.5,
	// no delay) and the right ear the mirrored 270-degree one (scale 0.5,
	// two-sample delay).
	src, _ := NewBufferSource([]float32{1, 0, 0, 0}, 1)
	n, _ := NewHrtfNode(src, hrtfTestDataset())
	n.SetParam(PARAM_AZIMUTH, 90)

	dst := make([]float32, 8)
	n.BlockAdvance(testCtx(), dst)

	if dst[0] != 0.5 {
		t.Errorf("left frame 0 = %f, want 0.5 (undelayed)", dst[0])
	}
	if dst[1] != 0 {
		t.Errorf("right frame 0 = %f, want 0 before the delay elapses", dst[1])
	}
	if dst[5] != 0.5 {
		t.Errorf("right frame 2 = %f, want 0.5 (delayed impulse)", dst[5])
	}
}

func TestHrtfNode_TailOutlivesSource(t *testing.T) {
	// A finite source ends mid-block; the convolution tail keeps the node
	// producing full blocks with the impulse ringing out.
	ds := &HrtfDataset{
		Elevations: []HrtfElevation{
			{Angle: 0, Azimuths: []HrtfAzimuth{
				{Angle: 0, Impulse: []float32{0, 0, 1}},
			}},
		},
	}
	src, _ := NewBufferSource([]float32{1}, 1)
	n, _ := NewHrtfNode(src, ds)
	dst := make([]float32, 8)
	if got := n.BlockAdvance(testCtx(), dst); got != 4 {
		t.Fatalf("produced %d frames, want full 4", got)
	}
	// The unit input at frame 0 emerges at frame 2 through the delayed tap.
	if dst[4] != 1 {
		t.Errorf("tail sample = %f, want 1", dst[4])
	}
}

func TestHrtfNode_ElevationClamped(t *testing.T) {
	n, _ := NewHrtfNode(NewSineSource(440), hrtfTestDataset())
	n.SetParam(PARAM_ELEVATION, 200)
	if n.elevation != 90 {
		t.Errorf("elevation = %g, want clamped to 90", n.elevation)
	}
	n.SetParam(PARAM_ELEVATION, -200)
	if n.elevation != -90 {
		t.Errorf("elevation = %g, want clamped to -90", n.elevation)
	}
}

func TestHrtfNode_NoAllocOnRetarget(t *testing.T) {
	n, _ := NewHrtfNode(NewSineSource(440), hrtfTestDataset())
	dst := make([]float32, BLOCK_SIZE*2)
	ctx := testCtx()
	n.BlockAdvance(ctx, dst)
	allocs := testing.AllocsPerRun(100, func() {
		n.SetParam(PARAM_AZIMUTH, float64(int(n.azimuth+10)%360))
		n.BlockAdvance(ctx, dst)
	})
	if allocs != 0 {
		t.Errorf("render path allocated %.1f times per run, want 0", allocs)
	}
}

func TestHrtfNode_Sine90DegreesIsScaled(t *testing.T) {
	n, _ := NewHrtfNode(NewSineSource(440), hrtfTestDataset())
	n.SetParam(PARAM_AZIMUTH, 90)
	ref := NewSineSource(440)
	want := make([]float32, BLOCK_SIZE)
	ref.BlockAdvance(testCtx(), want)

	dst := make([]float32, BLOCK_SIZE*2)
	n.BlockAdvance(testCtx(), dst)
	for i := 0; i < BLOCK_SIZE; i++ {
		if diff := math.Abs(float64(dst[2*i] - want[i]*0.5)); diff > 1e-6 {
			t.Fatalf("left sample %d = %f, want %f", i, dst[2*i], want[i]*0.5)
		}
	}
}
