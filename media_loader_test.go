// media_loader_test.go - Tests for media decoding and resampling

package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestResampleLinear_Identity(t *testing.T) {
	in := []float32{0, 0.5, 1, 0.5}
	out := resampleLinear(in, 1, 44100, 44100)
	if len(out) != len(in) {
		t.Fatalf("identity resample changed length: %d -> %d", len(in), len(out))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("sample %d changed: %f -> %f", i, in[i], out[i])
		}
	}
}

func TestResampleLinear_Upsample(t *testing.T) {
	// Doubling the rate of a ramp interpolates the midpoints.
	in := []float32{0, 1}
	out := resampleLinear(in, 1, 22050, 44100)
	if len(out) != 4 {
		t.Fatalf("output length %d, want 4", len(out))
	}
	want := []float32{0, 0.5, 1, 1}
	for i := range want {
		if math.Abs(float64(out[i]-want[i])) > 1e-6 {
			t.Fatalf("sample %d = %f, want %f", i, out[i], want[i])
		}
	}
}

func TestResampleLinear_DownsampleLength(t *testing.T) {
	in := make([]float32, 441*2) // 441 stereo frames
	out := resampleLinear(in, 2, 44100, 22050)
	if len(out) != 220*2 {
		t.Errorf("output length %d, want %d", len(out), 220*2)
	}
}

func TestResampleLinear_PreservesChannelSeparation(t *testing.T) {
	// Left carries a ramp, right a constant; after resampling the channels
	// must not bleed into each other.
	const frames = 100
	in := make([]float32, frames*2)
	for f := 0; f < frames; f++ {
		in[2*f] = float32(f) / frames
		in[2*f+1] = 0.75
	}
	out := resampleLinear(in, 2, 44100, 48000)
	for f := 0; f < len(out)/2; f++ {
		if math.Abs(float64(out[2*f+1]-0.75)) > 1e-6 {
			t.Fatalf("right sample %d = %f, want constant 0.75", f, out[2*f+1])
		}
	}
}

// writeTestWav emits a minimal 16-bit PCM WAV file.
func writeTestWav(t *testing.T, path string, rate int, channels int, samples []int16) {
	t.Helper()
	var buf bytes.Buffer
	dataLen := len(samples) * 2
	byteRate := rate * channels * 2

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVEfmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(rate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(channels*2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	for _, s := range samples {
		binary.Write(&buf, binary.LittleEndian, s)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadMedia_Wav(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	samples := []int16{0, 16384, -16384, 32767}
	writeTestWav(t, path, SAMPLE_RATE, 1, samples)

	src, err := LoadMedia(path)
	if err != nil {
		t.Fatal(err)
	}
	if src.Channels() != 1 {
		t.Fatalf("Channels() = %d, want 1", src.Channels())
	}
	if src.Frames() != 4 {
		t.Fatalf("Frames() = %d, want 4", src.Frames())
	}
	dst := make([]float32, 4)
	src.BlockAdvance(testCtx(), dst)
	if math.Abs(float64(dst[1]-0.5)) > 1e-4 {
		t.Errorf("sample 1 = %f, want 0.5", dst[1])
	}
	if math.Abs(float64(dst[2]+0.5)) > 1e-4 {
		t.Errorf("sample 2 = %f, want -0.5", dst[2])
	}
}

func TestLoadMedia_WavResampled(t *testing.T) {
	// A 22050 Hz file gets stretched to the engine rate: twice the frames.
	path := filepath.Join(t.TempDir(), "low.wav")
	writeTestWav(t, path, SAMPLE_RATE/2, 1, make([]int16, 100))

	src, err := LoadMedia(path)
	if err != nil {
		t.Fatal(err)
	}
	if src.Frames() != 200 {
		t.Errorf("Frames() = %d, want 200 after resampling", src.Frames())
	}
}

func TestLoadMedia_UnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tune.xyz")
	if err := os.WriteFile(path, []byte("junk"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadMedia(path)
	if !errors.Is(err, ErrUnknownMediaFormat) {
		t.Errorf("LoadMedia = %v, want ErrUnknownMediaFormat", err)
	}
}

func TestLoadMedia_MissingFile(t *testing.T) {
	if _, err := LoadMedia(filepath.Join(t.TempDir(), "absent.wav")); err == nil {
		t.Error("missing file must return the open error")
	}
}

func TestDecodeWav_RejectsGarbage(t *testing.T) {
	if _, err := DecodeWav(bytes.NewReader([]byte("not a wav file at all"))); err == nil {
		t.Error("garbage input must be rejected")
	}
}
