// media_loader.go - Decode media files into playable sample buffers

/*
(c) 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionSynth
License: GPLv3 or later
*/

package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

// Media decoding is strictly a control-thread concern: files are decoded
// and resampled to the engine rate up front, producing an immutable
// interleaved buffer a BufferSource walks on the audio thread. Streaming
// decode on the render path would mean syscalls there, so it does not
// exist.

var ErrUnknownMediaFormat = errors.New("unknown media format")

// LoadMedia decodes the file at path by extension and returns a finite
// source resampled to the engine rate.
func LoadMedia(path string) (*BufferSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return DecodeWav(f)
	case ".mp3":
		return DecodeMp3(f)
	case ".ogg", ".oga":
		return DecodeVorbis(f)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownMediaFormat, filepath.Ext(path))
}

// DecodeWav decodes a PCM WAV stream.
func DecodeWav(r io.ReadSeeker) (*BufferSource, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("wav: not a valid file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}
	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(dec.BitDepth)
	}
	data := pcmToFloat(buf, bitDepth)
	return newResampledBuffer(data, buf.Format.NumChannels, buf.Format.SampleRate)
}

// pcmToFloat converts an integer PCM buffer to [-1, 1) float samples.
func pcmToFloat(buf *audio.IntBuffer, bitDepth int) []float32 {
	scale := float32(int64(1) << (bitDepth - 1))
	data := make([]float32, len(buf.Data))
	for i, s := range buf.Data {
		data[i] = float32(s) / scale
	}
	return data
}

// DecodeMp3 decodes an MP3 stream. go-mp3 always emits 16-bit
// little-endian stereo.
func DecodeMp3(r io.Reader) (*BufferSource, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}
	data := make([]float32, len(raw)/2)
	for i := range data {
		v := int16(binary.LittleEndian.Uint16(raw[2*i:]))
		data[i] = float32(v) / 32768.0
	}
	return newResampledBuffer(data, 2, dec.SampleRate())
}

// DecodeVorbis decodes an Ogg Vorbis stream.
func DecodeVorbis(r io.Reader) (*BufferSource, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("vorbis: %w", err)
	}
	return newResampledBuffer(data, format.Channels, format.SampleRate)
}

func newResampledBuffer(data []float32, channels, rate int) (*BufferSource, error) {
	if rate != SAMPLE_RATE {
		data = resampleLinear(data, channels, rate, SAMPLE_RATE)
	}
	return NewBufferSource(data, channels)
}

// resampleLinear converts interleaved samples between rates by linear
// interpolation. Quality is fine for the loader's purpose; anything fancier
// belongs in an offline tool, not here.
func resampleLinear(data []float32, channels, from, to int) []float32 {
	if from == to || len(data) == 0 {
		return data
	}
	inFrames := len(data) / channels
	outFrames := int(int64(inFrames) * int64(to) / int64(from))
	if outFrames == 0 {
		return nil
	}
	out := make([]float32, outFrames*channels)
	step := float64(from) / float64(to)
	for f := 0; f < outFrames; f++ {
		srcPos := float64(f) * step
		i0 := int(srcPos)
		i1 := i0 + 1
		if i1 >= inFrames {
			i1 = inFrames - 1
		}
		frac := float32(srcPos - float64(i0))
		for ch := 0; ch < channels; ch++ {
			a := data[i0*channels+ch]
			b := data[i1*channels+ch]
			out[f*channels+ch] = a + (b-a)*frac
		}
	}
	return out
}
