// audio_interfaces.go - Audio output backend abstraction

package main

import (
	"errors"
	"strconv"
)

// AudioOutput is the device boundary. The backend pulls samples from the
// engine's Render on its own real-time thread; the engine never calls into
// the backend except through this lifecycle surface.
type AudioOutput interface {
	// Start opens the hardware stream and begins pulling.
	Start() error
	// Stop pauses the stream; the engine keeps its state.
	Stop() error
	// Close releases the device.
	Close() error
	// IsStarted reports whether the stream is live.
	IsStarted() bool
}

const (
	AUDIO_BACKEND_OTO  = iota // hardware playback via oto
	AUDIO_BACKEND_NONE        // no device; the embedder drives Render itself
)

// NewAudioOutput constructs the requested backend over the engine.
func NewAudioOutput(backend int, sampleRate int, engine *Engine) (AudioOutput, error) {
	switch backend {
	case AUDIO_BACKEND_OTO:
		return NewOtoPlayer(sampleRate, engine)
	case AUDIO_BACKEND_NONE:
		return &NullOutput{}, nil
	}
	return nil, &DeviceError{Backend: strconv.Itoa(backend), Err: errors.New("unsupported backend")}
}

// NullOutput is the deviceless backend used by tests and offline
// rendering: the embedder calls Engine.Render directly.
type NullOutput struct {
	started bool
}

func (n *NullOutput) Start() error    { n.started = true; return nil }
func (n *NullOutput) Stop() error     { n.started = false; return nil }
func (n *NullOutput) Close() error    { n.started = false; return nil }
func (n *NullOutput) IsStarted() bool { return n.started }
