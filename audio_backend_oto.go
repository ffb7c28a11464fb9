//go:build !headless

// audio_backend_oto.go - OTO v3 audio output implementation

/*
(c) 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionSynth
License: GPLv3 or later
*/

package main

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ebitengine/oto/v3"
)

// OtoPlayer drives the engine from oto's playback thread. oto pulls bytes
// through Read, which is the hardware callback in this design: it runs on
// the one real-time thread and must only ever touch the engine's lock-free
// render path.
type OtoPlayer struct {
	ctx       *oto.Context
	player    *oto.Player
	engine    atomic.Pointer[Engine] // atomic for lock-free Read()
	channels  int
	sampleBuf []float32  // pre-allocated sample staging
	started   bool
	mutex     sync.Mutex // setup/control operations only
}

func NewOtoPlayer(sampleRate int, engine *Engine) (*OtoPlayer, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: engine.cfg.Channels,
		Format:       oto.FormatFloat32LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, &DeviceError{Backend: "oto", Err: err}
	}
	<-ready

	p := &OtoPlayer{
		ctx:      ctx,
		channels: engine.cfg.Channels,
		// Sized for typical oto period lengths; grown in Read if the
		// device asks for more, which settles after the first callback.
		sampleBuf: make([]float32, 4096),
	}
	p.engine.Store(engine)
	p.player = ctx.NewPlayer(p)
	return p, nil
}

func (op *OtoPlayer) Read(p []byte) (n int, err error) {
	// Load the engine pointer atomically - no lock on the hot path.
	engine := op.engine.Load()
	if engine == nil {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	numSamples := len(p) / 4

	if len(op.sampleBuf) < numSamples {
		op.sampleBuf = make([]float32, numSamples)
	}
	samples := op.sampleBuf[:numSamples]

	engine.Render(samples)

	copy(p, (*[1 << 30]byte)(unsafe.Pointer(&samples[0]))[:len(p)])
	return len(p), nil
}

func (op *OtoPlayer) Start() error {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if !op.started && op.player != nil {
		op.player.Play()
		op.started = true
	}
	return nil
}

func (op *OtoPlayer) Stop() error {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if op.started && op.player != nil {
		op.player.Pause()
		op.started = false
	}
	return nil
}

func (op *OtoPlayer) Close() error {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	op.started = false
	if op.player != nil {
		if err := op.player.Close(); err != nil {
			op.player = nil
			return &DeviceError{Backend: "oto", Err: err}
		}
		op.player = nil
	}
	return nil
}

func (op *OtoPlayer) IsStarted() bool {
	op.mutex.Lock()
	defer op.mutex.Unlock()
	return op.started
}
