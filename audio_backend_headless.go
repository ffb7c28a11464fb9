//go:build headless

// audio_backend_headless.go - Stub audio output for headless builds

package main

type OtoPlayer struct {
	started bool
	engine  *Engine
}

func NewOtoPlayer(sampleRate int, engine *Engine) (*OtoPlayer, error) {
	return &OtoPlayer{engine: engine}, nil
}

func (op *OtoPlayer) Start() error {
	op.started = true
	return nil
}

func (op *OtoPlayer) Stop() error {
	op.started = false
	return nil
}

func (op *OtoPlayer) Close() error {
	op.started = false
	return nil
}

func (op *OtoPlayer) IsStarted() bool {
	return op.started
}
