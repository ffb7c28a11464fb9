// engine_reclaim_test.go - Tests for the background workers and lifecycle

package main

import (
	"context"
	"testing"
	"time"
)

func TestEngine_StartCloseLifecycle(t *testing.T) {
	e, err := NewEngine(EngineConfig{Channels: 1}, AUDIO_BACKEND_NONE)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !e.output.IsStarted() {
		t.Error("output not started after Start")
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close() = %v, want nil", err)
	}
	if e.output.IsStarted() {
		t.Error("output still started after Close")
	}
}

func TestEngine_ReclaimLoopFreesRetiredSlots(t *testing.T) {
	e, err := NewEngine(EngineConfig{Channels: 1}, AUDIO_BACKEND_NONE)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	h, _ := e.AddNode(NewSineSource(440))
	if err := e.Retire(h); err != nil {
		t.Fatal(err)
	}
	e.Render(make([]float32, BLOCK_SIZE)) // drain past the retirement

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if e.Stats().SlotsReclaimed == 1 {
			return
		}
		time.Sleep(RECLAIM_INTERVAL_MS * time.Millisecond)
	}
	t.Fatalf("background sweep never reclaimed the slot (got %d)", e.Stats().SlotsReclaimed)
}

func TestEngine_TelemetryDrainFeedsStats(t *testing.T) {
	e, err := NewEngine(EngineConfig{Channels: 1}, AUDIO_BACKEND_NONE)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	// A retired-but-connected input reports a stale handle every block.
	h, _ := e.AddNode(NewSineSource(440))
	e.Connect(NilHandle, h)
	buf := make([]float32, BLOCK_SIZE)
	e.Render(buf)
	e.Retire(h)
	e.Render(buf)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if e.Stats().StaleHandles > 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("telemetry drain never absorbed the stale-handle report")
}
