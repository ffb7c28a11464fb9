// engine_errors.go - Error taxonomy for the synthesis core

package main

import (
	"errors"
	"fmt"
)

// Control-thread-visible errors. Everything here is returned synchronously
// to the caller; the audio thread never surfaces an error object, it
// absorbs the fault and posts a telemetry event instead.
var (
	// ErrSlabExhausted - the node slab is at capacity. Recoverable: the
	// caller can retire nodes or construct an engine with a larger slab.
	ErrSlabExhausted = errors.New("slab capacity exhausted")

	// ErrCommandRingFull - the control->audio command queue rejected a
	// push. The edit did not happen; the caller may retry. The queue never
	// blocks because that would invert the real-time priority relationship.
	ErrCommandRingFull = errors.New("command ring full")

	// ErrStaleHandle - a handle references a slot whose generation has
	// moved on. Only returned from control-side lookups; on the audio
	// thread a stale handle is silently skipped and reported.
	ErrStaleHandle = errors.New("stale slab handle")

	// ErrEngineStopped - the engine has been told to stop and no longer
	// accepts commands.
	ErrEngineStopped = errors.New("engine stopped")
)

// GraphError reports a construction-time topology fault such as a channel
// count mismatch between a mix input and its bus. These are rejected before
// the offending node is ever admitted to the real-time path.
type GraphError struct {
	Op   string // operation being attempted, e.g. "mix", "connect"
	Want int    // expected channel count
	Got  int    // offending channel count
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("graph %s: channel count mismatch: want %d, got %d", e.Op, e.Want, e.Got)
}

// DeviceError wraps a failure from the audio backend. Opaque to the core;
// surfaced to the embedder as-is.
type DeviceError struct {
	Backend string
	Err     error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("audio backend %s: %v", e.Backend, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }
