// engine_telemetry.go - Asynchronous fault and progress reporting, audio to control

/*
(c) 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionSynth
License: GPLv3 or later
*/

package main

import "sync/atomic"

// TelemetryKind tags an event flowing from the audio thread back to the
// control side. These are the only way the render path talks about
// problems: it never returns an error and never logs.
type TelemetryKind uint8

const (
	// TELEMETRY_STALE_HANDLE - an edge resolved to a retired slot; the
	// input contributed silence for this block.
	TELEMETRY_STALE_HANDLE TelemetryKind = iota

	// TELEMETRY_COMMAND_SKIPPED - a drained command targeted a node that
	// no longer exists or lacks the needed capability; it was dropped.
	TELEMETRY_COMMAND_SKIPPED

	// TELEMETRY_SOURCE_FINISHED - a finite source ran out. Expected
	// terminal condition, reported once per source so sequencing logic on
	// the control side can react.
	TELEMETRY_SOURCE_FINISHED

	// TELEMETRY_EDGE_TABLE_FULL - a ConnectEdge found the target's input
	// table at capacity.
	TELEMETRY_EDGE_TABLE_FULL

	// TELEMETRY_ENGINE_STOPPED - the stop command was applied; blocks
	// from here on are silence.
	TELEMETRY_ENGINE_STOPPED
)

func (k TelemetryKind) String() string {
	switch k {
	case TELEMETRY_STALE_HANDLE:
		return "stale-handle"
	case TELEMETRY_COMMAND_SKIPPED:
		return "command-skipped"
	case TELEMETRY_SOURCE_FINISHED:
		return "source-finished"
	case TELEMETRY_EDGE_TABLE_FULL:
		return "edge-table-full"
	case TELEMETRY_ENGINE_STOPPED:
		return "engine-stopped"
	}
	return "unknown"
}

// TelemetryEvent is one report. Plain data for the same reason Command is.
type TelemetryEvent struct {
	Kind TelemetryKind
	Seq  uint64 // render sequence of the block that observed it
	Node Handle // involved node, if any
}

// EngineStats is the control-side aggregation of telemetry plus the
// counters the control thread maintains itself. All fields are atomics so
// Snapshot can be taken while the drain goroutine is writing.
type EngineStats struct {
	BlocksRendered  atomic.Uint64
	CommandsApplied atomic.Uint64
	CommandsDropped atomic.Uint64 // control-side ring overflow rejections
	StaleHandles    atomic.Uint64
	CommandsSkipped atomic.Uint64
	SourcesFinished atomic.Uint64
	SlotsReclaimed  atomic.Uint64
}

// StatsSnapshot is a plain copy of the counters at one instant.
type StatsSnapshot struct {
	BlocksRendered  uint64
	CommandsApplied uint64
	CommandsDropped uint64
	StaleHandles    uint64
	CommandsSkipped uint64
	SourcesFinished uint64
	SlotsReclaimed  uint64
}

func (s *EngineStats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		BlocksRendered:  s.BlocksRendered.Load(),
		CommandsApplied: s.CommandsApplied.Load(),
		CommandsDropped: s.CommandsDropped.Load(),
		StaleHandles:    s.StaleHandles.Load(),
		CommandsSkipped: s.CommandsSkipped.Load(),
		SourcesFinished: s.SourcesFinished.Load(),
		SlotsReclaimed:  s.SlotsReclaimed.Load(),
	}
}

// absorb folds one telemetry event into the counters. Runs on the
// telemetry drain goroutine.
func (s *EngineStats) absorb(ev TelemetryEvent) {
	switch ev.Kind {
	case TELEMETRY_STALE_HANDLE:
		s.StaleHandles.Add(1)
	case TELEMETRY_COMMAND_SKIPPED:
		s.CommandsSkipped.Add(1)
	case TELEMETRY_SOURCE_FINISHED:
		s.SourcesFinished.Add(1)
	case TELEMETRY_EDGE_TABLE_FULL:
		s.CommandsSkipped.Add(1)
	}
}
