// engine_commands.go - Graph mutation commands crossing the control/audio boundary

/*
(c) 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionSynth
License: GPLv3 or later
*/

package main

// CommandOp tags a Command variant. The command set is the entire mutation
// surface of a live graph; nothing else touches audio-thread-owned state.
type CommandOp uint8

const (
	// CMD_ALLOCATE_NODE announces a node the control thread has placed in
	// the slab. Applying it is the moment read access passes to the audio
	// thread; there is no other work to do, but the command must flow
	// through the queue so the hand-off is ordered against every edit
	// that follows it.
	CMD_ALLOCATE_NODE CommandOp = iota

	// CMD_MUTATE_PARAM sets one parameter on a ParamTarget node.
	CMD_MUTATE_PARAM

	// CMD_CONNECT_EDGE attaches Source as an input of Target (an
	// EdgeTarget). Channel compatibility was verified before enqueue.
	CMD_CONNECT_EDGE

	// CMD_DISCONNECT_EDGE detaches Source from Target.
	CMD_DISCONNECT_EDGE

	// CMD_RETIRE_NODE tells the audio thread a node is logically dead.
	// The slab generation was already bumped control-side; applying this
	// is what lets the reclamation watermark advance past the retirement.
	CMD_RETIRE_NODE

	// CMD_STOP_ENGINE ends production: every block after this one is
	// silence and the device layer is told to wind the stream down.
	// Cancellation is a command like any other; threads are never
	// terminated abruptly.
	CMD_STOP_ENGINE
)

// Command is one graph mutation. Plain data, fixed size, so ring slots
// never point into control-thread memory the audio thread would have to
// chase. Seq is the control thread's monotonic stamp; the audio thread
// republishes it as the reclamation watermark after applying the command.
type Command struct {
	Op     CommandOp
	Seq    uint64
	Target Handle
	Source Handle  // edge source for connect/disconnect
	Param  uint32  // parameter ID for mutate
	Value  float64 // parameter value for mutate
}

func (op CommandOp) String() string {
	switch op {
	case CMD_ALLOCATE_NODE:
		return "AllocateNode"
	case CMD_MUTATE_PARAM:
		return "MutateParameter"
	case CMD_CONNECT_EDGE:
		return "ConnectEdge"
	case CMD_DISCONNECT_EDGE:
		return "DisconnectEdge"
	case CMD_RETIRE_NODE:
		return "RetireNode"
	case CMD_STOP_ENGINE:
		return "StopEngine"
	}
	return "Unknown"
}
