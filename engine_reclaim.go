// engine_reclaim.go - Background reclamation sweep and telemetry drain workers

/*
(c) 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionSynth
License: GPLv3 or later
*/

package main

import (
	"context"
	"time"
)

// reclaimLoop periodically recycles retired slab slots. It runs on a
// low-priority background goroutine and may fall arbitrarily far behind:
// the only consequence is deferred reuse, because handle validity is
// enforced by generations at lookup time, not by this loop.
func (e *Engine) reclaimLoop(ctx context.Context) error {
	tick := time.NewTicker(RECLAIM_INTERVAL_MS * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			// One final sweep so a clean shutdown leaves nothing pending
			// that the watermark already covers.
			e.stats.SlotsReclaimed.Add(uint64(e.slab.Sweep()))
			return nil
		case <-tick.C:
			if freed := e.slab.Sweep(); freed > 0 {
				e.stats.SlotsReclaimed.Add(uint64(freed))
				e.log.V(2).Info("reclaimed slots", "count", freed, "watermark", e.slab.Watermark())
			}
		}
	}
}

// telemetryLoop drains the audio->control report ring into the stats
// counters and the log. This is the only consumer of that ring, keeping
// the single-consumer discipline.
func (e *Engine) telemetryLoop(ctx context.Context) error {
	tick := time.NewTicker(5 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			e.drainTelemetry()
			return nil
		case <-tick.C:
			e.drainTelemetry()
		}
	}
}

func (e *Engine) drainTelemetry() {
	for {
		ev, ok := e.telemetry.Pop()
		if !ok {
			return
		}
		e.stats.absorb(ev)
		switch ev.Kind {
		case TELEMETRY_SOURCE_FINISHED, TELEMETRY_ENGINE_STOPPED:
			e.log.V(1).Info("telemetry", "kind", ev.Kind.String(), "seq", ev.Seq)
		default:
			// Faults, not progress. These indicate a control-side protocol
			// slip (e.g. retire before disconnect) and deserve visibility.
			e.log.Info("telemetry fault", "kind", ev.Kind.String(), "seq", ev.Seq)
		}
	}
}
