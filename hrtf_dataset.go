// hrtf_dataset.go - Pre-decoded HRTF dataset schema, loading and lookup

/*
(c) 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionSynth
License: GPLv3 or later
*/

package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/sugawarayuuta/sonnet"
)

// HrtfDataset is the input contract for binaural rendering: a set of
// elevations sorted from least to greatest, each holding azimuths sorted
// clockwise from 0, each holding one impulse response. The dataset is
// produced by an external decoder; this file only validates and serves it.
// All impulses in a dataset share one length so the convolution node can
// size its history once at construction.
type HrtfDataset struct {
	Elevations []HrtfElevation `json:"elevations"`
}

// HrtfElevation groups the azimuths measured at one elevation angle.
// Angle is in degrees: -90 is straight down, 90 straight up, matching the
// convention of every dataset in the literature.
type HrtfElevation struct {
	Angle    float64       `json:"angle"`
	Azimuths []HrtfAzimuth `json:"azimuths"`
}

// HrtfAzimuth is one measured direction. Angle is in degrees from 0,
// proceeding clockwise.
type HrtfAzimuth struct {
	Angle   float64   `json:"angle"`
	Impulse []float32 `json:"impulse"`
}

var (
	ErrHrtfEmpty           = errors.New("hrtf dataset has no elevations")
	ErrHrtfUnsorted        = errors.New("hrtf dataset angles are not sorted")
	ErrHrtfImpulseMismatch = errors.New("hrtf impulse lengths differ")
)

// LoadHrtfDataset decodes and validates a JSON-encoded dataset.
func LoadHrtfDataset(r io.Reader) (*HrtfDataset, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("hrtf: read: %w", err)
	}
	var ds HrtfDataset
	if err := sonnet.Unmarshal(raw, &ds); err != nil {
		return nil, fmt.Errorf("hrtf: decode: %w", err)
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Validate checks the schema invariants: non-empty, elevations sorted
// ascending within [-90, 90], azimuths sorted ascending within [0, 360),
// and all impulses equal-length and non-empty.
func (ds *HrtfDataset) Validate() error {
	if len(ds.Elevations) == 0 {
		return ErrHrtfEmpty
	}
	taps := 0
	for i, el := range ds.Elevations {
		if el.Angle < -90 || el.Angle > 90 {
			return fmt.Errorf("%w: elevation %g out of range", ErrHrtfUnsorted, el.Angle)
		}
		if i > 0 && el.Angle <= ds.Elevations[i-1].Angle {
			return ErrHrtfUnsorted
		}
		if len(el.Azimuths) == 0 {
			return fmt.Errorf("%w: elevation %g has no azimuths", ErrHrtfEmpty, el.Angle)
		}
		for j, az := range el.Azimuths {
			if az.Angle < 0 || az.Angle >= 360 {
				return fmt.Errorf("%w: azimuth %g out of range", ErrHrtfUnsorted, az.Angle)
			}
			if j > 0 && az.Angle <= el.Azimuths[j-1].Angle {
				return ErrHrtfUnsorted
			}
			if len(az.Impulse) == 0 {
				return ErrHrtfImpulseMismatch
			}
			if taps == 0 {
				taps = len(az.Impulse)
			} else if len(az.Impulse) != taps {
				return ErrHrtfImpulseMismatch
			}
		}
	}
	return nil
}

// Taps returns the shared impulse length. Call only on a validated
// dataset.
func (ds *HrtfDataset) Taps() int {
	return len(ds.Elevations[0].Azimuths[0].Impulse)
}

// Nearest returns the impulse of the measured direction closest to the
// requested one: nearest elevation first, then nearest azimuth within it,
// with azimuth distance wrapping at 360. Runs on the audio thread when a
// direction parameter changes, so it is scan-only: no allocation, bounded
// by the dataset size fixed at load.
func (ds *HrtfDataset) Nearest(azimuth, elevation float64) []float32 {
	el := &ds.Elevations[0]
	best := angleAbs(el.Angle - elevation)
	for i := 1; i < len(ds.Elevations); i++ {
		if d := angleAbs(ds.Elevations[i].Angle - elevation); d < best {
			best = d
			el = &ds.Elevations[i]
		}
	}

	azimuth = wrapDegrees(azimuth)
	bestAz := &el.Azimuths[0]
	bestD := azimuthDistance(bestAz.Angle, azimuth)
	for i := 1; i < len(el.Azimuths); i++ {
		if d := azimuthDistance(el.Azimuths[i].Angle, azimuth); d < bestD {
			bestD = d
			bestAz = &el.Azimuths[i]
		}
	}
	return bestAz.Impulse
}

func angleAbs(d float64) float64 {
	if d < 0 {
		return -d
	}
	return d
}

// wrapDegrees maps any angle into [0, 360).
func wrapDegrees(a float64) float64 {
	for a < 0 {
		a += 360
	}
	for a >= 360 {
		a -= 360
	}
	return a
}

// azimuthDistance is the shorter way around the circle between a and b,
// both already in [0, 360).
func azimuthDistance(a, b float64) float64 {
	d := angleAbs(a - b)
	if d > 180 {
		d = 360 - d
	}
	return d
}
