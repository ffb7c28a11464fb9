// hrtf_dataset_test.go - Tests for HRTF dataset validation and lookup

package main

import (
	"errors"
	"strings"
	"testing"
)

func testDataset() *HrtfDataset {
	return &HrtfDataset{
		Elevations: []HrtfElevation{
			{Angle: -45, Azimuths: []HrtfAzimuth{
				{Angle: 0, Impulse: []float32{1, 0}},
				{Angle: 180, Impulse: []float32{0, 1}},
			}},
			{Angle: 0, Azimuths: []HrtfAzimuth{
				{Angle: 0, Impulse: []float32{0.5, 0}},
				{Angle: 90, Impulse: []float32{0, 0.5}},
				{Angle: 270, Impulse: []float32{0.25, 0.25}},
			}},
			{Angle: 45, Azimuths: []HrtfAzimuth{
				{Angle: 0, Impulse: []float32{0.1, 0.1}},
			}},
		},
	}
}

func TestHrtfDataset_ValidateAccepts(t *testing.T) {
	if err := testDataset().Validate(); err != nil {
		t.Fatalf("valid dataset rejected: %v", err)
	}
}

func TestHrtfDataset_ValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		ds   HrtfDataset
		want error
	}{
		{
			"empty", HrtfDataset{}, ErrHrtfEmpty,
		},
		{
			"unsorted elevations",
			HrtfDataset{Elevations: []HrtfElevation{
				{Angle: 10, Azimuths: []HrtfAzimuth{{Angle: 0, Impulse: []float32{1}}}},
				{Angle: -10, Azimuths: []HrtfAzimuth{{Angle: 0, Impulse: []float32{1}}}},
			}},
			ErrHrtfUnsorted,
		},
		{
			"elevation out of range",
			HrtfDataset{Elevations: []HrtfElevation{
				{Angle: 95, Azimuths: []HrtfAzimuth{{Angle: 0, Impulse: []float32{1}}}},
			}},
			ErrHrtfUnsorted,
		},
		{
			"azimuth out of range",
			HrtfDataset{Elevations: []HrtfElevation{
				{Angle: 0, Azimuths: []HrtfAzimuth{{Angle: 360, Impulse: []float32{1}}}},
			}},
			ErrHrtfUnsorted,
		},
		{
			"ragged impulses",
			HrtfDataset{Elevations: []HrtfElevation{
				{Angle: 0, Azimuths: []HrtfAzimuth{
					{Angle: 0, Impulse: []float32{1, 0}},
					{Angle: 90, Impulse: []float32{1}},
				}},
			}},
			ErrHrtfImpulseMismatch,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.ds.Validate()
			if !errors.Is(err, tc.want) {
				t.Errorf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestHrtfDataset_LoadFromJSON(t *testing.T) {
	raw := `{"elevations":[
		{"angle":0,"azimuths":[
			{"angle":0,"impulse":[1,0,0]},
			{"angle":180,"impulse":[0,0,1]}
		]}
	]}`
	ds, err := LoadHrtfDataset(strings.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	if ds.Taps() != 3 {
		t.Errorf("Taps() = %d, want 3", ds.Taps())
	}
	if got := ds.Nearest(170, 0); got[2] != 1 {
		t.Errorf("Nearest(170, 0) = %v, want the 180-degree impulse", got)
	}
}

func TestHrtfDataset_LoadRejectsInvalid(t *testing.T) {
	if _, err := LoadHrtfDataset(strings.NewReader(`{"elevations":[]}`)); !errors.Is(err, ErrHrtfEmpty) {
		t.Errorf("empty dataset load = %v, want ErrHrtfEmpty", err)
	}
	if _, err := LoadHrtfDataset(strings.NewReader(`not json`)); err == nil {
		t.Error("malformed JSON must fail to load")
	}
}

func TestHrtfDataset_NearestPicksClosest(t *testing.T) {
	ds := testDataset()
	tests := []struct {
		name      string
		azimuth   float64
		elevation float64
		want      []float32
	}{
		{"exact match", 90, 0, []float32{0, 0.5}},
		{"nearest elevation", 0, -30, []float32{1, 0}},
		{"azimuth wraps at 360", 350, 0, []float32{0.5, 0}},
		{"negative azimuth wraps", -80, 0, []float32{0.25, 0.25}},
		{"elevation clamps above", 0, 89, []float32{0.1, 0.1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ds.Nearest(tc.azimuth, tc.elevation)
			if len(got) != len(tc.want) {
				t.Fatalf("impulse length %d, want %d", len(got), len(tc.want))
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("Nearest(%g, %g) = %v, want %v", tc.azimuth, tc.elevation, got, tc.want)
				}
			}
		})
	}
}

func TestAzimuthDistance_WrapsShortWay(t *testing.T) {
	if d := azimuthDistance(350, 10); d != 20 {
		t.Errorf("distance(350, 10) = %g, want 20", d)
	}
	if d := azimuthDistance(0, 180); d != 180 {
		t.Errorf("distance(0, 180) = %g, want 180", d)
	}
}
