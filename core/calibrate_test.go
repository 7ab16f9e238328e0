package core

import (
	"testing"
	"time"
)

// scriptedSampler replays a fixed sequence of readings, then repeats
// the last one.
type scriptedSampler struct {
	values []uint16
	pos    int
}

func (s *scriptedSampler) Sample() (uint16, error) {
	v := s.values[s.pos]
	if s.pos < len(s.values)-1 {
		s.pos++
	}
	return v, nil
}

func TestCalibrateMidpoint(t *testing.T) {
	testCases := []struct {
		name      string
		values    []uint16
		dark      uint16
		light     uint16
		threshold uint16
	}{
		{
			name:      "full range",
			values:    []uint16{500, 100, 900, 400, 650},
			dark:      100,
			light:     900,
			threshold: 500,
		},
		{
			name:      "narrow band",
			values:    []uint16{300, 310, 305, 302, 308},
			dark:      300,
			light:     310,
			threshold: 305,
		},
		{
			name:      "extremes only",
			values:    []uint16{0, 0xFFFF, 0, 0xFFFF, 0},
			dark:      0,
			light:     0xFFFF,
			threshold: 0x7FFF,
		},
	}

	for _, tc := range testCases {
		cfg := DefaultConfig()
		cfg.CalibrationSamples = len(tc.values)

		cal, err := Calibrate(&scriptedSampler{values: tc.values}, NewSimLink(0, 0), cfg)
		if err != nil {
			t.Fatalf("%s: Calibrate failed: %v", tc.name, err)
		}
		if cal.Dark != tc.dark || cal.Light != tc.light {
			t.Errorf("%s: extremes = %d/%d, want %d/%d",
				tc.name, cal.Dark, cal.Light, tc.dark, tc.light)
		}
		if cal.Threshold != tc.threshold {
			t.Errorf("%s: threshold = %d, want %d", tc.name, cal.Threshold, tc.threshold)
		}
		if cal.Threshold < cal.Dark || cal.Threshold > cal.Light {
			t.Errorf("%s: threshold %d outside observed range [%d,%d]",
				tc.name, cal.Threshold, cal.Dark, cal.Light)
		}
	}
}

func TestCalibrateDegenerate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CalibrationSamples = 10

	cal, err := Calibrate(&scriptedSampler{values: []uint16{400}}, NewSimLink(0, 0), cfg)
	if err != nil {
		t.Fatalf("Calibrate failed: %v", err)
	}
	if !cal.Degenerate() {
		t.Errorf("calibration = %+v, want degenerate", cal)
	}
	if cal.Threshold != 400 {
		t.Errorf("degenerate threshold = %d, want the constant 400", cal.Threshold)
	}
}

func TestCalibratePacing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CalibrationSamples = 10
	cfg.CalibrationDelay = 3 * time.Millisecond

	link := NewSimLink(0, 0)
	if _, err := Calibrate(&scriptedSampler{values: []uint16{1, 2}}, link, cfg); err != nil {
		t.Fatalf("Calibrate failed: %v", err)
	}

	// n samples mean n-1 inter-sample delays.
	want := 27 * time.Millisecond
	if got := link.Now().Sub(time.Unix(0, 0)); got != want {
		t.Errorf("calibration took %v of virtual time, want %v", got, want)
	}
}
