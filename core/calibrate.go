package core

import (
	"fmt"

	"github.com/womat/debug"
)

// Calibration is the result of one threshold calibration pass.
// Dark and Light record the observed extremes for diagnostics.
type Calibration struct {
	Dark      uint16
	Light     uint16
	Threshold uint16
}

// Degenerate reports whether calibration saw a constant channel. The
// threshold then equals that constant and no level comparison will ever
// flip, so preamble detection cannot succeed. That is a degraded state,
// not an error: the receiver keeps cycling until the channel changes.
func (c Calibration) Degenerate() bool {
	return c.Dark == c.Light
}

// Calibrate samples the channel cfg.CalibrationSamples times with
// cfg.CalibrationDelay between samples, tracking the running extremes,
// and derives the decision threshold as (min+max)/2. It never fails on
// channel content, only on sampler errors.
func Calibrate(s SamplerDriver, clk Clock, cfg Config) (Calibration, error) {
	var (
		min uint16 = 0xFFFF
		max uint16
	)

	for i := 0; i < cfg.CalibrationSamples; i++ {
		if i > 0 {
			clk.Sleep(cfg.CalibrationDelay)
		}
		v, err := s.Sample()
		if err != nil {
			return Calibration{}, fmt.Errorf("calibration sample %d: %w", i, err)
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	cal := Calibration{
		Dark:      min,
		Light:     max,
		Threshold: uint16((uint32(min) + uint32(max)) / 2),
	}

	if cal.Degenerate() {
		debug.ErrorLog.Printf("calibration degenerate: constant channel at %d", cal.Dark)
	} else {
		debug.InfoLog.Printf("calibrated: dark=%d light=%d threshold=%d",
			cal.Dark, cal.Light, cal.Threshold)
	}
	return cal, nil
}
