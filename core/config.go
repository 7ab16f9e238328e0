package core

import (
	"encoding/json"
	"time"

	"github.com/HarishvinS/Taara-V2/protocol"
)

// Config holds the timing parameters shared (conceptually) between the
// two ends of a link. Sender and receiver must agree on BitPeriod and
// the delimiter patterns or resynchronization will fail; the timeout
// values are receiver-local tuning.
//
// The inactivity/global timeouts and the invalid-symbol threshold are
// empirically tuned values. They do not derive from the bit period, so
// deployments with a different BitPeriod should re-tune them instead of
// assuming the defaults carry over.
type Config struct {
	// BitPeriod is the duration of one logical bit on the wire. A
	// Manchester symbol half occupies BitPeriod/2.
	BitPeriod time.Duration

	// PreambleSymbols is the number of alternating half-bit levels the
	// transmitter sends ahead of the start delimiter.
	PreambleSymbols int

	// PreambleTransitions is the number of level transitions the
	// receiver requires before it considers the preamble locked.
	PreambleTransitions int

	// PreambleInterval is the sampling cadence during preamble search.
	// It must stay at or below BitPeriod/4 so that bit-boundary
	// alignment after lock lands inside a half-bit with margin.
	PreambleInterval time.Duration

	// CalibrationSamples and CalibrationDelay control the one-shot
	// threshold calibration at receiver startup.
	CalibrationSamples int
	CalibrationDelay   time.Duration

	// PreambleTimeout restarts preamble search in place.
	PreambleTimeout time.Duration

	// StartFrameTimeout clears the start-delimiter search buffer in
	// place.
	StartFrameTimeout time.Duration

	// DataInactivityTimeout advances to end-delimiter search when no
	// valid symbol has arrived for this long (payload likely over).
	DataInactivityTimeout time.Duration

	// DataTimeout hard-resets to preamble search when no byte has
	// completed for this long.
	DataTimeout time.Duration

	// EndFrameTimeout falls back to data reception when the end
	// delimiter is not found in time.
	EndFrameTimeout time.Duration

	// MaxInvalidSymbols is the number of consecutive invalid Manchester
	// pairs interpreted as the onset of the end delimiter.
	MaxInvalidSymbols int

	// PatternWindow bounds the delimiter search buffers, in bits.
	PatternWindow int

	// RepeatInterval is the idle gap between repeated transmissions of
	// the same frame.
	RepeatInterval time.Duration
}

// DefaultConfig returns the stock link parameters.
func DefaultConfig() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in zero-valued fields.
func (c *Config) applyDefaults() {
	if c.BitPeriod == 0 {
		c.BitPeriod = 10 * time.Millisecond
	}
	if c.PreambleSymbols == 0 {
		c.PreambleSymbols = protocol.PreambleSymbols
	}
	if c.PreambleTransitions == 0 {
		c.PreambleTransitions = 8
	}
	if c.PreambleInterval == 0 {
		c.PreambleInterval = c.BitPeriod / 4
	}
	if c.CalibrationSamples == 0 {
		c.CalibrationSamples = 50
	}
	if c.CalibrationDelay == 0 {
		c.CalibrationDelay = 2 * time.Millisecond
	}
	if c.PreambleTimeout == 0 {
		c.PreambleTimeout = 5 * time.Second
	}
	if c.StartFrameTimeout == 0 {
		c.StartFrameTimeout = 3 * time.Second
	}
	if c.DataInactivityTimeout == 0 {
		c.DataInactivityTimeout = 2 * time.Second
	}
	if c.DataTimeout == 0 {
		c.DataTimeout = 10 * time.Second
	}
	if c.EndFrameTimeout == 0 {
		c.EndFrameTimeout = 1 * time.Second
	}
	if c.MaxInvalidSymbols == 0 {
		c.MaxInvalidSymbols = 3
	}
	if c.PatternWindow == 0 {
		c.PatternWindow = 16
	}
	if c.RepeatInterval == 0 {
		c.RepeatInterval = 1 * time.Second
	}
}

// configFile is the on-disk representation: durations in milliseconds.
type configFile struct {
	BitPeriodMS             int `json:"bit_period_ms"`
	PreambleSymbols         int `json:"preamble_symbols"`
	PreambleTransitions     int `json:"preamble_transitions"`
	PreambleIntervalMS      int `json:"preamble_interval_ms"`
	CalibrationSamples      int `json:"calibration_samples"`
	CalibrationDelayMS      int `json:"calibration_delay_ms"`
	PreambleTimeoutMS       int `json:"preamble_timeout_ms"`
	StartFrameTimeoutMS     int `json:"start_frame_timeout_ms"`
	DataInactivityTimeoutMS int `json:"data_inactivity_timeout_ms"`
	DataTimeoutMS           int `json:"data_timeout_ms"`
	EndFrameTimeoutMS       int `json:"end_frame_timeout_ms"`
	MaxInvalidSymbols       int `json:"max_invalid_symbols"`
	PatternWindow           int `json:"pattern_window"`
	RepeatIntervalMS        int `json:"repeat_interval_ms"`
}

// LoadConfig parses a JSON configuration and fills missing values with
// defaults.
func LoadConfig(data []byte) (Config, error) {
	var f configFile
	if err := json.Unmarshal(data, &f); err != nil {
		return Config{}, err
	}

	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }
	cfg := Config{
		BitPeriod:             ms(f.BitPeriodMS),
		PreambleSymbols:       f.PreambleSymbols,
		PreambleTransitions:   f.PreambleTransitions,
		PreambleInterval:      ms(f.PreambleIntervalMS),
		CalibrationSamples:    f.CalibrationSamples,
		CalibrationDelay:      ms(f.CalibrationDelayMS),
		PreambleTimeout:       ms(f.PreambleTimeoutMS),
		StartFrameTimeout:     ms(f.StartFrameTimeoutMS),
		DataInactivityTimeout: ms(f.DataInactivityTimeoutMS),
		DataTimeout:           ms(f.DataTimeoutMS),
		EndFrameTimeout:       ms(f.EndFrameTimeoutMS),
		MaxInvalidSymbols:     f.MaxInvalidSymbols,
		PatternWindow:         f.PatternWindow,
		RepeatInterval:        ms(f.RepeatIntervalMS),
	}
	cfg.applyDefaults()
	return cfg, nil
}
