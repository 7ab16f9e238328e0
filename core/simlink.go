package core

import (
	"errors"
	"time"
)

// ErrTimelineEnded is returned by the simulated sampler once virtual
// time passes the configured deadline. It bounds test runs that would
// otherwise cycle forever.
var ErrTimelineEnded = errors.New("simulated timeline ended")

type simSegment struct {
	at    time.Duration
	level bool
}

// SimLink is a noiseless simulated optical channel driven by a virtual
// clock. A transmitter records level changes into it; Rewind then
// replays the recorded waveform to a receiver sampling on the same
// object. Sleep advances virtual time instantly, so whole sessions run
// deterministically in microseconds of real time.
//
// SimLink implements Clock, EmitterDriver and SamplerDriver. It is not
// safe for concurrent use; drive the transmitter pass and the receiver
// pass from one goroutine.
type SimLink struct {
	// Dark and Light are the intensities reported for the two levels.
	Dark  uint16
	Light uint16

	base     time.Time
	now      time.Duration
	deadline time.Duration
	segs     []simSegment
}

// NewSimLink builds a link reporting the given intensities. A deadline
// of zero means the sampler never fails.
func NewSimLink(dark, light uint16) *SimLink {
	return &SimLink{
		Dark:  dark,
		Light: light,
		base:  time.Unix(0, 0),
	}
}

// Now returns the virtual time.
func (l *SimLink) Now() time.Time {
	return l.base.Add(l.now)
}

// Sleep advances the virtual clock.
func (l *SimLink) Sleep(d time.Duration) {
	l.now += d
}

// SetLevel records a level change at the current virtual time.
func (l *SimLink) SetLevel(level bool) error {
	l.segs = append(l.segs, simSegment{at: l.now, level: level})
	return nil
}

// Sample replays the recorded waveform at the current virtual time.
// Before the first recorded change the channel is dark.
func (l *SimLink) Sample() (uint16, error) {
	if l.deadline > 0 && l.now > l.deadline {
		return 0, ErrTimelineEnded
	}
	if l.levelAt(l.now) {
		return l.Light, nil
	}
	return l.Dark, nil
}

// Rewind resets the virtual clock to offset, keeping the recorded
// waveform. Call between the transmitter pass and the receiver pass.
func (l *SimLink) Rewind(offset time.Duration) {
	l.now = offset
}

// SetDeadline makes Sample fail once virtual time passes d.
func (l *SimLink) SetDeadline(d time.Duration) {
	l.deadline = d
}

// End returns the virtual time of the last recorded level change.
func (l *SimLink) End() time.Duration {
	if len(l.segs) == 0 {
		return 0
	}
	return l.segs[len(l.segs)-1].at
}

func (l *SimLink) levelAt(t time.Duration) bool {
	level := false
	for _, s := range l.segs {
		if s.at > t {
			break
		}
		level = s.level
	}
	return level
}
