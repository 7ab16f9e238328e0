package core

import "time"

// Clock abstracts monotonic time and fixed-duration waits so the same
// transmitter/receiver logic can run against real hardware or a
// deterministic test harness. All protocol timing goes through it;
// nothing in core calls time.Now or time.Sleep directly.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock is the wall-clock implementation used on real hardware.
var SystemClock Clock = systemClock{}
