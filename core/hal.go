package core

// EmitterDriver is the abstract interface to the optical transducer.
// Platform code (GPIO pin, serial-attached head, simulated link)
// provides the implementation; the core only ever drives a binary
// level and paces itself with the Clock.
type EmitterDriver interface {
	// SetLevel drives the transducer high (true) or low (false). The
	// level holds until the next call.
	SetLevel(level bool) error
}

// SamplerDriver is the abstract interface to the light-level detector.
type SamplerDriver interface {
	// Sample performs a one-shot intensity reading. The value is only
	// ever compared against the calibrated threshold; its absolute
	// scale does not matter as long as it is consistent.
	Sample() (uint16, error)
}
