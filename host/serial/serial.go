// Package serial abstracts the serial connection to an optical head -
// a small board that exposes its photodetector and emitter over a
// line-oriented wire protocol.
package serial

import (
	"io"
)

// Port is the byte stream to the head. The bridge only needs
// read/write/close, which keeps pipe-backed fakes trivial in tests.
type Port interface {
	io.ReadWriteCloser
}

// Config holds serial port configuration.
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate (ignored for USB CDC devices)
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultConfig returns a default configuration for an optical head.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100,
	}
}
