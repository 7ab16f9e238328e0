package serial

import (
	"fmt"
	"time"

	"github.com/tarm/serial"
)

// NativePort is a real serial device opened through tarm/serial.
type NativePort struct {
	port *serial.Port
}

// Open opens the head's serial device. The read timeout is always
// finite: a healthy head streams one sample line every few
// milliseconds, so a silent line should surface as a short read
// instead of blocking the bridge forever.
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	p, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Device, err)
	}
	return &NativePort{port: p}, nil
}

func (p *NativePort) Read(b []byte) (int, error)  { return p.port.Read(b) }
func (p *NativePort) Write(b []byte) (int, error) { return p.port.Write(b) }
func (p *NativePort) Close() error                { return p.port.Close() }
