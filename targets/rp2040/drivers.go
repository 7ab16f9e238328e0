//go:build rp2040 || rp2350

package main

import (
	"machine"

	"tinygo.org/x/drivers/bh1750"
)

// PinEmitter drives the laser/LED from a single GPIO output.
type PinEmitter struct {
	pin machine.Pin
}

func NewPinEmitter(pin machine.Pin) *PinEmitter {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pin.Low()
	return &PinEmitter{pin: pin}
}

func (e *PinEmitter) SetLevel(level bool) error {
	e.pin.Set(level)
	return nil
}

// LightSampler reads ambient intensity from a BH1750 over I2C and maps
// it into the 16-bit range the receiver engine works in.
type LightSampler struct {
	dev bh1750.Device
}

// NewLightSampler configures the BH1750 in continuous high resolution
// mode. The bus must already be configured.
func NewLightSampler(bus *machine.I2C) *LightSampler {
	dev := bh1750.New(bus)
	dev.Configure()
	return &LightSampler{dev: dev}
}

// Sample returns the current illuminance scaled to uint16. The sensor
// reports millilux; divide down so a brightly lit desk stays well
// inside the range and a modest laser spot still clears it.
func (s *LightSampler) Sample() (uint16, error) {
	mlx := s.dev.Illuminance()
	if mlx < 0 {
		mlx = 0
	}
	v := mlx / 1000 // lux
	if v > 0xFFFF {
		v = 0xFFFF
	}
	return uint16(v), nil
}
