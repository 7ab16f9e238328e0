//go:build rp2040 || rp2350

package main

import (
	"machine"
	"strconv"
	"time"

	"github.com/HarishvinS/Taara-V2/core"
	"github.com/HarishvinS/Taara-V2/protocol"
)

const (
	// GPIO driving the laser diode (through a transistor).
	emitterPin = machine.GP15

	// Streaming rate for head mode. Must stay at or below a quarter
	// of the host's configured bit period.
	headSampleInterval = 2 * time.Millisecond
)

// ModeConfig determines which mode the board runs in.
type ModeConfig struct {
	// Head mode streams raw samples over USB CDC and obeys emitter
	// commands from the host bridge. Standalone mode runs the full
	// receive engine on the board and reports decoded frames.
	Head bool
}

func GetMode() ModeConfig {
	return ModeConfig{Head: true}
}

func main() {
	machine.I2C0.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
	})

	emitter := NewPinEmitter(emitterPin)
	sampler := NewLightSampler(machine.I2C0)

	// Let USB CDC enumerate before we start streaming.
	time.Sleep(2 * time.Second)

	if GetMode().Head {
		runHeadMode(emitter, sampler)
	} else {
		runStandaloneMode(sampler)
	}
}

// runHeadMode turns the board into a dumb optical head: intensity
// samples go up the wire as ASCII decimal lines, single '1'/'0' bytes
// coming down set the emitter level.
func runHeadMode(emitter core.EmitterDriver, sampler core.SamplerDriver) {
	uart := machine.Serial
	buf := make([]byte, 0, 8)

	ticker := time.NewTicker(headSampleInterval)
	for range ticker.C {
		for uart.Buffered() > 0 {
			b, err := uart.ReadByte()
			if err != nil {
				break
			}
			switch b {
			case '1':
				emitter.SetLevel(true)
			case '0':
				emitter.SetLevel(false)
			}
		}

		v, err := sampler.Sample()
		if err != nil {
			continue
		}
		buf = strconv.AppendUint(buf[:0], uint64(v), 10)
		buf = append(buf, '\n')
		uart.Write(buf)
	}
}

// runStandaloneMode decodes frames on the board itself and prints each
// result over USB CDC.
func runStandaloneMode(sampler core.SamplerDriver) {
	cfg := core.DefaultConfig()

	rcv := core.NewReceiver(cfg, sampler, core.SystemClock, func(msg *protocol.Message, err error) {
		if err != nil {
			println("frame rejected:", err.Error())
			return
		}
		println("frame:", msg.TypeString(), string(msg.Payload))
	})

	if err := rcv.Run(); err != nil {
		blinkForever()
	}
}

// blinkForever signals an unrecoverable error on the onboard LED.
func blinkForever() {
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for {
		led.High()
		time.Sleep(100 * time.Millisecond)
		led.Low()
		time.Sleep(100 * time.Millisecond)
	}
}
