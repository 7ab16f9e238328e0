package core

import (
	"fmt"

	"github.com/HarishvinS/Taara-V2/protocol"
	"github.com/womat/debug"
)

// Transmitter drives one frame at a time onto the channel: preamble,
// start delimiter, Manchester-encoded header and payload, end
// delimiter. There is no back-channel; the transmitter emits blind and
// returns the emitter to dark when done.
type Transmitter struct {
	cfg     Config
	emitter EmitterDriver
	clock   Clock
}

// NewTransmitter builds a transmitter over the given emitter and clock.
func NewTransmitter(cfg Config, e EmitterDriver, clk Clock) *Transmitter {
	cfg.applyDefaults()
	return &Transmitter{cfg: cfg, emitter: e, clock: clk}
}

// Send encodes and transmits a single frame.
func (t *Transmitter) Send(msgType string, payload []byte) error {
	frame, err := protocol.EncodeMessage(msgType, payload)
	if err != nil {
		return err
	}

	debug.DebugLog.Printf("transmit: type=%q payload=%d bytes frame=%d bytes",
		msgType, len(payload), len(frame))

	if err := t.sendPreamble(); err != nil {
		return err
	}
	if err := t.sendRawPattern(protocol.StartFramePattern); err != nil {
		return err
	}
	for _, b := range frame {
		if err := t.sendManchesterByte(b); err != nil {
			return err
		}
	}
	if err := t.sendRawPattern(protocol.EndFramePattern); err != nil {
		return err
	}

	// Idle dark between frames.
	if err := t.emitter.SetLevel(false); err != nil {
		return fmt.Errorf("emitter idle: %w", err)
	}
	return nil
}

// SendRepeat transmits the same frame count times with the configured
// idle interval in between.
func (t *Transmitter) SendRepeat(msgType string, payload []byte, count int) error {
	for i := 0; i < count; i++ {
		if i > 0 {
			t.clock.Sleep(t.cfg.RepeatInterval)
		}
		if err := t.Send(msgType, payload); err != nil {
			return err
		}
	}
	return nil
}

// sendPreamble emits the alternating half-bit levels, starting high so
// that each preamble bit reads as a Manchester 1 and rising edges mark
// bit boundaries.
func (t *Transmitter) sendPreamble() error {
	half := t.cfg.BitPeriod / 2
	for i := 0; i < t.cfg.PreambleSymbols; i++ {
		if err := t.emitter.SetLevel(i%2 == 0); err != nil {
			return fmt.Errorf("emitter: %w", err)
		}
		t.clock.Sleep(half)
	}
	return nil
}

// sendRawPattern emits one delimiter byte as raw levels, one full bit
// period per bit, MSB first.
func (t *Transmitter) sendRawPattern(pattern byte) error {
	for i := 7; i >= 0; i-- {
		level := pattern&(1<<uint(i)) != 0
		if err := t.emitter.SetLevel(level); err != nil {
			return fmt.Errorf("emitter: %w", err)
		}
		t.clock.Sleep(t.cfg.BitPeriod)
	}
	return nil
}

// sendManchesterByte emits one data byte, MSB first. Bit 1 is high for
// the first half period then low; bit 0 is the inverse.
func (t *Transmitter) sendManchesterByte(b byte) error {
	half := t.cfg.BitPeriod / 2
	for i := 7; i >= 0; i-- {
		bit := b&(1<<uint(i)) != 0
		if err := t.emitter.SetLevel(bit); err != nil {
			return fmt.Errorf("emitter: %w", err)
		}
		t.clock.Sleep(half)
		if err := t.emitter.SetLevel(!bit); err != nil {
			return fmt.Errorf("emitter: %w", err)
		}
		t.clock.Sleep(half)
	}
	return nil
}
