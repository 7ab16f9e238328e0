package core

import (
	"fmt"
	"sync"
	"time"

	"github.com/HarishvinS/Taara-V2/protocol"
	"github.com/womat/debug"
)

// State is the receiver's position in the synchronization/decoding
// cycle.
type State int

const (
	StateCalibrating State = iota
	StateSeekingPreamble
	StateSeekingStartFrame
	StateReceivingData
	StateSeekingEndFrame
	StateProcessingData
)

func (s State) String() string {
	switch s {
	case StateCalibrating:
		return "Calibrating"
	case StateSeekingPreamble:
		return "SeekingPreamble"
	case StateSeekingStartFrame:
		return "SeekingStartFrame"
	case StateReceivingData:
		return "ReceivingData"
	case StateSeekingEndFrame:
		return "SeekingEndFrame"
	case StateProcessingData:
		return "ProcessingData"
	}
	return "Unknown"
}

// Handler receives the outcome of one reception attempt: a verified
// message, or a validation error (too short, length mismatch, checksum
// mismatch). Either way the receiver has already discarded the frame
// and resumed preamble search by the time the handler runs.
type Handler func(msg *protocol.Message, err error)

// session is the mutable state of one reception attempt. It is reset
// whenever the receiver re-enters preamble search, so no counter or
// buffer survives across attempts.
type session struct {
	phaseStart time.Time

	// preamble search
	lastLevel   bool
	haveLevel   bool
	transitions int
	lastEdge    time.Time

	// delimiter search window, oldest bit first
	window []byte

	// data reception
	bitAcc        byte
	bitCount      int
	haveFirstHalf bool
	firstHalf     bool
	invalidRun    int
	invalidBits   []byte
	lastSymbolAt  time.Time
	lastByteAt    time.Time
	received      []byte
}

// Receiver runs the multi-stage synchronization and decoding state
// machine. Execution is single-threaded and delay-driven: each step
// takes one channel sample and either advances the session or waits.
type Receiver struct {
	cfg     Config
	sampler SamplerDriver
	clock   Clock
	handler Handler

	cal   Calibration
	state State
	sess  session

	// stateHook, when set, observes every state transition. Used by
	// the test harness to assert transition order.
	stateHook func(from, to State)

	stopOnce sync.Once
	stop     chan struct{}
}

// NewReceiver builds a receiver over the given sampler and clock. The
// handler must not be nil.
func NewReceiver(cfg Config, s SamplerDriver, clk Clock, handler Handler) *Receiver {
	cfg.applyDefaults()
	return &Receiver{
		cfg:     cfg,
		sampler: s,
		clock:   clk,
		handler: handler,
		state:   StateCalibrating,
		stop:    make(chan struct{}),
	}
}

// SetStateHook registers an observer for state transitions. Call before
// Run.
func (r *Receiver) SetStateHook(hook func(from, to State)) {
	r.stateHook = hook
}

// State returns the current protocol state.
func (r *Receiver) State() State {
	return r.state
}

// Calibration returns the result of the startup calibration pass. Valid
// once the receiver has left StateCalibrating.
func (r *Receiver) Calibration() Calibration {
	return r.cal
}

// Run executes the receive loop until Stop is called or the sampler
// fails. Every validated or rejected frame is reported through the
// handler; the loop itself only ends on hardware-level errors.
func (r *Receiver) Run() error {
	for {
		select {
		case <-r.stop:
			return nil
		default:
		}

		var err error
		switch r.state {
		case StateCalibrating:
			err = r.stepCalibrate()
		case StateSeekingPreamble:
			err = r.stepPreamble()
		case StateSeekingStartFrame:
			err = r.stepStartFrame()
		case StateReceivingData:
			err = r.stepData()
		case StateSeekingEndFrame:
			err = r.stepEndFrame()
		case StateProcessingData:
			r.stepProcess()
		}
		if err != nil {
			return fmt.Errorf("receiver: %w", err)
		}
	}
}

// Stop terminates Run. Safe to call from the handler or concurrently.
func (r *Receiver) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (r *Receiver) setState(next State) {
	if r.stateHook != nil {
		r.stateHook(r.state, next)
	}
	debug.TraceLog.Printf("state %v -> %v", r.state, next)
	r.state = next
	r.sess.phaseStart = r.clock.Now()
}

// resetSession discards all per-attempt state and restarts preamble
// search.
func (r *Receiver) resetSession() {
	r.sess = session{}
	r.setState(StateSeekingPreamble)
}

// sampleLevel takes one intensity reading and compares it against the
// calibrated threshold.
func (r *Receiver) sampleLevel() (bool, error) {
	v, err := r.sampler.Sample()
	if err != nil {
		return false, err
	}
	return v > r.cal.Threshold, nil
}

// stepCalibrate runs the whole calibration pass as one phase, then
// enters preamble search.
func (r *Receiver) stepCalibrate() error {
	cal, err := Calibrate(r.sampler, r.clock, r.cfg)
	if err != nil {
		return err
	}
	r.cal = cal
	r.resetSession()
	return nil
}

// stepPreamble samples at a coarse cadence, counting level transitions.
// Once enough transitions have been seen, it waits for the next rising
// edge - preamble bits are high-then-low, so a rising edge marks a bit
// boundary - and enters start-delimiter search half a bit later, which
// puts all subsequent full-bit samples mid-bit.
func (r *Receiver) stepPreamble() error {
	level, err := r.sampleLevel()
	if err != nil {
		return err
	}
	now := r.clock.Now()

	if !r.sess.haveLevel {
		r.sess.lastLevel = level
		r.sess.haveLevel = true
	} else if level != r.sess.lastLevel {
		rising := level
		r.sess.lastLevel = level
		r.sess.transitions++
		r.sess.lastEdge = now

		if r.sess.transitions >= r.cfg.PreambleTransitions && rising {
			debug.DebugLog.Printf("preamble locked after %d transitions", r.sess.transitions)
			r.sess.transitions = 0
			r.sess.window = r.sess.window[:0]
			r.setState(StateSeekingStartFrame)
			r.clock.Sleep(r.cfg.BitPeriod / 2)
			return nil
		}
	}

	if now.Sub(r.sess.phaseStart) > r.cfg.PreambleTimeout {
		debug.DebugLog.Print("preamble timeout, restarting search")
		r.sess.transitions = 0
		r.sess.haveLevel = false
		r.sess.phaseStart = now
	}

	r.clock.Sleep(r.cfg.PreambleInterval)
	return nil
}

// stepStartFrame samples at the full bit cadence, sliding each bit into
// the pattern window until the last 8 bits equal the start delimiter.
func (r *Receiver) stepStartFrame() error {
	level, err := r.sampleLevel()
	if err != nil {
		return err
	}
	now := r.clock.Now()

	r.pushWindowBit(level)
	if r.windowMatches(protocol.StartFramePattern) {
		debug.DebugLog.Print("start delimiter found")
		r.sess.window = r.sess.window[:0]
		r.sess.received = r.sess.received[:0]
		r.sess.bitAcc = 0
		r.sess.bitCount = 0
		r.sess.haveFirstHalf = false
		r.sess.invalidRun = 0
		r.sess.invalidBits = nil
		r.sess.lastSymbolAt = now
		r.sess.lastByteAt = now
		r.setState(StateReceivingData)
		// Shift from mid-bit full-cadence sampling to quarter-bit
		// offsets within each half period.
		r.clock.Sleep(r.cfg.BitPeriod * 3 / 4)
		return nil
	}

	if now.Sub(r.sess.phaseStart) > r.cfg.StartFrameTimeout {
		debug.DebugLog.Print("start delimiter timeout, clearing window")
		r.sess.window = r.sess.window[:0]
		r.sess.phaseStart = now
	}

	r.clock.Sleep(r.cfg.BitPeriod)
	return nil
}

// stepData samples at half the bit cadence. Two consecutive samples
// form one Manchester symbol: high-low is 1, low-high is 0, and equal
// halves are invalid. A run of invalid symbols marks the onset of the
// end delimiter.
func (r *Receiver) stepData() error {
	level, err := r.sampleLevel()
	if err != nil {
		return err
	}
	now := r.clock.Now()

	if !r.sess.haveFirstHalf {
		r.sess.firstHalf = level
		r.sess.haveFirstHalf = true
		r.clock.Sleep(r.cfg.BitPeriod / 2)
		return nil
	}
	r.sess.haveFirstHalf = false

	switch {
	case r.sess.firstHalf && !level: // "10"
		r.acceptBit(1, now)
	case !r.sess.firstHalf && level: // "01"
		r.acceptBit(0, now)
	default: // "00" or "11": invalid symbol
		r.sess.invalidRun++
		// An equal pair is what a raw delimiter bit looks like at
		// half-bit cadence; remember it so the end-delimiter search
		// does not lose these bits.
		if level {
			r.sess.invalidBits = append(r.sess.invalidBits, 1)
		} else {
			r.sess.invalidBits = append(r.sess.invalidBits, 0)
		}
		if r.sess.invalidRun >= r.cfg.MaxInvalidSymbols {
			debug.DebugLog.Printf("%d invalid symbols, seeking end delimiter", r.sess.invalidRun)
			r.enterEndFrameSearch()
			return nil
		}
	}

	if now.Sub(r.sess.lastByteAt) > r.cfg.DataTimeout {
		debug.DebugLog.Print("data timeout, hard reset to preamble search")
		r.resetSession()
		r.clock.Sleep(r.cfg.PreambleInterval)
		return nil
	}
	if now.Sub(r.sess.lastSymbolAt) > r.cfg.DataInactivityTimeout {
		debug.DebugLog.Print("data inactivity, seeking end delimiter")
		r.enterEndFrameSearch()
		return nil
	}

	r.clock.Sleep(r.cfg.BitPeriod / 2)
	return nil
}

// acceptBit appends one decoded payload bit, MSB first.
func (r *Receiver) acceptBit(bit byte, now time.Time) {
	r.sess.invalidRun = 0
	r.sess.invalidBits = nil
	r.sess.lastSymbolAt = now

	r.sess.bitAcc = r.sess.bitAcc<<1 | bit
	r.sess.bitCount++
	if r.sess.bitCount == 8 {
		r.sess.received = append(r.sess.received, r.sess.bitAcc)
		r.sess.bitAcc = 0
		r.sess.bitCount = 0
		r.sess.lastByteAt = now
	}
}

// enterEndFrameSearch switches to end-delimiter search, seeding the
// pattern window with the raw bits implied by the invalid symbols that
// triggered the switch, and realigning to full-bit cadence.
func (r *Receiver) enterEndFrameSearch() {
	r.sess.window = r.sess.window[:0]
	r.sess.window = append(r.sess.window, r.sess.invalidBits...)
	r.sess.invalidRun = 0
	r.sess.invalidBits = nil
	r.sess.haveFirstHalf = false
	r.setState(StateSeekingEndFrame)
	r.clock.Sleep(r.cfg.BitPeriod * 3 / 4)
}

// stepEndFrame mirrors stepStartFrame but matches the end delimiter.
// Its timeout does not reset the receiver: a miss usually means the
// payload was still in flight, so it falls back to data reception.
func (r *Receiver) stepEndFrame() error {
	level, err := r.sampleLevel()
	if err != nil {
		return err
	}
	now := r.clock.Now()

	r.pushWindowBit(level)
	if r.windowMatches(protocol.EndFramePattern) {
		debug.DebugLog.Print("end delimiter found")
		r.sess.window = r.sess.window[:0]
		r.setState(StateProcessingData)
		return nil
	}

	if now.Sub(r.sess.phaseStart) > r.cfg.EndFrameTimeout {
		debug.DebugLog.Print("end delimiter timeout, resuming data reception")
		r.sess.window = r.sess.window[:0]
		r.sess.haveFirstHalf = false
		r.sess.lastSymbolAt = now
		r.setState(StateReceivingData)
		r.clock.Sleep(r.cfg.BitPeriod * 3 / 4)
		return nil
	}

	r.clock.Sleep(r.cfg.BitPeriod)
	return nil
}

// stepProcess validates the accumulated bytes, reports the outcome and
// unconditionally returns to preamble search.
func (r *Receiver) stepProcess() {
	msg, err := protocol.ParseMessage(r.sess.received)
	if err != nil {
		debug.ErrorLog.Printf("frame rejected: %v", err)
	} else {
		debug.InfoLog.Printf("frame accepted: type=%q payload=%d bytes",
			msg.TypeString(), len(msg.Payload))
	}
	if r.handler != nil {
		r.handler(msg, err)
	}
	r.resetSession()
}

// pushWindowBit slides one threshold-compared bit into the delimiter
// search window, truncating it to the configured bound.
func (r *Receiver) pushWindowBit(level bool) {
	var bit byte
	if level {
		bit = 1
	}
	r.sess.window = append(r.sess.window, bit)
	if len(r.sess.window) > r.cfg.PatternWindow {
		r.sess.window = r.sess.window[len(r.sess.window)-r.cfg.PatternWindow:]
	}
}

// windowMatches reports whether the last 8 window bits equal pattern,
// MSB first.
func (r *Receiver) windowMatches(pattern byte) bool {
	n := len(r.sess.window)
	if n < 8 {
		return false
	}
	var got byte
	for _, b := range r.sess.window[n-8:] {
		got = got<<1 | b
	}
	return got == pattern
}
