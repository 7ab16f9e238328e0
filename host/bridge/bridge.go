// Package bridge drives an optical head attached over a serial line.
// The head streams one ASCII decimal intensity reading per line and
// accepts single '1'/'0' bytes to drive the emitter, so the host can
// run the full link engine against remote hardware. Sampling cadence
// is paced by the head itself: every line is one fresh reading.
package bridge

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/HarishvinS/Taara-V2/host/serial"
	"github.com/womat/debug"
)

// ErrHeadClosed is returned by Sample once the head connection is shut
// down or the serial line has failed.
var ErrHeadClosed = errors.New("optical head closed")

// sampleBacklog bounds how many unread samples are kept before the
// oldest ones are dropped.
const sampleBacklog = 256

// Head is a serial-attached optical transceiver head. It implements
// core.SamplerDriver and core.EmitterDriver.
type Head struct {
	port serial.Port
	fifo *sampleFIFO

	writeMu sync.Mutex

	stopChan  chan struct{}
	doneChan  chan struct{}
	closeOnce sync.Once
}

// Open starts the background read loop over an already opened port.
func Open(port serial.Port) *Head {
	h := &Head{
		port:     port,
		fifo:     newSampleFIFO(sampleBacklog),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
	go h.readLoop()
	return h
}

// Sample returns the next intensity reading from the head, blocking
// until one arrives.
func (h *Head) Sample() (uint16, error) {
	v, ok := h.fifo.Pop()
	if !ok {
		return 0, ErrHeadClosed
	}
	return v, nil
}

// SetLevel drives the head's emitter.
func (h *Head) SetLevel(level bool) error {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	b := []byte{'0'}
	if level {
		b[0] = '1'
	}
	if _, err := h.port.Write(b); err != nil {
		return fmt.Errorf("head emitter write: %w", err)
	}
	return nil
}

// Backlog returns the number of buffered samples not yet consumed.
func (h *Head) Backlog() int {
	return h.fifo.Available()
}

// Close stops the read loop and closes the underlying port.
func (h *Head) Close() error {
	var err error
	h.closeOnce.Do(func() {
		close(h.stopChan)
		err = h.port.Close()
		<-h.doneChan
	})
	return err
}

// readLoop parses intensity lines until the port fails or the head is
// closed. Malformed lines are skipped; a flaky head must not kill the
// receiver.
func (h *Head) readLoop() {
	defer close(h.doneChan)
	defer h.fifo.Close()

	scanner := bufio.NewScanner(h.port)
	for scanner.Scan() {
		select {
		case <-h.stopChan:
			return
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		v, err := strconv.ParseUint(line, 10, 16)
		if err != nil {
			debug.DebugLog.Printf("head: skipping malformed sample %q", line)
			continue
		}
		h.fifo.Push(uint16(v))
	}
	if err := scanner.Err(); err != nil {
		debug.ErrorLog.Printf("head: serial read failed: %v", err)
	}
}
