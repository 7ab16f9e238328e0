package bridge

import "sync"

// sampleFIFO is a bounded circular buffer of intensity samples shared
// between the serial read loop and the receiver. When the receiver
// falls behind, the oldest samples are dropped so the reader never
// blocks the serial line.
type sampleFIFO struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []uint16
	read   int
	write  int
	size   int
	closed bool
}

func newSampleFIFO(capacity int) *sampleFIFO {
	f := &sampleFIFO{
		buf:  make([]uint16, capacity+1),
		size: capacity + 1,
	}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Push appends a sample, dropping the oldest one when full.
func (f *sampleFIFO) Push(v uint16) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}

	next := (f.write + 1) % f.size
	if next == f.read {
		// Buffer full: overwrite the oldest sample.
		f.read = (f.read + 1) % f.size
	}
	f.buf[f.write] = v
	f.write = next
	f.cond.Signal()
}

// Pop removes the oldest sample, blocking until one is available or
// the FIFO is closed. The second return value is false once the FIFO
// is closed and drained.
func (f *sampleFIFO) Pop() (uint16, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for f.read == f.write && !f.closed {
		f.cond.Wait()
	}
	if f.read == f.write {
		return 0, false
	}
	v := f.buf[f.read]
	f.read = (f.read + 1) % f.size
	return v, true
}

// Available returns the number of buffered samples.
func (f *sampleFIFO) Available() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.write >= f.read {
		return f.write - f.read
	}
	return f.size - f.read + f.write
}

// Close wakes all blocked readers.
func (f *sampleFIFO) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.cond.Broadcast()
}
