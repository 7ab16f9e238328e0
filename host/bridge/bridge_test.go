package bridge

import (
	"errors"
	"io"
	"testing"
	"time"
)

// pipePort adapts an io.Pipe pair to the serial.Port interface: the
// test writes what the head would send and reads what the host wrote.
type pipePort struct {
	rd *io.PipeReader
	wr *io.PipeWriter
}

func (p *pipePort) Read(b []byte) (int, error)  { return p.rd.Read(b) }
func (p *pipePort) Write(b []byte) (int, error) { return p.wr.Write(b) }
func (p *pipePort) Close() error {
	p.rd.Close()
	return p.wr.Close()
}

func newPipePort() (*pipePort, *io.PipeWriter, *io.PipeReader) {
	fromHead, headWriter := io.Pipe()
	hostReader, toHead := io.Pipe()
	return &pipePort{rd: fromHead, wr: toHead}, headWriter, hostReader
}

func TestHeadSampleStream(t *testing.T) {
	port, headWriter, _ := newPipePort()
	head := Open(port)
	defer head.Close()

	go headWriter.Write([]byte("100\n900\n 512 \n"))

	// Wait for the read loop to buffer everything so Backlog reports
	// the unconsumed count.
	deadline := time.Now().Add(time.Second)
	for head.Backlog() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("backlog = %d, want 3", head.Backlog())
		}
		time.Sleep(time.Millisecond)
	}

	for i, want := range []uint16{100, 900, 512} {
		v, err := head.Sample()
		if err != nil {
			t.Fatalf("sample %d failed: %v", i, err)
		}
		if v != want {
			t.Errorf("sample %d = %d, want %d", i, v, want)
		}
	}
	if n := head.Backlog(); n != 0 {
		t.Errorf("backlog after draining = %d, want 0", n)
	}
}

func TestHeadSkipsMalformedLines(t *testing.T) {
	port, headWriter, _ := newPipePort()
	head := Open(port)
	defer head.Close()

	go headWriter.Write([]byte("garbage\n-5\n70000\n123\n"))

	v, err := head.Sample()
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	if v != 123 {
		t.Errorf("sample = %d, want 123 (malformed lines skipped)", v)
	}
}

func TestHeadSetLevel(t *testing.T) {
	port, _, hostReader := newPipePort()
	head := Open(port)
	defer head.Close()

	go func() {
		head.SetLevel(true)
		head.SetLevel(false)
		head.SetLevel(true)
	}()

	buf := make([]byte, 3)
	if _, err := io.ReadFull(hostReader, buf); err != nil {
		t.Fatalf("reading emitter bytes: %v", err)
	}
	if string(buf) != "101" {
		t.Errorf("emitter bytes = %q, want %q", buf, "101")
	}
}

func TestHeadCloseUnblocksSample(t *testing.T) {
	port, headWriter, _ := newPipePort()
	head := Open(port)

	errCh := make(chan error, 1)
	go func() {
		_, err := head.Sample()
		errCh <- err
	}()

	// Give the sampler a moment to block, then tear down.
	time.Sleep(10 * time.Millisecond)
	headWriter.Close()
	head.Close()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrHeadClosed) {
			t.Errorf("expected ErrHeadClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Sample did not unblock on close")
	}
}

func TestFIFODropOldest(t *testing.T) {
	f := newSampleFIFO(4)
	for i := 0; i < 7; i++ {
		f.Push(uint16(i))
	}
	if f.Available() != 4 {
		t.Fatalf("available = %d, want 4", f.Available())
	}
	for i, want := range []uint16{3, 4, 5, 6} {
		v, ok := f.Pop()
		if !ok {
			t.Fatalf("pop %d: fifo closed early", i)
		}
		if v != want {
			t.Errorf("pop %d = %d, want %d", i, v, want)
		}
	}
}
