package core

import (
	"testing"
	"time"

	"github.com/HarishvinS/Taara-V2/protocol"
)

func TestTransmitTimeline(t *testing.T) {
	cfg := testConfig()
	link := NewSimLink(100, 900)

	tx := NewTransmitter(cfg, link, link)
	if err := tx.Send("TXT", []byte("HI")); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	// 48 preamble half-bits, 8+8 delimiter bits, 11 frame bytes at two
	// half-bits per bit, one final idle level.
	frameBits := (protocol.HeaderSize + 2) * 8
	wantChanges := cfg.PreambleSymbols + 16 + frameBits*2 + 1
	if got := len(link.segs); got != wantChanges {
		t.Errorf("recorded %d level changes, want %d", got, wantChanges)
	}

	wantEnd := time.Duration(cfg.PreambleSymbols)*cfg.BitPeriod/2 +
		16*cfg.BitPeriod +
		time.Duration(frameBits)*cfg.BitPeriod
	if got := link.End(); got != wantEnd {
		t.Errorf("last level change at %v, want %v", got, wantEnd)
	}

	// Preamble alternates starting high.
	for i := 0; i < cfg.PreambleSymbols; i++ {
		if link.segs[i].level != (i%2 == 0) {
			t.Fatalf("preamble symbol %d level = %v", i, link.segs[i].level)
		}
	}

	// Start delimiter: 11110000, one bit period each.
	for i := 0; i < 8; i++ {
		seg := link.segs[cfg.PreambleSymbols+i]
		if seg.level != (i < 4) {
			t.Errorf("start delimiter bit %d level = %v", i, seg.level)
		}
	}
}

func TestSendRepeatSpacing(t *testing.T) {
	cfg := testConfig()
	cfg.RepeatInterval = 250 * time.Millisecond
	link := NewSimLink(100, 900)

	tx := NewTransmitter(cfg, link, link)
	if err := tx.SendRepeat("TXT", nil, 2); err != nil {
		t.Fatalf("SendRepeat failed: %v", err)
	}

	// The second frame must start one idle interval after the first
	// one ended. Count one frame's worth of level changes and check
	// the gap.
	perFrame := cfg.PreambleSymbols + 16 + protocol.HeaderSize*8*2 + 1
	if len(link.segs) != 2*perFrame {
		t.Fatalf("recorded %d level changes, want %d", len(link.segs), 2*perFrame)
	}
	gap := link.segs[perFrame].at - link.segs[perFrame-1].at
	if gap != cfg.RepeatInterval {
		t.Errorf("inter-frame gap = %v, want %v", gap, cfg.RepeatInterval)
	}
}

func TestSendRejectsBadType(t *testing.T) {
	link := NewSimLink(100, 900)
	tx := NewTransmitter(testConfig(), link, link)

	if err := tx.Send("LONGTYPE", nil); err == nil {
		t.Error("expected error for oversized type tag")
	}
	if len(link.segs) != 0 {
		t.Error("nothing must be emitted for a rejected frame")
	}
}
