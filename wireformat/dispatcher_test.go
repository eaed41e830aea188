package wireformat

import (
	"testing"
	"time"

	"github.com/sailgo/n2k-gateway/canframe"
)

func TestDispatcher_NonFastPacketImmediate(t *testing.T) {
	d := NewDispatcher()
	h := canframe.Header{PGN: 59904, Priority: 6, Source: 0xFE, Destination: 0xFF}
	frame := canframe.Frame{CanID: h.Uint32(), Data: [8]byte{0x00, 0xF0, 0x01}, Length: 3}

	msg, ok := d.Dispatch(frame, time.Now())
	if !ok {
		t.Fatal("expected immediate completion for non-fast-packet PGN")
	}
	if msg.PGN != 59904 {
		t.Errorf("PGN = %d, want 59904", msg.PGN)
	}
	if len(msg.Payload) != 3 {
		t.Errorf("Payload length = %d, want 3", len(msg.Payload))
	}
}

func TestDispatcher_FastPacketAccumulates(t *testing.T) {
	d := NewDispatcher()
	h := canframe.Header{PGN: 130323, Priority: 6, Source: 35, Destination: 255}
	canID := h.Uint32()
	now := time.Now()

	frames := []canframe.Frame{
		{CanID: canID, Data: [8]byte{0x60, 0x1E, 0xF0, 0x30, 0x4B, 0x08, 0xAC, 0x02}, Length: 8},
		{CanID: canID, Data: [8]byte{0x61, 0x12, 0x8B, 0x01, 0xB3, 0x22, 0x34, 0x38}, Length: 8},
		{CanID: canID, Data: [8]byte{0x62, 0x59, 0x0D, 0xA4, 0x00, 0xF5, 0xC7, 0xFA}, Length: 8},
		{CanID: canID, Data: [8]byte{0x63, 0xFF, 0xFF, 0xF0, 0x03, 0x95, 0x6F, 0x02}, Length: 8},
		{CanID: canID, Data: [8]byte{0x64, 0x01, 0x02, 0x01, 0xFF, 0xFF, 0xFF, 0xFF}, Length: 8},
	}

	var complete bool
	for i, f := range frames {
		msg, ok := d.Dispatch(f, now.Add(time.Duration(i)*time.Millisecond))
		if ok {
			complete = true
			if msg.PGN != 130323 {
				t.Errorf("PGN = %d, want 130323", msg.PGN)
			}
			if len(msg.Payload) != 30 {
				t.Errorf("Payload length = %d, want 30", len(msg.Payload))
			}
		}
	}
	if !complete {
		t.Fatal("expected completion on last frame")
	}
}
