package wireformat

import "testing"

func TestFrameCount(t *testing.T) {
	cases := []struct {
		n    int
		want uint8
	}{
		{0, 1}, {6, 1}, {7, 2}, {13, 2}, {14, 3}, {20, 3}, {21, 4}, {223, 32},
	}
	for _, c := range cases {
		if got := frameCount(c.n); got != c.want {
			t.Errorf("frameCount(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}

func TestEncoder_SingleFrameRawASCII(t *testing.T) {
	e := NewEncoder()
	msg := pgnMessage(6, 59904, 0xFF, 0xFE, []byte{0x00, 0xF0, 0x01})
	lines := e.Encode(msg, 0xFF, ActisenseRawAscii)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	parsed, err := ParseRawASCII(trimCRLF(lines[0]))
	if err != nil {
		t.Fatalf("parse back: %v", err)
	}
	if parsed.Frame.Length != 3 {
		t.Errorf("Length = %d, want 3", parsed.Frame.Length)
	}
}

func TestEncoder_FastPacketRawASCII_AdvancesOrder(t *testing.T) {
	e := NewEncoder()
	payload := make([]byte, 20)
	for i := range payload {
		payload[i] = byte(i)
	}
	msg := pgnMessage(5, 130323, 0xFF, 1, payload)

	lines := e.Encode(msg, 0xFF, ActisenseRawAscii)
	if len(lines) != 3 {
		t.Fatalf("got %d lines for 20-byte payload, want 3", len(lines))
	}
	if e.mOrder != 32 {
		t.Errorf("mOrder = %d, want 32", e.mOrder)
	}

	lines2 := e.Encode(msg, 0xFF, ActisenseRawAscii)
	first, err := ParseRawASCII(trimCRLF(lines[0]))
	if err != nil {
		t.Fatalf("parse first frame: %v", err)
	}
	second, err := ParseRawASCII(trimCRLF(lines2[0]))
	if err != nil {
		t.Fatalf("parse second message first frame: %v", err)
	}
	if first.Frame.Data[0] == second.Frame.Data[0] {
		t.Error("two successive fast-packet messages must not share the same sequence id byte")
	}
	if second.Frame.Data[0]&0x1F != 0 {
		t.Errorf("second message's first-frame byte = %#x, lower 5 bits (frame index) must be zero", second.Frame.Data[0])
	}
}

func TestEncoder_MiniPlexDispatches(t *testing.T) {
	e := NewEncoder()
	msg := pgnMessage(3, 0x1F119, 0xFF, 0x16, []byte{0x01, 0x02, 0x03})
	lines := e.Encode(msg, 0x16, MiniPlex)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
}

func TestEncoder_UnsupportedFormatReturnsNil(t *testing.T) {
	e := NewEncoder()
	msg := pgnMessage(3, 59904, 0xFF, 0, nil)
	if lines := e.Encode(msg, 0xFF, SeaSmart); lines != nil {
		t.Errorf("got %v, want nil for a format with no documented TX path", lines)
	}
}

func trimCRLF(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
