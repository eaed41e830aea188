package wireformat

import (
	"bytes"
	"testing"
	"time"
)

func TestParseN2KAscii(t *testing.T) {
	line := []byte("173321.107 23FF7 1F513 012F3070002F30709F")

	msg, err := ParseN2KAscii(line)
	if err != nil {
		t.Fatalf("ParseN2KAscii: %v", err)
	}
	if msg.PGN != 0x1F513 {
		t.Errorf("PGN = %#x, want 0x1F513", msg.PGN)
	}
	if msg.Priority != 0x7 {
		t.Errorf("Priority = %#x, want 0x7", msg.Priority)
	}
	if msg.Destination != 0xFF {
		t.Errorf("Destination = %#x, want 0xFF", msg.Destination)
	}
	if msg.Source != 0x23 {
		t.Errorf("Source = %#x, want 0x23", msg.Source)
	}
}

func TestParseN2KAscii_MissingFields(t *testing.T) {
	if _, err := ParseN2KAscii([]byte("173321.107 23FF7")); err == nil {
		t.Fatal("expected error for missing fields")
	}
}

func TestEncodeN2KAsciiLine_RoundTrip(t *testing.T) {
	msg := pgnMessage(7, 0x1F513, 0xFF, 0x23, []byte{0x01, 0x2F, 0x30, 0x70, 0x00, 0x2F, 0x30, 0x70, 0x9F})
	line := EncodeN2KAsciiLine(msg, time.Date(2026, 7, 30, 17, 33, 21, 0, time.UTC))

	parsed, err := ParseN2KAscii(bytes.TrimRight(line, "\r\n"))
	if err != nil {
		t.Fatalf("round trip parse: %v", err)
	}
	if parsed.PGN != msg.PGN {
		t.Errorf("PGN = %#x, want %#x", parsed.PGN, msg.PGN)
	}
	if parsed.Source != msg.Source {
		t.Errorf("Source = %#x, want %#x", parsed.Source, msg.Source)
	}
	if parsed.Destination != msg.Destination {
		t.Errorf("Destination = %#x, want %#x", parsed.Destination, msg.Destination)
	}
	if !bytes.Equal(parsed.Payload, msg.Payload) {
		t.Errorf("Payload = % X, want % X", parsed.Payload, msg.Payload)
	}
}
