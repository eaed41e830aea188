package wireformat

import (
	"bytes"
	"testing"

	"github.com/sailgo/n2k-gateway/canframe"
)

// TestParseMiniPlex_Scenario1 is spec.md §8 scenario 1: single-frame MiniPlex
// heading/rudder PGN, verifying the attribute-word bit split and the
// documented byte reversal.
func TestParseMiniPlex_Scenario1(t *testing.T) {
	line := []byte("$MXPGN,01F119,3816,FFFAAF01A3FDE301*14")

	frame, err := ParseMiniPlex(line)
	if err != nil {
		t.Fatalf("ParseMiniPlex: %v", err)
	}

	wantCanID := canframe.BuildCanID(3, 0x16, canframe.AddressGlobal, 0x1F119)
	if frame.CanID != wantCanID {
		t.Errorf("CanID = %#x, want %#x", frame.CanID, wantCanID)
	}
	if frame.Length != 8 {
		t.Errorf("Length = %d, want 8", frame.Length)
	}
	wantData := []byte{0x01, 0xE3, 0xFD, 0xA3, 0x01, 0xAF, 0xFA, 0xFF}
	if !bytes.Equal(frame.Data[:frame.Length], wantData) {
		t.Errorf("Data = % X, want % X", frame.Data[:frame.Length], wantData)
	}

	header := frame.Header()
	if header.Priority != 3 {
		t.Errorf("Priority = %d, want 3", header.Priority)
	}
	if header.Source != 0x16 {
		t.Errorf("Source = %#x, want 0x16", header.Source)
	}
}

func TestParseMiniPlex_BadPayloadHex(t *testing.T) {
	_, err := ParseMiniPlex([]byte("$MXPGN,01F119,3816,ZZ*14"))
	if err == nil {
		t.Fatal("expected error for malformed payload hex")
	}
}

func TestParseMiniPlex_MissingFields(t *testing.T) {
	_, err := ParseMiniPlex([]byte("$MXPGN,01F119"))
	if err == nil {
		t.Fatal("expected error for missing fields")
	}
}

func TestEncodeMiniPlex_SingleFrame(t *testing.T) {
	msg := pgnMessage(3, 0x1F119, 0xFF, 0x16, []byte{0x01, 0xE3, 0xFD, 0xA3, 0x01, 0xAF, 0xFA, 0xFF})
	var order uint8
	lines := EncodeMiniPlex(msg, 0x16, &order)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}

	roundTrip, err := ParseMiniPlex(bytes.TrimRight(lines[0], "\r\n"))
	if err != nil {
		t.Fatalf("round trip parse: %v", err)
	}
	if !bytes.Equal(roundTrip.Data[:roundTrip.Length], msg.Payload) {
		t.Errorf("round-trip payload = % X, want % X", roundTrip.Data[:roundTrip.Length], msg.Payload)
	}
}

func TestEncodeMiniPlex_FastPacketAdvancesOrder(t *testing.T) {
	msg := pgnMessage(3, 130323, 0xFF, 0x16, make([]byte, 20))
	var order uint8
	lines := EncodeMiniPlex(msg, 0x16, &order)
	if len(lines) != 3 {
		t.Fatalf("got %d lines for 20-byte payload, want 3", len(lines))
	}
	if order != 32 {
		t.Errorf("mOrder after encode = %d, want 32", order)
	}
}
