package wireformat

import (
	"time"

	"github.com/sailgo/n2k-gateway/canframe"
	"github.com/sailgo/n2k-gateway/pgn"
)

// frameCount returns how many CAN frames a fast-packet payload of length n
// needs: 1 first frame of up to 6 bytes, plus ceil((n-6)/7) continuation
// frames of up to 7 bytes each (spec.md §4.6).
func frameCount(n int) uint8 {
	if n <= 6 {
		return 1
	}
	return uint8(1 + (n-6+6)/7)
}

// Encoder serializes outgoing pgn.Message values into one or more wire
// buffers in the wire format the driver currently has detected, tracking
// the shared m_order fast-packet sequence counter across calls (spec.md
// §4.6, §8 P5: two successive fast-packet TX messages never share the same
// upper 3 bits mod 8). mOrder only ever occupies the byte's upper 3 bits
// (the lower 5 bits are the in-message frame index, and a first frame must
// present frame index 0 - fastpacket/assembler.go's frameNr == 0 check), so
// it advances by 32, not 16, keeping those lower 5 bits at zero.
type Encoder struct {
	mOrder uint8
	now    func() time.Time
}

// NewEncoder creates an Encoder. now defaults to time.Now; only the
// ActisenseN2kAscii format's timestamp field uses it.
func NewEncoder() *Encoder {
	return &Encoder{now: time.Now}
}

// Encode serializes msg for transmission as dest in format. Formats with no
// documented TX path (spec.md §4.6 "Other formats") return nil: they must
// not crash, but they also do not produce anything to write.
func (e *Encoder) Encode(msg pgn.Message, dest uint8, format Format) [][]byte {
	switch format {
	case YdRaw, ActisenseRawAscii:
		return e.encodeRawASCII(msg, dest)
	case ActisenseN2kAscii:
		return [][]byte{EncodeN2KAsciiLine(msg, e.now())}
	case MiniPlex:
		return EncodeMiniPlex(msg, dest, &e.mOrder)
	default:
		return nil
	}
}

func (e *Encoder) encodeRawASCII(msg pgn.Message, dest uint8) [][]byte {
	payload := msg.Payload
	if !pgn.IsFastPacket(msg.PGN) && len(payload) <= 8 {
		canID := canframe.BuildCanID(msg.Priority, 0, dest, msg.PGN)
		var data [8]byte
		n := copy(data[:], payload)
		frame := canframe.Frame{CanID: canID, Data: data, Length: uint8(n)}
		return [][]byte{EncodeRawASCIILine(frame, 'T')}
	}

	n := frameCount(len(payload))
	lines := make([][]byte, 0, n)
	order := e.mOrder
	canID := canframe.BuildCanID(msg.Priority, 0, dest, msg.PGN)

	take := 6
	if take > len(payload) {
		take = len(payload)
	}
	first := make([]byte, 8)
	first[0] = order
	first[1] = byte(len(payload))
	copy(first[2:], payload[:take])
	for i := 2 + take; i < 8; i++ {
		first[i] = 0xFF
	}
	lines = append(lines, EncodeRawASCIILine(canframe.Frame{CanID: canID, Data: [8]byte(first[:8]), Length: 8}, 'T'))

	pos := take
	for i := 1; i < int(n); i++ {
		frameData := make([]byte, 8)
		frameData[0] = order | byte(i)
		end := pos + 7
		if end > len(payload) {
			end = len(payload)
		}
		copy(frameData[1:], payload[pos:end])
		for j := 1 + (end - pos); j < 8; j++ {
			frameData[j] = 0xFF
		}
		lines = append(lines, EncodeRawASCIILine(canframe.Frame{CanID: canID, Data: [8]byte(frameData[:8]), Length: 8}, 'T'))
		pos = end
	}

	e.mOrder += 32
	return lines
}
