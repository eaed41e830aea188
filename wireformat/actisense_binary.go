package wireformat

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/sailgo/n2k-gateway/canframe"
	"github.com/sailgo/n2k-gateway/pgn"
)

// ParseActisenseNgt turns an unescaped NGT binary frame into a pgn.Message.
// The NGT wire layout already matches the canonical PgnMessage byte layout
// (spec.md §3/§4.4.1: "emit the whole collected buffer as-is to the
// listener, it is already a PgnMessage") - the command byte IS the frame
// marker (0x93/0x94).
func ParseActisenseNgt(frame []byte) (pgn.Message, error) {
	msg, err := pgn.Unmarshal(frame)
	if err != nil {
		return pgn.Message{}, fmt.Errorf("actisense ngt: %w", err)
	}
	return msg, nil
}

// ParseActisenseN2k turns an unescaped N2K binary frame into a pgn.Message,
// grounded on the teacher's fromActisenseN2KBinaryMessage.
func ParseActisenseN2k(frame []byte) (pgn.Message, error) {
	if len(frame) < 13 {
		return pgn.Message{}, errors.New("actisense n2k: frame too short")
	}
	declaredLength := uint32(frame[1]) + uint32(frame[2])<<8
	if int(declaredLength)+1 != len(frame) {
		return pgn.Message{}, fmt.Errorf("actisense n2k: declared length %d does not match frame length %d", declaredLength, len(frame)-1)
	}

	dst := frame[3]
	src := frame[4]

	dprp := frame[7]
	priority := (dprp >> 2) & 7
	rAndDP := dprp & 3

	pduFormat := frame[6]
	pgnValue := uint32(rAndDP)<<16 | uint32(pduFormat)<<8
	if pduFormat >= 240 {
		pgnValue += uint32(frame[5])
	}

	const dataStart = 13
	payload := make([]byte, len(frame)-dataStart)
	copy(payload, frame[dataStart:])

	return pgn.Message{
		Priority:    priority,
		PGN:         pgnValue,
		Destination: dst,
		Source:      src,
		Timestamp:   0xFFFFFFFF,
		Payload:     payload,
	}, nil
}

// ParseActisenseRaw turns an unescaped RAW binary frame into a canframe.Frame
// for dispatch to the CAN-frame dispatcher (fast-packet routing), grounded
// on the teacher's fromRawActisenseMessage.
func ParseActisenseRaw(frame []byte) (canframe.Frame, error) {
	if len(frame) < 8 {
		return canframe.Frame{}, errors.New("actisense raw: frame too short")
	}
	dLen := int(frame[1])
	if dLen+3 != len(frame) {
		return canframe.Frame{}, fmt.Errorf("actisense raw: declared length %d does not match frame length %d", dLen, len(frame)-3)
	}

	canID := binary.LittleEndian.Uint32(frame[4:8])
	var data [8]byte
	n := copy(data[:], frame[8:len(frame)-1])

	return canframe.Frame{
		CanID:  canID,
		Data:   data,
		Length: uint8(n),
	}, nil
}
