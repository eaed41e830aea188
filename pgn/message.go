// Package pgn defines the canonical PGN-addressed message exchanged between
// the wire-format parsers/encoders and the driver's listeners.
package pgn

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/sailgo/n2k-gateway/canframe"
)

// Well-known PGNs referenced directly by this module; the generic
// PGN-to-navigation-value decoding table is out of scope (spec.md §1
// Non-goals).
const (
	ISORequest        uint32 = 59904
	ISOAddressClaim    uint32 = 60928
	ProductInformation uint32 = 126996

	// Wildcard listens to every message, regardless of its real PGN
	// (spec.md §6 Listener sink).
	Wildcard uint32 = 1
)

// frame marker bytes, spec.md §3.
const (
	markerFrame  = 0x93
	markerTxFrame = 0x94
	crcPlaceholder = 0x55
)

// MaxPayload is the largest payload a fast-packet reassembly can produce
// (6 + 31*7 bytes, spec.md §3/§4.5).
const MaxPayload = 223

// Message is the canonical internal payload: a single NMEA 2000 PGN message
// with its CAN addressing fields attached, already reassembled if it came
// from a multi-frame fast packet.
type Message struct {
	Priority    uint8
	PGN         uint32
	Destination uint8
	Source      uint8
	// Timestamp is 0xFFFFFFFF when absent, per spec.md §3.
	Timestamp uint32
	Payload   []byte
	// TxLog marks a message built from the 0x94 (TX log) frame marker
	// variant rather than the default 0x93 received-frame marker. Carried
	// so a caller logging outgoing traffic can tell the two apart without
	// a second type (spec.md additions, §3).
	TxLog bool
}

// Header returns the CAN addressing fields as a canframe.Header.
func (m Message) Header() canframe.Header {
	return canframe.Header{
		PGN:         m.PGN,
		Priority:    m.Priority,
		Source:      m.Source,
		Destination: m.Destination,
	}
}

// ErrInvalidLength is returned by Unmarshal when raw is too short to contain
// a full header+trailer.
var ErrInvalidLength = errors.New("pgn: message too short")

// ErrBadMarker is returned by Unmarshal when byte 0 is neither 0x93 nor 0x94.
var ErrBadMarker = errors.New("pgn: unrecognized frame marker")

// Marshal renders the message into the 13-byte-header + body + 1-byte-
// trailer layout documented in spec.md §3. The CRC trailer is always the
// fixed placeholder 0x55 - the source never computes or checks it.
func (m Message) Marshal() []byte {
	n := len(m.Payload)
	buf := make([]byte, 13+n+1)

	marker := byte(markerFrame)
	if m.TxLog {
		marker = markerTxFrame
	}
	buf[0] = marker
	buf[1] = byte(12 + n) // length indicator: header fields following this byte, plus payload
	buf[2] = m.Priority
	buf[3] = byte(m.PGN)
	buf[4] = byte(m.PGN >> 8)
	buf[5] = byte(m.PGN >> 16)
	buf[6] = m.Destination
	buf[7] = m.Source
	binary.LittleEndian.PutUint32(buf[8:12], m.Timestamp)
	buf[12] = byte(n)
	copy(buf[13:], m.Payload)
	buf[13+n] = crcPlaceholder
	return buf
}

// Unmarshal parses the layout written by Marshal. Length/marker mismatches
// return an error; the CRC trailer is never verified (spec.md §3 invariant
// bytes[13+N] == 0x55 is a property of well-formed input, not something
// this function enforces on the way in).
func Unmarshal(raw []byte) (Message, error) {
	if len(raw) < 14 {
		return Message{}, ErrInvalidLength
	}
	marker := raw[0]
	if marker != markerFrame && marker != markerTxFrame {
		return Message{}, ErrBadMarker
	}
	n := int(raw[12])
	if len(raw) < 13+n+1 {
		return Message{}, fmt.Errorf("%w: declared payload length %d does not fit in %d remaining bytes", ErrInvalidLength, n, len(raw)-13)
	}
	payload := make([]byte, n)
	copy(payload, raw[13:13+n])

	return Message{
		Priority:    raw[2],
		PGN:         uint32(raw[3]) | uint32(raw[4])<<8 | uint32(raw[5])<<16,
		Destination: raw[6],
		Source:      raw[7],
		Timestamp:   binary.LittleEndian.Uint32(raw[8:12]),
		Payload:     payload,
		TxLog:       marker == markerTxFrame,
	}, nil
}
