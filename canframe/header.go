// Package canframe implements NMEA 2000 / J1939 CAN-ID and PDU arithmetic:
// decomposing a 29-bit extended CAN identifier into priority, source,
// destination (or group extension) and PGN, and building one back up.
package canframe

// AddressGlobal is the broadcast destination address (0xFF).
const AddressGlobal uint8 = 0xFF

// AddressNull is the "no address claimed yet" source address (0xFE).
const AddressNull uint8 = 0xFE

// Header is the decomposed form of a 29-bit NMEA 2000 CAN identifier.
type Header struct {
	PGN         uint32
	Priority    uint8
	Source      uint8
	Destination uint8
}

// Uint32 re-assembles the 29-bit CAN identifier from the header fields
// following the standard NMEA 2000 PDU1/PDU2 rules: PDU format (the second
// PGN byte) below 240 addresses a single destination (PDU1) and the
// identifier carries that destination in bits 8-15; PDU format 240 and
// above is a broadcast (PDU2) and those bits carry a PGN group extension
// instead.
func (h Header) Uint32() uint32 {
	canID := uint32(h.Source) // bits 0-7

	// PDU1 (addressed) PGNs carry the destination in PS (bits 8-15); PDU2
	// (broadcast) PGNs already have their group extension baked into PGN's
	// own low byte, which lands in the same bit range via the shift below,
	// so destination is only OR'd in for the PDU1 case.
	pf := uint8(h.PGN)
	if pf < 240 {
		canID |= uint32(h.Destination) << 8
	}
	canID |= h.PGN << 8 // bits 8-25: PS/group-extension, PDU format, data page + reserved
	canID |= uint32(h.Priority&0x7) << 26
	return canID
}

// ParseCANID decomposes a 29-bit extended CAN identifier into a Header.
func ParseCANID(canID uint32) Header {
	result := Header{
		Priority: uint8((canID >> 26) & 0x7),
		Source:   uint8(canID),
	}
	ps := uint8(canID >> 8)
	pduFormat := uint8(canID >> 16)
	rAndDP := uint8(canID>>24) & 3
	base := uint32(rAndDP)<<16 | uint32(pduFormat)<<8

	if pduFormat < 240 {
		result.Destination = ps
		result.PGN = base
	} else {
		result.Destination = AddressGlobal
		result.PGN = base + uint32(ps)
	}
	return result
}

// BuildCanID assembles a 29-bit CAN identifier directly from its parts,
// without needing an intermediate Header value. It is used by the TX
// encoders (spec.md §4.6) which only ever have priority/source/destination/
// PGN in hand, not a parsed frame.
func BuildCanID(priority uint8, source uint8, destination uint8, pgn uint32) uint32 {
	return Header{Priority: priority, Source: source, Destination: destination, PGN: pgn}.Uint32()
}

// Frame is a single physical CAN frame: an identifier plus up to 8 data
// bytes. The nominal DLC is 8; shorter payloads are zero-padded on output.
type Frame struct {
	CanID uint32
	Data  [8]byte
	// Length is the number of valid bytes in Data (<= 8).
	Length uint8
}

// Header decomposes the frame's CanID into a Header.
func (f Frame) Header() Header {
	return ParseCANID(f.CanID)
}
