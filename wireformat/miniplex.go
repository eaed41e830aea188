package wireformat

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"github.com/sailgo/n2k-gateway/canframe"
	"github.com/sailgo/n2k-gateway/pgn"
)

// ParseMiniPlex parses one MiniPlex line (spec.md §4.4.2):
// `$MXPGN,pgn_hex,attribute_hex,payload_hex*crc_hex`. The attribute word is
// a 16-bit value: bit 15 is the send-bit (0 on RX), bits 12-14 are
// priority, bits 8-11 are DLC, bits 0-7 are the source address. The payload
// is documented MSB-to-LSB and must be byte-reversed on decode (spec.md §9
// open question, resolved here in favor of the documented order - see
// DESIGN.md). The result is a synthetic CAN frame for dispatch to the
// fast-packet/CAN-frame pipeline (C5), not a pgn.Message directly.
func ParseMiniPlex(line []byte) (canframe.Frame, error) {
	fields := bytes.Split(line, []byte{','})
	if len(fields) < 4 {
		return canframe.Frame{}, errors.New("miniplex: line missing pgn/attribute/payload fields")
	}

	pgnValue, err := strconv.ParseUint(string(fields[1]), 16, 32)
	if err != nil {
		return canframe.Frame{}, fmt.Errorf("miniplex: bad pgn: %w", err)
	}

	attr, err := strconv.ParseUint(string(fields[2]), 16, 16)
	if err != nil {
		return canframe.Frame{}, fmt.Errorf("miniplex: bad attribute word: %w", err)
	}
	address := uint8(attr & 0xFF)
	dlc := uint8((attr >> 8) & 0x0F)
	priority := uint8((attr >> 12) & 0x07)

	payloadField := fields[3]
	if idx := bytes.IndexByte(payloadField, '*'); idx >= 0 {
		payloadField = payloadField[:idx]
	}
	decoded := make([]byte, len(payloadField)/2)
	n, err := hex.Decode(decoded, payloadField)
	if err != nil {
		return canframe.Frame{}, fmt.Errorf("miniplex: bad payload hex: %w", err)
	}
	decoded = decoded[:n]
	reverseBytes(decoded)

	var data [8]byte
	copy(data[:], decoded)

	canID := canframe.BuildCanID(priority, address, canframe.AddressGlobal, uint32(pgnValue))
	return canframe.Frame{
		CanID:  canID,
		Data:   data,
		Length: dlc,
	}, nil
}

func reverseBytes(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

// EncodeMiniPlex renders an outgoing message as one or more MiniPlex lines
// (spec.md §4.6). Non-fast-packet payloads (<=8 bytes) produce a single
// line carrying the raw CAN data; fast-packet payloads are fragmented with
// the same 6-then-7-bytes-per-frame geometry as the RX fast-packet
// reassembler, the first frame's chunk prefixed by the total payload length
// byte. mOrder advances by 32 after a fast-packet message the same way the
// YdRaw/ActisenseRawAscii encoder's does, keeping the lower 5 (frame-index)
// bits of the header byte at zero so the first frame stays recognizable as
// frame index 0 (spec.md §4.6 P5).
func EncodeMiniPlex(msg pgn.Message, dest uint8, mOrder *uint8) [][]byte {
	if !pgn.IsFastPacket(msg.PGN) && len(msg.Payload) <= 8 {
		return [][]byte{miniplexLine(msg.PGN, msg.Priority, dest, msg.Payload)}
	}

	payload := msg.Payload
	n := frameCount(len(payload))
	lines := make([][]byte, 0, n)

	order := *mOrder
	chunk := make([]byte, 0, 7)
	chunk = append(chunk, byte(len(payload)))
	take := 6
	if take > len(payload) {
		take = len(payload)
	}
	chunk = append(chunk, payload[:take]...)
	lines = append(lines, miniplexLine(msg.PGN, msg.Priority, dest, withSeq(order, chunk)))

	pos := take
	for i := 1; i < int(n); i++ {
		end := pos + 7
		if end > len(payload) {
			end = len(payload)
		}
		c := append([]byte{}, payload[pos:end]...)
		for len(c) < 7 {
			c = append(c, 0xFF)
		}
		lines = append(lines, miniplexLine(msg.PGN, msg.Priority, dest, withSeq(order+byte(i), c)))
		pos = end
	}

	*mOrder += 32
	return lines
}

func withSeq(order byte, data []byte) []byte {
	out := make([]byte, 1+len(data))
	out[0] = order
	copy(out[1:], data)
	return out
}

func miniplexLine(pgnValue uint32, priority uint8, dest uint8, data []byte) []byte {
	dlc := len(data)
	if dlc > 15 {
		dlc = 15
	}
	attr := uint16(0x8000) | uint16(priority&0x7)<<12 | uint16(dlc)<<8 | uint16(dest)

	reversed := append([]byte{}, data...)
	reverseBytes(reversed)

	body := fmt.Sprintf("MXPGN,%06X,%04X,%s", pgnValue, attr, hexUpper(reversed))
	crc := xorCRC([]byte(body))
	return []byte(fmt.Sprintf("$%s*%02X\r\n", body, crc))
}

func xorCRC(s []byte) uint8 {
	var crc uint8
	for _, b := range s {
		crc ^= b
	}
	return crc
}
