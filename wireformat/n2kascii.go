package wireformat

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sailgo/n2k-gateway/pgn"
)

// ParseN2KAscii parses one ActisenseN2kAscii line (spec.md §4.4.2):
// `[time, prio_addr_hex, pgn_hex, payload_hex]`, whitespace separated,
// grounded on the teacher's actisense.parseN2KAscii field layout (the
// teacher's own variant additionally requires a leading 'A' and splits the
// header block into source/destination/priority bytes directly; this parser
// follows spec.md's single-hex-word header precisely: priority is its low
// nibble, destination the next byte, source the top byte).
//
// Example: `173321.107 23FF7 1F513 012F3070002F30709F`
func ParseN2KAscii(line []byte) (pgn.Message, error) {
	fields := splitFields(line)
	if len(fields) < 4 {
		return pgn.Message{}, errors.New("n2kascii: line missing time/header/pgn/payload fields")
	}

	prioAddr, err := strconv.ParseUint(string(fields[1]), 16, 32)
	if err != nil {
		return pgn.Message{}, fmt.Errorf("n2kascii: bad header word: %w", err)
	}
	priority := uint8(prioAddr & 0x0F)
	destination := uint8((prioAddr >> 4) & 0xFF)
	source := uint8((prioAddr >> 12) & 0xFF)

	pgnValue, err := strconv.ParseUint(string(fields[2]), 16, 32)
	if err != nil {
		return pgn.Message{}, fmt.Errorf("n2kascii: bad pgn: %w", err)
	}

	payload := make([]byte, len(fields[3])/2)
	n, err := hex.Decode(payload, fields[3])
	if err != nil {
		return pgn.Message{}, fmt.Errorf("n2kascii: bad payload hex: %w", err)
	}

	return pgn.Message{
		Priority:    priority,
		PGN:         uint32(pgnValue),
		Destination: destination,
		Source:      source,
		Timestamp:   0xFFFFFFFF,
		Payload:     payload[:n],
	}, nil
}

func splitFields(line []byte) [][]byte {
	var fields [][]byte
	start := -1
	for i, b := range line {
		isSpace := b == ' ' || b == '\t'
		if isSpace {
			if start != -1 {
				fields = append(fields, line[start:i])
				start = -1
			}
			continue
		}
		if start == -1 {
			start = i
		}
	}
	if start != -1 {
		fields = append(fields, line[start:])
	}
	return fields
}

// EncodeN2KAsciiLine renders msg as an ActisenseN2kAscii line (spec.md §4.6):
// `A<HHMMSS.mmm> <src_02x><dst_02x><prio_1x> <pgn_05x> <payload hex>\r\n`.
// One line is produced regardless of payload length.
func EncodeN2KAsciiLine(msg pgn.Message, now time.Time) []byte {
	return []byte(fmt.Sprintf("A%s %02X%02X%01X %05X %s\r\n",
		now.Format("150405.000"),
		msg.Source, msg.Destination, msg.Priority&0xF,
		msg.PGN,
		hexUpper(msg.Payload),
	))
}

func hexUpper(b []byte) string {
	const hextableLocal = "0123456789ABCDEF"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hextableLocal[v>>4]
		out[i*2+1] = hextableLocal[v&0x0f]
	}
	return string(out)
}
