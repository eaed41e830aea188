package wireformat

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"github.com/sailgo/n2k-gateway/pgn"
)

// ParseSeaSmart parses one SeaSmart line (spec.md §4.4.2):
// `$PCDIN,pgn_hex,timestamp_hex,source_hex,payload_hex*crc_hex`. Priority is
// hard-coded to 3 and destination to the broadcast address 0xFF - SeaSmart
// carries no addressing information beyond source. The trailing checksum is
// never verified (consistent with spec.md §3's PgnMessage CRC placeholder).
func ParseSeaSmart(line []byte) (pgn.Message, error) {
	fields := bytes.Split(line, []byte{','})
	if len(fields) < 5 {
		return pgn.Message{}, errors.New("seasmart: line missing pgn/timestamp/source/payload fields")
	}

	pgnValue, err := strconv.ParseUint(string(fields[1]), 16, 32)
	if err != nil {
		return pgn.Message{}, fmt.Errorf("seasmart: bad pgn: %w", err)
	}
	timestamp, err := strconv.ParseUint(string(fields[2]), 16, 32)
	if err != nil {
		return pgn.Message{}, fmt.Errorf("seasmart: bad timestamp: %w", err)
	}
	source, err := strconv.ParseUint(string(fields[3]), 16, 8)
	if err != nil {
		return pgn.Message{}, fmt.Errorf("seasmart: bad source: %w", err)
	}

	payloadField := fields[4]
	if idx := bytes.IndexByte(payloadField, '*'); idx >= 0 {
		payloadField = payloadField[:idx]
	}
	payload := make([]byte, len(payloadField)/2)
	n, err := hex.Decode(payload, payloadField)
	if err != nil {
		return pgn.Message{}, fmt.Errorf("seasmart: bad payload hex: %w", err)
	}

	return pgn.Message{
		Priority:    3,
		PGN:         uint32(pgnValue),
		Destination: 0xFF,
		Source:      uint8(source),
		Timestamp:   uint32(timestamp),
		Payload:     payload[:n],
	}, nil
}
