package wireformat

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"github.com/sailgo/n2k-gateway/canframe"
)

// RawASCIIFrame is the result of parsing one YdRaw/ActisenseRawAscii line:
// the decoded CAN frame plus the direction marker ('R' received, 'T'
// transmitted), which the gateway probe (C7) tracks as the last-seen RT
// flag for a source address.
type RawASCIIFrame struct {
	Frame  canframe.Frame
	RTFlag byte
}

// ParseRawASCII parses one `YdRaw`/`ActisenseRawAscii` line (spec.md §4.4.2),
// grounded on the teacher's actisense.parseRawASCII.
//
// Example: `00:34:02.718 R 15FD0800 FF 00 01 CA 6F FF FF FF`
func ParseRawASCII(line []byte) (RawASCIIFrame, error) {
	fields := bytes.Fields(line)
	if len(fields) < 3 {
		return RawASCIIFrame{}, errors.New("rawascii: line missing timestamp/direction/can-id fields")
	}

	rt := fields[1]
	if len(rt) != 1 || (rt[0] != 'R' && rt[0] != 'T') {
		return RawASCIIFrame{}, fmt.Errorf("rawascii: unexpected direction marker %q", rt)
	}

	canID64, err := strconv.ParseUint(string(fields[2]), 16, 32)
	if err != nil {
		return RawASCIIFrame{}, fmt.Errorf("rawascii: bad can-id: %w", err)
	}

	var data [8]byte
	n := 0
	for _, f := range fields[3:] {
		if n >= 8 {
			break
		}
		b, err := hex.DecodeString(string(f))
		if err != nil || len(b) != 1 {
			return RawASCIIFrame{}, fmt.Errorf("rawascii: bad data byte %q", f)
		}
		data[n] = b[0]
		n++
	}

	return RawASCIIFrame{
		Frame: canframe.Frame{
			CanID:  uint32(canID64),
			Data:   data,
			Length: uint8(n),
		},
		RTFlag: rt[0],
	}, nil
}

const hextable = "0123456789ABCDEF"

// EncodeRawASCIILine renders one CAN frame as a YdRaw/ActisenseRawAscii
// line, grounded on the teacher's actisense.toRawASCIIBytes byte-exact
// template. direction is 'T' for frames this driver transmits.
func EncodeRawASCIILine(frame canframe.Frame, direction byte) []byte {
	canID := frame.CanID
	hexCanID := []byte(fmt.Sprintf("%X", canID))

	buf := make([]byte, 0, 15+8+1+frame.Length*3+2)
	buf = append(buf, "00:00:00.000 "...)
	buf = append(buf, direction)
	buf = append(buf, ' ')
	// pad CAN-ID hex to 8 chars
	for i := 0; i < 8-len(hexCanID); i++ {
		buf = append(buf, '0')
	}
	buf = append(buf, hexCanID...)

	for i := uint8(0); i < frame.Length; i++ {
		v := frame.Data[i]
		buf = append(buf, ' ', hextable[v>>4], hextable[v&0x0f])
	}
	buf = append(buf, '\r', '\n')
	return buf
}
