// Package wireformat implements the format detector, the six wire-format
// parsers and the TX encoder (spec.md §4.3, §4.4, §4.6 — components C3, C4,
// C6).
package wireformat

import "bytes"

// Format tags a wire encoding. The zero value is Undefined.
type Format uint8

const (
	Undefined Format = iota
	YdRaw
	ActisenseRawAscii
	ActisenseN2kAscii
	ActisenseN2k
	ActisenseRaw
	ActisenseNgt
	SeaSmart
	MiniPlex
)

func (f Format) String() string {
	switch f {
	case YdRaw:
		return "YdRaw"
	case ActisenseRawAscii:
		return "ActisenseRawAscii"
	case ActisenseN2kAscii:
		return "ActisenseN2kAscii"
	case ActisenseN2k:
		return "ActisenseN2k"
	case ActisenseRaw:
		return "ActisenseRaw"
	case ActisenseNgt:
		return "ActisenseNgt"
	case SeaSmart:
		return "SeaSmart"
	case MiniPlex:
		return "MiniPlex"
	default:
		return "Undefined"
	}
}

// DetectFormat classifies a single newly-received chunk (spec.md §4.3). It
// is stateless: every call is independent of prior chunks, and YD-RAW is
// byte-compatible with ActisenseRawAscii so both detect and parse the same
// way.
func DetectFormat(chunk []byte) Format {
	if len(chunk) == 0 {
		return Undefined
	}
	if isASCII(chunk) {
		switch {
		case bytes.Contains(chunk, []byte("$PCDIN")):
			return SeaSmart
		case bytes.Contains(chunk, []byte("$MXPGN")):
			return MiniPlex
		case bytes.IndexByte(chunk, ':') >= 0:
			return ActisenseRawAscii
		default:
			return ActisenseN2kAscii
		}
	}

	if len(chunk) > 2 {
		switch chunk[2] {
		case 0x95:
			return ActisenseRaw
		case 0xD0:
			return ActisenseN2k
		case 0x93:
			return ActisenseNgt
		}
	}
	return Undefined
}

func isASCII(chunk []byte) bool {
	for _, b := range chunk {
		if b >= 128 {
			return false
		}
	}
	return true
}
