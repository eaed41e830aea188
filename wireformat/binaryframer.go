package wireformat

// Shared escaped-framing state machine for the three Actisense binary
// encodings (NGT/RAW/N2K binary), grounded on the teacher's
// actisense.BinaryFormatDevice.ReadRawMessage byte-at-a-time loop, adapted
// to consume an already-drained byte slice (spec.md §4.4.1) rather than
// block on a single io.Reader byte read.

const (
	stx = 0x02
	etx = 0x03
	dle = 0x10
)

type binaryState uint8

const (
	outOfMsg binaryState = iota
	sawESC
	sawSTX
	inMsg
	sawESCInMsg
)

// binaryFramer accumulates escaped Actisense binary frames across calls to
// Feed, so a frame split across two read chunks still parses correctly
// (spec.md §4.4.1 framing state machine:
// OUT_OF_MSG → saw_ESC → saw_STX → IN_MSG → saw_ESC_IN_MSG).
type binaryFramer struct {
	state   binaryState
	message []byte
}

// Feed appends newly-received bytes to the framer and returns every
// complete, unescaped frame found (each still carrying its leading command
// byte). A malformed escape sequence resets the state machine and discards
// the in-progress frame (spec.md §7 "Malformed frame").
func (f *binaryFramer) Feed(data []byte) [][]byte {
	var frames [][]byte
	for _, b := range data {
		switch f.state {
		case outOfMsg:
			if b == dle {
				f.state = sawESC
			}
		case sawESC:
			if b == stx {
				f.state = sawSTX
				f.message = f.message[:0]
			} else {
				f.state = outOfMsg
			}
		case sawSTX:
			if b == dle {
				f.state = sawESCInMsg
				break
			}
			f.message = append(f.message, b)
			f.state = inMsg
		case inMsg:
			if b == dle {
				f.state = sawESCInMsg
				break
			}
			f.message = append(f.message, b)
		case sawESCInMsg:
			switch b {
			case dle: // escaped literal 0x10
				f.message = append(f.message, b)
				f.state = inMsg
			case etx: // end of message
				frame := make([]byte, len(f.message))
				copy(frame, f.message)
				frames = append(frames, frame)
				f.state = outOfMsg
				f.message = f.message[:0]
			case stx: // reset: start a fresh message immediately
				f.message = f.message[:0]
				f.state = sawSTX
			default: // unknown DLE+? sequence - abort this message
				f.state = outOfMsg
				f.message = f.message[:0]
			}
		}
	}
	return frames
}
