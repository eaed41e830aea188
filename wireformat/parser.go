package wireformat

import (
	"time"

	"github.com/sailgo/n2k-gateway/pgn"
)

// Logger is the minimal sink the parser uses to report malformed frames. It
// is satisfied directly by *logrus.Entry/*logrus.Logger's Debugf method.
type Logger interface {
	Debugf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...interface{}) {}

// Parser runs the six per-format framing state machines (spec.md §4.4) and
// the CAN-frame dispatcher (§4.4.3) behind one stateful entry point, since a
// physical connection only ever speaks one wire format at a time but that
// format's framing state must persist across chunks.
type Parser struct {
	binary     binaryFramer
	lines      lineReader
	dispatcher *Dispatcher
	now        func() time.Time

	// LastRTFlag is the most recently observed direction marker from a
	// RawAscii/YdRaw line ('R' or 'T'), consulted by the gateway probe
	// (C7, spec.md §4.7 step 5).
	LastRTFlag byte

	log Logger
}

// NewParser creates a Parser. Pass nil for log to discard malformed-frame
// debug messages.
func NewParser(log Logger) *Parser {
	if log == nil {
		log = noopLogger{}
	}
	return &Parser{
		dispatcher: NewDispatcher(),
		now:        time.Now,
		log:        log,
	}
}

// Parse feeds one newly-received chunk, already classified as format by the
// FormatDetector, through the matching framing state machine(s) and returns
// every message completed as a result. Malformed frames are dropped and
// parsing continues with the next one (spec.md §7); no error is ever fatal
// to the driver.
func (p *Parser) Parse(format Format, chunk []byte) []pgn.Message {
	switch format {
	case ActisenseNgt, ActisenseN2k, ActisenseRaw:
		return p.parseBinary(format, chunk)
	case YdRaw, ActisenseRawAscii, ActisenseN2kAscii, SeaSmart, MiniPlex:
		return p.parseASCII(format, chunk)
	default: // Undefined: skip chunk, keep listening (spec.md §7)
		return nil
	}
}

func (p *Parser) parseBinary(format Format, chunk []byte) []pgn.Message {
	frames := p.binary.Feed(chunk)
	if len(frames) == 0 {
		return nil
	}
	now := p.now()
	out := make([]pgn.Message, 0, len(frames))
	for _, frame := range frames {
		switch format {
		case ActisenseNgt:
			msg, err := ParseActisenseNgt(frame)
			if err != nil {
				p.log.Debugf("wireformat: dropping malformed ActisenseNgt frame: %v", err)
				continue
			}
			out = append(out, msg)
		case ActisenseN2k:
			msg, err := ParseActisenseN2k(frame)
			if err != nil {
				p.log.Debugf("wireformat: dropping malformed ActisenseN2k frame: %v", err)
				continue
			}
			out = append(out, msg)
		case ActisenseRaw:
			canFrame, err := ParseActisenseRaw(frame)
			if err != nil {
				p.log.Debugf("wireformat: dropping malformed ActisenseRaw frame: %v", err)
				continue
			}
			if msg, ok := p.dispatcher.Dispatch(canFrame, now); ok {
				out = append(out, msg)
			}
		}
	}
	return out
}

func (p *Parser) parseASCII(format Format, chunk []byte) []pgn.Message {
	lines := p.lines.Feed(chunk)
	if len(lines) == 0 {
		return nil
	}
	now := p.now()
	out := make([]pgn.Message, 0, len(lines))
	for _, line := range lines {
		if len(line) == 0 {
			continue
		}
		switch format {
		case YdRaw, ActisenseRawAscii:
			parsed, err := ParseRawASCII(line)
			if err != nil {
				p.log.Debugf("wireformat: dropping malformed %s line: %v", format, err)
				continue
			}
			p.LastRTFlag = parsed.RTFlag
			if msg, ok := p.dispatcher.Dispatch(parsed.Frame, now); ok {
				out = append(out, msg)
			}
		case ActisenseN2kAscii:
			msg, err := ParseN2KAscii(line)
			if err != nil {
				p.log.Debugf("wireformat: dropping malformed ActisenseN2kAscii line: %v", err)
				continue
			}
			out = append(out, msg)
		case SeaSmart:
			msg, err := ParseSeaSmart(line)
			if err != nil {
				p.log.Debugf("wireformat: dropping malformed SeaSmart line: %v", err)
				continue
			}
			out = append(out, msg)
		case MiniPlex:
			frame, err := ParseMiniPlex(line)
			if err != nil {
				p.log.Debugf("wireformat: dropping malformed MiniPlex line: %v", err)
				continue
			}
			if msg, ok := p.dispatcher.Dispatch(frame, now); ok {
				out = append(out, msg)
			}
		}
	}
	return out
}
