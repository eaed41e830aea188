// Package fastpacket reassembles NMEA 2000 fast-packet messages - logical
// payloads up to 223 bytes split across a sequence of 8-byte CAN frames -
// back into a single pgn.Message (spec.md §4.5, C5).
//
// Grounded on the teacher's fastPacketSequence/FastPacketAssembler
// (fastpacket.go), generalized from nmea.RawFrame/RawMessage/CanBusHeader to
// this module's Frame/pgn.Message/canframe.Header types, and diverging from
// the teacher in the two places spec.md requires: an out-of-order or
// duplicate continuation frame discards the in-flight entry outright
// (the teacher instead leaves it in place and reports whether it happens to
// already be complete), and an optional 750ms idle timeout is checked, via an
// injectable clock, whenever the next frame for the same (PGN, source) pair
// arrives. An entry whose pair never sees another frame is not evicted.
package fastpacket

import (
	"time"

	"github.com/sailgo/n2k-gateway/canframe"
	"github.com/sailgo/n2k-gateway/pgn"
)

// staleAfter is the idle timeout spec.md §4.5 allows (but does not require).
const staleAfter = 750 * time.Millisecond

// Frame is a single CAN frame together with its decoded header and arrival
// time, as produced by the wireformat CAN-frame dispatcher.
type Frame struct {
	Time   time.Time
	Header canframe.Header
	Data   [8]byte
	Length uint8
}

type key struct {
	pgn    uint32
	source uint8
}

type entry struct {
	header     canframe.Header
	lastFrame  time.Time
	seqHighBits uint8
	length      uint8
	nextIndex   uint8
	accumulated uint8
	data        [pgn.MaxPayload]byte
}

// Assembler tracks in-flight fast-packet reassemblies. It is not
// goroutine-safe; the driver's single event loop is the only caller
// (spec.md §5).
type Assembler struct {
	inTransfer map[key]*entry
	now        func() time.Time
}

// New creates an Assembler. now defaults to time.Now; tests inject a fixed
// clock to keep the 750ms idle timeout deterministic.
func New() *Assembler {
	return &Assembler{
		inTransfer: make(map[key]*entry),
		now:        time.Now,
	}
}

// Assemble feeds one CAN frame into the reassembler. It returns the
// completed message and true once the last frame of a sequence arrives; for
// every other (non-terminal) frame it returns (pgn.Message{}, false).
//
// The caller is expected to have already decided (via pgn.IsFastPacket) that
// this frame belongs to fast-packet reassembly rather than being emitted
// directly as a single-frame message.
func (a *Assembler) Assemble(frame Frame) (pgn.Message, bool) {
	if frame.Length < 2 {
		return pgn.Message{}, false
	}

	k := key{pgn: frame.Header.PGN, source: frame.Header.Source}
	frameNr := frame.Data[0] & 0x1F
	seqHighBits := frame.Data[0] & 0xE0

	e, found := a.findMatching(k, seqHighBits)

	if frameNr == 0 {
		// First frame of a new sequence always (re)starts tracking for this
		// (pgn, source) pair - spec.md §3 invariant: a new first-frame
		// replaces whatever was in flight.
		length := frame.Data[1]
		firstChunk := uint8(6)
		if length < firstChunk {
			firstChunk = length
		}
		e = &entry{
			header:      frame.Header,
			lastFrame:   frame.Time,
			seqHighBits: seqHighBits,
			length:      length,
			nextIndex:   1,
			accumulated: firstChunk,
		}
		copy(e.data[:6], frame.Data[2:8])
		a.inTransfer[k] = e
		return a.maybeComplete(k, e)
	}

	if !found {
		// Orphan continuation: no matching first frame in flight. Drop
		// silently (spec.md §4.5 Policy).
		return pgn.Message{}, false
	}

	if frameNr != e.nextIndex {
		// Out-of-order or duplicate continuation: discard the in-flight
		// entry outright and drop this frame (spec.md §4.5 Policy; diverges
		// from the teacher's "maybe it's already complete" leniency).
		delete(a.inTransfer, k)
		return pgn.Message{}, false
	}

	start := 6 + int(frameNr-1)*7
	remaining := int(e.length) - int(e.accumulated)
	n := 7
	if remaining < n {
		n = remaining
	}
	if n < 0 {
		n = 0
	}
	copy(e.data[start:start+n], frame.Data[1:1+n])
	e.accumulated += uint8(n)
	e.nextIndex++
	e.lastFrame = frame.Time

	return a.maybeComplete(k, e)
}

func (a *Assembler) maybeComplete(k key, e *entry) (pgn.Message, bool) {
	if e.accumulated < e.length {
		return pgn.Message{}, false
	}
	delete(a.inTransfer, k)

	payload := make([]byte, e.length)
	copy(payload, e.data[:e.length])
	return pgn.Message{
		Priority:    e.header.Priority,
		PGN:         e.header.PGN,
		Destination: e.header.Destination,
		Source:      e.header.Source,
		Timestamp:   0xFFFFFFFF,
		Payload:     payload,
	}, true
}

// findMatching looks up the in-flight entry for k, requiring the sequence
// high bits to also match (spec.md §4.5 FindMatching), and evicts it first
// if it has gone stale.
func (a *Assembler) findMatching(k key, seqHighBits uint8) (*entry, bool) {
	e, ok := a.inTransfer[k]
	if !ok {
		return nil, false
	}
	if a.now().Sub(e.lastFrame) > staleAfter {
		delete(a.inTransfer, k)
		return nil, false
	}
	if e.seqHighBits != seqHighBits {
		return nil, false
	}
	return e, true
}
