package wireformat

import (
	"time"

	"github.com/sailgo/n2k-gateway/canframe"
	"github.com/sailgo/n2k-gateway/fastpacket"
	"github.com/sailgo/n2k-gateway/pgn"
)

// Dispatcher is the CAN-frame dispatcher (spec.md §4.4.3): for every emitted
// canframe.Frame it decodes the header and either routes it through
// fast-packet reassembly or wraps it directly as a single-frame
// pgn.Message.
type Dispatcher struct {
	assembler *fastpacket.Assembler
}

// NewDispatcher creates a Dispatcher with its own fast-packet reassembler.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{assembler: fastpacket.New()}
}

// Dispatch feeds one CAN frame through the dispatcher. It returns a
// complete message and true whenever one is ready - immediately for
// non-fast-packet PGNs, or once the last frame of a fast-packet sequence
// arrives.
func (d *Dispatcher) Dispatch(frame canframe.Frame, at time.Time) (pgn.Message, bool) {
	header := frame.Header()

	if !pgn.IsFastPacket(header.PGN) {
		payload := make([]byte, frame.Length)
		copy(payload, frame.Data[:frame.Length])
		return pgn.Message{
			Priority:    header.Priority,
			PGN:         header.PGN,
			Destination: header.Destination,
			Source:      header.Source,
			Timestamp:   0xFFFFFFFF,
			Payload:     payload,
		}, true
	}

	return d.assembler.Assemble(fastpacket.Frame{
		Time:   at,
		Header: header,
		Data:   frame.Data,
		Length: frame.Length,
	})
}
