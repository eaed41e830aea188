// Package probe implements the gateway probe (spec.md §4.7): it tells a
// YDEN-class gateway (accepts YD-RAW TX) apart from an Actisense-class one
// by broadcasting an ISO Request for Product Information and inspecting
// what comes back within a short window.
package probe

import (
	"strings"
	"sync"
	"time"

	"github.com/sailgo/n2k-gateway/canframe"
	"github.com/sailgo/n2k-gateway/pgn"
	"github.com/sailgo/n2k-gateway/wireformat"
)

// probeWindow is the one-shot timer duration spec.md §4.7 step 3 specifies.
const probeWindow = 200 * time.Millisecond

// simulatorSource is excluded from product-info collection (spec.md §4.7
// step 4: "except from source 75, which is the local simulator").
const simulatorSource = 75

// ydenMarker is the ModelID substring a probe response must contain for the
// gateway to be classified YDEN-class (spec.md §4.7 step 5).
const ydenMarker = "YDEN"

// ProductInfoEntry records what a PGN 126996 response told the probe about
// one source address (spec.md §3 ProductInfoEntry).
type ProductInfoEntry struct {
	ModelID string
	RTFlag  byte
}

// Sender is how the probe transmits its ISO Request; it is the same
// encode-and-write path the driver uses for every other outgoing message.
type Sender interface {
	Send(msg pgn.Message) error
}

// Probe is a per-driver-instance state machine - the teacher's equivalent
// map is file-scoped, which spec.md §5 and §9 call out as a latent bug;
// this type is owned by exactly one gateway.Driver.
type Probe struct {
	mu      sync.Mutex
	entries map[uint8]ProductInfoEntry

	txAvailable bool
	timer       *time.Timer
	now         func() time.Time
}

// New creates an idle Probe.
func New() *Probe {
	return &Probe{
		entries: make(map[uint8]ProductInfoEntry),
		now:     time.Now,
	}
}

// TxAvailable reports the probe's most recent verdict.
func (p *Probe) TxAvailable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.txAvailable
}

// Run executes the state machine for the currently detected format
// (spec.md §4.7 steps 1-3). sender transmits the ISO Request when the
// format requires probing; onExpire is invoked from a background timer
// when the 200ms window closes (step 5) - callers should have it call
// Finish.
func (p *Probe) Run(format wireformat.Format, sender Sender, onExpire func()) error {
	switch format {
	case wireformat.ActisenseN2kAscii, wireformat.MiniPlex:
		p.mu.Lock()
		p.txAvailable = true
		p.mu.Unlock()
		return nil
	case wireformat.SeaSmart:
		p.mu.Lock()
		p.txAvailable = false
		p.mu.Unlock()
		return nil
	}

	request := createISORequest(pgn.ProductInformation, canframe.AddressGlobal)
	if err := sender.Send(request); err != nil {
		return err
	}

	p.mu.Lock()
	p.entries = make(map[uint8]ProductInfoEntry)
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(probeWindow, onExpire)
	p.mu.Unlock()
	return nil
}

// Observe records a PGN 126996 response seen during the probe window
// (spec.md §4.7 step 4). msg must already be known to carry PGN 126996;
// callers filter on msg.PGN before calling.
func (p *Probe) Observe(msg pgn.Message, rtFlag byte) {
	if msg.Source == simulatorSource {
		return
	}
	info, err := decodeProductInfo(msg.Payload)
	if err != nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[msg.Source] = ProductInfoEntry{ModelID: info.ModelID, RTFlag: rtFlag}
}

// Finish is the timer callback: it applies the YDEN/RT-flag verdict and
// clears the collected entries (spec.md §4.7 step 5).
func (p *Probe) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	available := false
	for _, e := range p.entries {
		if strings.Contains(e.ModelID, ydenMarker) && e.RTFlag == 'T' {
			available = true
			break
		}
	}
	p.txAvailable = available
	p.entries = make(map[uint8]ProductInfoEntry)
}

// createISORequest builds a broadcast ISO Request (PGN 59904) asking for
// forPGN, grounded on the teacher's addressmapper.createISORequest.
func createISORequest(forPGN uint32, destination uint8) pgn.Message {
	return pgn.Message{
		Priority:    6,
		PGN:         pgn.ISORequest,
		Source:      canframe.AddressNull,
		Destination: destination,
		Timestamp:   0xFFFFFFFF,
		Payload: []byte{
			uint8(forPGN),
			uint8(forPGN >> 8),
			uint8(forPGN >> 16),
		},
	}
}
