// Package gateway wires the transport endpoint (C1), ring buffer (C2),
// format detector (C3), wire parsers/encoder (C4/C6), fast-packet
// reassembler (C5, inside wireformat.Dispatcher) and gateway probe (C7)
// behind one facade, replacing the teacher's object-inheritance driver base
// with a single struct exposing Send/Close/Stats/HandleResume (spec.md §9).
package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/sailgo/n2k-gateway/internal/utils"
	"github.com/sailgo/n2k-gateway/pgn"
	"github.com/sailgo/n2k-gateway/probe"
	"github.com/sailgo/n2k-gateway/ring"
	"github.com/sailgo/n2k-gateway/transport"
	"github.com/sailgo/n2k-gateway/wireformat"
)

// interFrameDelay is the pause between successive CAN frames of one
// fast-packet TX message (spec.md §5), preventing the gateway from seeing
// back-to-back writes as a single burst.
const interFrameDelay = 2 * time.Millisecond

// parserLogger adapts *logrus.Entry to wireformat.Logger.
type parserLogger struct{ entry *logrus.Entry }

func (l parserLogger) Debugf(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

// Driver is the single event-loop owner spec.md §5 describes: it pumps
// endpoint events into the ring buffer, runs the detector/parser/encoder,
// fans completed messages out to listeners, and guards reentrant sends with
// txGuard (the m_txenter equivalent).
type Driver struct {
	cfg Config
	log *logrus.Entry

	endpoint *transport.Endpoint
	rxRing   *ring.Buffer
	parser   *wireformat.Parser
	encoder  *wireformat.Encoder
	prober   *probe.Probe

	listenersMu sync.Mutex
	listeners   []Listener

	formatMu    sync.Mutex
	format      wireformat.Format
	formatKnown bool

	txGuard atomic.Bool

	cancel context.CancelFunc
}

// New creates a Driver in the closed state; call Run to start its event
// loop.
func New(cfg Config, log *logrus.Entry) *Driver {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	d := &Driver{
		cfg:    cfg,
		log:    log,
		rxRing: ring.New(ring.DefaultCapacity),
		prober: probe.New(),
	}
	d.encoder = wireformat.NewEncoder()
	d.parser = wireformat.NewParser(parserLogger{entry: log})
	d.endpoint = transport.New(transport.Config{
		NetworkAddress:  cfg.NetworkAddress,
		NetworkPort:     cfg.NetworkPort,
		Protocol:        cfg.Protocol,
		NoDataReconnect: cfg.NoDataReconnect,
		Server:          cfg.Server,
		UserComment:     cfg.UserComment,
	})
	return d
}

// AddListener registers l to receive every completed message. Safe to call
// before or after Run.
func (d *Driver) AddListener(l Listener) {
	d.listenersMu.Lock()
	defer d.listenersMu.Unlock()
	d.listeners = append(d.listeners, l)
}

func (d *Driver) notify(msg pgn.Message) {
	d.listenersMu.Lock()
	listeners := make([]Listener, len(d.listeners))
	copy(listeners, d.listeners)
	d.listenersMu.Unlock()

	for _, l := range listeners {
		l.Notify(msg)
	}
	wildcard := msg
	wildcard.PGN = pgn.Wildcard
	for _, l := range listeners {
		l.Notify(wildcard)
	}
}

// Run opens the transport and pumps its events until ctx is cancelled or
// Close is called. It is the single event loop spec.md §5 requires; callers
// should run it in its own goroutine.
func (d *Driver) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.endpoint.Open(ctx); err != nil {
		return fmt.Errorf("gateway: opening transport: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-d.endpoint.Events():
			if !ok {
				return nil
			}
			d.handleEvent(ev)
		}
	}
}

func (d *Driver) handleEvent(ev transport.Event) {
	switch ev.Kind {
	case transport.Connected:
		d.log.Debug("gateway: transport connected")
	case transport.Lost:
		d.log.Debug("gateway: transport lost")
		d.resetFormat()
	case transport.Input:
		d.handleInput(ev.Data)
	}
}

func (d *Driver) resetFormat() {
	d.formatMu.Lock()
	d.formatKnown = false
	d.formatMu.Unlock()
}

func (d *Driver) handleInput(chunk []byte) {
	d.rxRing.Write(chunk)
	buffered := d.rxRing.Drain()
	if len(buffered) == 0 {
		return
	}

	format := wireformat.DetectFormat(buffered)

	d.formatMu.Lock()
	if !d.formatKnown || d.format != format {
		if format != wireformat.Undefined {
			d.format = format
			d.formatKnown = true
			d.log.WithField("format", format.String()).Debug("gateway: detected wire format")
			go d.runProbe(format)
		}
	}
	d.formatMu.Unlock()

	if format == wireformat.Undefined {
		d.log.WithField("raw", utils.FormatSpaces(buffered)).Debug("gateway: dropping chunk of undetected format")
		return
	}

	messages := d.parser.Parse(format, buffered)
	for _, msg := range messages {
		if msg.PGN == pgn.ProductInformation {
			d.prober.Observe(msg, d.parser.LastRTFlag)
		}
		d.notify(msg)
	}
}

func (d *Driver) runProbe(format wireformat.Format) {
	// The ISO Request goes out before the probe has a verdict, so it is
	// written directly instead of through send's TxAvailable gate.
	request := senderFunc(func(msg pgn.Message) error {
		for _, buf := range d.encoder.Encode(msg, msg.Destination, format) {
			if err := d.endpoint.Write(buf); err != nil {
				return fmt.Errorf("gateway: writing probe request: %w", err)
			}
		}
		return nil
	})
	err := d.prober.Run(format, request, d.prober.Finish)
	if err != nil {
		d.log.WithError(err).Debug("gateway: probe broadcast failed")
	}
}

type senderFunc func(msg pgn.Message) error

func (s senderFunc) Send(msg pgn.Message) error { return s(msg) }

// Send encodes and writes msg in the currently detected wire format. It is
// a no-op returning nil if the format is not yet known or the gateway has
// not been probed as TX-capable (spec.md §7 "TX calls are accepted but
// deliver nothing to the wire"). The txGuard compare-and-swap mirrors the
// teacher's m_txenter reentrancy guard: a Send called from inside another
// Send's write (e.g. a listener that reacts synchronously) is dropped
// instead of deadlocking or interleaving partial frames.
func (d *Driver) Send(msg pgn.Message) error {
	if !d.txGuard.CompareAndSwap(false, true) {
		return fmt.Errorf("gateway: send already in progress")
	}
	defer d.txGuard.Store(false)

	return d.send(msg)
}

func (d *Driver) send(msg pgn.Message) error {
	d.formatMu.Lock()
	format, known := d.format, d.formatKnown
	d.formatMu.Unlock()
	if !known {
		return nil
	}
	if !d.prober.TxAvailable() {
		return nil
	}

	buffers := d.encoder.Encode(msg, msg.Destination, format)
	for i, buf := range buffers {
		if err := d.endpoint.Write(buf); err != nil {
			return fmt.Errorf("gateway: writing frame: %w", err)
		}
		if i < len(buffers)-1 {
			time.Sleep(interFrameDelay)
		}
	}
	return nil
}

// Stats returns the statistics surface spec.md §6 says the host polls every
// 2 seconds.
func (d *Driver) Stats() Stats {
	s := d.endpoint.Stats()
	return Stats{
		Bus:         "N2K",
		Iface:       fmt.Sprintf("%s:%d", d.cfg.NetworkAddress, d.cfg.NetworkPort),
		RxByteCount: s.RxByteCount,
		TxByteCount: s.TxByteCount,
		Available:   s.Available,
	}
}

// HandleResume runs the same close-and-reconnect path the watchdog timeout
// runs, in response to a host OS wake-from-sleep event (spec.md §6 "System
// events consumed: resume").
func (d *Driver) HandleResume() {
	d.endpoint.HandleResume()
}

// Close stops the event loop and releases the transport.
func (d *Driver) Close() error {
	if d.cancel != nil {
		d.cancel()
	}
	return d.endpoint.Close()
}
