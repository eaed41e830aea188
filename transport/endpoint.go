// Package transport implements the driver's network endpoint (spec.md
// §4.1): TCP client/server and UDP sockets, a 1 Hz data-presence watchdog,
// and reconnect backoff, grounded on the teacher's socketcan.Connection
// raw-socket-option idiom and cmd/n2kreader's net.Dialer usage.
package transport

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"go.uber.org/atomic"
	"golang.org/x/net/ipv4"
)

// Protocol selects the transport's wire-level socket kind.
type Protocol uint8

const (
	TCP Protocol = iota
	UDP
	GPSD
)

// EventKind tags an Event delivered from the endpoint to its owner.
type EventKind uint8

const (
	Connected EventKind = iota
	Input
	Lost
)

// Event is the tagged variant spec.md §4.1 names on_event(kind, bytes?) -
// Connected and Lost carry no payload, Input carries the bytes just read.
type Event struct {
	Kind EventKind
	Data []byte
}

// NDogTimeout is the data-presence watchdog's reset value in seconds
// (spec.md §4.1.1).
const NDogTimeout = 8

// Config mirrors spec.md §6's external configuration surface.
type Config struct {
	NetworkAddress  string
	NetworkPort     int
	Protocol        Protocol
	NoDataReconnect bool
	// Server selects TCP listen+accept instead of TCP dial. Unused for UDP.
	Server bool
	// UserComment is carried through unmodified; it has no behavioral effect.
	UserComment string
}

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("transport: endpoint closed")

// Endpoint owns one physical connection plus its watchdog and reconnect
// policy. The zero value is not usable; construct with New.
type Endpoint struct {
	cfg Config
	now func() time.Time

	mu     sync.Mutex
	conn   netConn
	closed bool

	events chan Event

	watchdog *watchdog

	rxBytes   atomic.Uint64
	txBytes   atomic.Uint64
	available atomic.Bool

	reconnectMu     sync.Mutex
	reconnectCancel context.CancelFunc

	listener   net.Listener
	udpOut     *net.UDPConn
	packetConn *ipv4.PacketConn
	group      *net.UDPAddr
}

// netConn is the minimal surface Endpoint needs from a connected socket -
// satisfied by both *net.TCPConn and the UDP input/output pair wrapper.
type netConn interface {
	Read(b []byte) (int, error)
	Write(b []byte) (int, error)
	Close() error
}

// New creates an Endpoint in the closed state. Call Open to start it.
func New(cfg Config) *Endpoint {
	e := &Endpoint{
		cfg:    cfg,
		now:    time.Now,
		events: make(chan Event, 64),
	}
	if cfg.NoDataReconnect {
		e.watchdog = newWatchdog(NDogTimeout, e.onWatchdogExpired)
	}
	return e
}

// Open starts the endpoint: dials out (TCP client), binds and accepts (TCP
// server), or binds/joins (UDP). It returns once the first attempt settles;
// subsequent reconnects happen in the background and are reported via
// Events.
func (e *Endpoint) Open(ctx context.Context) error {
	return e.open(ctx)
}

func (e *Endpoint) open(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.mu.Unlock()

	switch e.cfg.Protocol {
	case TCP:
		return e.openTCP(ctx)
	case UDP:
		return e.openUDP(ctx)
	default:
		return errors.New("transport: unsupported protocol")
	}
}

// Events returns the channel Connected/Input/Lost events are delivered on.
// The owner's event loop is expected to drain it; Open does not block.
func (e *Endpoint) Events() <-chan Event {
	return e.events
}

// Available reports whether the endpoint currently believes the transport
// is usable (spec.md §6 statistics surface "available" field).
func (e *Endpoint) Available() bool {
	return e.available.Load()
}

// Stats is a snapshot of the counters spec.md §6 says the host polls every
// 2 seconds.
type Stats struct {
	RxByteCount uint64
	TxByteCount uint64
	Available   bool
}

func (e *Endpoint) Stats() Stats {
	return Stats{
		RxByteCount: e.rxBytes.Load(),
		TxByteCount: e.txBytes.Load(),
		Available:   e.Available(),
	}
}

func (e *Endpoint) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
		// owner fell behind; dropping an event is preferable to blocking
		// the reader goroutine and stalling the socket.
	}
}

func (e *Endpoint) setConn(c netConn) {
	e.mu.Lock()
	e.conn = c
	e.mu.Unlock()
}

func (e *Endpoint) closeConn() {
	e.mu.Lock()
	c := e.conn
	e.conn = nil
	e.mu.Unlock()
	if c != nil {
		c.Close()
	}
}

// Write sends b on the current connection, tracking tx_byte_count. A write
// failure on TCP closes the socket and schedules a reconnect in 5s (spec.md
// §7); UDP has no connected peer to lose so write errors are returned
// as-is.
func (e *Endpoint) Write(b []byte) error {
	e.mu.Lock()
	closed := e.closed
	c := e.conn
	e.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if c == nil {
		return errors.New("transport: not connected")
	}

	n, err := c.Write(b)
	e.txBytes.Add(uint64(n))
	if err != nil && e.cfg.Protocol == TCP {
		e.available.Store(false)
		e.closeConn()
		e.emit(Event{Kind: Lost})
		e.scheduleReconnect(5 * time.Second)
	}
	return err
}

// onInput is called by the reader goroutine for every successful read.
func (e *Endpoint) onInput(b []byte) {
	e.rxBytes.Add(uint64(len(b)))
	if e.watchdog != nil {
		e.watchdog.reset()
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	e.emit(Event{Kind: Input, Data: cp})
}

func (e *Endpoint) onConnected() {
	e.available.Store(true)
	if e.watchdog != nil {
		e.watchdog.start()
	}
	e.emit(Event{Kind: Connected})
}

func (e *Endpoint) onWatchdogExpired() {
	if e.cfg.Protocol != TCP {
		return
	}
	e.available.Store(false)
	e.closeConn()
	if e.watchdog != nil {
		e.watchdog.stop()
	}
	e.emit(Event{Kind: Lost})
	e.scheduleReconnect(time.Duration(reconnectSeconds(NDogTimeout)) * time.Second)
}

// reconnectSeconds implements spec.md §4.1's max(N_DOG_TIMEOUT-2, 2).
func reconnectSeconds(dogTimeout int) int {
	d := dogTimeout - 2
	if d < 2 {
		d = 2
	}
	return d
}

// HandleResume runs the same close-and-reconnect path the watchdog timeout
// runs, unconditionally (spec.md §4.1.1 "On system-resume event").
func (e *Endpoint) HandleResume() {
	e.available.Store(false)
	e.closeConn()
	if e.watchdog != nil {
		e.watchdog.stop()
	}
	e.emit(Event{Kind: Lost})
	e.scheduleReconnect(time.Duration(reconnectSeconds(NDogTimeout)) * time.Second)
}

// Close stops the watchdog and any pending reconnect, releases multicast
// group membership if any was joined, and drops the socket.
func (e *Endpoint) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	if e.watchdog != nil {
		e.watchdog.stop()
	}
	e.cancelReconnect()
	e.leaveMulticast()
	e.closeConn()
	return nil
}
