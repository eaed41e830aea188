package gateway

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sailgo/n2k-gateway/pgn"
	"github.com/sailgo/n2k-gateway/transport"
)

type recordingListener struct {
	ch chan pgn.Message
}

func newRecordingListener() *recordingListener {
	return &recordingListener{ch: make(chan pgn.Message, 16)}
}

func (l *recordingListener) Notify(msg pgn.Message) {
	l.ch <- msg
}

func quietLogger() *logrus.Entry {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return logrus.NewEntry(log)
}

func TestDriver_MiniPlexLineProducesTwoNotifications(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	cfg := Config{NetworkAddress: "127.0.0.1", NetworkPort: addr.Port, Protocol: transport.TCP}
	d := New(cfg, quietLogger())
	listener := newRecordingListener()
	d.AddListener(listener)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- d.Run(ctx) }()
	defer d.Close()

	conn := <-accepted
	defer conn.Close()

	line := "$MXPGN,01F119,3816,FFFAAF01A3FDE301*14\r\n"
	if _, err := conn.Write([]byte(line)); err != nil {
		t.Fatalf("write: %v", err)
	}

	var got []pgn.Message
	deadline := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case msg := <-listener.ch:
			got = append(got, msg)
		case <-deadline:
			t.Fatalf("timed out waiting for notifications, got %d", len(got))
		}
	}

	if got[0].PGN != 0x1F119 {
		t.Errorf("first notification PGN = %#x, want 0x1F119", got[0].PGN)
	}
	if got[1].PGN != pgn.Wildcard {
		t.Errorf("second notification PGN = %d, want wildcard %d", got[1].PGN, pgn.Wildcard)
	}
}

func TestDriver_SendWithoutKnownFormatIsNoop(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go ln.Accept()

	addr := ln.Addr().(*net.TCPAddr)
	cfg := Config{NetworkAddress: "127.0.0.1", NetworkPort: addr.Port, Protocol: transport.TCP}
	d := New(cfg, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)
	defer d.Close()

	msg := pgn.Message{PGN: 59904, Priority: 6, Destination: 0xFF, Source: 0xFE, Payload: []byte{1, 2, 3}}
	if err := d.Send(msg); err != nil {
		t.Errorf("Send before format known: %v", err)
	}
}

func TestDriver_ReentrantSendIsRejected(t *testing.T) {
	d := New(Config{NetworkAddress: "127.0.0.1", NetworkPort: 0, Protocol: transport.TCP}, quietLogger())
	d.txGuard.Store(true)
	msg := pgn.Message{PGN: 59904}
	if err := d.Send(msg); err == nil {
		t.Error("expected an error for a reentrant Send while txGuard is held")
	}
	d.txGuard.Store(false)
}

func TestDriver_StatsReflectsTransport(t *testing.T) {
	d := New(Config{NetworkAddress: "127.0.0.1", NetworkPort: 12345, Protocol: transport.TCP}, quietLogger())
	stats := d.Stats()
	if stats.Bus != "N2K" {
		t.Errorf("Bus = %q, want N2K", stats.Bus)
	}
	if stats.Available {
		t.Error("Available = true before Run/Open")
	}
}
