package transport

import (
	"context"
	"fmt"
	"net"
	"time"
)

// tcpSendBuffer is the reduced write buffer spec.md §4.1 calls for so a
// disappeared peer surfaces as a write error within seconds rather than
// being absorbed by a large kernel send buffer.
const tcpSendBuffer = 1024

func (e *Endpoint) openTCP(ctx context.Context) error {
	if e.cfg.Server {
		return e.openTCPServer(ctx)
	}
	return e.openTCPClient(ctx)
}

func (e *Endpoint) openTCPClient(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", e.cfg.NetworkAddress, e.cfg.NetworkPort)
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("transport: dial %s: %w", addr, err)
	}
	e.configureTCPConn(conn.(*net.TCPConn))
	e.setConn(conn)
	e.onConnected()
	go e.readLoop(conn)
	return nil
}

func (e *Endpoint) openTCPServer(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", e.cfg.NetworkAddress, e.cfg.NetworkPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("transport: listen %s: %w", addr, err)
	}
	e.mu.Lock()
	e.listener = ln
	e.mu.Unlock()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	go e.acceptLoop(ln)
	return nil
}

// acceptLoop replaces the active peer socket on every accept; a prior
// accepted socket is closed (spec.md §4.1 "TCP server").
func (e *Endpoint) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		e.closeConn()
		e.configureTCPConn(conn.(*net.TCPConn))
		e.setConn(conn)
		e.onConnected()
		go e.readLoop(conn)
	}
}

func (e *Endpoint) configureTCPConn(conn *net.TCPConn) {
	conn.SetNoDelay(true)
	conn.SetWriteBuffer(tcpSendBuffer)
}

func (e *Endpoint) readLoop(conn netConn) {
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			e.onInput(buf[:n])
		}
		if err != nil {
			e.mu.Lock()
			current := e.conn
			e.mu.Unlock()
			if current != conn {
				// superseded by a newer accepted connection or by Close
				return
			}
			e.available.Store(false)
			e.closeConn()
			if e.watchdog != nil {
				e.watchdog.stop()
			}
			e.emit(Event{Kind: Lost})
			e.scheduleReconnect(time.Duration(reconnectSeconds(NDogTimeout)) * time.Second)
			return
		}
	}
}
