package transport

import (
	"context"
	"fmt"
	"net"
	"strings"

	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"
)

// udpConn adapts a UDP input socket plus a separate output socket into the
// single Read/Write/Close surface Endpoint expects, since spec.md §4.1's
// UDP mode listens on ANY:port but sends from a distinct ephemeral-port
// socket.
type udpConn struct {
	in  *net.UDPConn
	out *net.UDPConn
	dst *net.UDPAddr
}

func (c *udpConn) Read(b []byte) (int, error) {
	n, _, err := c.in.ReadFromUDP(b)
	return n, err
}

func (c *udpConn) Write(b []byte) (int, error) {
	return c.out.WriteToUDP(b, c.dst)
}

func (c *udpConn) Close() error {
	err1 := c.in.Close()
	err2 := c.out.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

func isMulticast(host string) bool {
	ip := net.ParseIP(host)
	return ip != nil && ip.IsMulticast()
}

// isDirectedBroadcast reports whether addr ends in ".255", spec.md §4.1's
// trigger for enabling SO_BROADCAST on the output socket.
func isDirectedBroadcast(host string) bool {
	return strings.HasSuffix(host, ".255")
}

func (e *Endpoint) openUDP(ctx context.Context) error {
	host := e.cfg.NetworkAddress
	port := e.cfg.NetworkPort

	inAddr := &net.UDPAddr{IP: net.IPv4zero, Port: port}
	in, err := net.ListenUDP("udp4", inAddr)
	if err != nil {
		return fmt.Errorf("transport: listen udp %d: %w", port, err)
	}

	var pc *ipv4.PacketConn
	var group *net.UDPAddr
	if isMulticast(host) {
		pc = ipv4.NewPacketConn(in)
		group = &net.UDPAddr{IP: net.ParseIP(host)}
		if err := pc.JoinGroup(nil, group); err != nil {
			in.Close()
			return fmt.Errorf("transport: join multicast group %s: %w", host, err)
		}
	}

	out, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		in.Close()
		return fmt.Errorf("transport: open output socket: %w", err)
	}
	if isDirectedBroadcast(host) {
		if err := setBroadcast(out); err != nil {
			in.Close()
			out.Close()
			return fmt.Errorf("transport: set SO_BROADCAST: %w", err)
		}
	}

	conn := &udpConn{in: in, out: out, dst: &net.UDPAddr{IP: net.ParseIP(host), Port: port}}

	e.mu.Lock()
	e.packetConn = pc
	e.group = group
	e.mu.Unlock()

	e.setConn(conn)
	e.onConnected()
	go e.readLoop(conn)
	return nil
}

// setBroadcast enables SO_BROADCAST on conn's underlying file descriptor,
// grounded on the teacher's socketcan.Connection pattern of reaching
// through to raw socket options via golang.org/x/sys/unix.
func setBroadcast(conn *net.UDPConn) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	err = raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}

// leaveMulticast is called from Close to release group membership before
// dropping the socket (spec.md §5 cancellation: "multicast group leave if
// joined").
func (e *Endpoint) leaveMulticast() {
	e.mu.Lock()
	pc := e.packetConn
	group := e.group
	e.mu.Unlock()
	if pc != nil && group != nil {
		pc.LeaveGroup(nil, group)
	}
}
