package test_test

import (
	"net"
	"time"
)

// MockConn adapts MockReaderWriter to the net.Conn surface transport tests
// need when they want to exercise a write failure or a canned read sequence
// without a real socket.
type MockConn struct {
	*MockReaderWriter
}

func (m *MockConn) LocalAddr() net.Addr                { return mockAddr{} }
func (m *MockConn) RemoteAddr() net.Addr               { return mockAddr{} }
func (m *MockConn) SetDeadline(t time.Time) error      { return nil }
func (m *MockConn) SetReadDeadline(t time.Time) error  { return nil }
func (m *MockConn) SetWriteDeadline(t time.Time) error { return nil }
func (m *MockConn) Close() error                       { return nil }

type mockAddr struct{}

func (mockAddr) Network() string { return "mock" }
func (mockAddr) String() string  { return "mock" }
