//go:build windows

package netutil

import "net"

// TuneBuffers sets the receive and send buffers of conn to size bytes
// through net.UDPConn's SetReadBuffer and SetWriteBuffer, since the
// golang.org/x/sys/unix socket options don't apply on this platform.
func TuneBuffers(conn *net.UDPConn, size int) error {
	if err := conn.SetReadBuffer(size); err != nil {
		return err
	}
	return conn.SetWriteBuffer(size)
}
