//go:build !windows

// Package netutil tunes the kernel socket buffers backing the transfer's
// UDP socket so that a large configured window isn't bottlenecked by the
// default buffer size.
package netutil

import (
	"net"

	"golang.org/x/sys/unix"
)

// TuneBuffers sets SO_RCVBUF and SO_SNDBUF on conn to at least size
// bytes, matching the configured window so the kernel doesn't drop
// datagrams the engine is prepared to buffer itself.
func TuneBuffers(conn *net.UDPConn, size int) error {
	sc, err := conn.SyscallConn()
	if err != nil {
		return err
	}

	var sockErr error
	err = sc.Control(func(fd uintptr) {
		if e := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, size); e != nil {
			sockErr = e
			return
		}
		if e := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF, size); e != nil {
			sockErr = e
			return
		}
	})
	if err != nil {
		return err
	}
	return sockErr
}
