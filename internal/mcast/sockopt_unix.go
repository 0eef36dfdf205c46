//go:build unix

package mcast

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// receiveControl sets SO_REUSEADDR so several receivers can share the group
// port, and requests a larger receive buffer for bursty streams.
func receiveControl(readBufferSize int) func(network, address string, c syscall.RawConn) error {
	return func(network, address string, c syscall.RawConn) error {
		var serr error
		err := c.Control(func(fd uintptr) {
			serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			if serr != nil || readBufferSize <= 0 {
				return
			}
			if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, readBufferSize); err != nil {
				log.Debug("SO_RCVBUF=%d refused: %v", readBufferSize, err)
			}
		})
		if err != nil {
			return err
		}
		return serr
	}
}
