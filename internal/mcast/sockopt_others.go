//go:build !unix

package mcast

import "syscall"

// Socket options are left at their defaults on this platform.
func receiveControl(readBufferSize int) func(network, address string, c syscall.RawConn) error {
	return nil
}
