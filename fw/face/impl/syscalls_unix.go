//go:build !wasm && !windows

/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package impl

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// SyscallReuseAddr sets SO_REUSEADDR on the socket, allowing the face
// system to rebind a local address immediately after a face using it is
// torn down (e.g. the same UDP unicast port reused across reconnects).
func SyscallReuseAddr(network string, address string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}

// SyscallGetSocketSendQueueSize returns the number of bytes still queued
// for transmission on the socket (the transport's GetSendQueueSize
// accessor, spec §4.1), via the TIOCOUTQ ioctl.
func SyscallGetSocketSendQueueSize(c syscall.RawConn) uint64 {
	var size int
	err := c.Control(func(fd uintptr) {
		v, ioctlErr := unix.IoctlGetInt(int(fd), unix.TIOCOUTQ)
		if ioctlErr == nil {
			size = v
		}
	})
	if err != nil || size < 0 {
		return 0
	}
	return uint64(size)
}
