//go:build windows

/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package impl

import (
	"syscall"

	"golang.org/x/sys/windows"
)

// SyscallReuseAddr sets SO_REUSEADDR on the socket. Windows' SO_REUSEADDR
// permits rebinding an in-use address outright, so no SO_REUSEPORT
// equivalent is needed here.
func SyscallReuseAddr(network string, address string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}

// SyscallGetSocketSendQueueSize is not implemented on Windows; the x/sys
// package exposes no portable ioctl for the outbound queue depth.
func SyscallGetSocketSendQueueSize(c syscall.RawConn) uint64 {
	return 0
}
