//go:build !linux

package impl

import (
	"fmt"
	"net"
)

// NdnEtherType mirrors the linux build's constant for callers that only
// need it for logging/comparison on this platform.
const NdnEtherType = 0x8624

// OpenRawEthernetSocket is unsupported outside Linux: AF_PACKET is a
// Linux-specific socket family (original_source/daemon/face/ethernet-
// transport.hpp assumes a raw-capture API this module has no portable
// equivalent for on BSD/Darwin/Windows).
func OpenRawEthernetSocket(ifaceIndex int, mcastMAC net.HardwareAddr) (net.Conn, error) {
	return nil, fmt.Errorf("ethernet raw sockets are only supported on linux")
}
