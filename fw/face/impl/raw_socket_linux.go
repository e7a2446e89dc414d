//go:build linux

package impl

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

func htons(v uint16) uint16 {
	return (v << 8) | (v >> 8)
}

// NdnEtherType is the EtherType NDN-over-Ethernet frames use, per
// original_source/daemon/face/ethernet-transport.hpp.
const NdnEtherType = 0x8624

// OpenRawEthernetSocket opens an AF_PACKET/SOCK_DGRAM socket bound to
// ifaceIndex for NdnEtherType traffic and, if mcastMAC is non-nil, joins
// that multicast group on the interface before handing back a net.Conn.
// SOCK_DGRAM strips/fills the Ethernet header automatically, so callers
// exchange bare NDN TLV frames exactly like a UDP datagram transport
// (spec §4.1's datagram framing rule applies unchanged).
func OpenRawEthernetSocket(ifaceIndex int, mcastMAC net.HardwareAddr) (net.Conn, error) {
	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_DGRAM, int(htons(NdnEtherType)))
	if err != nil {
		return nil, fmt.Errorf("socket(AF_PACKET): %w", err)
	}

	addr := unix.SockaddrLinklayer{
		Protocol: htons(NdnEtherType),
		Ifindex:  ifaceIndex,
	}
	if err := unix.Bind(fd, &addr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bind(AF_PACKET): %w", err)
	}

	if mcastMAC != nil {
		mreq := unix.PacketMreq{
			Ifindex: int32(ifaceIndex),
			Type:    unix.PACKET_MR_MULTICAST,
			Alen:    uint16(len(mcastMAC)),
		}
		copy(mreq.Address[:], mcastMAC)
		if err := unix.SetsockoptPacketMreq(fd, unix.SOL_PACKET, unix.PACKET_ADD_MEMBERSHIP, &mreq); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("join multicast group: %w", err)
		}
	}

	f := os.NewFile(uintptr(fd), "raw-ethernet")
	conn, err := net.FileConn(f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("net.FileConn: %w", err)
	}
	return conn, nil
}
