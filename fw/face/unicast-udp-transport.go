/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ndn-facesys/facesys/fw/core"
	defn "github.com/ndn-facesys/facesys/fw/defn"
	"github.com/ndn-facesys/facesys/fw/face/impl"
	spec_mgmt "github.com/ndn-facesys/facesys/std/ndn/mgmt_2022"
	ndn_io "github.com/ndn-facesys/facesys/std/utils/io"
)

// UnicastUDPTransport is a unicast UDP transport.
type UnicastUDPTransport struct {
	dialer     *net.Dialer
	conn       *net.UDPConn
	localAddr  net.UDPAddr
	remoteAddr net.UDPAddr
	transportBase

	// demuxed is true for a face created by UDPChannel's shared listening
	// socket: its own runReceive must not read the (unshared) conn, since
	// the channel delivers datagrams to it directly via deliverIncoming.
	demuxed bool

	// idle-reap bookkeeping for on-demand faces (spec §4.1).
	idleUsed    atomic.Bool
	cancelIdle  func()
}

// MakeUnicastUDPTransport creates a new unicast UDP transport.
func MakeUnicastUDPTransport(
	remoteURI *defn.URI,
	localURI *defn.URI,
	persistency spec_mgmt.Persistency,
) (*UnicastUDPTransport, error) {
	// Validate remote URI
	if remoteURI == nil || !remoteURI.IsCanonical() || (remoteURI.Scheme() != "udp4" && remoteURI.Scheme() != "udp6") {
		return nil, defn.ErrNotCanonical
	}

	// Validate local URI
	if localURI != nil && (!localURI.IsCanonical() || remoteURI.Scheme() != localURI.Scheme()) {
		return nil, defn.ErrNotCanonical
	}

	// Outgoing unicast UDP faces are never on-demand (spec §3: "UDP unicast
	// rejects on-demand for outgoing").
	if persistency == spec_mgmt.PersistencyOnDemand {
		return nil, defn.ErrUnsupportedPersistency
	}

	// Construct transport
	t := new(UnicastUDPTransport)
	t.makeTransportBase(
		remoteURI, localURI, persistency,
		defn.NonLocal, defn.PointToPoint,
		CfgUDPDefaultMtu())
	t.expirationTime = new(time.Time)
	*t.expirationTime = time.Now().Add(CfgUDPLifetime())

	// Set scope
	ip := net.ParseIP(remoteURI.Path())
	if ip.IsLoopback() {
		t.scope = defn.Local
	} else {
		t.scope = defn.NonLocal
	}

	// Set local and remote addresses
	if localURI != nil {
		t.localAddr.IP = net.ParseIP(localURI.Path())
		t.localAddr.Port = int(localURI.Port())
	} else {
		t.localAddr.Port = CfgUDPUnicastPort()
	}
	t.remoteAddr.IP = net.ParseIP(remoteURI.Path())
	t.remoteAddr.Port = int(remoteURI.Port())

	// Configure dialer so we can allow address reuse
	// Unlike TCP, we don't need to do this in a separate goroutine because
	// we don't need to wait for the connection to be established
	t.dialer = &net.Dialer{LocalAddr: &t.localAddr, Control: impl.SyscallReuseAddr}
	remote := net.JoinHostPort(t.remoteURI.Path(), strconv.Itoa(int(t.remoteURI.Port())))
	conn, err := t.dialer.Dial(t.remoteURI.Scheme(), remote)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to remote endpoint: %w", err)
	}

	t.conn = conn.(*net.UDPConn)
	t.setState(TransportUp, "")

	if localURI == nil {
		t.localAddr = *t.conn.LocalAddr().(*net.UDPAddr)
		t.localURI = defn.DecodeURIString("udp://" + t.localAddr.String())
	}

	return t, nil
}

// newDemuxedUnicastUDPTransport wraps an on-demand face created by
// UDPChannel's shared listening socket on first datagram from a new
// source. It shares conn with the channel (for WriteToUDP sends) instead
// of dialing a private socket, and relies on the channel's read loop to
// call deliverIncoming rather than running its own runReceive.
func newDemuxedUnicastUDPTransport(conn *net.UDPConn, localURI *defn.URI, remoteAddr net.UDPAddr) *UnicastUDPTransport {
	remoteURI := defn.DecodeURIString(fmt.Sprintf("%s://%s", localURI.Scheme(), remoteAddr.String()))
	remoteURI.Canonize()

	t := &UnicastUDPTransport{conn: conn, remoteAddr: remoteAddr, demuxed: true}
	t.makeTransportBase(remoteURI, localURI, spec_mgmt.PersistencyOnDemand, defn.NonLocal, defn.PointToPoint, CfgUDPDefaultMtu())
	if remoteAddr.IP.IsLoopback() {
		t.scope = defn.Local
	}
	t.expirationTime = new(time.Time)
	*t.expirationTime = time.Now().Add(CfgUDPLifetime())
	t.setState(TransportUp, "")
	t.startIdleReap(CfgUDPLifetime())
	return t
}

// Returns a string representation of the UnicastUDPTransport containing its face ID, remote URI, and local URI in the format "unicast-udp-transport (face=ID remote=ADDR local=ADDR)".
func (t *UnicastUDPTransport) String() string {
	return fmt.Sprintf("unicast-udp-transport (face=%d remote=%s local=%s)", t.faceID, t.remoteURI, t.localURI)
}

// Sets the persistency level of the UnicastUDPTransport to the specified value.
func (t *UnicastUDPTransport) SetPersistency(persistency spec_mgmt.Persistency) bool {
	t.persistency = persistency
	return true
}

// Returns the current size of the send queue for the UDP socket, using a system call to retrieve the socket's queued data size and logging any errors encountered during the process.
func (t *UnicastUDPTransport) GetSendQueueSize() uint64 {
	rawConn, err := t.conn.SyscallConn()
	if err != nil {
		core.Log.Warn(t, "Unable to get raw connection to get socket length", "err", err)
	}
	return impl.SyscallGetSocketSendQueueSize(rawConn)
}

// Sends a UDP frame over the transport if running, enforces MTU limits, handles transmission errors through fail (which closes the face unless it is permanent), and updates byte counters and expiration time for active connections.
func (t *UnicastUDPTransport) sendFrame(frame []byte) {
	if !t.running.Load() {
		return
	}

	if len(frame) > t.MTU() {
		core.Log.Error(t, "Attempted to send frame larger than MTU",
			"size", len(frame), "MTU", t.MTU())
		return
	}

	var err error
	if t.demuxed {
		_, err = t.conn.WriteToUDP(frame, &t.remoteAddr)
	} else {
		_, err = t.conn.Write(frame)
	}
	if err != nil {
		t.fail("Unable to send on socket - Face DOWN")
		return
	}

	t.nOutBytes += uint64(len(frame))
	*t.expirationTime = time.Now().Add(CfgUDPLifetime())
}

// deliverIncoming hands a datagram already read from UDPChannel's shared
// listening socket to this face, for a face the channel demultiplexed by
// source address instead of owning a private receive socket.
func (t *UnicastUDPTransport) deliverIncoming(b []byte) {
	t.nInBytes += uint64(len(b))
	*t.expirationTime = time.Now().Add(CfgUDPLifetime())
	t.idleUsed.Store(true)
	t.linkService.handleIncomingFrame(b)
}

// startIdleReap begins the used-recently check cycle of spec §4.1 for an
// on-demand face: a periodic timer, period = timeout, closes the face if
// it observes the flag still clear, otherwise clears it and reschedules.
// The initial check is deferred by one period.
func (t *UnicastUDPTransport) startIdleReap(timeout time.Duration) {
	if t.persistency != spec_mgmt.PersistencyOnDemand {
		return
	}
	var check func()
	check = func() {
		if t.State() != TransportUp && t.State() != TransportDown {
			return
		}
		if !t.idleUsed.CompareAndSwap(true, false) {
			t.Close()
			return
		}
		t.cancelIdle = core.Clock.Schedule(timeout, check)
	}
	t.cancelIdle = core.Clock.Schedule(timeout, check)
}

// This function runs a UDP receiver loop for the UnicastUDPTransport, processing incoming NDN packets by updating byte counters, resetting the transport's expiration time, and forwarding frames to the link service, while handling UDP-specific errors and marking the face down on unrecoverable failures.
func (t *UnicastUDPTransport) runReceive() {
	if t.demuxed {
		return
	}
	defer t.Close()

	err := ndn_io.ReadTlvStream(t.conn, func(b []byte) bool {
		t.nInBytes += uint64(len(b))
		*t.expirationTime = time.Now().Add(CfgUDPLifetime())
		t.linkService.handleIncomingFrame(b)
		return true
	}, func(err error) bool {
		// Ignore since UDP is a connectionless protocol
		// This happens if the other side is not listening (ICMP)
		return strings.Contains(err.Error(), "connection refused")
	})
	if err != nil && t.running.Load() {
		t.fail(fmt.Sprintf("Unable to read from socket - Face DOWN: %v", err))
	}
}

// fail applies the per-persistency error policy of spec §4.1: a permanent
// unicast face ignores I/O errors and stays UP (see the open question on
// permanent UDP unicast in spec §9 - there is no reconnect protocol for a
// connectionless transport, so the face just keeps dropping until the path
// heals); an on-demand or persistent face fails and is torn down.
func (t *UnicastUDPTransport) fail(reason string) {
	if t.persistency == spec_mgmt.PersistencyPermanent {
		core.Log.Warn(t, reason)
		return
	}
	t.closeAs(TransportFailed, reason, func() { t.conn.Close() })
}

// Closes the transport's UDP connection and atomically marks the transport as stopped, ensuring the operation occurs only if the transport was previously running.
func (t *UnicastUDPTransport) Close() {
	t.closeAs(TransportClosing, "closed locally", func() {
		if t.cancelIdle != nil {
			t.cancelIdle()
		}
		if !t.demuxed {
			t.conn.Close()
		}
	})
}
