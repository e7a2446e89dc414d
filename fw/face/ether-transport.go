package face

import (
	"fmt"
	"net"

	"github.com/ndn-facesys/facesys/fw/core"
	defn "github.com/ndn-facesys/facesys/fw/defn"
	"github.com/ndn-facesys/facesys/fw/face/impl"
	spec_mgmt "github.com/ndn-facesys/facesys/std/ndn/mgmt_2022"
	ndn_io "github.com/ndn-facesys/facesys/std/utils/io"
)

// EtherTransport is a multicast Ethernet transport over a raw AF_PACKET
// socket (linux only - impl.OpenRawEthernetSocket reports an error on
// other platforms, which MakeEtherTransport propagates). Always permanent
// persistency (spec §3: "multicast is always permanent").
type EtherTransport struct {
	transportBase
	conn net.Conn
}

// MakeEtherTransport opens a multicast Ethernet transport on iface, for
// the multicast group mac.
func MakeEtherTransport(iface *net.Interface, mac net.HardwareAddr) (*EtherTransport, error) {
	conn, err := impl.OpenRawEthernetSocket(iface.Index, mac)
	if err != nil {
		return nil, err
	}

	t := &EtherTransport{conn: conn}
	t.makeTransportBase(
		defn.MakeEtherFaceURI(mac),
		defn.MakeEtherFaceURI(iface.HardwareAddr),
		spec_mgmt.PersistencyPermanent,
		defn.NonLocal, defn.MultiAccess,
		defn.MaxNDNPacketSize)
	t.setState(TransportUp, "")
	return t, nil
}

func (t *EtherTransport) String() string {
	return fmt.Sprintf("ether-transport (faceid=%d remote=%s local=%s)", t.faceID, t.remoteURI, t.localURI)
}

// SetPersistency accepts only permanent: multicast Ethernet is always permanent.
func (t *EtherTransport) SetPersistency(persistency spec_mgmt.Persistency) bool {
	return persistency == spec_mgmt.PersistencyPermanent
}

func (t *EtherTransport) GetSendQueueSize() uint64 { return 0 }

func (t *EtherTransport) sendFrame(frame []byte) {
	if !t.running.Load() {
		return
	}
	if len(frame) > t.MTU() {
		core.Log.Warn(t, "Attempted to send frame larger than MTU")
		return
	}
	if _, err := t.conn.Write(frame); err != nil {
		core.Log.Warn(t, "Unable to send on socket", "err", err)
		return
	}
	t.nOutBytes += uint64(len(frame))
}

// runReceive reads frames via the datagram framing rule of spec §4.1: one
// top-level TLV per frame, dropped with a warning (not a transport
// failure) if it doesn't parse. A terminal read error closes the face;
// nothing reopens it automatically.
func (t *EtherTransport) runReceive() {
	defer t.Close()
	err := ndn_io.ReadTlvStream(t.conn, func(b []byte) bool {
		t.nInBytes += uint64(len(b))
		t.linkService.handleIncomingFrame(b)
		return true
	}, nil)
	if err != nil && t.running.Load() {
		core.Log.Warn(t, "Ethernet transport read error - Face closing", "err", err)
	}
}

func (t *EtherTransport) Close() {
	t.closeAs(TransportClosing, "closed locally", func() { t.conn.Close() })
}
