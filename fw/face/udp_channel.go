package face

import (
	"fmt"
	"net"
	"time"

	"github.com/ndn-facesys/facesys/fw/core"
	defn "github.com/ndn-facesys/facesys/fw/defn"
	"github.com/ndn-facesys/facesys/fw/face/impl"
	spec_mgmt "github.com/ndn-facesys/facesys/std/ndn/mgmt_2022"
)

// UDPChannel is the Channel for one local UDP unicast bind point. Unlike
// TCP, a single socket both accepts (demultiplexes by source address,
// creating on-demand faces) and is reused as the send path for
// channel-demuxed faces, per the shared-listening-socket model NFD's UDP
// unicast channel uses (original_source/daemon/face/udp-channel.cpp).
// Outgoing Connect always dials its own private socket (unicast-udp-transport.go's
// existing MakeUnicastUDPTransport), since an on-demand incoming face and a
// deliberately-initiated outgoing face have different lifetimes and error
// policy (spec §3).
type UDPChannel struct {
	channelBase
	localURI *defn.URI
	conn     *net.UDPConn
}

// NewUDPChannel constructs a channel bound to localURI (a udp4/udp6
// scheme, numeric host, explicit port).
func NewUDPChannel(localURI *defn.URI) (*UDPChannel, error) {
	localURI.Canonize()
	if !localURI.IsCanonical() || (localURI.Scheme() != "udp4" && localURI.Scheme() != "udp6") {
		return nil, defn.ErrNotCanonical
	}
	return &UDPChannel{channelBase: newChannelBase(), localURI: localURI}, nil
}

func (c *UDPChannel) String() string {
	return fmt.Sprintf("udp-channel (%s)", c.localURI)
}

func (c *UDPChannel) Listen(onFaceCreated func(*Face), onAcceptFailed func(reason string)) error {
	if !c.markListening() {
		return nil
	}

	listenConfig := net.ListenConfig{Control: impl.SyscallReuseAddr}
	addr := net.JoinHostPort(c.localURI.PathHost(), fmt.Sprintf("%d", c.localURI.Port()))
	pc, err := listenConfig.ListenPacket(nil, c.localURI.Scheme(), addr)
	if err != nil {
		return fmt.Errorf("unable to start UDP channel: %w", err)
	}
	c.conn = pc.(*net.UDPConn)

	go c.acceptLoop(onFaceCreated, onAcceptFailed)
	return nil
}

func (c *UDPChannel) acceptLoop(onFaceCreated func(*Face), onAcceptFailed func(reason string)) {
	buf := make([]byte, defn.MaxNDNPacketSize)
	for {
		n, remoteAddr, err := c.conn.ReadFromUDP(buf)
		if err != nil {
			if onAcceptFailed != nil {
				onAcceptFailed(err.Error())
			}
			return
		}

		remoteKey := fmt.Sprintf("%s://%s", c.localURI.Scheme(), remoteAddr.String())
		if existing, ok := c.lookup(remoteKey); ok {
			if t, ok := existing.transport.(*UnicastUDPTransport); ok {
				t.deliverIncoming(append([]byte(nil), buf[:n]...))
			}
			continue
		}

		t := newDemuxedUnicastUDPTransport(c.conn, c.localURI, *remoteAddr)
		core.Log.Info(c, "Accepting new UDP face", "uri", t.RemoteURI())
		options := MakeNDNLPLinkServiceOptions()
		MakeNDNLPLinkService(t, options).Run(func(f *Face) {
			c.register(remoteKey, f)
			if onFaceCreated != nil {
				onFaceCreated(f)
			}
		})
		t.deliverIncoming(append([]byte(nil), buf[:n]...))
	}
}

func (c *UDPChannel) Connect(
	remote *defn.URI,
	persistency spec_mgmt.Persistency,
	onFaceCreated func(*Face),
	onFailed func(code int, reason string),
	timeout time.Duration,
) {
	if existing, ok := c.lookup(remote.String()); ok {
		tryUpgrade(existing, persistency)
		if onFaceCreated != nil {
			onFaceCreated(existing)
		}
		return
	}

	t, err := MakeUnicastUDPTransport(remote, nil, persistency)
	if err != nil {
		if onFailed != nil {
			if err == defn.ErrUnsupportedPersistency {
				onFailed(406, err.Error())
			} else {
				onFailed(500, err.Error())
			}
		}
		return
	}

	core.Log.Info(c, "Connected new UDP face", "uri", t.RemoteURI())
	options := MakeNDNLPLinkServiceOptions()
	MakeNDNLPLinkService(t, options).Run(func(f *Face) {
		c.register(remote.String(), f)
		if onFaceCreated != nil {
			onFaceCreated(f)
		}
	})
}

func (c *UDPChannel) Size() int         { return c.size() }
func (c *UDPChannel) IsListening() bool { return c.isListening() }
func (c *UDPChannel) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}
