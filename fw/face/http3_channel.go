//go:build !tinygo

package face

import (
	"time"

	defn "github.com/ndn-facesys/facesys/fw/defn"
	spec_mgmt "github.com/ndn-facesys/facesys/std/ndn/mgmt_2022"
)

// HTTP3Channel is the Channel for a local HTTP/3 WebTransport bind point.
// Like Unix stream, it is incoming-only: the pack carries no WebTransport
// client-dial capability (session establishment needs an http3.RoundTripper
// and QUIC session setup well beyond what any teacher file does), and NDN's
// WebTransport usage is consistently browser-initiated in practice.
type HTTP3Channel struct {
	channelBase
	listener *HTTP3Listener
}

// NewHTTP3Channel constructs a channel around a configured listener.
func NewHTTP3Channel(cfg HTTP3ListenerConfig) (*HTTP3Channel, error) {
	l, err := NewHTTP3Listener(cfg)
	if err != nil {
		return nil, err
	}
	return &HTTP3Channel{channelBase: newChannelBase(), listener: l}, nil
}

func (c *HTTP3Channel) String() string {
	return c.listener.String()
}

func (c *HTTP3Channel) Listen(onFaceCreated func(*Face), onAcceptFailed func(reason string)) error {
	if !c.markListening() {
		return nil
	}
	c.listener.onFaceCreated = func(f *Face) {
		c.register(f.RemoteURI().String(), f)
		if onFaceCreated != nil {
			onFaceCreated(f)
		}
	}
	go c.listener.Run()
	return nil
}

// Connect is unsupported: HTTP/3 WebTransport faces are always
// server-accepted (see the HTTP3Channel doc comment).
func (c *HTTP3Channel) Connect(
	remote *defn.URI,
	persistency spec_mgmt.Persistency,
	onFaceCreated func(*Face),
	onFailed func(code int, reason string),
	timeout time.Duration,
) {
	if onFailed != nil {
		onFailed(406, "http3 channel only accepts incoming WebTransport sessions")
	}
}

func (c *HTTP3Channel) Size() int         { return c.size() }
func (c *HTTP3Channel) IsListening() bool { return c.isListening() }
func (c *HTTP3Channel) Close()            { c.listener.Close() }
