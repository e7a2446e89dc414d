//go:build !tinygo

package face

import (
	"fmt"
	"time"

	"github.com/ndn-facesys/facesys/fw/core"
	defn "github.com/ndn-facesys/facesys/fw/defn"
	spec_mgmt "github.com/ndn-facesys/facesys/std/ndn/mgmt_2022"
)

// WebSocketChannel is the Channel for a local WebSocket bind point. Incoming
// connections are accepted through a WebSocketListener's HTTP upgrade
// handler; outgoing connections dial a "wsclient"/"ws" endpoint (spec §6).
type WebSocketChannel struct {
	channelBase
	listener *WebSocketListener
}

// NewWebSocketChannel constructs a channel around a configured listener.
func NewWebSocketChannel(cfg WebSocketListenerConfig) (*WebSocketChannel, error) {
	l, err := NewWebSocketListener(cfg)
	if err != nil {
		return nil, err
	}
	return &WebSocketChannel{channelBase: newChannelBase(), listener: l}, nil
}

func (c *WebSocketChannel) String() string {
	return fmt.Sprintf("web-socket-channel (%s)", c.listener.localURI)
}

func (c *WebSocketChannel) Listen(onFaceCreated func(*Face), onAcceptFailed func(reason string)) error {
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

func (c *WebSocketChannel) Connect(
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

	go func() {
		t, err := MakeWebSocketClientTransport(remote, persistency)
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

		core.Log.Info(c, "Connected new WebSocket face", "uri", t.RemoteURI())
		options := MakeNDNLPLinkServiceOptions()
		options.IsFragmentationEnabled = false
		MakeNDNLPLinkService(t, options).Run(func(f *Face) {
			c.register(remote.String(), f)
			if onFaceCreated != nil {
				onFaceCreated(f)
			}
		})
	}()
}

func (c *WebSocketChannel) Size() int         { return c.size() }
func (c *WebSocketChannel) IsListening() bool { return c.isListening() }
func (c *WebSocketChannel) Close()            { c.listener.Close() }
