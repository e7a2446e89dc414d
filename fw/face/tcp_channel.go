package face

import (
	"fmt"
	"time"

	"github.com/ndn-facesys/facesys/fw/core"
	defn "github.com/ndn-facesys/facesys/fw/defn"
	spec_mgmt "github.com/ndn-facesys/facesys/std/ndn/mgmt_2022"
)

// TCPChannel is the Channel for one local TCP bind point: it owns a
// TCPListener for the accept path and dials out for Connect, deduplicating
// by remote endpoint per spec §4.4.
type TCPChannel struct {
	channelBase
	localURI *defn.URI
	listener *TCPListener
}

// NewTCPChannel constructs a channel bound to localURI. It does not start
// listening until Listen is called.
func NewTCPChannel(localURI *defn.URI) (*TCPChannel, error) {
	l, err := MakeTCPListener(localURI)
	if err != nil {
		return nil, err
	}
	return &TCPChannel{channelBase: newChannelBase(), localURI: localURI, listener: l}, nil
}

func (c *TCPChannel) String() string {
	return fmt.Sprintf("tcp-channel (%s)", c.localURI)
}

func (c *TCPChannel) Listen(onFaceCreated func(*Face), onAcceptFailed func(reason string)) error {
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

func (c *TCPChannel) Connect(
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
		t, err := MakeUnicastTCPTransport(remote, c.localURI, persistency, timeout)
		if err != nil {
			if onFailed != nil {
				if err == defn.ErrConnectTimeout {
					onFailed(504, "Connect to remote endpoint timed out")
				} else if err == defn.ErrUnsupportedPersistency {
					onFailed(406, err.Error())
				} else {
					onFailed(500, err.Error())
				}
			}
			return
		}

		core.Log.Info(c, "Connected new TCP face", "uri", t.RemoteURI())
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

func (c *TCPChannel) Size() int          { return c.size() }
func (c *TCPChannel) IsListening() bool  { return c.isListening() }
func (c *TCPChannel) Close()             { c.listener.Close() }
