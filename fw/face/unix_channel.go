package face

import (
	"fmt"
	"time"

	defn "github.com/ndn-facesys/facesys/fw/defn"
	spec_mgmt "github.com/ndn-facesys/facesys/std/ndn/mgmt_2022"
)

// UnixChannel is the Channel for a local Unix stream socket. Incoming
// connections are always on-demand (spec §3: "local-stream incoming is
// always on-demand"); there is no outgoing Connect for this scheme.
type UnixChannel struct {
	channelBase
	listener *UnixListener
}

// NewUnixChannel constructs a channel bound to the given socket path.
func NewUnixChannel(path string) (*UnixChannel, error) {
	l, err := MakeUnixListener(path)
	if err != nil {
		return nil, err
	}
	return &UnixChannel{channelBase: newChannelBase(), listener: l}, nil
}

func (c *UnixChannel) String() string {
	return fmt.Sprintf("unix-channel (%s)", c.listener.localURI)
}

func (c *UnixChannel) Listen(onFaceCreated func(*Face), onAcceptFailed func(reason string)) error {
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

// Connect is unsupported for Unix stream sockets - spec §3: incoming only.
func (c *UnixChannel) Connect(
	remote *defn.URI,
	persistency spec_mgmt.Persistency,
	onFaceCreated func(*Face),
	onFailed func(code int, reason string),
	timeout time.Duration,
) {
	if onFailed != nil {
		onFailed(406, "unix stream channel only accepts incoming connections")
	}
}

func (c *UnixChannel) Size() int         { return c.size() }
func (c *UnixChannel) IsListening() bool { return c.isListening() }
func (c *UnixChannel) Close()            { c.listener.Close() }
