//go:build !tinygo

package face

import (
	"fmt"
	"net"

	"github.com/gorilla/websocket"
	"github.com/ndn-facesys/facesys/fw/core"
	defn "github.com/ndn-facesys/facesys/fw/defn"
	spec_mgmt "github.com/ndn-facesys/facesys/std/ndn/mgmt_2022"
)

// WebSocketTransport communicates with web applications via WebSocket.
type WebSocketTransport struct {
	transportBase
	c *websocket.Conn
}

// Constructs a WebSocket-based transport for Named Data Networking (NDN) communication, initializing remote and local URIs, determining network scope (local or non-local), and configuring transport parameters such as persistency, link kind, and maximum packet size.
func NewWebSocketTransport(localURI *defn.URI, c *websocket.Conn) (t *WebSocketTransport) {
	remoteURI := defn.MakeWebSocketClientFaceURI(c.RemoteAddr())

	scope := defn.NonLocal
	ip := net.ParseIP(remoteURI.PathHost())
	if ip != nil && ip.IsLoopback() {
		scope = defn.Local
	}

	t = &WebSocketTransport{c: c}
	t.makeTransportBase(remoteURI, localURI, spec_mgmt.PersistencyOnDemand, scope, defn.PointToPoint, defn.MaxNDNPacketSize)
	t.setState(TransportUp, "")

	return t
}

// MakeWebSocketClientTransport dials out to a remote wsclient/ws endpoint
// (spec §6: "wsclient" is a valid outgoing scheme), the Connect-side
// counterpart to NewWebSocketTransport's accept-side construction.
func MakeWebSocketClientTransport(remoteURI *defn.URI, persistency spec_mgmt.Persistency) (*WebSocketTransport, error) {
	if persistency != spec_mgmt.PersistencyOnDemand && persistency != spec_mgmt.PersistencyPersistent {
		return nil, defn.ErrUnsupportedPersistency
	}

	scheme := "ws"
	if remoteURI.Scheme() == "wsclient" {
		scheme = "ws"
	}
	addr := net.JoinHostPort(remoteURI.PathHost(), fmt.Sprintf("%d", remoteURI.Port()))
	dialURL := fmt.Sprintf("%s://%s", scheme, addr)

	c, _, err := websocket.DefaultDialer.Dial(dialURL, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to remote endpoint: %w", err)
	}

	localURI := defn.DecodeURIString("wsclient://" + c.LocalAddr().String())
	scopeIP := net.ParseIP(remoteURI.PathHost())

	t := &WebSocketTransport{c: c}
	t.makeTransportBase(remoteURI, localURI, persistency, defn.NonLocal, defn.PointToPoint, defn.MaxNDNPacketSize)
	if scopeIP != nil && scopeIP.IsLoopback() {
		t.scope = defn.Local
	}
	t.setState(TransportUp, "")

	return t, nil
}

// Returns a string representation of the WebSocket transport including its face ID, remote URI, and local URI.
func (t *WebSocketTransport) String() string {
	return fmt.Sprintf("web-socket-transport (faceid=%d remote=%s local=%s)", t.faceID, t.remoteURI, t.localURI)
}

// SetPersistency rejects permanent (no reconnect protocol for a WebSocket
// client endpoint); on-demand and persistent are accepted and applied.
func (t *WebSocketTransport) SetPersistency(persistency spec_mgmt.Persistency) bool {
	if persistency == spec_mgmt.PersistencyPermanent {
		return false
	}
	t.persistency = persistency
	return true
}

// Returns the number of packets currently in the send queue waiting to be transmitted over the WebSocket connection.
func (t *WebSocketTransport) GetSendQueueSize() uint64 {
	return 0
}

// Sends a binary frame over a WebSocket connection if the transport is active and the frame size is within the MTU limit, handling errors by closing the connection and tracking total output bytes.
func (t *WebSocketTransport) sendFrame(frame []byte) {
	if !t.running.Load() {
		return
	}

	if len(frame) > t.MTU() {
		core.Log.Warn(t, "Attempted to send frame larger than MTU")
		return
	}

	e := t.c.WriteMessage(websocket.BinaryMessage, frame)
	if e != nil {
		t.closeAs(TransportFailed, "Unable to send on socket - Face DOWN", func() { t.c.Close() })
		return
	}

	t.nOutBytes += uint64(len(frame))
}

// Handles incoming WebSocket messages by validating their type and size, processes valid binary NDN packets through the link service, and terminates the connection on errors or closure.
func (t *WebSocketTransport) runReceive() {
	defer t.Close()

	for {
		mt, message, err := t.c.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err) {
				t.closeAs(TransportClosing, "WebSocket closed by peer", func() { t.c.Close() })
			} else if websocket.IsUnexpectedCloseError(err) {
				t.closeAs(TransportFailed, fmt.Sprintf("WebSocket closed unexpectedly: %v", err), func() { t.c.Close() })
			} else {
				t.closeAs(TransportFailed, fmt.Sprintf("Unable to read from WebSocket: %v", err), func() { t.c.Close() })
			}
			return
		}

		if mt != websocket.BinaryMessage {
			core.Log.Warn(t, "Ignored non-binary message")
			continue
		}

		if len(message) > defn.MaxNDNPacketSize {
			core.Log.Warn(t, "Received too much data without valid TLV block")
			continue
		}

		t.nInBytes += uint64(len(message))
		t.linkService.handleIncomingFrame(message)
	}
}

// Closes the WebSocket transport by stopping its operation and terminating the underlying WebSocket connection.
func (t *WebSocketTransport) Close() {
	t.closeAs(TransportClosing, "closed locally", func() { t.c.Close() })
}
