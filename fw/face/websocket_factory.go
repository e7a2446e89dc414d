//go:build !tinygo

package face

import (
	"fmt"

	"github.com/ndn-facesys/facesys/fw/core"
)

// WebSocketFactory is the ProtocolFactory for the ws/wsclient schemes.
type WebSocketFactory struct {
	ch  *WebSocketChannel
	cfg core.WebSocketConfig
}

func NewWebSocketFactory() *WebSocketFactory { return &WebSocketFactory{} }

func (f *WebSocketFactory) String() string { return "web-socket-factory" }
func (f *WebSocketFactory) ID() string     { return "websocket" }

func (f *WebSocketFactory) ProcessConfig(section any, ctx ProcessConfigContext) error {
	cfg, _ := section.(*core.WebSocketConfig)
	if cfg == nil {
		return nil
	}
	if cfg.Listen && !cfg.EnableV4 && !cfg.EnableV6 {
		return fmt.Errorf("websocket: enable_v4 and enable_v6 cannot both be false when listen is enabled")
	}
	if ctx.IsDryRun {
		return nil
	}

	f.cfg = *cfg
	if !cfg.Listen {
		if f.ch != nil {
			f.ch.Close()
			f.ch = nil
		}
		return nil
	}

	bind := "0.0.0.0"
	if !cfg.EnableV4 && cfg.EnableV6 {
		bind = "::"
	}
	ch, err := NewWebSocketChannel(WebSocketListenerConfig{
		Bind:       bind,
		Port:       cfg.Port,
		TLSEnabled: cfg.TLSCert != "" && cfg.TLSKey != "",
		TLSCert:    cfg.TLSCert,
		TLSKey:     cfg.TLSKey,
	})
	if err != nil {
		return err
	}
	if err := ch.Listen(nil, nil); err != nil {
		return err
	}
	if f.ch != nil {
		f.ch.Close()
	}
	f.ch = ch
	return nil
}

func (f *WebSocketFactory) CreateFace(req CreateFaceRequest, onCreated func(*Face), onFailed func(code int, reason string)) {
	scheme := req.RemoteURI.Scheme()
	if scheme != "ws" && scheme != "wsclient" {
		onFailed(406, "unsupported scheme for websocket factory")
		return
	}
	if f.ch == nil {
		onFailed(406, "websocket channel is not configured")
		return
	}
	f.ch.Connect(req.RemoteURI, req.Persistency, onCreated, onFailed, 0)
}

func (f *WebSocketFactory) GetChannels() []Channel {
	if f.ch == nil {
		return nil
	}
	return []Channel{f.ch}
}

func (f *WebSocketFactory) ProvidedSchemes() []string {
	if f.ch == nil {
		return nil
	}
	return []string{"ws", "wsclient"}
}
