package face

import (
	"fmt"
	"time"

	"github.com/ndn-facesys/facesys/fw/core"
	defn "github.com/ndn-facesys/facesys/fw/defn"
)

// TCPFactory is the ProtocolFactory for the tcp4/tcp6 schemes.
type TCPFactory struct {
	port       uint16
	v4         *TCPChannel
	v6         *TCPChannel
	prohibited *prohibitedEndpointSet
}

// NewTCPFactory constructs an empty, unconfigured TCP factory.
func NewTCPFactory() *TCPFactory {
	return &TCPFactory{prohibited: newProhibitedEndpointSet()}
}

func (f *TCPFactory) String() string { return "tcp-factory" }
func (f *TCPFactory) ID() string     { return "tcp" }

func (f *TCPFactory) ProcessConfig(section any, ctx ProcessConfigContext) error {
	cfg, _ := section.(*core.TcpConfig)
	if cfg == nil {
		return nil
	}
	if !cfg.EnableV4 && !cfg.EnableV6 {
		return fmt.Errorf("tcp: enable_v4 and enable_v6 cannot both be false")
	}
	if ctx.IsDryRun {
		return nil
	}

	f.port = cfg.Port

	if cfg.EnableV4 && f.v4 == nil {
		ch, err := NewTCPChannel(defn.DecodeURIString(fmt.Sprintf("tcp4://0.0.0.0:%d", cfg.Port)))
		if err != nil {
			return err
		}
		if err := ch.Listen(nil, nil); err != nil {
			return err
		}
		f.v4 = ch
	} else if !cfg.EnableV4 && f.v4 != nil {
		f.v4.Close()
		f.v4 = nil
	}

	if cfg.EnableV6 && f.v6 == nil {
		ch, err := NewTCPChannel(defn.DecodeURIString(fmt.Sprintf("tcp6://[::]:%d", cfg.Port)))
		if err != nil {
			return err
		}
		if err := ch.Listen(nil, nil); err != nil {
			return err
		}
		f.v6 = ch
	} else if !cfg.EnableV6 && f.v6 != nil {
		f.v6.Close()
		f.v6 = nil
	}

	f.prohibited = newProhibitedEndpointSet()
	if f.v4 != nil {
		f.prohibited.addWildcard("0.0.0.0", cfg.Port)
	}
	if f.v6 != nil {
		f.prohibited.addWildcard("::", cfg.Port)
	}
	return nil
}

func (f *TCPFactory) CreateFace(req CreateFaceRequest, onCreated func(*Face), onFailed func(code int, reason string)) {
	scheme := req.RemoteURI.Scheme()
	if scheme != "tcp4" && scheme != "tcp6" {
		onFailed(406, "unsupported scheme for tcp factory")
		return
	}
	if f.prohibited != nil && f.prohibited.contains(req.RemoteURI.PathHost(), req.RemoteURI.Port()) {
		onFailed(406, "endpoint is prohibited")
		return
	}

	ch := f.v4
	if scheme == "tcp6" {
		ch = f.v6
	}
	if ch == nil {
		onFailed(406, "channel for requested scheme is not enabled")
		return
	}

	timeout := defaultTCPConnectTimeout
	if req.Timeout > 0 {
		timeout = time.Duration(req.Timeout) * time.Second
	}
	ch.Connect(req.RemoteURI, req.Persistency, onCreated, onFailed, timeout)
}

func (f *TCPFactory) GetChannels() []Channel {
	var out []Channel
	if f.v4 != nil {
		out = append(out, f.v4)
	}
	if f.v6 != nil {
		out = append(out, f.v6)
	}
	return out
}

func (f *TCPFactory) ProvidedSchemes() []string {
	var out []string
	if f.v4 != nil {
		out = append(out, "tcp4")
	}
	if f.v6 != nil {
		out = append(out, "tcp6")
	}
	return out
}
