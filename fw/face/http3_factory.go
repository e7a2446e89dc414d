//go:build !tinygo

package face

import (
	"github.com/ndn-facesys/facesys/fw/core"
)

// HTTP3Factory is the ProtocolFactory for the http3 scheme (supplemental,
// spec's Non-goals never exclude an additional transport scheme — see
// SPEC_FULL.md's domain-stack table).
type HTTP3Factory struct {
	ch *HTTP3Channel
}

func NewHTTP3Factory() *HTTP3Factory { return &HTTP3Factory{} }

func (f *HTTP3Factory) String() string { return "http3-factory" }
func (f *HTTP3Factory) ID() string     { return "http3" }

func (f *HTTP3Factory) ProcessConfig(section any, ctx ProcessConfigContext) error {
	cfg, _ := section.(*core.HTTP3Config)
	if cfg == nil || !cfg.Listen {
		return nil
	}
	if ctx.IsDryRun {
		return nil
	}

	ch, err := NewHTTP3Channel(HTTP3ListenerConfig{
		Bind:    "0.0.0.0",
		Port:    cfg.Port,
		TLSCert: cfg.TLSCert,
		TLSKey:  cfg.TLSKey,
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

func (f *HTTP3Factory) CreateFace(req CreateFaceRequest, onCreated func(*Face), onFailed func(code int, reason string)) {
	onFailed(406, "http3 factory does not support outgoing connections")
}

func (f *HTTP3Factory) GetChannels() []Channel {
	if f.ch == nil {
		return nil
	}
	return []Channel{f.ch}
}

func (f *HTTP3Factory) ProvidedSchemes() []string {
	if f.ch == nil {
		return nil
	}
	return []string{"http3"}
}
