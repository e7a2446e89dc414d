package face

import (
	"fmt"

	"github.com/ndn-facesys/facesys/fw/core"
)

// UnixFactory is the ProtocolFactory for the unix scheme.
type UnixFactory struct {
	path string
	ch   *UnixChannel
}

func NewUnixFactory() *UnixFactory { return &UnixFactory{} }

func (f *UnixFactory) String() string { return "unix-factory" }
func (f *UnixFactory) ID() string     { return "unix" }

func (f *UnixFactory) ProcessConfig(section any, ctx ProcessConfigContext) error {
	cfg, _ := section.(*core.UnixConfig)
	if cfg == nil || cfg.Path == "" {
		return nil
	}
	if ctx.IsDryRun {
		return nil
	}

	if f.ch != nil && f.path == cfg.Path {
		return nil
	}
	if f.ch != nil {
		f.ch.Close()
	}

	ch, err := NewUnixChannel(cfg.Path)
	if err != nil {
		return err
	}
	if err := ch.Listen(nil, nil); err != nil {
		return err
	}
	f.ch = ch
	f.path = cfg.Path
	return nil
}

func (f *UnixFactory) CreateFace(req CreateFaceRequest, onCreated func(*Face), onFailed func(code int, reason string)) {
	onFailed(406, fmt.Sprintf("unix factory does not support outgoing connections to %s", req.RemoteURI))
}

func (f *UnixFactory) GetChannels() []Channel {
	if f.ch == nil {
		return nil
	}
	return []Channel{f.ch}
}

func (f *UnixFactory) ProvidedSchemes() []string {
	if f.ch == nil {
		return nil
	}
	return []string{"unix", "fd"}
}
